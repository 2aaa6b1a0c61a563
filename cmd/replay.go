package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"firestige.xyz/netcore/internal/config"
	"firestige.xyz/netcore/internal/core"
	"firestige.xyz/netcore/internal/dispatch"
	"firestige.xyz/netcore/internal/ipview"
	"firestige.xyz/netcore/internal/log"
	"firestige.xyz/netcore/internal/metrics"
	"firestige.xyz/netcore/internal/reassembly"
	"firestige.xyz/netcore/internal/timer"
)

var replayFile string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an offline pcap file through the reassembly and PMTU caches",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "pcap file to replay (required)")
	replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	logger := log.GetLogger()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(cmd.Context()); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer srv.Stop(context.Background())
	}

	f, err := os.Open(replayFile)
	if err != nil {
		return fmt.Errorf("open pcap file: %w", err)
	}
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("read pcap header: %w", err)
	}

	var d *dispatch.Dispatcher
	sched := timer.NewWheelScheduler(func(id core.TimerID) { dispatchTimerFired(d, id) })
	d = dispatch.New(&core.SystemClock{}, sched)

	var ready, needMore, invalid, notNeeded int

	for {
		data, ci, err := reader.ReadPacketData()
		if err != nil {
			break
		}

		rp := core.RawPacket{
			Data:           data,
			Timestamp:      ci.Timestamp,
			CaptureLen:     uint32(ci.CaptureLength),
			OrigLen:        uint32(ci.Length),
			InterfaceIndex: ci.InterfaceIndex,
		}

		netPayload := extractNetworkLayer(reader.LinkType(), rp.Data)
		if netPayload == nil {
			continue
		}

		view, err := ipview.Parse(netPayload)
		if err != nil {
			logger.WithError(err).Debug("skipping unparseable packet")
			continue
		}

		outcome, err := d.ProcessFragment(view)
		switch outcome.Kind {
		case reassembly.NotNeeded:
			notNeeded++
		case reassembly.InvalidFragment:
			invalid++
			logger.WithError(err).Warn("rejected invalid fragment")
		case reassembly.NeedMoreFragments:
			needMore++
		case reassembly.Ready:
			ready++
			buf := make([]byte, outcome.Len)
			if _, err := d.ReassemblePacket(outcome.Key, buf); err != nil {
				logger.WithError(err).Warn("reassembly failed after Ready outcome")
			}
		}
	}

	logger.WithFields(map[string]interface{}{
		"ready":         ready,
		"need_more":     needMore,
		"invalid":       invalid,
		"not_fragmented": notNeeded,
	}).Info("replay complete")

	return nil
}

// dispatchTimerFired routes a fired timer back into the dispatcher based on
// its kind, matching core.TimerKind's two variants.
func dispatchTimerFired(d *dispatch.Dispatcher, id core.TimerID) {
	switch id.Kind {
	case core.TimerKindReassembly:
		d.HandleReassemblyTimer(core.FragmentKey{Src: id.Src, Dst: id.Dst, Identification: id.Identification})
	case core.TimerKindMaintenance:
		d.HandleMaintenanceTimer(id)
	}
}

// extractNetworkLayer strips the link-layer header so the result starts at
// the IPv4/IPv6 header, per the given pcap link type.
func extractNetworkLayer(linkType layers.LinkType, data []byte) []byte {
	packet := gopacket.NewPacket(data, linkType, gopacket.NoCopy)
	if layer := packet.Layer(layers.LayerTypeIPv4); layer != nil {
		return append(layer.LayerContents(), layer.LayerPayload()...)
	}
	if layer := packet.Layer(layers.LayerTypeIPv6); layer != nil {
		return append(layer.LayerContents(), layer.LayerPayload()...)
	}
	return nil
}
