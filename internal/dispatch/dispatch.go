// Package dispatch implements the Version Dispatcher: a thin, stateless
// shim that routes each public operation to the IPv4 or IPv6 instance of
// the reassembly and PMTU caches based on the address family involved.
package dispatch

import (
	"net/netip"
	"strconv"

	"firestige.xyz/netcore/internal/core"
	"firestige.xyz/netcore/internal/ipview"
	"firestige.xyz/netcore/internal/metrics"
	"firestige.xyz/netcore/internal/pmtu"
	"firestige.xyz/netcore/internal/reassembly"
)

var outcomeNames = map[reassembly.OutcomeKind]string{
	reassembly.NotNeeded:        "not_needed",
	reassembly.InvalidFragment:  "invalid_fragment",
	reassembly.NeedMoreFragments: "need_more_fragments",
	reassembly.Ready:            "ready",
}

// Dispatcher owns one sibling instance of each cache per address family and
// routes to the correct one. It carries no state of its own beyond those
// four cache instances.
type Dispatcher struct {
	reassemblyV4 *reassembly.Cache[core.V4]
	reassemblyV6 *reassembly.Cache[core.V6]
	pmtuV4       *pmtu.Cache[core.V4]
	pmtuV6       *pmtu.Cache[core.V6]
}

// New builds a Dispatcher whose four caches all share clock and sched. The
// two address families maintain fully independent state even though they
// share the same host-provided Clock/Scheduler.
func New(clock core.Clock, sched core.Scheduler) *Dispatcher {
	return &Dispatcher{
		reassemblyV4: reassembly.New(core.V4{}, clock, sched),
		reassemblyV6: reassembly.New(core.V6{}, clock, sched),
		pmtuV4:       pmtu.New(core.V4{}, clock, sched),
		pmtuV6:       pmtu.New(core.V6{}, clock, sched),
	}
}

// ProcessFragment routes to the v4 or v6 reassembly cache based on v.Version().
func (d *Dispatcher) ProcessFragment(v *ipview.View) (reassembly.Outcome, error) {
	version := strconv.Itoa(int(v.Version()))

	var outcome reassembly.Outcome
	var err error
	if v.Version() == 6 {
		outcome, err = d.reassemblyV6.ProcessFragment(v)
	} else {
		outcome, err = d.reassemblyV4.ProcessFragment(v)
	}

	metrics.ReassemblyOutcomesTotal.WithLabelValues(version, outcomeNames[outcome.Kind]).Inc()
	if outcome.Kind == reassembly.Ready {
		metrics.ReassembledBytesTotal.WithLabelValues(version).Add(float64(outcome.Len))
	}
	v4n, v6n := d.ReassemblyLen()
	metrics.ReassemblyActiveEntries.WithLabelValues("4").Set(float64(v4n))
	metrics.ReassemblyActiveEntries.WithLabelValues("6").Set(float64(v6n))
	return outcome, err
}

// ReassemblePacket routes on the key's address family.
func (d *Dispatcher) ReassemblePacket(key core.FragmentKey, buf []byte) (*ipview.View, error) {
	if key.Src.Is6() && !key.Src.Is4In6() {
		return d.reassemblyV6.ReassemblePacket(key, buf)
	}
	return d.reassemblyV4.ReassemblePacket(key, buf)
}

// HandleReassemblyTimer routes on the key's address family.
func (d *Dispatcher) HandleReassemblyTimer(key core.FragmentKey) {
	if key.Src.Is6() && !key.Src.Is4In6() {
		d.reassemblyV6.HandleReassemblyTimer(key)
		metrics.ReassemblyTimeoutsTotal.WithLabelValues("6").Inc()
		return
	}
	d.reassemblyV4.HandleReassemblyTimer(key)
	metrics.ReassemblyTimeoutsTotal.WithLabelValues("4").Inc()
}

// GetPMTU routes on src's address family.
func (d *Dispatcher) GetPMTU(src, dst netip.Addr) (uint32, bool) {
	if isV6(src) {
		return d.pmtuV6.GetPMTU(src, dst)
	}
	return d.pmtuV4.GetPMTU(src, dst)
}

// UpdatePMTU routes on src's address family.
func (d *Dispatcher) UpdatePMTU(src, dst netip.Addr, newMTU uint32) (uint32, bool, error) {
	var prior uint32
	var hadPrior bool
	var err error
	version := "4"
	if isV6(src) {
		version = "6"
		prior, hadPrior, err = d.pmtuV6.UpdatePMTU(src, dst, newMTU)
	} else {
		prior, hadPrior, err = d.pmtuV4.UpdatePMTU(src, dst, newMTU)
	}
	d.recordPMTUUpdate(version, err)
	return prior, hadPrior, err
}

// UpdatePMTUIfLess routes on src's address family.
func (d *Dispatcher) UpdatePMTUIfLess(src, dst netip.Addr, newMTU uint32) (uint32, bool, error) {
	var prior uint32
	var hadPrior bool
	var err error
	version := "4"
	if isV6(src) {
		version = "6"
		prior, hadPrior, err = d.pmtuV6.UpdatePMTUIfLess(src, dst, newMTU)
	} else {
		prior, hadPrior, err = d.pmtuV4.UpdatePMTUIfLess(src, dst, newMTU)
	}
	d.recordPMTUUpdate(version, err)
	return prior, hadPrior, err
}

// UpdatePMTUNextLower routes on src's address family.
func (d *Dispatcher) UpdatePMTUNextLower(src, dst netip.Addr, from uint32) (uint32, bool, uint32, error) {
	var prior, chosen uint32
	var hadPrior bool
	var err error
	version := "4"
	if isV6(src) {
		version = "6"
		prior, hadPrior, chosen, err = d.pmtuV6.UpdatePMTUNextLower(src, dst, from)
	} else {
		prior, hadPrior, chosen, err = d.pmtuV4.UpdatePMTUNextLower(src, dst, from)
	}
	d.recordPMTUUpdate(version, err)
	return prior, hadPrior, chosen, err
}

func (d *Dispatcher) recordPMTUUpdate(version string, err error) {
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	metrics.PMTUUpdatesTotal.WithLabelValues(version, result).Inc()
	v4n, v6n := d.PMTULen()
	metrics.PMTUCacheSize.WithLabelValues("4").Set(float64(v4n))
	metrics.PMTUCacheSize.WithLabelValues("6").Set(float64(v6n))
}

// HandleMaintenanceTimer fires the maintenance sweep for the family
// indicated by id.
func (d *Dispatcher) HandleMaintenanceTimer(id core.TimerID) {
	version := "4"
	evicted := 0
	if id.Version == 6 {
		version = "6"
		evicted = d.pmtuV6.HandleMaintenanceTimer()
	} else {
		evicted = d.pmtuV4.HandleMaintenanceTimer()
	}
	if evicted > 0 {
		metrics.PMTUEvictionsTotal.WithLabelValues(version).Add(float64(evicted))
	}
	v4n, v6n := d.PMTULen()
	metrics.PMTUCacheSize.WithLabelValues("4").Set(float64(v4n))
	metrics.PMTUCacheSize.WithLabelValues("6").Set(float64(v6n))
}

// ReassemblyLen and PMTULen expose per-family sizes for metrics.
func (d *Dispatcher) ReassemblyLen() (v4, v6 int) { return d.reassemblyV4.Len(), d.reassemblyV6.Len() }
func (d *Dispatcher) PMTULen() (v4, v6 int)       { return d.pmtuV4.Len(), d.pmtuV6.Len() }

func isV6(a netip.Addr) bool { return a.Is6() && !a.Is4In6() }
