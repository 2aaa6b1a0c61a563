// Package metrics implements Prometheus metrics for the reassembly and
// PMTU caches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReassemblyActiveEntries tracks in-flight reassemblies per address family.
	ReassemblyActiveEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netcore_reassembly_active_entries",
			Help: "Number of fragment keys currently awaiting reassembly",
		},
		[]string{"version"},
	)

	// ReassemblyOutcomesTotal counts process_fragment outcomes by kind.
	ReassemblyOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_reassembly_outcomes_total",
			Help: "Total fragment processing outcomes by kind",
		},
		[]string{"version", "outcome"},
	)

	// ReassemblyTimeoutsTotal counts entries evicted by the reassembly timer.
	ReassemblyTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_reassembly_timeouts_total",
			Help: "Total reassembly entries evicted due to timeout",
		},
		[]string{"version"},
	)

	// ReassembledBytesTotal sums the advertised byte length of datagrams whose
	// fragments have all arrived (Ready outcomes); it is counted before
	// reassemble_packet runs, so a later reassembly failure is still included.
	ReassembledBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_reassembled_bytes_total",
			Help: "Total bytes of datagrams whose fragments all arrived (Ready outcomes)",
		},
		[]string{"version"},
	)

	// PMTUCacheSize tracks the current number of cached paths per address family.
	PMTUCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netcore_pmtu_cache_size",
			Help: "Number of (source, destination) paths currently cached",
		},
		[]string{"version"},
	)

	// PMTUUpdatesTotal counts accepted/rejected PMTU updates.
	PMTUUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_pmtu_updates_total",
			Help: "Total PMTU cache update attempts by outcome",
		},
		[]string{"version", "result"},
	)

	// PMTUEvictionsTotal counts stale-path evictions during maintenance sweeps.
	PMTUEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_pmtu_evictions_total",
			Help: "Total paths evicted by the maintenance timer for staleness",
		},
		[]string{"version"},
	)
)
