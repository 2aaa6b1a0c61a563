// Package pmtu implements the Path MTU cache: per-(source,destination)
// discovered MTU estimates with monotone-decrease updates, a minimum-MTU
// floor, and staleness-driven eviction on a singleton-per-version
// maintenance timer.
package pmtu

import (
	"net/netip"
	"time"

	"firestige.xyz/netcore/internal/core"
)

// MaintenancePeriod is the fixed cadence of the per-version sweep.
const MaintenancePeriod = 1 * time.Hour

// StaleTimeout is how long an entry may go unrefreshed before eviction.
const StaleTimeout = 3 * time.Hour

type pathEntry struct {
	pmtu        uint32
	lastUpdated time.Time
}

// Cache is the PMTU cache for a single address family F.
type Cache[F core.Family] struct {
	fam     F
	clock   core.Clock
	sched   core.Scheduler
	entries map[core.PathKey]*pathEntry
}

// New builds an empty Cache for family fam, driven by clock and sched.
func New[F core.Family](fam F, clock core.Clock, sched core.Scheduler) *Cache[F] {
	return &Cache[F]{
		fam:     fam,
		clock:   clock,
		sched:   sched,
		entries: make(map[core.PathKey]*pathEntry),
	}
}

// GetPMTU is get_pmtu: the cached estimate for (src, dst), or absent.
func (c *Cache[F]) GetPMTU(src, dst netip.Addr) (uint32, bool) {
	e, ok := c.entries[core.PathKey{Src: src, Dst: dst}]
	if !ok {
		return 0, false
	}
	return e.pmtu, true
}

// UpdatePMTU is update_pmtu: sets the PMTU unconditionally, subject to the
// minimum-MTU floor. prior/hadPrior describe the entry before this call; err
// is core.ErrBelowMinMTU when newMTU is rejected, in which case the entry is
// left unmodified.
func (c *Cache[F]) UpdatePMTU(src, dst netip.Addr, newMTU uint32) (prior uint32, hadPrior bool, err error) {
	key := core.PathKey{Src: src, Dst: dst}
	e, existed := c.entries[key]
	if existed {
		prior, hadPrior = e.pmtu, true
	}

	if newMTU < c.fam.MinMTU() {
		return prior, hadPrior, core.ErrBelowMinMTU
	}

	if !existed {
		e = &pathEntry{}
		c.entries[key] = e
		if len(c.entries) == 1 {
			// Transition from empty to non-empty: (re)arm the singleton timer.
			if _, had := c.sched.Schedule(MaintenancePeriod, core.MaintenanceTimerID(c.fam)); had {
				panic("netcore: pmtu maintenance timer already scheduled on empty->non-empty transition")
			}
		}
	}

	e.pmtu = newMTU
	e.lastUpdated = c.clock.Now()
	return prior, hadPrior, nil
}

// UpdatePMTUIfLess is update_pmtu_if_less: only calls UpdatePMTU when no
// prior exists or newMTU is strictly less than the prior value; otherwise
// returns the unchanged prior.
func (c *Cache[F]) UpdatePMTUIfLess(src, dst netip.Addr, newMTU uint32) (prior uint32, hadPrior bool, err error) {
	key := core.PathKey{Src: src, Dst: dst}
	if e, existed := c.entries[key]; existed && newMTU >= e.pmtu {
		return e.pmtu, true, nil
	}
	return c.UpdatePMTU(src, dst, newMTU)
}

// UpdatePMTUNextLower is update_pmtu_next_lower: descends to the greatest
// plateau strictly below from. err is core.ErrNoLowerPlateau when no such
// plateau exists (prior/hadPrior then describe the current, unchanged
// entry); otherwise chosen is the plateau applied via UpdatePMTUIfLess, and
// err may still carry core.ErrBelowMinMTU if that plateau itself undercuts
// this family's floor.
func (c *Cache[F]) UpdatePMTUNextLower(src, dst netip.Addr, from uint32) (prior uint32, hadPrior bool, chosen uint32, err error) {
	plateau, found := nextLowerPlateau(from)
	if !found {
		prior, hadPrior = c.GetPMTU(src, dst)
		return prior, hadPrior, 0, core.ErrNoLowerPlateau
	}
	prior, hadPrior, err = c.UpdatePMTUIfLess(src, dst, plateau)
	return prior, hadPrior, plateau, err
}

// HandleMaintenanceTimer is handle_maintenance_timer: evicts every entry
// unrefreshed for at least StaleTimeout, then reschedules the singleton
// timer iff the cache remains non-empty. Returns the number of entries evicted.
func (c *Cache[F]) HandleMaintenanceTimer() int {
	now := c.clock.Now()
	evicted := 0
	for key, e := range c.entries {
		age := now.Sub(e.lastUpdated)
		if age < 0 {
			panic("netcore: pmtu entry last updated after the maintenance sweep's clock reading")
		}
		if age >= StaleTimeout {
			delete(c.entries, key)
			evicted++
		}
	}

	if len(c.entries) > 0 {
		if _, had := c.sched.Schedule(MaintenancePeriod, core.MaintenanceTimerID(c.fam)); had {
			panic("netcore: pmtu maintenance timer already scheduled during reschedule")
		}
	}
	return evicted
}

// Len reports the number of cached paths, for metrics.
func (c *Cache[F]) Len() int { return len(c.entries) }
