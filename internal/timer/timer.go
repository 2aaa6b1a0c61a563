// Package timer provides a real, wall-clock Scheduler implementation for
// the core's Timer scheduler external collaborator, built on time.AfterFunc.
package timer

import (
	"sync"
	"time"

	"firestige.xyz/netcore/internal/core"
)

// Callback is invoked, serially with respect to other deliveries from the
// same WheelScheduler, when a scheduled TimerID fires.
type Callback func(core.TimerID)

// WheelScheduler is a core.Scheduler backed by one time.Timer per pending
// TimerID, guarded by a single mutex so deliveries are serialized onto the
// registered Callback even though each underlying timer fires on its own
// goroutine. Modeled on the per-call time.AfterFunc pattern used for
// reassembly timeouts, generalized to also cover the PMTU maintenance timer.
type WheelScheduler struct {
	mu       sync.Mutex
	pending  map[core.TimerID]*pendingTimer
	deliver  Callback
	deliverQ sync.Mutex // serializes Callback invocations
}

type pendingTimer struct {
	deadline time.Time
	t        *time.Timer
}

// NewWheelScheduler builds a scheduler that invokes deliver when a timer fires.
func NewWheelScheduler(deliver Callback) *WheelScheduler {
	return &WheelScheduler{
		pending: make(map[core.TimerID]*pendingTimer),
		deliver: deliver,
	}
}

// Schedule implements core.Scheduler.
func (s *WheelScheduler) Schedule(delay time.Duration, id core.TimerID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.pending[id]
	if had {
		prior.t.Stop()
	}
	t := time.AfterFunc(delay, func() { s.fire(id) })
	s.pending[id] = &pendingTimer{deadline: time.Now().Add(delay), t: t}

	if had {
		return prior.deadline, true
	}
	return time.Time{}, false
}

// Cancel implements core.Scheduler.
func (s *WheelScheduler) Cancel(id core.TimerID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.pending[id]
	if !had {
		return time.Time{}, false
	}
	prior.t.Stop()
	delete(s.pending, id)
	return prior.deadline, true
}

func (s *WheelScheduler) fire(id core.TimerID) {
	s.mu.Lock()
	_, stillPending := s.pending[id]
	if stillPending {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !stillPending {
		// Raced with a Cancel; drop the delivery.
		return
	}

	s.deliverQ.Lock()
	defer s.deliverQ.Unlock()
	s.deliver(id)
}

// Stop cancels every pending timer. Intended for orderly shutdown of a
// host process; the core itself never calls this.
func (s *WheelScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		p.t.Stop()
		delete(s.pending, id)
	}
}
