package core

import "time"

// Scheduler is the Timer scheduler external collaborator: schedule/cancel
// keyed by an opaque, comparable TimerID, with serial callback delivery.
type Scheduler interface {
	// Schedule arranges for id to be delivered to the registered callback
	// after delay elapses. If id was already scheduled, its prior deadline
	// is returned and ok is true; the core asserts this never happens for
	// an ID it believes unscheduled.
	Schedule(delay time.Duration, id TimerID) (priorDeadline time.Time, ok bool)

	// Cancel removes a pending timer for id. If one was scheduled, its
	// deadline is returned and ok is true; the core requires ok to be true
	// for fragment timers it believes scheduled.
	Cancel(id TimerID) (priorDeadline time.Time, ok bool)
}
