// Package schedule implements the live watering queue and the state machine
// that drives zone outputs from it.
//
// An Item pairs a zone mask with a run time in whole minutes. The Scheduler
// consumes Items in FIFO order, one at a time:
//
//	STOPPED -> RUNNING -> BETWEEN -> STOPPED -> RUNNING ...
//	              |  ^
//	              v  |
//	             PAUSED
//
// The Scheduler has no goroutines or timers of its own. It advances only
// when Tick is called, so the owner decides the tick rate and the clock.
// Zone actuation is delegated to a Switch.
package schedule
