package schedule

import (
	"errors"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// DefaultInterZoneDelay is the pause between consecutive items.
const DefaultInterZoneDelay = 5 * time.Second

// Scheduler errors.
var (
	ErrInvalidTransition = errors.New("invalid scheduler transition")
)

// State is the scheduler state.
type State uint8

const (
	// StateStopped means no item is running. A non-empty queue starts on the next tick.
	StateStopped State = iota

	// StateRunning means the head item's zones are on.
	StateRunning

	// StateBetween is the inter-zone delay after an item finished.
	StateBetween

	// StatePaused means the head item is suspended with its zones off.
	StatePaused
)

// String returns the state name as reported in status.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateBetween:
		return "between"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Switch actuates zones on behalf of the scheduler.
type Switch interface {
	// TurnOn energizes the zones in mask, leaving others unchanged.
	TurnOn(mask zone.Mask)

	// TurnOff de-energizes the zones in mask, leaving others unchanged.
	TurnOff(mask zone.Mask)

	// TurnAllOff de-energizes every zone. notify is false when the change
	// is an internal step that must not surface as a status change.
	TurnAllOff(notify bool)
}

// Scheduler consumes the item queue and drives a Switch.
// It is not safe for concurrent use; its owner serializes all calls.
type Scheduler struct {
	sw    Switch
	delay time.Duration

	state    State
	queue    []Item
	end      time.Time
	pausedAt time.Time

	onStateChange func(oldState, newState State)
	onIdle        func()
}

// NewScheduler creates a stopped scheduler driving sw.
// A zero delay selects DefaultInterZoneDelay.
func NewScheduler(sw Switch, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultInterZoneDelay
	}
	return &Scheduler{
		sw:    sw,
		delay: delay,
		state: StateStopped,
	}
}

// OnStateChange registers a callback for state transitions.
func (s *Scheduler) OnStateChange(fn func(oldState, newState State)) {
	s.onStateChange = fn
}

// OnIdle registers a callback invoked when the last queued item finishes.
func (s *Scheduler) OnIdle(fn func()) {
	s.onIdle = fn
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// InterZoneDelay returns the delay between items.
func (s *Scheduler) InterZoneDelay() time.Duration {
	return s.delay
}

// SetInterZoneDelay changes the delay used for subsequent items.
func (s *Scheduler) SetInterZoneDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultInterZoneDelay
	}
	s.delay = d
}

// Len returns the number of queued items, including the running one.
func (s *Scheduler) Len() int {
	return len(s.queue)
}

// Queue returns a copy of the queued items, head first.
func (s *Scheduler) Queue() []Item {
	out := make([]Item, len(s.queue))
	copy(out, s.queue)
	return out
}

// End returns the deadline of the current running or between phase.
func (s *Scheduler) End() time.Time {
	return s.end
}

// Remaining returns the whole minutes left on the head item, rounded up.
// While paused the value is frozen at the moment of pausing. An empty
// queue reports zero.
func (s *Scheduler) Remaining(now time.Time) int {
	if len(s.queue) == 0 {
		return 0
	}
	ref := now
	if s.state == StatePaused {
		ref = s.pausedAt
	}
	left := s.end.Sub(ref)
	if left < 0 {
		left = 0
	}
	return int(left/time.Minute) + 1
}

// Enqueue appends items to the tail. The state machine reacts on the next tick.
func (s *Scheduler) Enqueue(items ...Item) {
	s.queue = append(s.queue, items...)
}

// Replace discards the queue, stops and enqueues items. With items the
// next tick switches to the new head; without any every zone is turned
// off at once, as nothing would ever close them.
func (s *Scheduler) Replace(items ...Item) {
	s.queue = append(s.queue[:0:0], items...)
	s.setState(StateStopped)
	if len(s.queue) == 0 {
		s.sw.TurnAllOff(true)
	}
}

// Tick advances the state machine to now.
func (s *Scheduler) Tick(now time.Time) {
	switch s.state {
	case StateStopped:
		if len(s.queue) == 0 {
			return
		}
		head := s.queue[0]
		s.sw.TurnAllOff(false)
		s.end = now.Add(head.Duration())
		s.setState(StateRunning)
		s.sw.TurnOn(head.Zones)

	case StateRunning:
		if !now.After(s.end) {
			return
		}
		done := s.queue[0].Zones
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			s.setState(StateStopped)
			if s.onIdle != nil {
				s.onIdle()
			}
		} else {
			s.end = now.Add(s.delay)
			s.setState(StateBetween)
		}
		s.sw.TurnOff(done)

	case StateBetween:
		if now.After(s.end) {
			s.setState(StateStopped)
		}
	}
}

// Pause suspends the running item and turns its zones off.
func (s *Scheduler) Pause(now time.Time) error {
	if s.state != StateRunning {
		return ErrInvalidTransition
	}
	s.pausedAt = now
	s.setState(StatePaused)
	s.sw.TurnOff(s.queue[0].Zones)
	return nil
}

// Resume continues a paused item. The deadline moves forward by the time
// spent paused so the remaining run time is unchanged.
func (s *Scheduler) Resume(now time.Time) error {
	if s.state != StatePaused {
		return ErrInvalidTransition
	}
	s.end = s.end.Add(now.Sub(s.pausedAt))
	s.setState(StateRunning)
	s.sw.TurnOn(s.queue[0].Zones)
	return nil
}

// Skip ends the running item or the inter-zone delay at the next tick.
func (s *Scheduler) Skip(now time.Time) error {
	if s.state != StateRunning && s.state != StateBetween {
		return ErrInvalidTransition
	}
	s.end = now
	return nil
}

// Cancel empties the queue, stops and turns every zone off.
// It is valid in any state.
func (s *Scheduler) Cancel() {
	s.queue = nil
	s.setState(StateStopped)
	s.sw.TurnAllOff(true)
}

func (s *Scheduler) setState(newState State) {
	old := s.state
	s.state = newState
	if old != newState && s.onStateChange != nil {
		s.onStateChange(old, newState)
	}
}
