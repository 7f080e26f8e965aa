package hold

import (
	"math"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/clock"
)

// Forever is the expiry epoch of an indefinite hold.
const Forever int64 = math.MaxInt64

// MaxDays is the longest timed hold.
const MaxDays = math.MaxInt8

// State is the hold state.
type State uint8

const (
	// StateInactive means cycles fire normally.
	StateInactive State = iota

	// StateSuspended means cycles are held until the expiry epoch.
	StateSuspended

	// StateOff means cycles are held indefinitely.
	StateOff
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateSuspended:
		return "SUSPENDED"
	case StateOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// Policy is the persisted hold setting.
type Policy struct {
	// Days is the requested hold length; negative means indefinite.
	Days int8 `json:"holdDays"`

	// Epoch is the Unix second at which the hold ends, 0 when inactive.
	Epoch int64 `json:"holdEpoch"`

	onStateChange func(oldState, newState State)
}

// OnStateChange registers a callback for hold transitions, including expiry.
func (p *Policy) OnStateChange(fn func(oldState, newState State)) {
	p.onStateChange = fn
}

// State derives the hold state from Days.
func (p *Policy) State() State {
	switch {
	case p.Days < 0:
		return StateOff
	case p.Days > 0:
		return StateSuspended
	default:
		return StateInactive
	}
}

// Set applies a hold of days counted from the local midnight of now.
// Days above MaxDays are clamped.
func (p *Policy) Set(days int, now time.Time) {
	switch {
	case days > 0:
		if days > MaxDays {
			days = MaxDays
		}
		p.transition(int8(days), clock.Midnight(now)+int64(days)*clock.SecondsPerDay)
	case days < 0:
		p.transition(-1, Forever)
	default:
		p.Clear()
	}
}

// Clear removes any hold.
func (p *Policy) Clear() {
	p.transition(0, 0)
}

// Expire clears a timed hold whose expiry epoch lies before now and reports
// whether it did so.
func (p *Policy) Expire(now time.Time) bool {
	if p.Epoch != 0 && p.Epoch != Forever && now.Unix() > p.Epoch {
		p.Clear()
		return true
	}
	return false
}

// Active reports whether automatic cycles are currently suspended.
func (p *Policy) Active() bool {
	return p.Days != 0 || p.Epoch != 0
}

// Resume describes when automatic cycles resume, for status output.
func (p *Policy) Resume(loc *time.Location) string {
	switch p.State() {
	case StateSuspended:
		return clock.FormatEpoch(p.Epoch, loc)
	case StateOff:
		return "system off"
	default:
		return "system on"
	}
}

func (p *Policy) transition(days int8, epoch int64) {
	old := p.State()
	p.Days = days
	p.Epoch = epoch
	if newState := p.State(); newState != old && p.onStateChange != nil {
		p.onStateChange(old, newState)
	}
}
