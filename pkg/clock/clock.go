package clock

import (
	"math"
	"sync"
	"time"
)

// Never is the epoch used when no start time exists.
const Never int64 = math.MaxInt64

// SecondsPerDay is the length of a calendar day in epoch arithmetic.
const SecondsPerDay = 24 * 60 * 60

// DateTimeLayout renders epochs as in "Mon Aug 29 18:35 2022".
const DateTimeLayout = "Mon Jan 02 15:04 2006"

// Clock reads the current time.
type Clock interface {
	Now() time.Time
}

// System reads the host clock in a fixed location.
type System struct {
	Location *time.Location
}

// Now returns the host time in s.Location, or local time when unset.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Monotonic clamps readings from Source so time never moves backwards.
// A reading earlier than the previous one is replaced by the previous
// reading plus Step and reported to OnAnomaly.
type Monotonic struct {
	Source    Clock
	Step      time.Duration
	OnAnomaly func(observed, clamped time.Time)

	mu   sync.Mutex
	last time.Time
}

// NewMonotonic wraps source with a 1ms clamp step.
func NewMonotonic(source Clock, onAnomaly func(observed, clamped time.Time)) *Monotonic {
	return &Monotonic{Source: source, Step: time.Millisecond, OnAnomaly: onAnomaly}
}

// Now returns the clamped reading.
func (m *Monotonic) Now() time.Time {
	now := m.Source.Now()

	m.mu.Lock()
	if !m.last.IsZero() && now.Before(m.last) {
		observed := now
		now = m.last.Add(m.Step)
		m.last = now
		fn := m.OnAnomaly
		m.mu.Unlock()
		if fn != nil {
			fn(observed, now)
		}
		return now
	}
	m.last = now
	m.mu.Unlock()
	return now
}

// Midnight returns the epoch of local midnight for t, computed by removing
// the local hour, minute and second from t's epoch.
func Midnight(t time.Time) int64 {
	return t.Unix() - int64(t.Hour())*3600 - int64(t.Minute())*60 - int64(t.Second())
}

// FormatEpoch renders epoch in loc using DateTimeLayout.
// Never renders as "none".
func FormatEpoch(epoch int64, loc *time.Location) string {
	if epoch == Never {
		return "none"
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(epoch, 0).In(loc).Format(DateTimeLayout)
}
