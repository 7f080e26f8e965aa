package projection

import (
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/clock"
	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/hold"
)

// Never is the start epoch reported when no cycle is eligible.
const Never = clock.Never

// Result is the next scheduled cycle start.
type Result struct {
	// Cycle is the name of the cycle to fire, empty when none.
	Cycle string

	// StartEpoch is the Unix second of the start, Never when none.
	StartEpoch int64
}

// None is the empty projection.
var None = Result{StartEpoch: Never}

// Scheduled reports whether a start was found.
func (r Result) Scheduled() bool {
	return r.Cycle != "" && r.StartEpoch != Never
}

// Due reports whether now lies strictly after the start.
func (r Result) Due(now time.Time) bool {
	return r.Scheduled() && now.Unix() > r.StartEpoch
}

// Project returns the soonest start after now among cycles.
// A timed hold that has already expired is cleared on p as a side effect.
// Ties go to the earlier cycle in the slice.
func Project(cycles []cycle.Definition, p *hold.Policy, now time.Time) Result {
	if p != nil {
		if p.Days < 0 {
			return None
		}
		p.Expire(now)
	}

	nowEpoch := now.Unix()
	if p != nil && p.Days > 0 && p.Epoch > nowEpoch {
		nowEpoch = p.Epoch
	}
	ref := time.Unix(nowEpoch, 0).In(now.Location())
	midnight := clock.Midnight(ref)
	dow := ref.Weekday()

	best := None
	for i := range cycles {
		c := &cycles[i]
		if c.Type != cycle.TypeSpecificDays || c.Days&cycle.EveryDay == 0 {
			continue
		}
		start := nextStart(c, midnight, nowEpoch, dow)
		if start < best.StartEpoch {
			best = Result{Cycle: c.Name, StartEpoch: start}
		}
	}
	return best
}

// nextStart finds the first start of c strictly after nowEpoch.
func nextStart(c *cycle.Definition, midnight, nowEpoch int64, dow time.Weekday) int64 {
	offset := int64(c.StartHour)*3600 + int64(c.StartMinute)*60
	day := 0
	for {
		day = NextRunDayOffset(c.Days, dow, day)
		start := midnight + int64(day)*clock.SecondsPerDay + offset
		if start > nowEpoch {
			return start
		}
		day++
	}
}

// NextRunDayOffset returns the smallest offset >= from such that weekday
// (dow + offset) mod 7 is in days. days must not be empty.
func NextRunDayOffset(days cycle.Weekdays, dow time.Weekday, from int) int {
	for off := from; ; off++ {
		if days.Has(time.Weekday((int(dow) + off) % 7)) {
			return off
		}
	}
}
