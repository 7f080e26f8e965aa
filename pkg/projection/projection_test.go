package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/hold"
)

// 2026-06-06 is a Saturday.
var saturday = time.Date(2026, 6, 6, 23, 0, 0, 0, time.UTC)

func def(name string, days cycle.Weekdays, hour, minute uint8) cycle.Definition {
	return cycle.Definition{
		Name:        name,
		Type:        cycle.TypeSpecificDays,
		Days:        days,
		StartHour:   hour,
		StartMinute: minute,
		Count:       1,
	}
}

func TestProjectSaturdayToSunday(t *testing.T) {
	cycles := []cycle.Definition{def("A", cycle.DaysOf(time.Sunday), 6, 0)}

	got := Project(cycles, &hold.Policy{}, saturday)

	assert.Equal(t, "A", got.Cycle)
	assert.Equal(t, saturday.Add(7*time.Hour).Unix(), got.StartEpoch)
}

func TestProjectStrictlyFuture(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before today", time.Date(2026, 6, 8, 5, 59, 0, 0, time.UTC), time.Date(2026, 6, 8, 6, 0, 0, 0, time.UTC)},
		{"exactly at start", time.Date(2026, 6, 8, 6, 0, 0, 0, time.UTC), time.Date(2026, 6, 10, 6, 0, 0, 0, time.UTC)},
		{"after today", time.Date(2026, 6, 8, 7, 0, 0, 0, time.UTC), time.Date(2026, 6, 10, 6, 0, 0, 0, time.UTC)},
		{"wraps week", time.Date(2026, 6, 12, 7, 0, 0, 0, time.UTC), time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC)},
	}

	// Monday and Wednesday at 06:00.
	cycles := []cycle.Definition{def("MW", cycle.DaysOf(time.Monday, time.Wednesday), 6, 0)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(cycles, &hold.Policy{}, tt.now)
			if got.StartEpoch != tt.want.Unix() {
				t.Errorf("Project() start = %v, want %v", time.Unix(got.StartEpoch, 0).UTC(), tt.want)
			}
			if got.StartEpoch <= tt.now.Unix() {
				t.Errorf("Project() start %d not after now %d", got.StartEpoch, tt.now.Unix())
			}
		})
	}
}

func TestProjectEveryWeekdayStartNeverPast(t *testing.T) {
	cycles := []cycle.Definition{
		def("early", cycle.DaysOf(time.Tuesday), 0, 0),
		def("late", cycle.DaysOf(time.Friday, time.Sunday), 23, 59),
	}
	for h := 0; h < 24*8; h++ {
		now := saturday.Add(time.Duration(h)*time.Hour + 17*time.Minute)
		got := Project(cycles, &hold.Policy{}, now)
		if !got.Scheduled() || got.StartEpoch <= now.Unix() {
			t.Fatalf("Project(%v) = %+v, want future start", now, got)
		}
		if got.StartEpoch-now.Unix() > 7*86400 {
			t.Fatalf("Project(%v) start more than a week away", now)
		}
	}
}

func TestProjectEarliestWins(t *testing.T) {
	days := cycle.DaysOf(time.Sunday)
	cycles := []cycle.Definition{
		def("late", days, 8, 0),
		def("early", days, 6, 30),
	}

	got := Project(cycles, &hold.Policy{}, saturday)
	assert.Equal(t, "early", got.Cycle)
	assert.Equal(t, saturday.Add(7*time.Hour+30*time.Minute).Unix(), got.StartEpoch)
}

func TestProjectTieFirstFound(t *testing.T) {
	days := cycle.DaysOf(time.Sunday)
	cycles := []cycle.Definition{def("first", days, 6, 0), def("second", days, 6, 0)}

	assert.Equal(t, "first", Project(cycles, &hold.Policy{}, saturday).Cycle)
}

func TestProjectSkipsUnsupported(t *testing.T) {
	other := def("two", cycle.EveryDay, 6, 0)
	other.Type = cycle.TypeEvery2ndDay
	off := def("off", cycle.EveryDay, 6, 0)
	off.Type = cycle.TypeOff
	empty := def("empty", 0, 6, 0)

	got := Project([]cycle.Definition{other, off, empty}, &hold.Policy{}, saturday)
	assert.Equal(t, None, got)
	assert.False(t, got.Scheduled())
	assert.False(t, got.Due(saturday.AddDate(1, 0, 0)))

	assert.Equal(t, None, Project(nil, nil, saturday))
}

func TestProjectHold(t *testing.T) {
	cycles := []cycle.Definition{def("daily", cycle.EveryDay, 6, 0)}

	t.Run("Indefinite", func(t *testing.T) {
		p := &hold.Policy{}
		p.Set(-1, saturday)
		assert.Equal(t, None, Project(cycles, p, saturday))

		p.Set(0, saturday)
		got := Project(cycles, p, saturday)
		assert.Equal(t, saturday.Add(7*time.Hour).Unix(), got.StartEpoch)
	})

	t.Run("Timed", func(t *testing.T) {
		p := &hold.Policy{}
		p.Set(2, saturday)
		// Hold ends Monday 00:00, first start after that is Monday 06:00.
		got := Project(cycles, p, saturday)
		want := time.Date(2026, 6, 8, 6, 0, 0, 0, time.UTC)
		assert.Equal(t, want.Unix(), got.StartEpoch)
		assert.True(t, p.Active(), "hold stays until it expires")
	})

	t.Run("Expired", func(t *testing.T) {
		p := &hold.Policy{}
		p.Set(1, saturday)
		later := time.Unix(p.Epoch+1, 0).UTC()

		got := Project(cycles, p, later)
		assert.False(t, p.Active(), "expired hold is cleared")
		assert.Equal(t, time.Date(2026, 6, 7, 6, 0, 0, 0, time.UTC).Unix(), got.StartEpoch)
	})
}

func TestResultDue(t *testing.T) {
	r := Result{Cycle: "A", StartEpoch: saturday.Unix()}

	assert.False(t, r.Due(saturday))
	assert.True(t, r.Due(saturday.Add(time.Second)))
}

func TestNextRunDayOffset(t *testing.T) {
	tests := []struct {
		days cycle.Weekdays
		dow  time.Weekday
		from int
		want int
	}{
		{cycle.DaysOf(time.Sunday), time.Saturday, 0, 1},
		{cycle.DaysOf(time.Saturday), time.Saturday, 0, 0},
		{cycle.DaysOf(time.Saturday), time.Saturday, 1, 7},
		{cycle.EveryDay, time.Wednesday, 3, 3},
		{cycle.DaysOf(time.Monday, time.Thursday), time.Tuesday, 0, 2},
	}

	for _, tt := range tests {
		if got := NextRunDayOffset(tt.days, tt.dow, tt.from); got != tt.want {
			t.Errorf("NextRunDayOffset(%v, %v, %d) = %d, want %d", tt.days, tt.dow, tt.from, got, tt.want)
		}
	}
}
