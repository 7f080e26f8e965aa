package log

import (
	"strconv"
	"strings"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Event is one controller event.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time

	// Category classifies the event.
	Category Category

	// Op is the operation, e.g. "on" or "hold".
	Op string

	// Zones affected by the operation.
	Zones zone.Mask

	// Registers is the raw output register value after the operation.
	Registers uint8

	// Cycle names the cycle involved.
	Cycle string

	// RunID correlates events of one cycle or manual run.
	RunID string

	// Detail carries operation-specific text.
	Detail string
}

// Category classifies events.
type Category uint8

const (
	// CategoryZone is a change to zone outputs.
	CategoryZone Category = 0
	// CategorySchedule is a change to the schedule queue.
	CategorySchedule Category = 1
	// CategoryCycle is a cycle definition change or start.
	CategoryCycle Category = 2
	// CategoryHold is a hold change.
	CategoryHold Category = 3
	// CategoryConfig is a settings change.
	CategoryConfig Category = 4
	// CategorySystem is a lifecycle event or free-text mark.
	CategorySystem Category = 5
	// CategoryError is an anomaly.
	CategoryError Category = 6
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryZone:
		return "ZONE"
	case CategorySchedule:
		return "SCHEDULE"
	case CategoryCycle:
		return "CYCLE"
	case CategoryHold:
		return "HOLD"
	case CategoryConfig:
		return "CONFIG"
	case CategorySystem:
		return "SYSTEM"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Common operations.
const (
	OpOn          = "on"
	OpOff         = "off"
	OpAllOff      = "all off"
	OpAllOn       = "all on"
	OpSchedule    = "schd"
	OpScheduleEnd = "end"
	OpCycleStart  = "cycle|start"
	OpCycleSave   = "cycle|save"
	OpCycleDelete = "cycle|delete"
	OpCycleClear  = "cycle|clear"
	OpHold        = "hold"
	OpHoldEnd     = "hold|end"
	OpAdjust      = "adj"
	OpDelay       = "toggle"
	OpLogic       = "logic"
	OpStart       = "start"
	OpMark        = "mark"
	OpClock       = "clock"
)

// TimestampLayout is the time prefix of text log lines (MMDD HHMMSS).
const TimestampLayout = "0102 150405"

// Line renders the event as a pipe-delimited text line in loc.
// Zone events carry the zone list and the raw register value.
func (e Event) Line(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	parts := []string{e.Timestamp.In(loc).Format(TimestampLayout), e.Op}

	switch e.Category {
	case CategoryZone:
		parts = append(parts, zoneText(e.Zones), strconv.Itoa(int(e.Registers)))
	case CategorySchedule:
		if e.Zones != 0 {
			parts = append(parts, e.Zones.String())
		}
	case CategoryCycle:
		if e.Cycle != "" {
			parts = append(parts, e.Cycle)
		}
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	return strings.Join(parts, "|")
}

func zoneText(m zone.Mask) string {
	if m == 0 {
		return "none"
	}
	return m.String()
}
