package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Run time limits in minutes.
const (
	MinRunTime = 1
	MaxRunTime = 254

	// DefaultAdjustment is the seasonal adjustment that leaves run times unchanged.
	DefaultAdjustment = 100
)

// Item errors.
var (
	ErrInvalidRunTime = errors.New("invalid run time")
	ErrInvalidItem    = errors.New("invalid schedule item")
)

// Item is one queued watering step: a set of zones and how long to run them.
type Item struct {
	// Zones to energize while the item runs.
	Zones zone.Mask

	// RunTime is the duration in minutes.
	RunTime uint8
}

// NewItem parses the textual zone list and run time used by the manual
// schedule API. count is the configured zone count.
func NewItem(zones, runTime string, count int) (Item, error) {
	mask, err := zone.Parse(zones, count)
	if err != nil {
		return Item{}, err
	}
	rt, err := ParseRunTime(runTime)
	if err != nil {
		return Item{}, err
	}
	return Item{Zones: mask, RunTime: rt}, nil
}

// ParseRunTime parses a run time in minutes.
func ParseRunTime(text string) (uint8, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRunTime, text)
	}
	if n < MinRunTime || n > MaxRunTime {
		return 0, fmt.Errorf("%w: %d outside %d..%d", ErrInvalidRunTime, n, MinRunTime, MaxRunTime)
	}
	return uint8(n), nil
}

// Duration returns the run time as a time.Duration.
func (i Item) Duration() time.Duration {
	return time.Duration(i.RunTime) * time.Minute
}

// Scale returns a copy with the run time multiplied by percent/100.
// The result is truncated and clamped to MinRunTime..MaxRunTime.
func (i Item) Scale(percent int) Item {
	scaled := int(i.RunTime) * percent / 100
	if scaled < MinRunTime {
		scaled = MinRunTime
	}
	if scaled > MaxRunTime {
		scaled = MaxRunTime
	}
	return Item{Zones: i.Zones, RunTime: uint8(scaled)}
}

// String renders the item in its wire form, e.g. "[[2,3],10]".
func (i Item) String() string {
	data, err := i.MarshalJSON()
	if err != nil {
		return "[]"
	}
	return string(data)
}

// MarshalJSON encodes the item as [[zones...], minutes].
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{i.Zones, i.RunTime})
}

// UnmarshalJSON decodes [[zones...], minutes]. The zone element may also be
// a single number or a comma-delimited string.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: want [zones, minutes], got %d elements", ErrInvalidItem, len(raw))
	}

	var mask zone.Mask
	if err := json.Unmarshal(raw[0], &mask); err != nil {
		return err
	}
	var rt int
	if err := json.Unmarshal(raw[1], &rt); err != nil {
		return fmt.Errorf("%w: run time: %v", ErrInvalidItem, err)
	}
	if rt < 0 || rt > MaxRunTime {
		return fmt.Errorf("%w: %d", ErrInvalidRunTime, rt)
	}

	i.Zones = mask
	i.RunTime = uint8(rt)
	return nil
}

// Total returns the combined run time of items.
func Total(items []Item) time.Duration {
	var d time.Duration
	for _, it := range items {
		d += it.Duration()
	}
	return d
}
