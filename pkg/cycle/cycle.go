package cycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
)

// Definition limits.
const (
	MaxNameLength     = 20
	MaxFirstTimeDelay = 6
	MinCount          = 1
	MaxCount          = 5
	MaxItemRunTime    = 99
)

// Cycle errors.
var (
	ErrNotFound    = errors.New("cycle not found")
	ErrValidation  = errors.New("cycle validation failed")
	ErrInvalidJSON = errors.New("invalid cycle definition")
)

// Type selects how a cycle recurs.
type Type uint8

const (
	// TypeSpecificDays runs on the weekdays in Days.
	TypeSpecificDays Type = iota

	// TypeEvery2ndDay is stored but never projected.
	TypeEvery2ndDay

	// TypeEvery3rdDay is stored but never projected.
	TypeEvery3rdDay

	// TypeOff disables automatic runs.
	TypeOff

	// TypeInvalid marks an unrecognised type name.
	TypeInvalid
)

var typeNames = [...]string{
	TypeSpecificDays: "specificDays",
	TypeEvery2ndDay:  "every2ndDay",
	TypeEvery3rdDay:  "every3rdDay",
	TypeOff:          "off",
	TypeInvalid:      "invalidCycleType",
}

// String returns the type name used in the persisted format.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// ParseType maps a type name to a Type. Unknown names yield TypeInvalid.
func ParseType(name string) Type {
	for i, n := range typeNames {
		if n == name {
			return Type(i)
		}
	}
	return TypeInvalid
}

// Weekdays is a 7-bit day set. Bit 0 is Sunday, bit 6 is Saturday.
type Weekdays uint8

// EveryDay selects all seven days.
const EveryDay Weekdays = 0x7F

// DaysOf builds a Weekdays value from time.Weekday values.
func DaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

// Has reports whether d is selected.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// Numbers returns the selected days as 1-based numbers, Sunday = 1.
func (w Weekdays) Numbers() []int {
	nums := []int{}
	for d := 0; d < 7; d++ {
		if w&(1<<uint(d)) != 0 {
			nums = append(nums, d+1)
		}
	}
	return nums
}

// String renders the selected days as short names, e.g. "Mon,Wed".
func (w Weekdays) String() string {
	var names []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			names = append(names, d.String()[:3])
		}
	}
	return strings.Join(names, ",")
}

// Definition is a named recurring watering plan.
type Definition struct {
	Name           string
	Type           Type
	Days           Weekdays
	FirstTimeDelay uint8
	StartHour      uint8
	StartMinute    uint8
	Count          uint8
	Items          []schedule.Item
}

// StartOffset returns the start time as an offset from local midnight.
func (d *Definition) StartOffset() time.Duration {
	return time.Duration(d.StartHour)*time.Hour + time.Duration(d.StartMinute)*time.Minute
}

// Scaled returns the items with the seasonal adjustment applied.
func (d *Definition) Scaled(percent int) []schedule.Item {
	out := make([]schedule.Item, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.Scale(percent)
	}
	return out
}

// Clone returns a deep copy.
func (d Definition) Clone() Definition {
	d.Items = append([]schedule.Item(nil), d.Items...)
	return d
}

// String renders the definition on one line for text listings.
func (d *Definition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s type=%s days=%d [%s] %d:%02d count=%d delay=%d schd=[",
		d.Name, d.Type, uint8(d.Days), d.Days, d.StartHour, d.StartMinute, d.Count, d.FirstTimeDelay)
	for i, it := range d.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(it.String())
	}
	b.WriteByte(']')
	return b.String()
}

type wireDefinition struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Days     []int           `json:"days"`
	First    uint8           `json:"first"`
	Hour     uint8           `json:"hour"`
	Min      uint8           `json:"min"`
	Count    uint8           `json:"count"`
	Schedule []schedule.Item `json:"schedule"`
}

// MarshalJSON encodes the persisted cycle record. Days are 1-based, Sunday = 1.
func (d Definition) MarshalJSON() ([]byte, error) {
	items := d.Items
	if items == nil {
		items = []schedule.Item{}
	}
	return json.Marshal(wireDefinition{
		Name:     d.Name,
		Type:     d.Type.String(),
		Days:     d.Days.Numbers(),
		First:    d.FirstTimeDelay,
		Hour:     d.StartHour,
		Min:      d.StartMinute,
		Count:    d.Count,
		Schedule: items,
	})
}

// UnmarshalJSON decodes a persisted cycle record. Range checks on hours,
// counts and run times are left to Validate.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w wireDefinition
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var days Weekdays
	for _, n := range w.Days {
		if n < 1 || n > 7 {
			return fmt.Errorf("%w: day %d out of range 1..7", ErrInvalidJSON, n)
		}
		days |= 1 << uint(n-1)
	}

	*d = Definition{
		Name:           w.Name,
		Type:           ParseType(w.Type),
		Days:           days,
		FirstTimeDelay: w.First,
		StartHour:      w.Hour,
		StartMinute:    w.Min,
		Count:          w.Count,
		Items:          w.Schedule,
	}
	return nil
}
