package zone

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxZones is the maximum number of zones a controller can drive.
const MaxZones = 8

// AllKeyword selects every configured zone in Parse.
const AllKeyword = "all"

// Zone errors.
var (
	ErrInvalidZoneSpec = errors.New("invalid zone specification")
)

// Mask is a set of zones. Bit i represents zone i+1.
type Mask uint8

// All returns the mask with exactly the low count bits set.
func All(count int) Mask {
	if count <= 0 {
		return 0
	}
	if count >= MaxZones {
		return 0xFF
	}
	return Mask(1<<uint(count) - 1)
}

// Single returns the mask for one zone. It does not check the zone count.
func Single(z int) Mask {
	if z < 1 || z > MaxZones {
		return 0
	}
	return Mask(1 << uint(z-1))
}

// FromZones builds a mask from 1-based zone numbers.
// Every zone must lie within 1..count.
func FromZones(count int, zones ...int) (Mask, error) {
	if count < 1 || count > MaxZones {
		return 0, fmt.Errorf("%w: zone count %d", ErrInvalidZoneSpec, count)
	}
	var m Mask
	for _, z := range zones {
		if z < 1 || z > count {
			return 0, fmt.Errorf("%w: zone %d out of range 1..%d", ErrInvalidZoneSpec, z, count)
		}
		m |= Single(z)
	}
	return m, nil
}

// Parse converts a comma-delimited zone list or the "all" keyword into a mask.
// Whitespace around entries is ignored. An empty list is an error.
func Parse(text string, count int) (Mask, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, AllKeyword) {
		if count < 1 || count > MaxZones {
			return 0, fmt.Errorf("%w: zone count %d", ErrInvalidZoneSpec, count)
		}
		return All(count), nil
	}
	if text == "" {
		return 0, fmt.Errorf("%w: empty zone list", ErrInvalidZoneSpec)
	}

	parts := strings.Split(text, ",")
	zones := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		z, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidZoneSpec, p)
		}
		zones = append(zones, z)
	}
	return FromZones(count, zones...)
}

// Zones returns the 1-based zone numbers in ascending order.
func (m Mask) Zones() []int {
	zones := make([]int, 0, bits.OnesCount8(uint8(m)))
	for i := 0; i < MaxZones; i++ {
		if m&(1<<uint(i)) != 0 {
			zones = append(zones, i+1)
		}
	}
	return zones
}

// Has reports whether zone z is in the mask.
func (m Mask) Has(z int) bool {
	return m&Single(z) != 0
}

// Count returns the number of zones in the mask.
func (m Mask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// IsEmpty reports whether no zone is selected.
func (m Mask) IsEmpty() bool {
	return m == 0
}

// Valid reports whether the mask is non-empty and uses only zones 1..count.
func (m Mask) Valid(count int) bool {
	return m != 0 && m&^All(count) == 0
}

// Exceeds reports whether any selected zone is beyond count.
func (m Mask) Exceeds(count int) bool {
	return m&^All(count) != 0
}

// String renders the mask as a comma-delimited zone list, e.g. "1,3".
func (m Mask) String() string {
	zones := m.Zones()
	parts := make([]string, len(zones))
	for i, z := range zones {
		parts[i] = strconv.Itoa(z)
	}
	return strings.Join(parts, ",")
}
