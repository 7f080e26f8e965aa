// Package zone implements the watering zone bitmask.
//
// A Mask is an 8-bit set where bit i represents zone i+1. Zone numbers are
// 1-based everywhere outside this package; the bit layout only matters to
// the actuator that drives the output register.
//
// Masks are built from zone lists or from the textual forms used on the
// HTTP API:
//
//	m, err := zone.Parse("1,3", 7) // zones 1 and 3
//	m, err := zone.Parse("all", 7) // zones 1..7
//
// Construction never panics. Any zone outside 1..count, or text that does
// not parse, yields ErrInvalidZoneSpec.
package zone
