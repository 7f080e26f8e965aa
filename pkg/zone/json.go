package zone

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the mask as an array of zone numbers.
func (m Mask) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Zones())
}

// UnmarshalJSON accepts an array of zone numbers, a single zone number,
// or a comma-delimited string. Zones are checked against MaxZones only;
// the configured zone count is enforced by validation.
func (m *Mask) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidZoneSpec)
	}

	var zones []int
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &zones); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZoneSpec, err)
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZoneSpec, err)
		}
		parsed, err := Parse(s, MaxZones)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		var z int
		if err := json.Unmarshal(data, &z); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZoneSpec, err)
		}
		zones = []int{z}
	}

	parsed, err := FromZones(MaxZones, zones...)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
