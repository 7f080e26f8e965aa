package zone

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		count int
		want  Mask
	}{
		{"single", "1", 7, 0x01},
		{"list", "2,3", 7, 0x06},
		{"spaces", " 1 , 7 ", 7, 0x41},
		{"duplicates", "3,3", 7, 0x04},
		{"all", "all", 7, 0x7F},
		{"all upper", "ALL", 4, 0x0F},
		{"all eight", "all", 8, 0xFF},
		{"last zone", "8", 8, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tt.count)
			if err != nil {
				t.Fatalf("Parse(%q, %d) error: %v", tt.text, tt.count, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q, %d) = %#x, want %#x", tt.text, tt.count, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		count int
	}{
		{"empty", "", 7},
		{"zero", "0", 7},
		{"beyond count", "8", 7},
		{"garbage", "a,b", 7},
		{"trailing comma", "1,", 7},
		{"negative", "-1", 7},
		{"bad count", "1", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, tt.count)
			if !errors.Is(err, ErrInvalidZoneSpec) {
				t.Errorf("Parse(%q, %d) error = %v, want ErrInvalidZoneSpec", tt.text, tt.count, err)
			}
		})
	}
}

func TestMaskRoundTrip(t *testing.T) {
	for count := 1; count <= MaxZones; count++ {
		for m := Mask(1); m <= All(count) && m != 0; m++ {
			got, err := FromZones(count, m.Zones()...)
			require.NoError(t, err)
			assert.Equal(t, m, got, "count=%d", count)
			if m == All(count) {
				break
			}
		}
	}
}

func TestMaskAccessors(t *testing.T) {
	m := Mask(0x05)

	assert.Equal(t, []int{1, 3}, m.Zones())
	assert.Equal(t, "1,3", m.String())
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.Has(1))
	assert.False(t, m.Has(2))
	assert.True(t, m.Valid(3))
	assert.False(t, m.Valid(2))
	assert.True(t, m.Exceeds(2))
	assert.False(t, Mask(0).Valid(7))
	assert.Equal(t, "", Mask(0).String())
}

func TestAll(t *testing.T) {
	assert.Equal(t, Mask(0), All(0))
	assert.Equal(t, Mask(0x01), All(1))
	assert.Equal(t, Mask(0x7F), All(7))
	assert.Equal(t, Mask(0xFF), All(8))
}

func TestMaskJSON(t *testing.T) {
	data, err := json.Marshal(Mask(0x06))
	require.NoError(t, err)
	assert.JSONEq(t, `[2,3]`, string(data))

	t.Run("Forms", func(t *testing.T) {
		tests := []struct {
			in   string
			want Mask
		}{
			{`[2,3]`, 0x06},
			{`4`, 0x08},
			{`"1,2"`, 0x03},
		}
		for _, tt := range tests {
			var m Mask
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m), tt.in)
			assert.Equal(t, tt.want, m, tt.in)
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		for _, in := range []string{`[0]`, `[9]`, `"x"`, `true`} {
			var m Mask
			err := json.Unmarshal([]byte(in), &m)
			assert.ErrorIs(t, err, ErrInvalidZoneSpec, in)
		}
	})
}
