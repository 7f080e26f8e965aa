package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

func TestParseLogic(t *testing.T) {
	tests := []struct {
		in   string
		want Logic
	}{
		{"normal", LogicNormal},
		{"", LogicNormal},
		{"Inverted", LogicInverted},
		{"reversed", LogicInverted},
	}
	for _, tt := range tests {
		got, err := ParseLogic(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogic("sideways")
	assert.ErrorIs(t, err, ErrInvalidLogic)
	assert.Equal(t, "normal", LogicNormal.String())
	assert.Equal(t, "inverted", LogicInverted.String())
}

func TestRegisterNormal(t *testing.T) {
	r := NewRegister(LogicNormal)
	assert.Equal(t, uint8(0), r.Registers())
	assert.False(t, r.OutputEnabled(), "idle normal logic disables outputs")

	r.SetZones(0x05)
	assert.Equal(t, uint8(0x05), r.Registers())
	assert.Equal(t, zone.Mask(0x05), r.Zones())
	assert.True(t, r.OutputEnabled())
}

func TestRegisterInverted(t *testing.T) {
	r := NewRegister(LogicInverted)
	assert.Equal(t, uint8(0xFF), r.Registers())
	assert.Equal(t, zone.Mask(0), r.Zones())
	assert.True(t, r.OutputEnabled())

	r.SetZones(0x02)
	assert.Equal(t, uint8(0xFD), r.Registers())
	assert.Equal(t, zone.Mask(0x02), r.Zones())
}

func TestRegisterSetLogicKeepsZones(t *testing.T) {
	r := NewRegister(LogicNormal)
	r.SetZones(0x03)

	r.SetLogic(LogicInverted)
	assert.Equal(t, LogicInverted, r.Logic())
	assert.Equal(t, zone.Mask(0x03), r.Zones())
	assert.Equal(t, uint8(0xFC), r.Registers())
}
