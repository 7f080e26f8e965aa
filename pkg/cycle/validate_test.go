package cycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
)

func validDef(name string, hour, minute uint8) Definition {
	return Definition{
		Name:        name,
		Type:        TypeSpecificDays,
		Days:        EveryDay,
		StartHour:   hour,
		StartMinute: minute,
		Count:       1,
		Items:       []schedule.Item{{Zones: 0x01, RunTime: 10}},
	}
}

func fields(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func TestValidateDuplicateStartTime(t *testing.T) {
	existing := []Definition{validDef("Front", 6, 0)}

	t.Run("DifferentName", func(t *testing.T) {
		c := validDef("Back", 6, 0)
		assert.Equal(t, []string{FieldStartTime}, fields(Validate(&c, existing, 7)))
	})

	t.Run("SameName", func(t *testing.T) {
		c := validDef("Front", 6, 0)
		assert.Empty(t, Validate(&c, existing, 7))
	})

	t.Run("SameNameDifferentCase", func(t *testing.T) {
		c := validDef("FRONT", 6, 0)
		assert.Empty(t, Validate(&c, existing, 7))
	})

	t.Run("DifferentMinute", func(t *testing.T) {
		c := validDef("Back", 6, 1)
		assert.Empty(t, Validate(&c, existing, 7))
	})
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
		want   []string
	}{
		{"valid", func(d *Definition) {}, nil},
		{"empty name", func(d *Definition) { d.Name = "" }, []string{FieldName}},
		{"long name", func(d *Definition) { d.Name = "abcdefghijklmnopqrstu" }, []string{FieldName}},
		{"hour", func(d *Definition) { d.StartHour = 24 }, []string{FieldStartHour}},
		{"minute", func(d *Definition) { d.StartMinute = 60 }, []string{FieldStartMinute}},
		{"type", func(d *Definition) { d.Type = TypeInvalid }, []string{FieldType}},
		{"off is valid", func(d *Definition) { d.Type = TypeOff }, nil},
		{"first delay", func(d *Definition) { d.FirstTimeDelay = 7 }, []string{FieldFirstTimeDelay}},
		{"count zero", func(d *Definition) { d.Count = 0 }, []string{FieldCount}},
		{"count six", func(d *Definition) { d.Count = 6 }, []string{FieldCount}},
		{"empty mask", func(d *Definition) { d.Items[0].Zones = 0 }, []string{FieldZones}},
		{"zone beyond count", func(d *Definition) { d.Items[0].Zones = 0x80 }, []string{FieldZones}},
		{"run time zero", func(d *Definition) { d.Items[0].RunTime = 0 }, []string{FieldRunTime}},
		{"run time 100", func(d *Definition) { d.Items[0].RunTime = 100 }, []string{FieldRunTime}},
		{"run time 99", func(d *Definition) { d.Items[0].RunTime = 99 }, nil},
		{"several", func(d *Definition) {
			d.StartHour = 25
			d.Count = 9
		}, []string{FieldStartHour, FieldCount}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDef("Test", 6, 0)
			tt.mutate(&d)
			got := fields(Validate(&d, nil, 7))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck(t *testing.T) {
	d := validDef("Test", 6, 0)
	assert.NoError(t, Check(&d, nil, 7))

	d.Count = 0
	err := Check(&d, nil, 7)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Equal(t, "Test", verr.Name)
		assert.Len(t, verr.Violations, 1)
		assert.Contains(t, verr.Error(), "cycle count")
	}
}
