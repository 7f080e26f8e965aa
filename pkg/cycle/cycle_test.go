package cycle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
)

func TestTypeNames(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
	}{
		{TypeSpecificDays, "specificDays"},
		{TypeEvery2ndDay, "every2ndDay"},
		{TypeEvery3rdDay, "every3rdDay"},
		{TypeOff, "off"},
		{TypeInvalid, "invalidCycleType"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.name {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.name)
		}
		if got := ParseType(tt.name); got != tt.typ {
			t.Errorf("ParseType(%q) = %v, want %v", tt.name, got, tt.typ)
		}
	}

	if got := ParseType("weekly"); got != TypeInvalid {
		t.Errorf("ParseType(weekly) = %v, want invalid", got)
	}
	if got := Type(42).String(); got != "invalidCycleType" {
		t.Errorf("Type(42).String() = %q", got)
	}
}

func TestWeekdays(t *testing.T) {
	w := DaysOf(time.Sunday, time.Wednesday, time.Saturday)

	assert.Equal(t, Weekdays(0x49), w)
	assert.True(t, w.Has(time.Sunday))
	assert.False(t, w.Has(time.Monday))
	assert.Equal(t, []int{1, 4, 7}, w.Numbers())
	assert.Equal(t, "Sun,Wed,Sat", w.String())
	assert.Equal(t, []int{}, Weekdays(0).Numbers())
}

func TestDefinitionJSON(t *testing.T) {
	in := `{"name":"Lawn","type":"specificDays","days":[2,4,6],"first":0,"hour":6,"min":30,"count":1,
		"schedule":[[[1,2],10],[[3],5]]}`

	var d Definition
	require.NoError(t, json.Unmarshal([]byte(in), &d))

	assert.Equal(t, "Lawn", d.Name)
	assert.Equal(t, TypeSpecificDays, d.Type)
	assert.Equal(t, DaysOf(time.Monday, time.Wednesday, time.Friday), d.Days)
	assert.Equal(t, uint8(6), d.StartHour)
	assert.Equal(t, uint8(30), d.StartMinute)
	assert.Equal(t, []schedule.Item{{Zones: 0x03, RunTime: 10}, {Zones: 0x04, RunTime: 5}}, d.Items)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestDefinitionJSONErrors(t *testing.T) {
	var d Definition
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"days":[0]}`), &d), ErrInvalidJSON)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"days":[8]}`), &d), ErrInvalidJSON)
	assert.ErrorIs(t, json.Unmarshal([]byte(`[]`), &d), ErrInvalidJSON)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":"monthly"}`), &d))
	assert.Equal(t, TypeInvalid, d.Type)
}

func TestDefinitionString(t *testing.T) {
	d := Definition{
		Name:        "Beds",
		Days:        DaysOf(time.Tuesday),
		StartHour:   5,
		StartMinute: 7,
		Count:       1,
		Items:       []schedule.Item{{Zones: 0x06, RunTime: 10}},
	}
	assert.Equal(t, "Beds type=specificDays days=4 [Tue] 5:07 count=1 delay=0 schd=[[[2,3],10]]", d.String())
}

func TestDefinitionScaled(t *testing.T) {
	d := Definition{Items: []schedule.Item{{Zones: 1, RunTime: 10}, {Zones: 2, RunTime: 1}}}

	got := d.Scaled(50)
	assert.Equal(t, []schedule.Item{{Zones: 1, RunTime: 5}, {Zones: 2, RunTime: 1}}, got)
	assert.Equal(t, uint8(10), d.Items[0].RunTime, "Scaled must not mutate the definition")
	assert.Equal(t, 6*time.Hour+30*time.Minute, (&Definition{StartHour: 6, StartMinute: 30}).StartOffset())
}
