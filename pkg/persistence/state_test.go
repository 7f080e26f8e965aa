package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
)

const statePath = "/data/sprinkler/state.json"

func lawn() cycle.Definition {
	return cycle.Definition{
		Name:        "Lawn",
		Type:        cycle.TypeSpecificDays,
		Days:        cycle.DaysOf(time.Monday, time.Thursday),
		StartHour:   5,
		StartMinute: 45,
		Count:       1,
		Items:       []schedule.Item{{Zones: 0x03, RunTime: 12}, {Zones: 0x04, RunTime: 8}},
	}
}

func TestStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStateStore(afero.NewMemMapFs(), statePath)

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewStateStore(fs, statePath)

		in := &ControllerState{
			Cycles:    []cycle.Definition{lawn()},
			HoldDays:  2,
			HoldEpoch: 1780000000,
			Settings:  &Settings{Adjustment: 80, InterZoneDelay: 3 * time.Second, Logic: "inverted"},
		}
		require.NoError(t, store.Save(in))
		assert.Equal(t, StateVersion, in.Version)
		assert.False(t, in.SavedAt.IsZero())

		exists, err := afero.Exists(fs, statePath+".tmp")
		require.NoError(t, err)
		assert.False(t, exists, "temporary file must be renamed away")

		got, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []cycle.Definition{lawn()}, got.Cycles)
		assert.Equal(t, int8(2), got.HoldDays)
		assert.Equal(t, int64(1780000000), got.HoldEpoch)
		assert.Equal(t, in.Settings, got.Settings)
	})

	t.Run("PersistedFormat", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewStateStore(fs, statePath)
		require.NoError(t, store.Save(&ControllerState{
			SavedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Cycles:   []cycle.Definition{lawn()},
			HoldDays: -1, HoldEpoch: 0,
		}))

		data, err := afero.ReadFile(fs, statePath)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"version": 1,
			"saved_at": "2026-01-01T00:00:00Z",
			"cycles": [{"name":"Lawn","type":"specificDays","days":[2,5],"first":0,"hour":5,"min":45,"count":1,
				"schedule":[[[1,2],12],[[3],8]]}],
			"holdDays": -1,
			"holdEpoch": 0
		}`, string(data))
	})

	t.Run("LoadJSONC", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, statePath, []byte(`{
			// edited by hand
			"version": 1,
			"cycles": [
				{"name": "Beds", "type": "off", "days": [], "hour": 7, "min": 0, "count": 1,
				 "schedule": [[[4], 5],]}, /* trailing comma */
			],
			"holdDays": 0,
			"holdEpoch": 0,
		}`), 0644))

		got, err := NewStateStore(fs, statePath).Load()
		require.NoError(t, err)
		require.Len(t, got.Cycles, 1)
		assert.Equal(t, "Beds", got.Cycles[0].Name)
		assert.Equal(t, cycle.TypeOff, got.Cycles[0].Type)
	})

	t.Run("LoadCorrupt", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, statePath, []byte(`{"cycles": 5}`), 0644))

		_, err := NewStateStore(fs, statePath).Load()
		assert.Error(t, err)
	})

	t.Run("LoadFutureVersion", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, statePath, []byte(`{"version": 9}`), 0644))

		_, err := NewStateStore(fs, statePath).Load()
		assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	})

	t.Run("Clear", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewStateStore(fs, statePath)
		require.NoError(t, store.Clear(), "clearing a missing file is not an error")

		require.NoError(t, store.Save(&ControllerState{}))
		require.NoError(t, store.Clear())

		got, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SaveFailsOnReadOnlyFs", func(t *testing.T) {
		store := NewStateStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), statePath)
		assert.Error(t, store.Save(&ControllerState{}))
	})
}
