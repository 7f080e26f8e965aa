package controller

import (
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/clock"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Time      time.Time
	StartedAt time.Time

	State     schedule.State
	Queue     []schedule.Item
	Remaining int
	ItemEnd   time.Time

	Cycle      string
	NextCycle  string
	NextEpoch  int64
	NextString string

	HoldDays   int8
	HoldEpoch  int64
	HoldResume string

	Adjustment     int
	InterZoneDelay time.Duration

	Zones         zone.Mask
	Registers     uint8
	OutputEnabled bool
	Logic         string
	ZoneCount     int
	Cycles        int
	RunID         string
}

// Status builds a snapshot of the current state.
func (c *Controller) Status() Status {
	now := c.clock.Now()
	loc := now.Location()

	s := Status{
		Time:           now,
		StartedAt:      c.startedAt,
		State:          c.sched.State(),
		Queue:          c.sched.Queue(),
		Remaining:      c.sched.Remaining(now),
		ItemEnd:        c.sched.End(),
		Cycle:          c.running,
		NextCycle:      c.next.Cycle,
		NextEpoch:      c.next.StartEpoch,
		NextString:     clock.FormatEpoch(c.next.StartEpoch, loc),
		HoldDays:       c.hold.Days,
		HoldEpoch:      c.hold.Epoch,
		HoldResume:     c.hold.Resume(loc),
		Adjustment:     c.adjustment,
		InterZoneDelay: c.sched.InterZoneDelay(),
		Zones:          c.act.Zones(),
		Registers:      uint8(c.act.Zones()),
		OutputEnabled:  !c.act.Zones().IsEmpty(),
		ZoneCount:      c.zoneCount,
		Cycles:         c.cycles.Len(),
		RunID:          c.runID,
	}
	if r, ok := c.act.(registers); ok {
		s.Registers = r.Registers()
		s.OutputEnabled = r.OutputEnabled()
	}
	if p, ok := c.act.(polarity); ok {
		s.Logic = p.Logic().String()
	}
	return s
}
