package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/history"
	"github.com/sprinkler-go/sprinkler-go/pkg/log"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Scheduler actions accepted by ControlScheduler.
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionCancel = "cancel"
	ActionSkip   = "skip"
)

// Zone commands accepted by ControlZone.
const (
	ZoneOn     = "on"
	ZoneOff    = "off"
	ZoneToggle = "toggle"
)

// Cycles returns the cycle definitions ordered by name.
func (c *Controller) Cycles() []cycle.Definition {
	return c.cycles.Sorted()
}

// FindCycle returns the named cycle.
func (c *Controller) FindCycle(name string) (cycle.Definition, error) {
	def, ok := c.cycles.Find(name)
	if !ok {
		return cycle.Definition{}, fmt.Errorf("%w: %q", cycle.ErrNotFound, name)
	}
	return def, nil
}

// AddCycle validates def and stores it, replacing a cycle of the same name.
// A rejected definition leaves everything unchanged.
func (c *Controller) AddCycle(def cycle.Definition) error {
	if err := cycle.Check(&def, c.cycles.All(), c.zoneCount); err != nil {
		return err
	}

	replaced := c.cycles.Put(def)
	c.logEvent(log.Event{Category: log.CategoryCycle, Op: log.OpCycleSave, Cycle: def.Name})
	c.logger.Info("cycle saved", "cycle", def.Name, "replaced", replaced)

	c.project()
	c.dirty = true
	return c.save()
}

// DeleteCycle removes every cycle with the given name.
func (c *Controller) DeleteCycle(name string) error {
	if c.cycles.Delete(name) == 0 {
		return fmt.Errorf("%w: %q", cycle.ErrNotFound, name)
	}
	c.logEvent(log.Event{Category: log.CategoryCycle, Op: log.OpCycleDelete, Cycle: name})
	c.logger.Info("cycle deleted", "cycle", name)

	c.project()
	c.dirty = true
	return c.save()
}

// ClearCycles cancels the schedule and removes all cycles and the hold.
// It is safe to call in any state and more than once.
func (c *Controller) ClearCycles() error {
	c.cancel()
	c.cycles.Clear()
	c.hold.Clear()
	c.project()
	c.logEvent(log.Event{Category: log.CategoryCycle, Op: log.OpCycleClear})

	c.dirty = true
	return c.save()
}

// RunCycle fires the named cycle now, regardless of hold.
func (c *Controller) RunCycle(name string) error {
	def, ok := c.cycles.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", cycle.ErrNotFound, name)
	}
	c.fire(&def, history.SourceManual)
	return nil
}

// SetHold suspends automatic cycles for days; negative holds indefinitely
// and zero clears the hold.
func (c *Controller) SetHold(days int) error {
	c.hold.Set(days, c.clock.Now())
	if c.hold.Active() {
		c.logEvent(log.Event{Category: log.CategoryHold, Op: log.OpHold, Detail: strconv.Itoa(int(c.hold.Days))})
	} else {
		c.logEvent(log.Event{Category: log.CategoryHold, Op: log.OpHoldEnd})
	}

	c.project()
	c.dirty = true
	return c.save()
}

// ClearHold removes any hold.
func (c *Controller) ClearHold() error {
	return c.SetHold(0)
}

// SetAdjustment sets the seasonal adjustment percentage applied when
// cycles fire.
func (c *Controller) SetAdjustment(percent int) error {
	if percent < MinAdjustment || percent > MaxAdjustment {
		return fmt.Errorf("%w: %d outside %d..%d", ErrInvalidAdjustment, percent, MinAdjustment, MaxAdjustment)
	}
	c.adjustment = percent
	c.logEvent(log.Event{Category: log.CategoryConfig, Op: log.OpAdjust, Detail: strconv.Itoa(percent)})
	c.dirty = true
	return c.save()
}

// InterZoneDelay returns the pause between schedule items.
func (c *Controller) InterZoneDelay() time.Duration {
	return c.sched.InterZoneDelay()
}

// SetInterZoneDelay changes the pause between schedule items.
func (c *Controller) SetInterZoneDelay(d time.Duration) error {
	if d <= 0 || d > time.Hour {
		return fmt.Errorf("%w: %v", ErrInvalidDelay, d)
	}
	c.sched.SetInterZoneDelay(d)
	c.logEvent(log.Event{Category: log.CategoryConfig, Op: log.OpDelay, Detail: d.String()})
	c.dirty = true
	return c.save()
}

// Logic returns the output polarity.
func (c *Controller) Logic() (actuator.Logic, error) {
	p, ok := c.act.(polarity)
	if !ok {
		return 0, ErrUnsupported
	}
	return p.Logic(), nil
}

// SetLogic changes the output polarity.
func (c *Controller) SetLogic(l actuator.Logic) error {
	p, ok := c.act.(polarity)
	if !ok {
		return ErrUnsupported
	}
	p.SetLogic(l)
	c.logEvent(log.Event{Category: log.CategoryConfig, Op: log.OpLogic, Detail: l.String()})
	c.dirty = true
	return c.save()
}

// ScheduleItem parses and enqueues one manual item. A status notification
// is requested only when the queue already held items; otherwise the
// resulting actuation produces it.
func (c *Controller) ScheduleItem(zones, runTime string) error {
	requestStatus := c.sched.Len() > 0

	item, err := schedule.NewItem(zones, runTime, c.zoneCount)
	if err != nil {
		return err
	}

	c.sched.Enqueue(item)
	c.logEvent(log.Event{
		Category: log.CategorySchedule,
		Op:       log.OpSchedule,
		Zones:    item.Zones,
		Detail:   strconv.Itoa(int(item.RunTime)),
	})
	c.startManualRun([]schedule.Item{item})

	if requestStatus {
		c.dirty = true
	}
	return nil
}

// SetSchedule replaces the queue with items. An empty list cancels.
func (c *Controller) SetSchedule(items []schedule.Item) error {
	if err := c.checkItems(items); err != nil {
		return err
	}
	if len(items) == 0 {
		c.cancel()
		c.logEvent(log.Event{Category: log.CategorySchedule, Op: "set"})
		c.dirty = true
		return nil
	}
	c.finishRuns(history.StatusCancelled)
	c.running = ""
	c.runID = ""
	c.sched.Replace(items...)
	c.logEvent(log.Event{Category: log.CategorySchedule, Op: "set", Detail: itemsText(items)})
	c.startManualRun(items)
	c.dirty = true
	return nil
}

// AppendSchedule adds items to the end of the queue.
func (c *Controller) AppendSchedule(items []schedule.Item) error {
	if err := c.checkItems(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	c.sched.Enqueue(items...)
	c.logEvent(log.Event{Category: log.CategorySchedule, Op: "append", Detail: itemsText(items)})
	c.startManualRun(items)
	c.dirty = true
	return nil
}

func (c *Controller) checkItems(items []schedule.Item) error {
	for i, it := range items {
		if !it.Zones.Valid(c.zoneCount) {
			return fmt.Errorf("%w: item %d zones %q", zone.ErrInvalidZoneSpec, i+1, it.Zones)
		}
		if it.RunTime < schedule.MinRunTime {
			return fmt.Errorf("%w: item %d", schedule.ErrInvalidRunTime, i+1)
		}
	}
	return nil
}

// startManualRun records a new manual run unless items join one already
// in progress.
func (c *Controller) startManualRun(items []schedule.Item) {
	if c.runID != "" {
		return
	}
	c.runID = c.newID()
	c.recordRun(&history.Run{
		ID:         c.runID,
		Source:     history.SourceSchedule,
		Adjustment: schedule.DefaultAdjustment,
		Items:      items,
		StartedAt:  c.clock.Now(),
	})
}

// ControlScheduler applies pause, resume, cancel or skip.
func (c *Controller) ControlScheduler(action string) error {
	now := c.clock.Now()
	var err error

	switch strings.ToLower(action) {
	case ActionPause:
		err = c.sched.Pause(now)
	case ActionResume:
		err = c.sched.Resume(now)
	case ActionSkip:
		err = c.sched.Skip(now)
	case ActionCancel:
		c.cancel()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	c.logger.Info("scheduler control", "action", action, "state", c.sched.State())
	c.dirty = true
	return nil
}

// cancel clears the queue and the running cycle and turns every zone off.
func (c *Controller) cancel() {
	if c.sched.Len() > 0 {
		c.finishRuns(history.StatusCancelled)
	}
	c.running = ""
	c.runID = ""
	c.sched.Cancel()
}

// ControlZone switches zones directly, bypassing the queue.
func (c *Controller) ControlZone(zones, command string) error {
	mask, err := zone.Parse(zones, c.zoneCount)
	if err != nil {
		return err
	}
	switch strings.ToLower(command) {
	case ZoneOn:
		if mask == zone.All(c.zoneCount) {
			c.driver.TurnAllOn()
			return nil
		}
		c.driver.TurnOn(mask)
	case ZoneOff:
		c.driver.TurnOff(mask)
	case ZoneToggle:
		c.driver.Toggle(mask)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, command)
	}
	return nil
}

// Mark writes a free-text entry to the event log.
func (c *Controller) Mark(text string) {
	c.logEvent(log.Event{Category: log.CategorySystem, Op: log.OpMark, Detail: text})
}
