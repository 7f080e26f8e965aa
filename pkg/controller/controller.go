package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/clock"
	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/history"
	"github.com/sprinkler-go/sprinkler-go/pkg/hold"
	"github.com/sprinkler-go/sprinkler-go/pkg/log"
	"github.com/sprinkler-go/sprinkler-go/pkg/persistence"
	"github.com/sprinkler-go/sprinkler-go/pkg/projection"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Adjustment limits in percent.
const (
	MinAdjustment = 1
	MaxAdjustment = 255
)

// DefaultZoneCount is the zone count when none is configured.
const DefaultZoneCount = 7

// Controller errors.
var (
	ErrPersistence       = errors.New("persistence failure")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidAdjustment = errors.New("invalid seasonal adjustment")
	ErrInvalidDelay      = errors.New("invalid inter-zone delay")
	ErrUnsupported       = errors.New("not supported by actuator")
)

// CycleStore persists controller state.
type CycleStore interface {
	Save(state *persistence.ControllerState) error
	Load() (*persistence.ControllerState, error)
}

// RunRecorder records watering runs.
type RunRecorder interface {
	Start(run *history.Run) error
	FinishRunning(status string, at time.Time) (int64, error)
}

// polarity is implemented by actuators with configurable output logic.
type polarity interface {
	Logic() actuator.Logic
	SetLogic(actuator.Logic)
}

// registers is implemented by actuators exposing the raw output state.
type registers interface {
	Registers() uint8
	OutputEnabled() bool
}

// Config configures a Controller.
type Config struct {
	// ZoneCount is the number of zones, 1..zone.MaxZones.
	ZoneCount int

	// InterZoneDelay is the pause between schedule items.
	InterZoneDelay time.Duration

	// Adjustment is the initial seasonal adjustment in percent.
	Adjustment int

	// Actuator drives the outputs. Defaults to a normal-logic Register.
	Actuator actuator.Actuator

	// Clock supplies the time. Its location is the controller's local time.
	// Readings that move backwards are clamped and logged.
	Clock clock.Clock

	// Store persists state. Nil disables persistence.
	Store CycleStore

	// History records runs. Nil disables run history.
	History RunRecorder

	// EventLog receives controller events.
	EventLog log.Logger

	// Logger is the operational logger.
	Logger *slog.Logger

	// NewRunID generates run identifiers.
	NewRunID func() string
}

// Controller is the owned context of the sprinkler core.
// It is not safe for concurrent use.
type Controller struct {
	zoneCount  int
	adjustment int

	act     actuator.Actuator
	driver  *actuator.Driver
	sched   *schedule.Scheduler
	clock   clock.Clock
	store   CycleStore
	history RunRecorder
	events  log.Logger
	logger  *slog.Logger
	newID   func() string

	cycles  *cycle.Set
	hold    hold.Policy
	next    projection.Result
	running string
	runID   string

	tasks     TaskQueue
	dirty     bool
	startedAt time.Time
}

// New creates a controller with no cycles and no hold.
func New(cfg Config) (*Controller, error) {
	if cfg.ZoneCount == 0 {
		cfg.ZoneCount = DefaultZoneCount
	}
	if cfg.ZoneCount < 1 || cfg.ZoneCount > zone.MaxZones {
		return nil, fmt.Errorf("zone count %d outside 1..%d", cfg.ZoneCount, zone.MaxZones)
	}
	if cfg.Adjustment == 0 {
		cfg.Adjustment = schedule.DefaultAdjustment
	}
	if cfg.Adjustment < MinAdjustment || cfg.Adjustment > MaxAdjustment {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAdjustment, cfg.Adjustment)
	}
	if cfg.Actuator == nil {
		cfg.Actuator = actuator.NewRegister(actuator.LogicNormal)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.EventLog == nil {
		cfg.EventLog = log.NoopLogger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = func() string { return uuid.New().String() }
	}

	c := &Controller{
		zoneCount:  cfg.ZoneCount,
		adjustment: cfg.Adjustment,
		act:        cfg.Actuator,
		store:      cfg.Store,
		history:    cfg.History,
		events:     cfg.EventLog,
		logger:     cfg.Logger,
		newID:      cfg.NewRunID,
		cycles:     cycle.NewSet(),
		next:       projection.None,
	}
	c.clock = clock.NewMonotonic(cfg.Clock, c.clockAnomaly)
	c.startedAt = c.clock.Now()

	c.driver = actuator.NewDriver(c.act, c.zoneCount, c.events, c.clock.Now)
	c.driver.SetRunID(func() string { return c.runID })
	c.driver.OnChange(func(zone.Mask) { c.dirty = true })

	c.sched = schedule.NewScheduler(c.driver, cfg.InterZoneDelay)
	c.sched.OnIdle(c.scheduleIdle)
	c.sched.OnStateChange(func(oldState, newState schedule.State) {
		c.logger.Debug("scheduler state changed", "from", oldState, "to", newState, "queue", c.sched.Len())
		c.dirty = true
	})

	c.hold.OnStateChange(func(oldState, newState hold.State) {
		c.logger.Info("hold state changed", "from", oldState, "to", newState)
	})

	return c, nil
}

// Load restores cycles, hold and settings from the store and projects the
// next start. A missing state file leaves the controller empty.
func (c *Controller) Load() error {
	if c.store == nil {
		c.project()
		return nil
	}
	state, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if state != nil {
		c.cycles = c.restoreCycles(state.Cycles)
		c.hold.Days = state.HoldDays
		c.hold.Epoch = state.HoldEpoch
		if s := state.Settings; s != nil {
			c.applySettings(s)
		}
		c.logger.Info("state restored", "cycles", c.cycles.Len(), "hold_days", c.hold.Days)
	}
	c.project()
	return nil
}

// restoreCycles keeps the stored cycles that are valid for this
// controller, in order. A cycle that breaks a rule against the ones kept
// before it, or names a zone beyond the zone count, is dropped and logged.
func (c *Controller) restoreCycles(defs []cycle.Definition) *cycle.Set {
	set := cycle.NewSet()
	for i := range defs {
		def := &defs[i]
		if violations := cycle.Validate(def, set.All(), c.zoneCount); len(violations) > 0 {
			text := make([]string, len(violations))
			for j, v := range violations {
				text[j] = v.String()
			}
			c.logger.Warn("dropping invalid stored cycle",
				"cycle", def.Name,
				"violations", strings.Join(text, "; "),
			)
			c.logEvent(log.Event{
				Category: log.CategoryError,
				Op:       log.OpCycleDelete,
				Cycle:    def.Name,
				Detail:   strings.Join(text, "; "),
			})
			continue
		}
		set.Put(*def)
	}
	return set
}

func (c *Controller) applySettings(s *persistence.Settings) {
	if s.Adjustment >= MinAdjustment && s.Adjustment <= MaxAdjustment {
		c.adjustment = s.Adjustment
	}
	if s.InterZoneDelay > 0 {
		c.sched.SetInterZoneDelay(s.InterZoneDelay)
	}
	if p, ok := c.act.(polarity); ok && s.Logic != "" {
		if l, err := actuator.ParseLogic(s.Logic); err == nil {
			p.SetLogic(l)
		}
	}
}

// Now returns the controller's current time.
func (c *Controller) Now() time.Time {
	return c.clock.Now()
}

// Location returns the controller's local time zone.
func (c *Controller) Location() *time.Location {
	return c.clock.Now().Location()
}

// ZoneCount returns the configured number of zones.
func (c *Controller) ZoneCount() int {
	return c.zoneCount
}

// Tasks returns the deferred task queue.
func (c *Controller) Tasks() *TaskQueue {
	return &c.tasks
}

// Defer queues fn to run on a later tick.
func (c *Controller) Defer(fn Task) {
	c.tasks.Push(fn)
}

// MarkDirty requests a status notification after the current tick.
func (c *Controller) MarkDirty() {
	c.dirty = true
}

// TakeDirty reports and clears the pending status notification.
func (c *Controller) TakeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// Tick runs one control loop iteration.
func (c *Controller) Tick() {
	now := c.clock.Now()

	if task, ok := c.tasks.Pop(); ok {
		if err := task(c); err != nil {
			c.logger.Warn("deferred task failed", "error", err)
		}
	}

	if c.hold.Expire(now) {
		c.logEvent(log.Event{Category: log.CategoryHold, Op: log.OpHoldEnd})
		c.saveLogged()
		c.project()
		c.dirty = true
	}

	if !c.hold.Active() && c.next.Due(now) {
		c.initiateNext()
	}

	c.sched.Tick(now)
}

// initiateNext fires the projected cycle and projects again.
func (c *Controller) initiateNext() {
	name := c.next.Cycle
	c.next = projection.None
	if def, ok := c.cycles.Find(name); ok {
		c.fire(&def, history.SourceCycle)
	} else {
		c.logger.Warn("projected cycle no longer exists", "cycle", name)
	}
	c.project()
}

// project recomputes the cached next start.
func (c *Controller) project() {
	before := c.hold.Active()
	c.next = projection.Project(c.cycles.All(), &c.hold, c.clock.Now())
	if before && !c.hold.Active() {
		c.logEvent(log.Event{Category: log.CategoryHold, Op: log.OpHoldEnd})
		c.saveLogged()
	}
}

// Next returns the projected next cycle start.
func (c *Controller) Next() projection.Result {
	return c.next
}

// RunningCycle returns the name of the cycle currently running, if any.
func (c *Controller) RunningCycle() string {
	return c.running
}

// Scheduler returns the scheduler for read access.
func (c *Controller) Scheduler() *schedule.Scheduler {
	return c.sched
}

// Hold returns a copy of the hold policy.
func (c *Controller) Hold() hold.Policy {
	return hold.Policy{Days: c.hold.Days, Epoch: c.hold.Epoch}
}

// Adjustment returns the seasonal adjustment in percent.
func (c *Controller) Adjustment() int {
	return c.adjustment
}

// fire enqueues the items of def scaled by the seasonal adjustment and
// marks def as the running cycle. Items already queued stay in place.
func (c *Controller) fire(def *cycle.Definition, source string) {
	now := c.clock.Now()
	items := def.Scaled(c.adjustment)

	c.sched.Enqueue(items...)
	c.running = def.Name
	c.runID = c.newID()

	c.logEvent(log.Event{
		Category: log.CategoryCycle,
		Op:       log.OpCycleStart,
		Cycle:    def.Name,
		Detail:   itemsText(items),
	})
	c.logger.Info("cycle started",
		"cycle", def.Name,
		"run_id", c.runID,
		"source", source,
		"items", len(items),
		"duration", schedule.Total(items),
		"adj", c.adjustment,
	)
	c.recordRun(&history.Run{
		ID:         c.runID,
		Cycle:      def.Name,
		Source:     source,
		Adjustment: c.adjustment,
		Items:      items,
		StartedAt:  now,
	})
	c.dirty = true
}

// scheduleIdle runs when the last queued item finished.
func (c *Controller) scheduleIdle() {
	c.logEvent(log.Event{Category: log.CategorySchedule, Op: log.OpScheduleEnd, Cycle: c.running})
	c.finishRuns(history.StatusCompleted)
	c.running = ""
	c.runID = ""
	c.dirty = true
}

func (c *Controller) recordRun(run *history.Run) {
	if c.history == nil {
		return
	}
	if err := c.history.Start(run); err != nil {
		c.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
	}
}

func (c *Controller) finishRuns(status string) {
	if c.history == nil {
		return
	}
	if _, err := c.history.FinishRunning(status, c.clock.Now()); err != nil {
		c.logger.Warn("failed to finish runs", "status", status, "error", err)
	}
}

func (c *Controller) logEvent(e log.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = c.clock.Now()
	}
	if e.RunID == "" {
		e.RunID = c.runID
	}
	c.events.Log(e)
}

// clockAnomaly reports a clock reading that moved backwards.
func (c *Controller) clockAnomaly(observed, clamped time.Time) {
	c.logger.Warn("clock moved backwards",
		"observed", observed,
		"clamped", clamped,
	)
	c.events.Log(log.Event{
		Timestamp: clamped,
		Category:  log.CategoryError,
		Op:        log.OpClock,
		Detail:    observed.Format(time.RFC3339),
	})
}

// save persists cycles, hold and settings.
func (c *Controller) save() error {
	if c.store == nil {
		return nil
	}
	state := &persistence.ControllerState{
		SavedAt:   c.clock.Now(),
		Cycles:    c.cycles.All(),
		HoldDays:  c.hold.Days,
		HoldEpoch: c.hold.Epoch,
		Settings: &persistence.Settings{
			Adjustment:     c.adjustment,
			InterZoneDelay: c.sched.InterZoneDelay(),
		},
	}
	if p, ok := c.act.(polarity); ok {
		state.Settings.Logic = p.Logic().String()
	}
	if err := c.store.Save(state); err != nil {
		c.logger.Error("failed to save state", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// saveLogged saves for internal transitions where no caller can be told.
func (c *Controller) saveLogged() {
	_ = c.save()
}

func itemsText(items []schedule.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ",")
}
