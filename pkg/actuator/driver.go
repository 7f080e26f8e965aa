package actuator

import (
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/log"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// registerReader is implemented by actuators that expose the raw output byte.
type registerReader interface {
	Registers() uint8
}

// Driver applies scheduler commands to an Actuator.
// It is not safe for concurrent use; the controller owns it.
type Driver struct {
	act   Actuator
	count int
	log   log.Logger
	now   func() time.Time
	runID func() string

	onChange func(zones zone.Mask)
}

// NewDriver creates a driver for count zones. now stamps events.
func NewDriver(act Actuator, count int, logger log.Logger, now func() time.Time) *Driver {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &Driver{act: act, count: count, log: logger, now: now}
}

// OnChange registers a callback invoked after a notifying zone change.
func (d *Driver) OnChange(fn func(zones zone.Mask)) {
	d.onChange = fn
}

// SetRunID supplies the run identifier stamped on events.
func (d *Driver) SetRunID(fn func() string) {
	d.runID = fn
}

// Zones returns the zones currently on.
func (d *Driver) Zones() zone.Mask {
	return d.act.Zones()
}

// TurnOn energizes mask in addition to the zones already on.
func (d *Driver) TurnOn(mask zone.Mask) {
	d.apply(d.act.Zones()|mask, mask, log.OpOn, true)
}

// TurnOff de-energizes mask, leaving other zones on.
func (d *Driver) TurnOff(mask zone.Mask) {
	d.apply(d.act.Zones()&^mask, mask, log.OpOff, true)
}

// Toggle turns every zone off and then mask on.
func (d *Driver) Toggle(mask zone.Mask) {
	d.TurnAllOff(false)
	d.TurnOn(mask)
}

// TurnAllOn energizes every configured zone.
func (d *Driver) TurnAllOn() {
	all := zone.All(d.count)
	d.apply(all, all, log.OpAllOn, true)
}

// TurnAllOff de-energizes every zone. With notify false the change is not
// reported through OnChange.
func (d *Driver) TurnAllOff(notify bool) {
	d.apply(0, 0, log.OpAllOff, notify)
}

func (d *Driver) apply(next, touched zone.Mask, op string, notify bool) {
	d.act.SetZones(next)

	e := log.Event{
		Timestamp: d.now(),
		Category:  log.CategoryZone,
		Op:        op,
		Zones:     touched,
		Registers: uint8(next),
	}
	if rr, ok := d.act.(registerReader); ok {
		e.Registers = rr.Registers()
	}
	if d.runID != nil {
		e.RunID = d.runID()
	}
	d.log.Log(e)

	if notify && d.onChange != nil {
		d.onChange(next)
	}
}

// Compile-time interface satisfaction check.
var _ schedule.Switch = (*Driver)(nil)
