package actuator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Actuator errors.
var (
	ErrInvalidLogic = errors.New("invalid logic mode")
)

// Actuator applies zone masks to the valve outputs.
type Actuator interface {
	// SetZones energizes exactly the zones in mask.
	SetZones(mask zone.Mask)

	// Zones returns the mask currently applied.
	Zones() zone.Mask
}

// Logic is the output polarity.
type Logic uint8

const (
	// LogicNormal drives an output high to open a valve.
	LogicNormal Logic = iota

	// LogicInverted drives an output low to open a valve.
	LogicInverted
)

// String returns the logic mode name.
func (l Logic) String() string {
	switch l {
	case LogicNormal:
		return "normal"
	case LogicInverted:
		return "inverted"
	default:
		return "unknown"
	}
}

// ParseLogic maps a mode name to a Logic. "reversed" is accepted for inverted.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return LogicNormal, nil
	case "inverted", "reversed":
		return LogicInverted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogic, s)
	}
}

// Register models the output shift register.
// It is safe for concurrent use.
type Register struct {
	mu    sync.RWMutex
	logic Logic
	raw   uint8
}

// NewRegister returns a register with every zone off.
func NewRegister(logic Logic) *Register {
	r := &Register{logic: logic}
	r.raw = r.encode(0)
	return r
}

func (r *Register) encode(mask zone.Mask) uint8 {
	if r.logic == LogicInverted {
		return ^uint8(mask)
	}
	return uint8(mask)
}

func (r *Register) decode(raw uint8) zone.Mask {
	if r.logic == LogicInverted {
		return zone.Mask(^raw)
	}
	return zone.Mask(raw)
}

// SetZones latches mask into the register.
func (r *Register) SetZones(mask zone.Mask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = r.encode(mask)
}

// Zones returns the logical mask held by the register.
func (r *Register) Zones() zone.Mask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decode(r.raw)
}

// Registers returns the physical register byte.
func (r *Register) Registers() uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.raw
}

// Logic returns the current polarity.
func (r *Register) Logic() Logic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logic
}

// SetLogic changes the polarity, keeping the logical zone state.
func (r *Register) SetLogic(l Logic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mask := r.decode(r.raw)
	r.logic = l
	r.raw = r.encode(mask)
}

// OutputEnabled reports the output-enable line. Outputs are disabled only
// with normal logic and every output low, so idle valves see no drive.
func (r *Register) OutputEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !(r.logic == LogicNormal && r.raw == 0)
}

// Compile-time interface satisfaction check.
var _ Actuator = (*Register)(nil)
