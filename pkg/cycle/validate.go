package cycle

import (
	"fmt"
	"strings"
)

// Violation fields.
const (
	FieldName           = "name"
	FieldStartTime      = "start time"
	FieldStartHour      = "start hour"
	FieldStartMinute    = "start minute"
	FieldType           = "cycle type"
	FieldFirstTimeDelay = "first time delay"
	FieldCount          = "cycle count"
	FieldZones          = "zones"
	FieldRunTime        = "run time"
)

// Violation is one broken validation rule.
type Violation struct {
	// Field names the offending attribute.
	Field string

	// Message describes the problem.
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError is returned when a candidate definition is rejected.
type ValidationError struct {
	Name       string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid cycle %q: %s", e.Name, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validate checks candidate against the fixed ranges and against existing
// definitions. zoneCount is the configured number of zones. A start time
// shared with a definition of the same name is not a conflict, so replacing
// a cycle with itself is allowed.
func Validate(candidate *Definition, existing []Definition, zoneCount int) []Violation {
	var vs []Violation
	add := func(field, format string, args ...any) {
		vs = append(vs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if candidate.Name == "" {
		add(FieldName, "must not be empty")
	} else if len(candidate.Name) > MaxNameLength {
		add(FieldName, "longer than %d characters", MaxNameLength)
	}

	for i := range existing {
		other := &existing[i]
		if SameName(other.Name, candidate.Name) {
			continue
		}
		if other.StartHour == candidate.StartHour && other.StartMinute == candidate.StartMinute {
			add(FieldStartTime, "duplicate start time %d:%02d with %q",
				candidate.StartHour, candidate.StartMinute, other.Name)
			break
		}
	}

	if candidate.StartHour > 23 {
		add(FieldStartHour, "%d exceeds 23", candidate.StartHour)
	}
	if candidate.StartMinute > 59 {
		add(FieldStartMinute, "%d exceeds 59", candidate.StartMinute)
	}
	if candidate.Type == TypeInvalid || candidate.Type > TypeInvalid {
		add(FieldType, "invalid cycle type")
	}
	if candidate.FirstTimeDelay > MaxFirstTimeDelay {
		add(FieldFirstTimeDelay, "%d exceeds %d", candidate.FirstTimeDelay, MaxFirstTimeDelay)
	}
	if candidate.Count < MinCount || candidate.Count > MaxCount {
		add(FieldCount, "%d outside %d..%d", candidate.Count, MinCount, MaxCount)
	}

	for i, it := range candidate.Items {
		switch {
		case it.Zones.IsEmpty():
			add(FieldZones, "item %d: no zone specified", i+1)
		case it.Zones.Exceeds(zoneCount):
			add(FieldZones, "item %d: max zone %d exceeded", i+1, zoneCount)
		}
		if it.RunTime < 1 || it.RunTime > MaxItemRunTime {
			add(FieldRunTime, "item %d: %d outside 1..%d", i+1, it.RunTime, MaxItemRunTime)
		}
	}

	return vs
}

// Check runs Validate and wraps any violations in a *ValidationError.
func Check(candidate *Definition, existing []Definition, zoneCount int) error {
	vs := Validate(candidate, existing, zoneCount)
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Name: candidate.Name, Violations: vs}
}
