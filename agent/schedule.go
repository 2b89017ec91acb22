package agent

import "fmt"

// ScheduleKind selects how a hyperparameter decays between episodes.
type ScheduleKind byte

const (
	// ScheduleLinear subtracts Decay each step.
	ScheduleLinear ScheduleKind = 0
	// ScheduleExponential multiplies by Decay each step.
	ScheduleExponential ScheduleKind = 1
)

func (k ScheduleKind) String() string {
	switch k {
	case ScheduleLinear:
		return "linear"
	case ScheduleExponential:
		return "exponential"
	}
	return "unknown"
}

// ParseScheduleKind maps a config string onto a ScheduleKind.
func ParseScheduleKind(s string) (ScheduleKind, error) {
	switch s {
	case "linear", "":
		return ScheduleLinear, nil
	case "exponential", "exp":
		return ScheduleExponential, nil
	}
	return 0, fmt.Errorf("unknown schedule kind %q", s)
}

// Schedule is a decaying hyperparameter, floored at Final.
type Schedule struct {
	Initial float64
	Final   float64
	Decay   float64
	Kind    ScheduleKind

	current float64
	started bool
}

func (s *Schedule) validate(name string) error {
	if s.Initial < s.Final {
		return fmt.Errorf("%s: initial %v below final %v", name, s.Initial, s.Final)
	}
	if s.Decay < 0 {
		return fmt.Errorf("%s: negative decay %v", name, s.Decay)
	}
	if s.Kind == ScheduleExponential && s.Decay > 1 {
		return fmt.Errorf("%s: exponential decay factor %v must be <= 1", name, s.Decay)
	}
	return nil
}

// Value returns the current hyperparameter value.
func (s *Schedule) Value() float64 {
	if !s.started {
		return s.Initial
	}
	return s.current
}

// Step applies one decay step.
func (s *Schedule) Step() {
	v := s.Value()
	switch s.Kind {
	case ScheduleExponential:
		v *= s.Decay
	default:
		v -= s.Decay
	}
	if v < s.Final {
		v = s.Final
	}
	s.current = v
	s.started = true
}

// Reset rewinds the schedule to its initial value.
func (s *Schedule) Reset() {
	s.current = s.Initial
	s.started = false
}
