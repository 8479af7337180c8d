package model

import "time"

// LastChangeState tracks the pending, not-yet-flushed variable changes for
// one service instance, plus the coalescing-window bookkeeping.
type LastChangeState struct {
	ChangedVariables map[uint32][]ServiceVariable
	MinInterval      time.Duration
	LastFlushTime    time.Time
	TimerScheduled   bool
}

// NewLastChangeState builds a LastChangeState with the given coalescing
// window and no pending variables.
func NewLastChangeState(minInterval time.Duration) *LastChangeState {
	return &LastChangeState{
		ChangedVariables: make(map[uint32][]ServiceVariable),
		MinInterval:      minInterval,
	}
}

// positionVariables are excluded from LastChange aggregation;
// avhost.ServiceHost.SetInstanceVariable drops them rather than writing them
// through another path.
var positionVariables = map[string]bool{
	"RelativeTimePosition":     true,
	"AbsoluteTimePosition":     true,
	"RelativeCounterPosition":  true,
	"AbsoluteCounterPosition":  true,
}

// IsPositionVariable reports whether name must bypass LastChange
// aggregation entirely.
func IsPositionVariable(name string) bool {
	return positionVariables[name]
}

// AddChangedVariable coalesces v into the pending batch for instanceID,
// with the newest value for a given variable name winning within the
// batch.
func (s *LastChangeState) AddChangedVariable(instanceID uint32, v ServiceVariable) {
	vars := s.ChangedVariables[instanceID]
	for i, existing := range vars {
		if existing.Name == v.Name {
			vars[i] = v
			s.ChangedVariables[instanceID] = vars
			return
		}
	}
	s.ChangedVariables[instanceID] = append(vars, v)
}

// Empty reports whether there are no pending variable changes for any
// instance.
func (s *LastChangeState) Empty() bool {
	for _, vars := range s.ChangedVariables {
		if len(vars) > 0 {
			return false
		}
	}
	return true
}

// Drain removes and returns every pending instance batch, in no particular
// instance order (callers render each InstanceID block independently).
func (s *LastChangeState) Drain() map[uint32][]ServiceVariable {
	drained := s.ChangedVariables
	s.ChangedVariables = make(map[uint32][]ServiceVariable)
	return drained
}
