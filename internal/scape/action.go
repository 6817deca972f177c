package scape

import (
	"fmt"
	"math"
)

// Action is one of the four discrete moves a policy can choose.
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
)

const (
	// ObservationSize is the width of the observation vector fed to a policy.
	ObservationSize = 3
	// ActionCount is the width of the action-score vector a policy must return.
	ActionCount = 4
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// SelectAction returns the action with the highest score. Ties go to the
// lowest index and NaN scores never win.
func SelectAction(scores []float64) (Action, error) {
	if len(scores) != ActionCount {
		return 0, fmt.Errorf("policy requires %d action scores, got %d", ActionCount, len(scores))
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] || (math.IsNaN(scores[best]) && !math.IsNaN(scores[i])) {
			best = i
		}
	}
	return Action(best), nil
}
