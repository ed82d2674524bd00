// Package timestep implements timesteps of the agent-simulator interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the first
// step after a simulator reset, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single tick of the simulation as seen by the
// agent: the sensor observation together with the raw collision signals
// raised since the previous tick.
//
// SelfCollision is reported by some simulators but currently has no effect
// on reward shaping. It is carried for parity with the recognized
// configuration surface.
type TimeStep struct {
	stepType        StepType
	Observation     mat.Vector
	WallCollision   bool
	RewardCollision bool
	SelfCollision   bool
	Number          int
}

// New constructs a new TimeStep
func New(t StepType, obs mat.Vector, wall, reward, self bool,
	n int) TimeStep {
	return TimeStep{t, obs, wall, reward, self, n}
}

// First returns whether a TimeStep is the first after a simulator reset
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step before shutdown
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Wall: %v  |  Reward: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.WallCollision, t.RewardCollision,
		t.Number)
}
