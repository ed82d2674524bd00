// Package agent defines the agent interface
package agent

import (
	"github.com/driveq/driveq/environment"
	"github.com/driveq/driveq/timestep"
)

// Agent is one decision-and-learning loop. A driver feeds the agent one
// TimeStep per simulation tick; the agent shapes a reward from the tick's
// collision signals, records the transition, possibly trains or persists
// its weights, and returns the next action to take.
//
// Agents are single-threaded and synchronous: exactly one tick is
// processed at a time, and all agent state is owned exclusively by one
// instance. Running multiple agents in parallel means giving each its own
// instance; no agent state is shareable.
type Agent interface {
	// AttachSimulator hands the agent its handle on the external
	// simulation. A simulator must be attached before the first call
	// to Step.
	AttachSimulator(environment.Simulator)

	// Step processes one simulation tick and returns the chosen action
	Step(t timestep.TimeStep) (int, error)
}
