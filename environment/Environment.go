// Package environment outlines the interfaces a simulated world must
// satisfy for an agent to drive in it
package environment

import "github.com/driveq/driveq/timestep"

// Simulator is the handle an agent holds on the external simulation. The
// agent only ever asks the simulation to start over; everything else it
// learns about the world arrives as TimeStep inputs.
//
// Reset may be called any number of times.
type Simulator interface {
	Reset()
}

// Environment is a full simulated world that can be stepped by an
// external driver. The agent itself never sees this interface; it is the
// contract between a simulation and the experiment loop driving both.
type Environment interface {
	Simulator

	// Start returns the first TimeStep of a fresh simulation
	Start() timestep.TimeStep

	// Step applies a discrete action and returns the resulting
	// TimeStep, with collision flags describing what the action ran
	// into
	Step(action int) timestep.TimeStep

	// Rows and Cols give the observation grid dimensions
	Rows() int
	Cols() int

	// NumActions returns the number of discrete actions
	NumActions() int
}
