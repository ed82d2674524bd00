// Package experiment implements drivers that run an agent against an
// environment
package experiment

import (
	"fmt"

	"github.com/driveq/driveq/agent"
	env "github.com/driveq/driveq/environment"
	"github.com/driveq/driveq/experiment/trackers"
	ts "github.com/driveq/driveq/timestep"
)

// Online runs an agent online in an environment for a fixed number of
// simulation ticks. The driver owns the tick loop: it feeds each TimeStep
// to the agent and applies the returned action to the environment.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps     uint
	currentSteps uint
	trackers     []trackers.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how many
// ticks the experiment runs for, and the t parameter is a slice of
// trackers.Tracker which determine what data is recorded.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t ...trackers.Tracker) *Online {
	a.AttachSimulator(e)
	return &Online{e, a, steps, 0, t}
}

// Register registers a trackers.Tracker with the experiment so that data
// generated while it runs can be recorded and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Run runs the experiment for all ticks
func (o *Online) Run() error {
	step := o.Environment.Start()
	o.track(step)

	for o.currentSteps < o.maxSteps {
		o.currentSteps++

		action, err := o.Agent.Step(step)
		if err != nil {
			return fmt.Errorf("run: tick %v: %v", o.currentSteps, err)
		}

		step = o.Environment.Step(action)
		o.track(step)
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() error {
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track records the current tick in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
