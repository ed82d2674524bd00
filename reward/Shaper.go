// Package reward implements reward shaping for raw collision signals.
//
// A simulator only reports which collisions happened on a tick. The Shaper
// turns those raw booleans into the scalar reward that is fed to training,
// discouraging wall strikes, discouraging camping on a reward cell, and
// forcing a restart when the actor goes too long without collecting
// anything.
package reward

import (
	"fmt"
	"time"
)

// Params holds the shaping constants. All fields are read-only after
// construction.
//
// SnakeHit is the value for a self-collision. It is kept as a
// configuration slot for simulators that report the signal, but the
// shaping path does not currently consult it.
type Params struct {
	Wall     float64 // Penalty for striking a wall
	SnakeHit float64 // Penalty for a self-collision (unused, see above)
	Bonus    float64 // Bonus for collecting a reward cell
	Other    float64 // Per-tick value when nothing was hit
}

// DefaultParams returns the shaping constants used by the stock agent
func DefaultParams() Params {
	return Params{
		Wall:     -20,
		SnakeHit: -20,
		Bonus:    20,
		Other:    -2,
	}
}

// Shaper maps the raw collision signals of each tick into a shaped scalar
// reward and a restart flag.
//
// The Shaper is a small state machine: it remembers whether the actor was
// already sitting on a reward cell last tick, and how many consecutive
// ticks have passed without a reward collision. Once the rewardless streak
// reaches the full observation-grid area, the Shaper signals that the
// simulation should restart. A Shaper is owned by exactly one agent and is
// mutated once per tick.
type Shaper struct {
	params Params
	area   int // rows * cols of the observation grid

	stepsWithoutReward int
	onReward           bool
	lastRewardTime     time.Time
}

// NewShaper returns a new Shaper for an observation grid with the given
// dimensions
func NewShaper(params Params, rows, cols int) (*Shaper, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("newshaper: invalid grid dimensions "+
			"(%v x %v)", rows, cols)
	}

	return &Shaper{
		params:         params,
		area:           rows * cols,
		lastRewardTime: time.Now(),
	}, nil
}

// Shape consumes the tick's raw collision signals and returns the shaped
// reward together with a flag indicating that the simulation should be
// restarted. Shape is total: it never fails for any combination of inputs.
//
// Wall collisions take priority over reward collisions for the base
// reward. Collecting a reward while already sitting on one is worth only
// the Other value, so camping on a reward cell pays no better than driving
// through empty space.
func (s *Shaper) Shape(wallCollision, rewardCollision bool) (float64, bool) {
	shaped := s.baseReward(wallCollision, rewardCollision)
	restart := false

	if rewardCollision {
		s.stepsWithoutReward = 0
		if s.onReward {
			shaped -= s.params.Bonus - s.params.Other
		} else {
			s.lastRewardTime = time.Now()
		}
		s.onReward = true
	} else {
		s.stepsWithoutReward++
		s.onReward = false
		if s.stepsWithoutReward >= s.area {
			// Starved for a full grid-area's worth of steps: penalize
			// as hard as a wall strike and force a restart
			restart = true
			shaped += s.params.Wall
		}
	}

	return shaped, restart
}

// baseReward returns the raw reward for the tick's collision signals
func (s *Shaper) baseReward(wallCollision, rewardCollision bool) float64 {
	if wallCollision {
		return s.params.Wall
	} else if rewardCollision {
		return s.params.Bonus
	}
	return s.params.Other
}

// ResetStagnation clears the rewardless-step counter. Callers should
// invoke this after a restart requested by Shape has been granted.
func (s *Shaper) ResetStagnation() {
	s.stepsWithoutReward = 0
}

// StepsWithoutReward returns the current rewardless-step streak
func (s *Shaper) StepsWithoutReward() int {
	return s.stepsWithoutReward
}

// LastRewardTime returns the time at which the actor last moved onto a
// reward cell it was not already sitting on
func (s *Shaper) LastRewardTime() time.Time {
	return s.lastRewardTime
}

// Params returns the shaping constants used by the Shaper
func (s *Shaper) Params() Params {
	return s.params
}
