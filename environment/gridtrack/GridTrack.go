// Package gridtrack implements a small grid-based driving environment.
//
// The actor occupies one cell of an R x C grid and moves one cell per tick
// in one of four directions. Driving into the boundary raises the wall
// collision flag and leaves the actor in place. One reward cell is present
// at all times; entering it raises the reward collision flag and respawns
// the reward elsewhere on the grid.
package gridtrack

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/driveq/driveq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Discrete actions
const (
	Left int = iota
	Right
	Up
	Down

	NumActions
)

// Observation cell values
const (
	actorCell  = 1.0
	rewardCell = 0.5
)

// Track is a grid driving environment. It satisfies
// environment.Environment.
type Track struct {
	rows, cols int

	startX, startY   int
	x, y             int
	rewardX, rewardY int

	stepNumber int
	rng        *rand.Rand
}

// New returns a new Track with the actor starting at (startX, startY).
// The seed drives reward-cell placement.
func New(rows, cols, startX, startY int, seed uint64) (*Track, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("new: track must be at least 2 x 2, "+
			"have %v x %v", rows, cols)
	}
	if startX < 0 || startX >= cols || startY < 0 || startY >= rows {
		return nil, fmt.Errorf("new: start (%v, %v) outside %v x %v track",
			startX, startY, rows, cols)
	}

	t := &Track{
		rows:   rows,
		cols:   cols,
		startX: startX,
		startY: startY,
		rng:    rand.New(rand.NewSource(seed)),
	}
	t.reset()
	return t, nil
}

// reset places the actor back at the start and respawns the reward
func (t *Track) reset() {
	t.x, t.y = t.startX, t.startY
	t.respawnReward()
}

// respawnReward moves the reward cell to a random cell the actor does not
// occupy
func (t *Track) respawnReward() {
	for {
		t.rewardX = t.rng.Intn(t.cols)
		t.rewardY = t.rng.Intn(t.rows)
		if t.rewardX != t.x || t.rewardY != t.y {
			return
		}
	}
}

// Reset restarts the simulation. The step counter is not rewound so that
// TimeStep numbers stay monotonic across an agent-requested restart.
func (t *Track) Reset() {
	t.reset()
}

// Start returns the first TimeStep of a fresh simulation
func (t *Track) Start() timestep.TimeStep {
	t.reset()
	t.stepNumber = 0
	return timestep.New(timestep.First, t.observation(), false, false,
		false, 0)
}

// Step moves the actor one cell in the given direction and reports what
// it ran into. Unknown actions leave the actor in place without raising
// any collision.
func (t *Track) Step(action int) timestep.TimeStep {
	wall := false
	switch action {
	case Left:
		if t.x-1 < 0 {
			wall = true
		} else {
			t.x--
		}
	case Right:
		if t.x+1 >= t.cols {
			wall = true
		} else {
			t.x++
		}
	case Up:
		if t.y+1 >= t.rows {
			wall = true
		} else {
			t.y++
		}
	case Down:
		if t.y-1 < 0 {
			wall = true
		} else {
			t.y--
		}
	}

	reward := t.x == t.rewardX && t.y == t.rewardY
	if reward {
		t.respawnReward()
	}

	t.stepNumber++
	return timestep.New(timestep.Mid, t.observation(), wall, reward, false,
		t.stepNumber)
}

// observation returns the flattened grid: the actor's cell holds 1.0, the
// reward cell 0.5, all other cells 0
func (t *Track) observation() mat.Vector {
	obs := mat.NewVecDense(t.rows*t.cols, nil)
	obs.SetVec(t.y*t.cols+t.x, actorCell)
	obs.SetVec(t.rewardY*t.cols+t.rewardX, rewardCell)
	return obs
}

// Rows returns the number of grid rows
func (t *Track) Rows() int {
	return t.rows
}

// Cols returns the number of grid columns
func (t *Track) Cols() int {
	return t.cols
}

// NumActions returns the number of discrete actions
func (t *Track) NumActions() int {
	return NumActions
}

// Position returns the actor's current cell
func (t *Track) Position() (x, y int) {
	return t.x, t.y
}

// RewardPosition returns the reward cell's current position
func (t *Track) RewardPosition() (x, y int) {
	return t.rewardX, t.rewardY
}
