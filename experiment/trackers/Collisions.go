package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/driveq/driveq/timestep"
)

// CollisionCounts is the data saved by a Collisions tracker: for each
// tick, the cumulative number of reward and wall collisions seen so far.
type CollisionCounts struct {
	Rewards []int
	Walls   []int
}

// Collisions tracks the cumulative collision counts over an experiment.
// The reward-collision curve is the driving proxy for learning progress:
// an agent that is learning collects rewards at an accelerating rate and
// strikes walls at a decelerating one.
type Collisions struct {
	counts   CollisionCounts
	rewards  int
	walls    int
	filename string
}

// NewCollisions creates and returns a new *Collisions tracker that saves
// to the given file
func NewCollisions(filename string) Tracker {
	return &Collisions{filename: filename}
}

// Track records the collision flags of one tick
func (c *Collisions) Track(step ts.TimeStep) {
	if step.RewardCollision {
		c.rewards++
	}
	if step.WallCollision {
		c.walls++
	}
	c.counts.Rewards = append(c.counts.Rewards, c.rewards)
	c.counts.Walls = append(c.counts.Walls, c.walls)
}

// Save gob-encodes the cumulative counts to disk
func (c *Collisions) Save() error {
	file, err := os.Create(c.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.counts); err != nil {
		return fmt.Errorf("save: could not encode collision data: %v", err)
	}
	return nil
}

// LoadCollisions loads previously saved collision data
func LoadCollisions(filename string) (CollisionCounts, error) {
	file, err := os.Open(filename)
	if err != nil {
		return CollisionCounts{}, fmt.Errorf("loadcollisions: %v", err)
	}
	defer file.Close()

	var counts CollisionCounts
	if err := gob.NewDecoder(file).Decode(&counts); err != nil {
		return CollisionCounts{}, fmt.Errorf("loadcollisions: %v", err)
	}
	return counts, nil
}
