package qlearning

import (
	"fmt"

	"github.com/driveq/driveq/reward"
)

// Config implements a configuration for a QLearning agent.
//
// Alpha and AlphaDecay describe the approximator's learning-rate schedule.
// The agent itself never consults them; they are carried here so that one
// Config describes a full agent, and whoever constructs the approximator
// reads them from the same place.
type Config struct {
	Alpha      float64 // Approximator step size (pass-through)
	AlphaDecay float64 // Approximator step-size decay (pass-through)
	Discount   float64 // TD target discount, in [0, 1]
	Epsilon    float64 // Exploitation probability while training

	BatchSize      int // Experiences sampled per training pass
	ReplayCapacity int // Max replay memory size; <= 0 means unbounded

	// SaveAfter is the checkpoint cadence in wall collisions: weights
	// are persisted on every collision whose 0-indexed count is a
	// multiple of SaveAfter. Must be positive.
	SaveAfter int

	// Observation grid dimensions and the discrete action count
	Rows, Cols int
	NumActions int

	Training      bool // Whether training passes and exploration happen
	TrainEachStep bool // Train on every tick, not only on wall collisions

	// LoadLatest restores the checkpoint.Latest weights at construction.
	// WeightsID, if non-empty, names an explicit checkpoint to restore
	// instead and must resolve.
	LoadLatest bool
	WeightsID  string

	Rewards reward.Params // Shaping constants
}

// DefaultConfig returns the stock agent configuration
func DefaultConfig(rows, cols, numActions int) Config {
	return Config{
		Alpha:          0.001,
		AlphaDecay:     0.0,
		Discount:       0.9,
		Epsilon:        0.9,
		BatchSize:      32,
		ReplayCapacity: 10_000,
		SaveAfter:      10,
		Rows:           rows,
		Cols:           cols,
		NumActions:     numActions,
		Training:       true,
		Rewards:        reward.DefaultParams(),
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// QLearning agent. Scheduling with SaveAfter == 0 would divide by zero at
// tick time, so it is rejected here, at configuration time.
func (c Config) Validate() error {
	if c.SaveAfter < 1 {
		return fmt.Errorf("config: SaveAfter must be a positive integer, "+
			"have %v", c.SaveAfter)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("config: discount must be in [0, 1], have %v",
			c.Discount)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("config: epsilon must be in [0, 1], have %v",
			c.Epsilon)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be > 0, have %v",
			c.BatchSize)
	}
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("config: invalid observation grid (%v x %v)",
			c.Rows, c.Cols)
	}
	if c.NumActions < 1 {
		return fmt.Errorf("config: NumActions must be > 0, have %v",
			c.NumActions)
	}
	return nil
}

// features returns the observation vector length
func (c Config) features() int {
	return c.Rows * c.Cols
}
