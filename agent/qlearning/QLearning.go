// Package qlearning implements the online decision-and-learning loop of a
// Q-learning agent with experience replay.
//
// Each simulation tick the agent shapes a scalar reward from the tick's
// raw collision signals, records the resulting transition in its replay
// memory, decides whether to persist a checkpoint or run a training pass,
// and selects the next action epsilon-greedily from its value-function
// approximator.
package qlearning

import (
	"fmt"
	"os"

	"github.com/driveq/driveq/checkpoint"
	"github.com/driveq/driveq/environment"
	"github.com/driveq/driveq/network"
	"github.com/driveq/driveq/policy"
	"github.com/driveq/driveq/replay"
	"github.com/driveq/driveq/reward"
	"github.com/driveq/driveq/timestep"
	"github.com/driveq/driveq/utils/floatutils"
	"github.com/driveq/driveq/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// checkpointPrefix tags persisted weights with the collision count at
// which they were taken
const checkpointPrefix = "model"

// QLearning implements agent.Agent. All state is owned exclusively by one
// instance and mutated only by Step; nothing is safe for concurrent use.
type QLearning struct {
	config Config

	approx      network.Approximator
	memory      *replay.Memory
	shaper      *reward.Shaper
	behaviour   *policy.EGreedy
	checkpoints *checkpoint.Enumerator

	sim environment.Simulator

	// Transition under construction: the state the actor was in on the
	// previous tick and the action it chose there
	prevState mat.Vector
	prevAct   int
	hasPrev   bool

	collisionCount int
}

// New creates and returns a new QLearning agent using the given
// approximator. A simulator must be attached with AttachSimulator before
// the first Step.
func New(approx network.Approximator, config Config,
	seed uint64) (*QLearning, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shaper, err := reward.NewShaper(config.Rewards, config.Rows,
		config.Cols)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.NewEGreedy(config.Epsilon, config.NumActions,
		config.Training, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	q := &QLearning{
		config:      config,
		approx:      approx,
		memory:      replay.NewMemory(config.ReplayCapacity, seed+1),
		shaper:      shaper,
		behaviour:   behaviour,
		checkpoints: checkpoint.NewEnumerator(checkpointPrefix),
	}

	if config.WeightsID != "" {
		if err := approx.LoadWeights(config.WeightsID); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	} else if config.LoadLatest {
		err := approx.LoadWeights(checkpoint.Latest)
		if network.IsNotFound(err) {
			// First run: nothing persisted yet, start fresh
			fmt.Fprintf(os.Stderr, "Warning: no %q weights to resume "+
				"from, starting fresh\n", checkpoint.Latest)
		} else if err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	return q, nil
}

// AttachSimulator hands the agent its handle on the external simulation
func (q *QLearning) AttachSimulator(sim environment.Simulator) {
	q.sim = sim
}

// Step processes one simulation tick: shape the reward, record the
// completed transition, run the training/checkpoint schedule, select the
// next action, and grant any restart the reward shaper requested.
//
// Stepping without an attached simulator is a configuration error, not a
// recoverable condition.
func (q *QLearning) Step(t timestep.TimeStep) (int, error) {
	if q.sim == nil {
		return 0, fmt.Errorf("step: no simulator attached: call " +
			"AttachSimulator before the first tick")
	}

	shaped, restart := q.shaper.Shape(t.WallCollision, t.RewardCollision)

	// The reward belongs to the transition out of the previous state; on
	// the very first tick there is no completed transition to record
	if q.hasPrev {
		q.memory.Add(replay.Experience{
			State:     q.prevState,
			Action:    q.prevAct,
			Reward:    shaped,
			NextState: t.Observation,
		})
	}
	q.prevState = t.Observation
	q.hasPrev = true

	if err := q.schedule(t.WallCollision); err != nil {
		return 0, err
	}

	action, err := q.selectAction(t.Observation)
	if err != nil {
		return 0, err
	}
	q.prevAct = action

	if restart {
		q.sim.Reset()
		q.shaper.ResetStagnation()
	}

	return action, nil
}

// schedule decides whether this tick persists a checkpoint or triggers
// training passes.
//
// The cadence check runs before the collision count is incremented, so the
// very first wall collision (count 0) always saves.
func (q *QLearning) schedule(wallCollision bool) error {
	if wallCollision {
		if q.collisionCount%q.config.SaveAfter == 0 {
			id := q.checkpoints.Tag(q.collisionCount)
			if err := q.approx.SaveWeights(id); err != nil {
				return fmt.Errorf("schedule: %v", err)
			}
		}
		if q.config.Training {
			if err := q.train(); err != nil {
				return fmt.Errorf("schedule: %v", err)
			}
		}
		q.collisionCount++
	}

	if q.config.Training && q.config.TrainEachStep {
		if err := q.train(); err != nil {
			return fmt.Errorf("schedule: %v", err)
		}
	}
	return nil
}

// train runs one training pass: sample a batch of experiences, build the
// TD targets, and fit the approximator on the whole batch in one call.
//
// The training tensors are sized to the actual sampled count, which may be
// smaller than the configured batch size while the memory is filling up.
// An empty batch is a no-op.
func (q *QLearning) train() error {
	batch := q.memory.Sample(q.config.BatchSize)
	if len(batch) == 0 {
		return nil
	}

	features := q.config.features()
	states := mat.NewDense(len(batch), features, nil)
	targets := mat.NewDense(len(batch), q.config.NumActions, nil)

	for i, e := range batch {
		qPred, err := q.approx.Predict(stateMatrix(e.State, features))
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}
		qNext, err := q.approx.Predict(stateMatrix(e.NextState, features))
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}

		target := e.Reward +
			q.config.Discount*floatutils.Max(qNext.RawRowView(0)...)

		// Only the executed action's entry is overwritten, so the fit is
		// a no-op gradient for every action that was not taken
		row := append([]float64(nil), qPred.RawRowView(0)...)
		row[e.Action] = target

		states.SetRow(i, matutils.VecToSlice(e.State))
		targets.SetRow(i, row)
	}

	if err := q.approx.Fit(states, targets); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	return nil
}

// selectAction queries the approximator for the current state's action
// values and lets the behaviour policy choose
func (q *QLearning) selectAction(obs mat.Vector) (int, error) {
	values, err := q.approx.Predict(stateMatrix(obs, q.config.features()))
	if err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}

	row := values.RawRowView(0)
	return q.behaviour.SelectAction(mat.NewVecDense(len(row), row)), nil
}

// CollisionCount returns the number of wall collisions scheduled so far
func (q *QLearning) CollisionCount() int {
	return q.collisionCount
}

// Memory returns the agent's replay memory
func (q *QLearning) Memory() *replay.Memory {
	return q.memory
}

// stateMatrix copies a state vector into a 1 x features matrix for the
// approximator
func stateMatrix(v mat.Vector, features int) *mat.Dense {
	return mat.NewDense(1, features, matutils.VecToSlice(v))
}
