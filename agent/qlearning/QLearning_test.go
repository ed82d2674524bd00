package qlearning

import (
	"testing"

	"github.com/driveq/driveq/network"
	"github.com/driveq/driveq/timestep"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stubApprox is a deterministic Approximator that returns the same value
// row for every state and records every Fit and SaveWeights call.
type stubApprox struct {
	q      []float64
	fits   [][2]*mat.Dense
	saved  []string
	loaded []string
}

var _ network.Approximator = &stubApprox{}

func (s *stubApprox) Predict(states *mat.Dense) (*mat.Dense, error) {
	rows, _ := states.Dims()
	out := mat.NewDense(rows, len(s.q), nil)
	for i := 0; i < rows; i++ {
		out.SetRow(i, s.q)
	}
	return out, nil
}

func (s *stubApprox) Fit(states, targets *mat.Dense) error {
	s.fits = append(s.fits, [2]*mat.Dense{states, targets})
	return nil
}

func (s *stubApprox) SaveWeights(id string) error {
	s.saved = append(s.saved, id)
	return nil
}

func (s *stubApprox) LoadWeights(id string) error {
	s.loaded = append(s.loaded, id)
	return nil
}

// stubSim counts restart requests
type stubSim struct {
	resets int
}

func (s *stubSim) Reset() {
	s.resets++
}

// obs returns an observation for a rows x cols grid with a marker at cell
// index i
func obs(rows, cols, i int) mat.Vector {
	v := mat.NewVecDense(rows*cols, nil)
	v.SetVec(i, 1.0)
	return v
}

// tick builds a Mid TimeStep with the given collision flags
func tick(o mat.Vector, wall, reward bool, n int) timestep.TimeStep {
	return timestep.New(timestep.Mid, o, wall, reward, false, n)
}

func newTestAgent(t *testing.T, approx network.Approximator,
	config Config) (*QLearning, *stubSim) {
	q, err := New(approx, config, 42)
	require.NoError(t, err)

	sim := &stubSim{}
	q.AttachSimulator(sim)
	return q, sim
}

func TestStepWithoutSimulatorFails(t *testing.T) {
	approx := &stubApprox{q: []float64{1, 2, 3, 4}}
	q, err := New(approx, DefaultConfig(10, 10, 4), 42)
	require.NoError(t, err)

	_, err = q.Step(tick(obs(10, 10, 0), false, false, 1))
	require.Error(t, err, "stepping without a simulator must fail")
}

func TestGreedyActionWhenNotTraining(t *testing.T) {
	// epsilon = 1.0 and training disabled: the chosen action must always
	// be the argmax of the approximator's prediction
	approx := &stubApprox{q: []float64{-1, 7, 3, 2}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	config.Training = false
	q, _ := newTestAgent(t, approx, config)

	for i := 0; i < 200; i++ {
		action, err := q.Step(tick(obs(10, 10, i%100), false, false, i+1))
		require.NoError(t, err)
		require.Equal(t, 1, action)
	}
	require.Empty(t, approx.fits, "no training while not in training mode")
}

func TestCheckpointCadence(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1, 0, 0}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	config.Training = false
	config.SaveAfter = 5
	q, _ := newTestAgent(t, approx, config)

	for i := 0; i < 12; i++ {
		_, err := q.Step(tick(obs(10, 10, 0), true, false, i+1))
		require.NoError(t, err)
	}

	// Collisions 0, 5 and 10 save; every other collision does not
	require.Equal(t, []string{"model_0", "model_5", "model_10"},
		approx.saved)
	require.Equal(t, 12, q.CollisionCount())
}

func TestFirstTickStoresNoExperience(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1, 0, 0}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	q, _ := newTestAgent(t, approx, config)

	_, err := q.Step(tick(obs(10, 10, 0), false, false, 1))
	require.NoError(t, err)
	require.Equal(t, 0, q.Memory().Len(),
		"no previous state on the first tick")

	_, err = q.Step(tick(obs(10, 10, 1), false, false, 2))
	require.NoError(t, err)
	require.Equal(t, 1, q.Memory().Len())
}

func TestEmptyMemoryTrainingIsNoOp(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1, 0, 0}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	config.TrainEachStep = true
	q, _ := newTestAgent(t, approx, config)

	// First tick: memory is empty, the per-step training pass must not
	// call Fit
	_, err := q.Step(tick(obs(10, 10, 0), false, false, 1))
	require.NoError(t, err)
	require.Empty(t, approx.fits)
}

func TestTDTargetIsolation(t *testing.T) {
	qRow := []float64{1, 2, 5, 3}
	approx := &stubApprox{q: qRow}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0 // Greedy: argmax of qRow is action 2
	config.TrainEachStep = true
	config.BatchSize = 1
	config.Discount = 0.9
	q, _ := newTestAgent(t, approx, config)

	// Tick 1 selects action 2 greedily; tick 2 completes the transition
	// and trains on the singleton batch
	_, err := q.Step(tick(obs(10, 10, 0), false, false, 1))
	require.NoError(t, err)
	_, err = q.Step(tick(obs(10, 10, 1), false, false, 2))
	require.NoError(t, err)

	require.Len(t, approx.fits, 1)
	states, targets := approx.fits[0][0], approx.fits[0][1]

	rows, _ := states.Dims()
	require.Equal(t, 1, rows, "tensors sized to the actual sampled count")

	// Shaped reward for an empty tick is -2; TD target is
	// -2 + 0.9 * max(qRow) = 2.5, written only at the executed action
	target := targets.RawRowView(0)
	require.InDelta(t, 2.5, target[2], 1e-12)
	for i, v := range target {
		if i == 2 {
			continue
		}
		require.Equal(t, qRow[i], v,
			"unexecuted action %v must keep its predicted value", i)
	}
}

func TestStagnationRequestsRestart(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1, 0, 0}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	config.Training = false
	q, sim := newTestAgent(t, approx, config)

	for i := 0; i < 99; i++ {
		_, err := q.Step(tick(obs(10, 10, i%100), false, false, i+1))
		require.NoError(t, err)
		require.Equal(t, 0, sim.resets, "restarted early on tick %v", i+1)
	}

	_, err := q.Step(tick(obs(10, 10, 99), false, false, 100))
	require.NoError(t, err)
	require.Equal(t, 1, sim.resets,
		"tick 100 without reward must restart a 10x10 grid")

	// The stagnation counter was cleared along with the restart
	_, err = q.Step(tick(obs(10, 10, 0), false, false, 101))
	require.NoError(t, err)
	require.Equal(t, 1, sim.resets)
}

func TestWallCollisionTriggersTraining(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1, 0, 0}}
	config := DefaultConfig(10, 10, 4)
	config.Epsilon = 1.0
	config.BatchSize = 4
	q, _ := newTestAgent(t, approx, config)

	// Fill the memory with a few transitions first
	for i := 0; i < 5; i++ {
		_, err := q.Step(tick(obs(10, 10, i), false, false, i+1))
		require.NoError(t, err)
	}
	require.Empty(t, approx.fits)

	_, err := q.Step(tick(obs(10, 10, 5), true, false, 6))
	require.NoError(t, err)
	require.Len(t, approx.fits, 1, "wall collision while training must "+
		"run one training pass")
}

func TestNewValidatesConfig(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1}}

	config := DefaultConfig(10, 10, 2)
	config.SaveAfter = 0
	if _, err := New(approx, config, 42); err == nil {
		t.Error("expected error for SaveAfter == 0")
	}

	config = DefaultConfig(10, 10, 2)
	config.Discount = 1.5
	if _, err := New(approx, config, 42); err == nil {
		t.Error("expected error for discount > 1")
	}

	config = DefaultConfig(10, 10, 2)
	config.BatchSize = 0
	if _, err := New(approx, config, 42); err == nil {
		t.Error("expected error for zero batch size")
	}
}

func TestExplicitWeightsLoadedAtConstruction(t *testing.T) {
	approx := &stubApprox{q: []float64{0, 1}}
	config := DefaultConfig(10, 10, 2)
	config.WeightsID = "model_40"

	_, err := New(approx, config, 42)
	require.NoError(t, err)
	require.Equal(t, []string{"model_40"}, approx.loaded)
}
