package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestMLP(t *testing.T) *MLP {
	m, err := NewMLP(4, 3, []int{8}, 0.01, 0.0, t.TempDir())
	require.NoError(t, err)
	return m
}

func TestNewMLPValidation(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewMLP(0, 3, nil, 0.01, 0, dir); err == nil {
		t.Error("expected error for zero features")
	}
	if _, err := NewMLP(4, 0, nil, 0.01, 0, dir); err == nil {
		t.Error("expected error for zero outputs")
	}
	if _, err := NewMLP(4, 3, []int{8, -1}, 0.01, 0, dir); err == nil {
		t.Error("expected error for negative hidden size")
	}
	if _, err := NewMLP(4, 3, []int{8}, 0, 0, dir); err == nil {
		t.Error("expected error for zero step size")
	}
}

func TestMLPPredictShape(t *testing.T) {
	m := newTestMLP(t)

	for _, batch := range []int{1, 2, 7} {
		states := mat.NewDense(batch, 4, nil)
		out, err := m.Predict(states)
		require.NoError(t, err)

		rows, cols := out.Dims()
		require.Equal(t, batch, rows)
		require.Equal(t, 3, cols)
	}

	// Wrong feature size is rejected
	if _, err := m.Predict(mat.NewDense(1, 5, nil)); err == nil {
		t.Error("expected error for wrong feature size")
	}
}

// Predict must be deterministic between fits and consistent across batch
// sizes, since every compiled graph views the same weights.
func TestMLPPredictConsistentAcrossBatchSizes(t *testing.T) {
	m := newTestMLP(t)

	state := []float64{0.1, -0.2, 0.3, 0.4}
	single, err := m.Predict(mat.NewDense(1, 4, state))
	require.NoError(t, err)

	double, err := m.Predict(mat.NewDense(2, 4,
		append(append([]float64{}, state...), state...)))
	require.NoError(t, err)

	require.InDeltaSlice(t, single.RawRowView(0), double.RawRowView(0),
		1e-12)
	require.InDeltaSlice(t, single.RawRowView(0), double.RawRowView(1),
		1e-12)
}

func TestMLPFitChangesPredictions(t *testing.T) {
	m := newTestMLP(t)

	states := mat.NewDense(2, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		-0.4, -0.3, -0.2, -0.1,
	})
	targets := mat.NewDense(2, 3, []float64{
		10, 0, 0,
		0, 10, 0,
	})

	before, err := m.Predict(states)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Fit(states, targets))
	}

	after, err := m.Predict(states)
	require.NoError(t, err)
	require.False(t, mat.EqualApprox(before, after, 1e-12),
		"fitting should change predictions")

	// Fit on nil tensors is a no-op
	require.NoError(t, m.Fit(nil, nil))
}

func TestMLPSaveLoadRoundTrip(t *testing.T) {
	m := newTestMLP(t)
	states := mat.NewDense(1, 4, []float64{0.5, 0.5, -0.5, -0.5})

	before, err := m.Predict(states)
	require.NoError(t, err)
	require.NoError(t, m.SaveWeights("model_0"))

	// Drift the weights, then restore
	targets := mat.NewDense(1, 3, []float64{5, -5, 5})
	require.NoError(t, m.Fit(states, targets))
	require.NoError(t, m.LoadWeights("model_0"))

	after, err := m.Predict(states)
	require.NoError(t, err)
	require.InDeltaSlice(t, before.RawRowView(0), after.RawRowView(0),
		1e-12)
}

func TestMLPLoadErrors(t *testing.T) {
	m := newTestMLP(t)

	err := m.LoadWeights("never_saved")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.False(t, IsNotFound(nil))

	// A load that fails must leave the in-memory weights untouched
	states := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	before, predErr := m.Predict(states)
	require.NoError(t, predErr)

	_ = m.LoadWeights("still_missing")
	after, predErr := m.Predict(states)
	require.NoError(t, predErr)
	require.InDeltaSlice(t, before.RawRowView(0), after.RawRowView(0),
		1e-12)

	// Architecture mismatch is a distinct error kind
	other, err := NewMLP(4, 2, []int{8}, 0.01, 0, m.weightsDir)
	require.NoError(t, err)
	require.NoError(t, other.SaveWeights("small_head"))

	err = m.LoadWeights("small_head")
	require.Error(t, err)
	require.True(t, IsShapeMismatch(err))
	require.False(t, IsNotFound(err))
}
