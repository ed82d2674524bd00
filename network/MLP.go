package network

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fitEpochs is the number of gradient passes taken over each batch in a
// single Fit call
const fitEpochs = 3

// MLP implements Approximator with a multi-layered perceptron: fully
// connected hidden layers with ReLU activations and a linear output head,
// trained on the mean squared error by Adam.
//
// Gorgonia compiles computational graphs for a fixed batch size, but
// Predict and Fit are called with whatever row count the caller has on
// hand, so the MLP compiles one graph per distinct batch size seen and
// binds a single canonical set of weight tensors into whichever graph
// runs. The weights live outside every graph; a graph is just a view onto
// them.
type MLP struct {
	features int
	outputs  int
	hidden   []int

	alpha      float64 // Adam step size
	alphaDecay float64 // Step-size decay per Fit call
	fitsTaken  int

	// Canonical parameters, in layer order: w0, b0, w1, b1, ...
	weights []*tensor.Dense

	weightsDir string

	predGraphs map[int]*mlpGraph
	fitGraphs  map[int]*mlpGraph
}

// mlpGraph is one compiled view of the MLP for a fixed batch size
type mlpGraph struct {
	graph  *G.ExprGraph
	input  *G.Node
	target *G.Node // nil for prediction-only graphs
	params G.Nodes
	pred   *G.Node
	vm     G.VM
	solver G.Solver // nil for prediction-only graphs
}

// NewMLP returns a new MLP with len(hidden) ReLU hidden layers of the
// given sizes. The features and outputs parameters give the observation
// vector length and the number of discrete actions. Weights are persisted
// as gob files under weightsDir.
func NewMLP(features, outputs int, hidden []int, alpha, alphaDecay float64,
	weightsDir string) (*MLP, error) {
	if features < 1 {
		return nil, fmt.Errorf("newmlp: features must be > 0, have %v",
			features)
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newmlp: outputs must be > 0, have %v",
			outputs)
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("newmlp: step size must be > 0, have %v",
			alpha)
	}
	for _, size := range hidden {
		if size < 1 {
			return nil, fmt.Errorf("newmlp: invalid hidden layer size %v",
				size)
		}
	}

	m := &MLP{
		features:   features,
		outputs:    outputs,
		hidden:     hidden,
		alpha:      alpha,
		alphaDecay: alphaDecay,
		weightsDir: weightsDir,
		predGraphs: make(map[int]*mlpGraph),
		fitGraphs:  make(map[int]*mlpGraph),
	}
	m.weights = m.initWeights()

	return m, nil
}

// layerSizes returns the output size of each layer, including the head
func (m *MLP) layerSizes() []int {
	sizes := make([]int, 0, len(m.hidden)+1)
	sizes = append(sizes, m.hidden...)
	return append(sizes, m.outputs)
}

// initWeights creates the canonical parameter tensors. Weight matrices use
// Glorot initialization, biases start at zero.
func (m *MLP) initWeights() []*tensor.Dense {
	glorot := G.GlorotU(1.0)
	zeroes := G.Zeroes()

	in := m.features
	weights := make([]*tensor.Dense, 0, 2*(len(m.hidden)+1))
	for _, out := range m.layerSizes() {
		w := tensor.New(
			tensor.WithShape(in, out),
			tensor.WithBacking(glorot(tensor.Float64, in, out)),
		)
		b := tensor.New(
			tensor.WithShape(1, out),
			tensor.WithBacking(zeroes(tensor.Float64, 1, out)),
		)
		weights = append(weights, w, b)
		in = out
	}
	return weights
}

// compile builds the computational graph of the MLP for a fixed batch
// size, with or without the loss and solver needed for fitting
func (m *MLP) compile(batch int, withLoss bool) (*mlpGraph, error) {
	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, m.features), G.WithName("states"))

	sizes := m.layerSizes()
	params := make(G.Nodes, 0, 2*len(sizes))

	out := input
	in := m.features
	for i, size := range sizes {
		w := G.NewMatrix(g, tensor.Float64, G.WithShape(in, size),
			G.WithName(fmt.Sprintf("w%d", i)))
		b := G.NewMatrix(g, tensor.Float64, G.WithShape(1, size),
			G.WithName(fmt.Sprintf("b%d", i)))
		params = append(params, w, b)

		var err error
		if out, err = G.Mul(out, w); err != nil {
			return nil, fmt.Errorf("compile: layer %v: %v", i, err)
		}
		if out, err = G.BroadcastAdd(out, b, nil, []byte{0}); err != nil {
			return nil, fmt.Errorf("compile: layer %v bias: %v", i, err)
		}

		// No activation on the head so value estimates are unbounded
		if i < len(sizes)-1 {
			if out, err = G.Rectify(out); err != nil {
				return nil, fmt.Errorf("compile: layer %v activation: %v",
					i, err)
			}
		}
		in = size
	}

	compiled := &mlpGraph{
		graph:  g,
		input:  input,
		params: params,
		pred:   out,
	}

	if !withLoss {
		compiled.vm = G.NewTapeMachine(g)
		return compiled, nil
	}

	target := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, m.outputs), G.WithName("targets"))

	losses := G.Must(G.Square(G.Must(G.Sub(out, target))))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, params...); err != nil {
		return nil, fmt.Errorf("compile: could not compute gradient: %v",
			err)
	}

	compiled.target = target
	compiled.vm = G.NewTapeMachine(g, G.BindDualValues(params...))
	compiled.solver = G.NewAdamSolver(
		G.WithLearnRate(m.alpha),
		G.WithBatchSize(float64(batch)),
	)
	return compiled, nil
}

// let binds the canonical weights into a compiled graph's parameter nodes
func (c *mlpGraph) let(weights []*tensor.Dense) error {
	for i, node := range c.params {
		if err := G.Let(node, weights[i]); err != nil {
			return fmt.Errorf("let: could not bind %v: %v", node.Name(),
				err)
		}
	}
	return nil
}

// predGraph returns the prediction graph for a batch size, compiling it on
// first use. Only a handful of distinct batch sizes ever occur: 1 for
// action selection and the (possibly short) training batch sizes.
func (m *MLP) predGraph(batch int) (*mlpGraph, error) {
	if c, ok := m.predGraphs[batch]; ok {
		return c, nil
	}
	c, err := m.compile(batch, false)
	if err != nil {
		return nil, err
	}
	m.predGraphs[batch] = c
	return c, nil
}

func (m *MLP) fitGraph(batch int) (*mlpGraph, error) {
	if c, ok := m.fitGraphs[batch]; ok {
		return c, nil
	}
	c, err := m.compile(batch, true)
	if err != nil {
		return nil, err
	}
	m.fitGraphs[batch] = c
	return c, nil
}

// flatten copies a matrix into a freshly allocated row-major backing slice
func flatten(d *mat.Dense) []float64 {
	rows, cols := d.Dims()
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		copy(data[i*cols:(i+1)*cols], d.RawRowView(i))
	}
	return data
}

// Predict returns the per-action value estimates for each row of states
func (m *MLP) Predict(states *mat.Dense) (*mat.Dense, error) {
	rows, cols := states.Dims()
	if cols != m.features {
		return nil, fmt.Errorf("predict: invalid feature size "+
			"\n\twant(%v)\n\thave(%v)", m.features, cols)
	}

	c, err := m.predGraph(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	in := tensor.New(
		tensor.WithShape(rows, m.features),
		tensor.WithBacking(flatten(states)),
	)
	if err := G.Let(c.input, in); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %v", err)
	}
	if err := c.let(m.weights); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	if err := c.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	outData := c.pred.Value().Data().([]float64)
	out := mat.NewDense(rows, m.outputs, append([]float64(nil), outData...))
	c.vm.Reset()

	return out, nil
}

// Fit adjusts the weights towards the target value rows. The graph is
// sized to the actual row count of the batch, never padded.
func (m *MLP) Fit(states, targets *mat.Dense) error {
	if states == nil || targets == nil {
		return nil
	}

	rows, cols := states.Dims()
	tRows, tCols := targets.Dims()
	if cols != m.features {
		return fmt.Errorf("fit: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", m.features, cols)
	}
	if tCols != m.outputs {
		return fmt.Errorf("fit: invalid target size \n\twant(%v)"+
			"\n\thave(%v)", m.outputs, tCols)
	}
	if rows != tRows {
		return fmt.Errorf("fit: states and targets have different row "+
			"counts (%v != %v)", rows, tRows)
	}

	c, err := m.fitGraph(rows)
	if err != nil {
		return fmt.Errorf("fit: %v", err)
	}

	in := tensor.New(
		tensor.WithShape(rows, m.features),
		tensor.WithBacking(flatten(states)),
	)
	out := tensor.New(
		tensor.WithShape(rows, m.outputs),
		tensor.WithBacking(flatten(targets)),
	)
	if err := G.Let(c.input, in); err != nil {
		return fmt.Errorf("fit: could not set input: %v", err)
	}
	if err := G.Let(c.target, out); err != nil {
		return fmt.Errorf("fit: could not set target: %v", err)
	}
	if err := c.let(m.weights); err != nil {
		return fmt.Errorf("fit: %v", err)
	}

	solver := c.solver
	if m.alphaDecay > 0 {
		// Keras-style inverse time decay of the step size. Recreating
		// the solver resets its moment estimates, so decay trades Adam
		// momentum for the configured schedule.
		rate := m.alpha / (1 + m.alphaDecay*float64(m.fitsTaken))
		solver = G.NewAdamSolver(
			G.WithLearnRate(rate),
			G.WithBatchSize(float64(rows)),
		)
	}

	model := make([]G.ValueGrad, len(c.params))
	for i, node := range c.params {
		model[i] = node
	}

	for epoch := 0; epoch < fitEpochs; epoch++ {
		if err := c.vm.RunAll(); err != nil {
			return fmt.Errorf("fit: epoch %v: %v", epoch, err)
		}
		if err := solver.Step(model); err != nil {
			return fmt.Errorf("fit: epoch %v solver: %v", epoch, err)
		}
		c.vm.Reset()
	}
	m.fitsTaken++

	// The solver updates the bound tensors in place, but re-read them in
	// case an update replaced a node's value wholesale
	for i, node := range c.params {
		m.weights[i] = node.Value().(*tensor.Dense)
	}

	return nil
}

// weightsFile is the gob representation of a persisted parameter set
type weightsFile struct {
	Shapes [][]int
	Data   [][]float64
}

func (m *MLP) weightsPath(id string) string {
	return filepath.Join(m.weightsDir, id+".weights.gob")
}

// SaveWeights persists the current parameters under the identifier
func (m *MLP) SaveWeights(id string) error {
	if err := os.MkdirAll(m.weightsDir, 0o755); err != nil {
		return &WeightsError{Op: "save", ID: id, Err: err}
	}

	file := weightsFile{
		Shapes: make([][]int, len(m.weights)),
		Data:   make([][]float64, len(m.weights)),
	}
	for i, w := range m.weights {
		file.Shapes[i] = append([]int(nil), w.Shape()...)
		data := w.Data().([]float64)
		file.Data[i] = append([]float64(nil), data...)
	}

	f, err := os.Create(m.weightsPath(id))
	if err != nil {
		return &WeightsError{Op: "save", ID: id, Err: err}
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(file); err != nil {
		return &WeightsError{Op: "save", ID: id, Err: err}
	}
	return nil
}

// LoadWeights restores the parameters saved under the identifier. The
// in-memory parameters are replaced only after the persisted state has
// been fully decoded and validated, so a failed load never corrupts the
// network.
func (m *MLP) LoadWeights(id string) error {
	f, err := os.Open(m.weightsPath(id))
	if os.IsNotExist(err) {
		return &WeightsError{Op: "load", ID: id, Err: errNotFound}
	} else if err != nil {
		return &WeightsError{Op: "load", ID: id, Err: err}
	}
	defer f.Close()

	var file weightsFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return &WeightsError{Op: "load", ID: id, Err: err}
	}

	if len(file.Shapes) != len(m.weights) ||
		len(file.Data) != len(file.Shapes) {
		return &WeightsError{Op: "load", ID: id, Err: errShapeMismatch}
	}
	loaded := make([]*tensor.Dense, len(file.Shapes))
	for i, shape := range file.Shapes {
		want := m.weights[i].Shape()
		if len(shape) != len(want) {
			return &WeightsError{Op: "load", ID: id, Err: errShapeMismatch}
		}
		size := 1
		for j, dim := range shape {
			if dim != want[j] {
				return &WeightsError{
					Op: "load", ID: id, Err: errShapeMismatch,
				}
			}
			size *= dim
		}
		if len(file.Data[i]) != size {
			return &WeightsError{Op: "load", ID: id, Err: errShapeMismatch}
		}
		loaded[i] = tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(file.Data[i]),
		)
	}

	m.weights = loaded
	return nil
}
