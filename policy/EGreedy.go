// Package policy implements action selection over per-action value
// estimates
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/driveq/driveq/utils/matutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// EGreedy selects actions from a vector of per-action value estimates,
// mixing the greedy (argmax) choice with occasional uniformly random
// exploration while the agent is training.
//
// Exploration uses the historical comparison draw > epsilon, so the
// probability of a random action while training is 1-epsilon, the inverse
// of the conventional naming. The comparison is kept literal for parity
// with the behavior agents were tuned against; do not "fix" it without
// retuning epsilon everywhere it is configured.
type EGreedy struct {
	epsilon    float64
	numActions int
	training   bool

	uniform distuv.Uniform // Exploration draw over [0, 1)
	rng     *rand.Rand     // Random action choice
}

// NewEGreedy constructs a new EGreedy policy over numActions discrete
// actions. The training parameter determines whether exploration is
// possible at all: a non-training policy is pure exploitation.
func NewEGreedy(epsilon float64, numActions int, training bool,
	seed uint64) (*EGreedy, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("newegreedy: numActions must be > 0, "+
			"have %v", numActions)
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedy: epsilon must be in [0, 1], "+
			"have %v", epsilon)
	}

	source := rand.NewSource(seed)
	return &EGreedy{
		epsilon:    epsilon,
		numActions: numActions,
		training:   training,
		uniform:    distuv.Uniform{Min: 0, Max: 1, Src: source},
		rng:        rand.New(source),
	}, nil
}

// SelectAction returns an action in [0, numActions) given the per-action
// value estimates of the current state
func (p *EGreedy) SelectAction(actionValues mat.Vector) int {
	action := matutils.MaxVec(actionValues)

	if p.uniform.Rand() > p.epsilon && p.training {
		action = p.rng.Intn(p.numActions)
	}
	return action
}

// Epsilon returns the policy's epsilon value
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the policy's epsilon value
func (p *EGreedy) SetEpsilon(e float64) {
	p.epsilon = e
}

// IsTraining returns whether exploration is enabled
func (p *EGreedy) IsTraining() bool {
	return p.training
}
