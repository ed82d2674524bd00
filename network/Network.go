// Package network defines the value-function approximator consumed by the
// decision-and-learning loop, together with a concrete Gorgonia-backed
// implementation.
//
// The loop itself never inspects an approximator beyond this interface, so
// any implementation backed by any numeric library can be substituted
// without touching the control logic.
package network

import "gonum.org/v1/gonum/mat"

// Approximator maps states to per-action value estimates. Predict is pure;
// Fit mutates the approximator's internal parameters. SaveWeights and
// LoadWeights persist and restore those parameters under opaque string
// identifiers: saves made under distinct identifiers never overwrite each
// other, and loading an identifier always resolves deterministically to
// the state saved under it.
//
// All calls are blocking and synchronous. Implementations need not be safe
// for concurrent use; each agent owns its approximator.
type Approximator interface {
	// Predict returns one row of per-action value estimates for each
	// row of states
	Predict(states *mat.Dense) (*mat.Dense, error)

	// Fit adjusts the parameters towards the target value rows. The
	// batch is sized by its actual row count; callers never pad it.
	Fit(states, targets *mat.Dense) error

	// SaveWeights persists the current parameters under the identifier
	SaveWeights(id string) error

	// LoadWeights restores previously saved parameters. If the
	// identifier does not resolve to persisted state, LoadWeights
	// fails with an error satisfying IsNotFound and leaves the current
	// parameters untouched.
	LoadWeights(id string) error
}
