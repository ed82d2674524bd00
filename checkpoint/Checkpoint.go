// Package checkpoint generates identifiers for periodically persisted
// agent weights
package checkpoint

import "fmt"

// Latest is the identifier conventionally holding the most recent weights,
// used when an agent is configured to resume from wherever it left off.
const Latest = "latest"

// Enumerator produces checkpoint identifiers tagged with a counter, so
// that checkpoints taken at distinct counts never overwrite each other.
type Enumerator struct {
	prefix string
}

// NewEnumerator returns an Enumerator producing identifiers of the form
// prefix_<count>
func NewEnumerator(prefix string) *Enumerator {
	return &Enumerator{prefix: prefix}
}

// Tag returns the identifier for the given counter value
func (e *Enumerator) Tag(count int) string {
	return fmt.Sprintf("%v_%d", e.prefix, count)
}
