// Package replay implements bounded experience replay for off-policy
// learning.
//
// A replay memory stores past transitions so that training updates can be
// decorrelated from the live trajectory: instead of always learning from
// the most recent transition, a learner samples a batch of transitions
// uniformly from the memory.
package replay

import (
	"golang.org/x/exp/rand"

	"github.com/driveq/driveq/utils/intutils"
	"gonum.org/v1/gonum/mat"
)

// Experience is a single transition record: the state the agent was in,
// the action it took there, the shaped reward that resulted, and the state
// the simulator moved to. An Experience is immutable once constructed and
// is owned exclusively by the Memory slot holding it until evicted.
type Experience struct {
	State     mat.Vector
	Action    int
	Reward    float64
	NextState mat.Vector
}

// Memory is a bounded, insertion-ordered buffer of Experiences with
// uniform random sub-sampling.
//
// Once the buffer reaches its maximum size, adding a new Experience evicts
// the single oldest one first, so the buffer holds the most recent maxSize
// transitions in insertion order. A Memory is not safe for concurrent use;
// each agent owns exactly one.
type Memory struct {
	experiences []Experience
	maxSize     int // <= 0 means unbounded
	rng         *rand.Rand
}

// NewMemory returns a new Memory holding at most maxSize Experiences. If
// maxSize <= 0, the memory is unbounded. The seed determines the sampling
// order of Sample.
func NewMemory(maxSize int, seed uint64) *Memory {
	source := rand.NewSource(seed)

	return &Memory{
		experiences: make([]Experience, 0),
		maxSize:     maxSize,
		rng:         rand.New(source),
	}
}

// Add appends an Experience to the memory, evicting the oldest Experience
// first if the memory is at capacity.
func (m *Memory) Add(e Experience) {
	if m.maxSize > 0 && len(m.experiences) == m.maxSize {
		copy(m.experiences, m.experiences[1:])
		m.experiences = m.experiences[:len(m.experiences)-1]
	}
	m.experiences = append(m.experiences, e)
}

// Sample returns min(n, Len()) Experiences drawn uniformly at random
// without replacement from the current contents. Sampling never blocks and
// never fails: sampling from an empty memory returns an empty batch.
//
// Sampling is done through an index permutation so that the storage order,
// and therefore the FIFO eviction order, is never disturbed.
func (m *Memory) Sample(n int) []Experience {
	size := intutils.Min(n, len(m.experiences))
	if size <= 0 {
		return []Experience{}
	}

	batch := make([]Experience, size)
	for i, index := range m.rng.Perm(len(m.experiences))[:size] {
		batch[i] = m.experiences[index]
	}
	return batch
}

// Len returns the current number of Experiences in the memory
func (m *Memory) Len() int {
	return len(m.experiences)
}

// MaxSize returns the maximum number of Experiences the memory will hold.
// A non-positive value means the memory is unbounded.
func (m *Memory) MaxSize() int {
	return m.maxSize
}
