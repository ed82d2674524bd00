package gridtrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackWallCollisions(t *testing.T) {
	track, err := New(3, 3, 0, 0, 14)
	require.NoError(t, err)

	// Already in the bottom-left corner: left and down hit walls
	step := track.Step(Left)
	require.True(t, step.WallCollision)
	x, y := track.Position()
	require.Equal(t, [2]int{0, 0}, [2]int{x, y})

	step = track.Step(Down)
	require.True(t, step.WallCollision)

	// Moving into the interior is collision free
	step = track.Step(Right)
	require.False(t, step.WallCollision)
	x, _ = track.Position()
	require.Equal(t, 1, x)
}

func TestTrackRewardCollection(t *testing.T) {
	track, err := New(4, 4, 0, 0, 14)
	require.NoError(t, err)
	track.Start()

	// Walk the whole grid until the reward is hit; the flag must be
	// raised on the entering tick and the reward must respawn elsewhere
	var collected bool
	actions := []int{Right, Right, Right, Up, Left, Left, Left, Up,
		Right, Right, Right, Up, Left, Left, Left}
	for _, a := range actions {
		step := track.Step(a)
		if step.RewardCollision {
			collected = true
			rx, ry := track.RewardPosition()
			x, y := track.Position()
			require.False(t, rx == x && ry == y,
				"reward must respawn off the actor")
			break
		}
	}
	require.True(t, collected, "snake walk over a 4x4 grid must cross "+
		"the reward cell")
}

func TestTrackObservation(t *testing.T) {
	track, err := New(3, 4, 1, 2, 14)
	require.NoError(t, err)

	step := track.Start()
	require.Equal(t, 12, step.Observation.Len())

	x, y := track.Position()
	require.Equal(t, actorCell, step.Observation.AtVec(y*4+x))

	rx, ry := track.RewardPosition()
	require.Equal(t, rewardCell, step.Observation.AtVec(ry*4+rx))

	// Exactly two cells are occupied
	occupied := 0
	for i := 0; i < step.Observation.Len(); i++ {
		if step.Observation.AtVec(i) != 0 {
			occupied++
		}
	}
	require.Equal(t, 2, occupied)
}

func TestTrackResetReturnsToStart(t *testing.T) {
	track, err := New(5, 5, 2, 2, 14)
	require.NoError(t, err)
	track.Start()

	track.Step(Right)
	track.Step(Up)
	track.Reset()

	x, y := track.Position()
	require.Equal(t, [2]int{2, 2}, [2]int{x, y})

	// Step numbers stay monotonic across resets
	step := track.Step(Right)
	require.Equal(t, 3, step.Number)
}

func TestNewTrackValidation(t *testing.T) {
	if _, err := New(1, 5, 0, 0, 14); err == nil {
		t.Error("expected error for single-row track")
	}
	if _, err := New(5, 5, 5, 0, 14); err == nil {
		t.Error("expected error for start outside the track")
	}
}
