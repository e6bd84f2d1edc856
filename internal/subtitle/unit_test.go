package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUnitWidensZeroSpan(t *testing.T) {
	t.Parallel()

	unit := NewUnit(5*time.Second, 5*time.Second, "hello", Word)
	require.Equal(t, 5*time.Second, unit.Start)
	require.Equal(t, 5*time.Second+MinDuration, unit.End)
}

func TestNewUnitWidensInvertedSpan(t *testing.T) {
	t.Parallel()

	unit := NewUnit(5*time.Second, 4*time.Second, "hello", Segment)
	require.Equal(t, 5*time.Second+MinDuration, unit.End)
}

func TestNewUnitKeepsValidSpan(t *testing.T) {
	t.Parallel()

	unit := NewUnit(time.Second, 2*time.Second, "hello", Segment)
	require.Equal(t, time.Second, unit.Start)
	require.Equal(t, 2*time.Second, unit.End)
}

func TestShiftMovesAllTimestamps(t *testing.T) {
	t.Parallel()

	units := []Unit{
		NewUnit(0, time.Second, "a", Word),
		NewUnit(time.Second, 2*time.Second, "b", Word),
	}

	Shift(units, 4*time.Hour)

	require.Equal(t, 4*time.Hour, units[0].Start)
	require.Equal(t, 4*time.Hour+time.Second, units[0].End)
	require.Equal(t, 4*time.Hour+time.Second, units[1].Start)
	require.Equal(t, 4*time.Hour+2*time.Second, units[1].End)
}
