package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const maxUploadBytes = 26004684 // just under the API's 25 MB cap

func defaultPlan() SplitPlan {
	return SplitPlan{
		MaxBytesWithoutSplit: maxUploadBytes,
		ChunkDuration:        4 * time.Hour,
		Overlap:              10 * time.Second,
	}
}

func TestPlanSegmentsSmallAssetIsNotSplit(t *testing.T) {
	t.Parallel()

	segments, err := PlanSegments(5*1024*1024, 3*time.Minute, defaultPlan())
	require.NoError(t, err)
	require.Equal(t, []Segment{{Start: 0, End: 3 * time.Minute, Temporary: false}}, segments)
}

func TestPlanSegmentsJumboChunkCoversWholeAsset(t *testing.T) {
	t.Parallel()

	// 40 MB forces the split path, but four hours fits in a single chunk.
	segments, err := PlanSegments(40*1024*1024, 4*time.Hour, defaultPlan())
	require.NoError(t, err)
	require.Equal(t, []Segment{{Start: 0, End: 4 * time.Hour, Temporary: false}}, segments)
}

func TestPlanSegmentsNineHourAsset(t *testing.T) {
	t.Parallel()

	segments, err := PlanSegments(40*1024*1024, 9*time.Hour, defaultPlan())
	require.NoError(t, err)

	require.Equal(t, []Segment{
		{Start: 0, End: 4 * time.Hour, Temporary: true},
		{Start: 4*time.Hour - 10*time.Second, End: 8*time.Hour - 10*time.Second, Temporary: true},
		{Start: 8*time.Hour - 20*time.Second, End: 9 * time.Hour, Temporary: true},
	}, segments)
}

func TestPlanSegmentsOverlapAndCoverageProperties(t *testing.T) {
	t.Parallel()

	plan := SplitPlan{
		MaxBytesWithoutSplit: 1,
		ChunkDuration:        10 * time.Minute,
		Overlap:              30 * time.Second,
	}

	for _, duration := range []time.Duration{
		10 * time.Minute,
		10*time.Minute + time.Second,
		37*time.Minute + 13*time.Second,
		3 * time.Hour,
	} {
		segments, err := PlanSegments(100, duration, plan)
		require.NoError(t, err)

		step := plan.ChunkDuration - plan.Overlap
		wantCount := int((duration - plan.Overlap + step - 1) / step)
		require.Len(t, segments, wantCount, "duration %s", duration)

		require.Equal(t, time.Duration(0), segments[0].Start)
		require.Equal(t, duration, segments[len(segments)-1].End)
		for i := 1; i < len(segments); i++ {
			// Consecutive segments overlap by exactly the configured amount.
			require.Equal(t, plan.Overlap, segments[i-1].End-segments[i].Start, "duration %s segment %d", duration, i)
		}
	}
}

func TestPlanSegmentsFinalSegmentClamped(t *testing.T) {
	t.Parallel()

	plan := SplitPlan{MaxBytesWithoutSplit: 1, ChunkDuration: time.Hour, Overlap: time.Minute}
	segments, err := PlanSegments(100, 90*time.Minute, plan)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	require.Equal(t, 90*time.Minute, segments[1].End)
	require.Less(t, segments[1].End-segments[1].Start, plan.ChunkDuration)
}

func TestPlanSegmentsRejectsNonAdvancingConfig(t *testing.T) {
	t.Parallel()

	plan := SplitPlan{MaxBytesWithoutSplit: 1, ChunkDuration: 10 * time.Second, Overlap: 10 * time.Second}
	_, err := PlanSegments(100, time.Hour, plan)
	require.ErrorIs(t, err, ErrNonAdvancingChunk)

	plan.Overlap = 20 * time.Second
	_, err = PlanSegments(100, time.Hour, plan)
	require.ErrorIs(t, err, ErrNonAdvancingChunk)
}

func TestPlanSegmentsRejectsZeroDuration(t *testing.T) {
	t.Parallel()

	_, err := PlanSegments(100, 0, defaultPlan())
	require.Error(t, err)
}
