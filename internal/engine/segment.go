// Package engine plans, schedules, and assembles chunked transcription
// jobs: it splits a long recording into bounded overlapping segments,
// fans the segments out to the speech API, and merges the results into
// one transcript bundle.
package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrNonAdvancingChunk guards against a chunk/overlap combination whose
// split loop would never terminate.
var ErrNonAdvancingChunk = errors.New("chunk duration must be greater than overlap duration")

// Segment is one time slice of the source asset, in absolute source
// coordinates. Temporary marks slices that require their own extracted
// file, deleted after transcription.
type Segment struct {
	Start     time.Duration
	End       time.Duration
	Temporary bool
}

// SplitPlan holds the splitting thresholds for one job.
type SplitPlan struct {
	// MaxBytesWithoutSplit is the largest file the speech API accepts in
	// one upload.
	MaxBytesWithoutSplit int64
	// ChunkDuration is the nominal length of each segment.
	ChunkDuration time.Duration
	// Overlap is shared between consecutive segments so speech near a cut
	// point lands in at least one of them.
	Overlap time.Duration
}

// PlanSegments decides whether the asset needs splitting and lays out the
// segment timeline. Assets under the upload limit come back as a single
// non-temporary segment spanning the whole recording. Larger assets are
// walked in steps of ChunkDuration-Overlap; the final segment is clamped
// to the asset duration.
func PlanSegments(sizeBytes int64, duration time.Duration, plan SplitPlan) ([]Segment, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("asset duration must be positive, got %s", duration)
	}

	if sizeBytes <= plan.MaxBytesWithoutSplit {
		return []Segment{{Start: 0, End: duration, Temporary: false}}, nil
	}

	if plan.ChunkDuration <= plan.Overlap {
		return nil, fmt.Errorf("%w: chunk %s, overlap %s", ErrNonAdvancingChunk, plan.ChunkDuration, plan.Overlap)
	}
	if plan.Overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %s", plan.Overlap)
	}

	step := plan.ChunkDuration - plan.Overlap
	var segments []Segment
	for start := time.Duration(0); ; start += step {
		end := min(start+plan.ChunkDuration, duration)
		segments = append(segments, Segment{
			Start:     start,
			End:       end,
			Temporary: !(start == 0 && end == duration),
		})
		if end >= duration {
			break
		}
	}
	return segments, nil
}
