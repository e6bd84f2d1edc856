package subtitle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrOutOfBounds reports a shifted unit whose time range escapes the
// declared bounds of the segment it came from. This indicates a bug
// upstream and is never corrected silently.
var ErrOutOfBounds = errors.New("unit outside segment bounds")

// boundsTolerance absorbs the minimum-duration widening and the speech
// API's timestamp rounding at segment edges.
const boundsTolerance = 100 * time.Millisecond

// Track is one segment's contribution to the merged transcript: its units
// after shifting, the segment's declared bounds in source time, and the
// segment's ordinal in submission order.
type Track struct {
	Segment int
	Start   time.Duration
	End     time.Duration
	Units   []Unit
}

// Merge flattens all tracks into one strictly time-ordered, re-indexed
// sequence. Units are sorted stably by start time with ties broken by
// segment order. Duplicates introduced by segment overlap are removed:
// when a unit from the later of two adjacent segments sits inside their
// shared overlap window, overlaps an earlier unit by more than
// overlapThreshold, and carries the same normalized text (or a prefix or
// suffix of it), the later unit is dropped. Units outside any overlap
// window are never removed.
func Merge(tracks []Track, overlapThreshold time.Duration) ([]Unit, error) {
	type tagged struct {
		unit    Unit
		segment int
	}

	var all []tagged
	for _, track := range tracks {
		for _, unit := range track.Units {
			if unit.Start < track.Start-boundsTolerance || unit.End > track.End+boundsTolerance {
				return nil, fmt.Errorf("%w: segment %d declares [%s, %s] but unit %q spans [%s, %s]",
					ErrOutOfBounds, track.Segment, track.Start, track.End, unit.Text, unit.Start, unit.End)
			}
			all = append(all, tagged{unit: unit, segment: track.Segment})
		}
	}

	dropped := markOverlapDuplicates(tracks, overlapThreshold)

	kept := make([]tagged, 0, len(all))
	for _, entry := range all {
		if dropped[unitKey{entry.segment, entry.unit.Start, entry.unit.End, entry.unit.Text}] {
			continue
		}
		kept = append(kept, entry)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].unit.Start != kept[j].unit.Start {
			return kept[i].unit.Start < kept[j].unit.Start
		}
		return kept[i].segment < kept[j].segment
	})

	merged := make([]Unit, len(kept))
	for i, entry := range kept {
		unit := entry.unit
		unit.Index = i + 1
		merged[i] = unit
	}
	return merged, nil
}

type unitKey struct {
	segment int
	start   time.Duration
	end     time.Duration
	text    string
}

// markOverlapDuplicates walks each pair of time-adjacent tracks and flags
// units from the later track that duplicate an earlier unit inside the
// shared overlap window.
func markOverlapDuplicates(tracks []Track, overlapThreshold time.Duration) map[unitKey]bool {
	dropped := make(map[unitKey]bool)

	ordered := make([]Track, len(tracks))
	copy(ordered, tracks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Segment < ordered[j].Segment })

	for i := 1; i < len(ordered); i++ {
		earlier, later := ordered[i-1], ordered[i]
		windowStart, windowEnd := later.Start, earlier.End
		if windowStart >= windowEnd {
			continue
		}

		for _, candidate := range later.Units {
			if candidate.Start < windowStart || candidate.End > windowEnd {
				continue
			}
			for _, original := range earlier.Units {
				if original.Start < windowStart || original.End > windowEnd {
					continue
				}
				if timeOverlap(original, candidate) <= overlapThreshold {
					continue
				}
				if !duplicateText(original.Text, candidate.Text) {
					continue
				}
				dropped[unitKey{later.Segment, candidate.Start, candidate.End, candidate.Text}] = true
				break
			}
		}
	}
	return dropped
}

func timeOverlap(a, b Unit) time.Duration {
	start := max(a.Start, b.Start)
	end := min(a.End, b.End)
	if end <= start {
		return 0
	}
	return end - start
}

func duplicateText(a, b string) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb ||
		strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na) ||
		strings.HasSuffix(na, nb) || strings.HasSuffix(nb, na)
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
