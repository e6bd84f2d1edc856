// Package subtitle holds the engine's internal timed-text representation
// and the operations that turn per-segment transcription results into one
// globally ordered transcript.
package subtitle

import "time"

// Granularity is the timing resolution of a transcribed unit.
type Granularity string

const (
	Word    Granularity = "word"
	Segment Granularity = "segment"
)

// MinDuration is the smallest span a unit is allowed to occupy. Units the
// speech API reports with start == end are widened to this so downstream
// ordering stays well-defined.
const MinDuration = 10 * time.Millisecond

// Unit is one timed piece of transcribed text. Start and End are relative
// to the segment the unit came from until Shift moves them into source
// time.
type Unit struct {
	Index       int
	Start       time.Duration
	End         time.Duration
	Text        string
	Granularity Granularity
}

// NewUnit builds a unit with the minimum-duration widening applied.
func NewUnit(start, end time.Duration, text string, granularity Granularity) Unit {
	if start >= end {
		end = start + MinDuration
	}
	return Unit{Start: start, End: end, Text: text, Granularity: granularity}
}

// Shift moves every unit by offset, turning segment-local timestamps into
// source-global ones. It mutates the slice in place and must be applied
// exactly once per segment.
func Shift(units []Unit, offset time.Duration) {
	for i := range units {
		units[i].Start += offset
		units[i].End += offset
	}
}
