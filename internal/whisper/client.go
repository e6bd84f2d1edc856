// Package whisper talks to a Whisper-compatible speech-to-text HTTP API
// and converts its loosely-typed responses into the engine's subtitle
// units at the boundary, so nothing downstream depends on the wire shape.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vodscribe/vodscribe/internal/subtitle"
)

// Request describes one transcription call for an already-materialized
// audio file.
type Request struct {
	AudioPath   string
	Language    string
	Temperature float64
	Prompt      string
}

// Result carries both granularities with timestamps local to the
// submitted audio, plus the raw response body for archival.
type Result struct {
	Text     string
	Segments []subtitle.Unit
	Words    []subtitle.Unit
	Raw      json.RawMessage
}

// Client is the transcription capability the engine schedules work
// against.
type Client interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// TranscriptionError is a failed remote transcription. Transient errors
// (rate limits, server hiccups, transport resets) are retried by the
// client and only surface once the retry budget is spent.
type TranscriptionError struct {
	StatusCode int
	Message    string
	Transient  bool
	Err        error
}

func (e *TranscriptionError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("transcription failed with status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("transcription failed with status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transcription failed: %v", e.Err)
	default:
		return "transcription failed: " + e.Message
	}
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
