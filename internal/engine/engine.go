package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vodscribe/vodscribe/internal/media"
	"github.com/vodscribe/vodscribe/internal/subtitle"
	"github.com/vodscribe/vodscribe/internal/whisper"
)

// SegmentExtractor materializes a time slice of a source recording as a
// standalone upload-ready file. media.Extractor is the ffmpeg-backed
// implementation.
type SegmentExtractor interface {
	Extract(ctx context.Context, srcPath string, start, end time.Duration) (string, error)
}

// Options configures one transcription job.
type Options struct {
	Split            SplitPlan
	Language         string
	Temperature      float64
	Prompt           string
	OverlapThreshold time.Duration
	// Parallelism bounds concurrent segment transcriptions; zero means one
	// worker per segment.
	Parallelism int
}

// Bundle is the assembled transcript for one job: both merged
// granularities plus the raw API payloads per segment in submission
// order.
type Bundle struct {
	Segments []subtitle.Unit
	Words    []subtitle.Unit
	Raw      []json.RawMessage
}

// Engine runs transcription jobs. Collaborators are injected so jobs with
// different configurations, and tests, can run side by side.
type Engine struct {
	client    whisper.Client
	extractor SegmentExtractor
	logger    *zap.Logger

	// OnSegmentDone, when set, observes scheduler progress.
	OnSegmentDone func(completed, total int)
}

func New(client whisper.Client, extractor SegmentExtractor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, extractor: extractor, logger: logger}
}

type segmentResult struct {
	track     subtitle.Track
	wordTrack subtitle.Track
	raw       json.RawMessage
}

// Transcribe runs the full pipeline for one asset: plan, extract,
// transcribe concurrently, shift, merge. Any segment's unrecoverable
// failure fails the whole job; outstanding workers still finish so their
// temporary files are always cleaned up.
func (e *Engine) Transcribe(ctx context.Context, asset *media.Asset, opts Options) (*Bundle, error) {
	duration, err := asset.Duration(ctx)
	if err != nil {
		return nil, err
	}

	segments, err := PlanSegments(asset.Size(), duration, opts.Split)
	if err != nil {
		return nil, err
	}

	e.logger.Info("transcription job planned",
		zap.String("audio", asset.Path),
		zap.Int64("bytes", asset.Size()),
		zap.Duration("duration", duration),
		zap.Int("segments", len(segments)),
	)

	results := make([]segmentResult, len(segments))
	var completed atomic.Int64

	g := new(errgroup.Group)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, segment := range segments {
		g.Go(func() error {
			result, err := e.transcribeSegment(ctx, asset, i, segment, opts)
			if err != nil {
				return fmt.Errorf("segment %d/%d [%s, %s]: %w", i+1, len(segments), segment.Start, segment.End, err)
			}
			results[i] = result

			done := int(completed.Add(1))
			if e.OnSegmentDone != nil {
				e.OnSegmentDone(done, len(segments))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	segmentTracks := make([]subtitle.Track, len(results))
	wordTracks := make([]subtitle.Track, len(results))
	raw := make([]json.RawMessage, len(results))
	for i, result := range results {
		segmentTracks[i] = result.track
		wordTracks[i] = result.wordTrack
		raw[i] = result.raw
	}

	mergedSegments, err := subtitle.Merge(segmentTracks, opts.OverlapThreshold)
	if err != nil {
		return nil, err
	}
	mergedWords, err := subtitle.Merge(wordTracks, opts.OverlapThreshold)
	if err != nil {
		return nil, err
	}

	return &Bundle{Segments: mergedSegments, Words: mergedWords, Raw: raw}, nil
}

// transcribeSegment materializes one segment if needed, transcribes it,
// and shifts the result into source time. The temporary file is removed
// exactly once, success or failure.
func (e *Engine) transcribeSegment(ctx context.Context, asset *media.Asset, index int, segment Segment, opts Options) (segmentResult, error) {
	audioPath := asset.Path
	if segment.Temporary {
		extracted, err := e.extractor.Extract(ctx, asset.Path, segment.Start, segment.End)
		if err != nil {
			return segmentResult{}, err
		}
		audioPath = extracted
		defer func() {
			if err := os.Remove(extracted); err != nil && !os.IsNotExist(err) {
				e.logger.Warn("failed to remove temporary segment file", zap.String("path", extracted), zap.Error(err))
			}
		}()
	}

	result, err := e.client.Transcribe(ctx, whisper.Request{
		AudioPath:   audioPath,
		Language:    opts.Language,
		Temperature: opts.Temperature,
		Prompt:      opts.Prompt,
	})
	if err != nil {
		return segmentResult{}, err
	}

	subtitle.Shift(result.Segments, segment.Start)
	subtitle.Shift(result.Words, segment.Start)

	return segmentResult{
		track: subtitle.Track{
			Segment: index,
			Start:   segment.Start,
			End:     segment.End,
			Units:   result.Segments,
		},
		wordTrack: subtitle.Track{
			Segment: index,
			Start:   segment.Start,
			End:     segment.End,
			Units:   result.Words,
		},
		raw: result.Raw,
	}, nil
}
