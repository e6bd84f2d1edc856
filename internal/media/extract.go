package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtractionError reports a failed segment materialization together with
// ffmpeg's diagnostic output.
type ExtractionError struct {
	Source string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("extract segment from %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("extract segment from %s: %v (%s)", e.Source, e.Err, e.Output)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor trims a time slice out of a source recording and re-encodes
// it as mono low-bitrate opus, the cheapest upload shape that still
// transcribes well for speech.
type Extractor struct {
	FFmpegPath string
	Bitrate    string
	TempDir    string
	Logger     *zap.Logger

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExtractor builds an extractor with sensible defaults: the ffmpeg on
// PATH, 12 kbps opus, and the OS temp directory for segment files.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		FFmpegPath: "ffmpeg",
		Bitrate:    "12k",
		TempDir:    os.TempDir(),
		Logger:     logger,
		run:        combinedOutput,
	}
}

// Extract writes the [start, end) slice of srcPath into a uniquely named
// temporary .ogg file and returns its path. The caller owns the file.
func (e *Extractor) Extract(ctx context.Context, srcPath string, start, end time.Duration) (string, error) {
	if end <= start {
		return "", &ExtractionError{Source: srcPath, Err: fmt.Errorf("invalid segment span [%s, %s]", start, end)}
	}

	outPath := filepath.Join(e.TempDir, fmt.Sprintf("segment-%s.ogg", uuid.NewString()))
	args := e.extractArgs(srcPath, outPath, start, end)

	e.Logger.Debug("extracting segment",
		zap.String("source", srcPath),
		zap.Duration("start", start),
		zap.Duration("end", end),
		zap.String("destination", outPath),
	)

	runner := e.run
	if runner == nil {
		runner = combinedOutput
	}

	out, err := runner(ctx, e.FFmpegPath, args...)
	if err != nil {
		_ = os.Remove(outPath)
		return "", &ExtractionError{Source: srcPath, Output: strings.TrimSpace(string(out)), Err: err}
	}

	return outPath, nil
}

func (e *Extractor) extractArgs(srcPath, outPath string, start, end time.Duration) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", srcPath,
		"-ss", ffmpegTime(start),
		"-t", ffmpegTime(end - start),
		"-ac", "1",
		"-c:a", "libopus",
		"-b:a", e.Bitrate,
		"-application", "voip",
		outPath,
	}
}

// ffmpegTime formats a duration for ffmpeg's -ss/-t arguments.
func ffmpegTime(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
