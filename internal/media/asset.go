// Package media wraps the external encoding tools: ffprobe for asset
// metadata and ffmpeg for materializing audio segments.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Asset is a source audio recording. Size is known at open time, the
// duration is probed on first use and cached. Assets are read-only to the
// engine.
type Asset struct {
	Path string

	size     int64
	duration time.Duration
	probe    func(ctx context.Context, path string) (time.Duration, error)
}

// OpenAsset stats path and returns an asset whose duration resolves
// lazily via ffprobe.
func OpenAsset(path string) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an audio file", path)
	}

	return &Asset{Path: path, size: info.Size(), probe: probeDuration}, nil
}

// NewAsset builds an asset with already-known metadata. Used by callers
// that resolved size and duration elsewhere, and by tests.
func NewAsset(path string, size int64, duration time.Duration) *Asset {
	return &Asset{Path: path, size: size, duration: duration}
}

func (a *Asset) Size() int64 {
	return a.size
}

// Duration returns the asset length, probing it on first call.
func (a *Asset) Duration(ctx context.Context) (time.Duration, error) {
	if a.duration > 0 {
		return a.duration, nil
	}
	if a.probe == nil {
		a.probe = probeDuration
	}

	duration, err := a.probe(ctx, a.Path)
	if err != nil {
		return 0, fmt.Errorf("probe duration of %s: %w", a.Path, err)
	}

	a.duration = duration
	return duration, nil
}

func probeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", probeArgs(path)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, trimmed)
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(string(out))
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func parseProbeDuration(output string) (time.Duration, error) {
	trimmed := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", trimmed, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("ffprobe reported negative duration %q", trimmed)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
