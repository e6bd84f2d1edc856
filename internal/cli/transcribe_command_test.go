package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vodscribe/vodscribe/internal/config"
)

type recordedJob struct {
	cfg       config.Config
	audioPath string
	outputDir string
}

func testApp(t *testing.T) (*appState, *[]recordedJob) {
	t.Helper()

	jobs := new([]recordedJob)
	cfg := config.Default()
	cfg.APIKey = "sk-test"

	app := &appState{cfg: cfg}
	app.transcribeFn = func(_ context.Context, cfg config.Config, audioPath, outputDir string) error {
		*jobs = append(*jobs, recordedJob{cfg: cfg, audioPath: audioPath, outputDir: outputDir})
		return nil
	}
	return app, jobs
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func TestTranscribeSingleFileOutputsNextToAudio(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	audio := writeFile(t, filepath.Join(dir, "talk.ogg"))

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{audio})

	require.NoError(t, cmd.Execute())
	require.Len(t, *jobs, 1)
	require.Equal(t, audio, (*jobs)[0].audioPath)
	require.Equal(t, dir, (*jobs)[0].outputDir)
}

func TestTranscribeHonorsOutputDirFlag(t *testing.T) {
	t.Parallel()

	audio := writeFile(t, filepath.Join(t.TempDir(), "talk.ogg"))
	outDir := t.TempDir()

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{"--output-dir", outDir, audio})

	require.NoError(t, cmd.Execute())
	require.Len(t, *jobs, 1)
	require.Equal(t, outDir, (*jobs)[0].outputDir)
}

func TestTranscribeFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	audio := writeFile(t, filepath.Join(t.TempDir(), "talk.ogg"))

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{
		"--language", " DE ",
		"--chunk-duration", "1h",
		"--overlap-duration", "30s",
		"--parallelism", "2",
		"--prompt", "Board meeting.",
		audio,
	})

	require.NoError(t, cmd.Execute())
	require.Len(t, *jobs, 1)

	got := (*jobs)[0].cfg
	require.Equal(t, "de", got.Language)
	require.Equal(t, time.Hour, got.ChunkDuration.Std())
	require.Equal(t, 30*time.Second, got.OverlapDuration.Std())
	require.Equal(t, 2, got.Parallelism)
	require.Equal(t, "Board meeting.", got.Prompt)

	// Untouched settings come from the loaded config.
	require.Equal(t, "whisper-1", got.Model)
	require.Equal(t, "sk-test", got.APIKey)
}

func TestTranscribeRejectsNonAdvancingFlags(t *testing.T) {
	t.Parallel()

	audio := writeFile(t, filepath.Join(t.TempDir(), "talk.ogg"))

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{"--chunk-duration", "10s", "--overlap-duration", "10s", audio})

	require.Error(t, cmd.Execute())
	require.Empty(t, *jobs)
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	t.Parallel()

	audio := writeFile(t, filepath.Join(t.TempDir(), "talk.ogg"))

	app, jobs := testApp(t)
	app.cfg.APIKey = ""
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{audio})

	require.ErrorIs(t, cmd.Execute(), errMissingAPIKey)
	require.Empty(t, *jobs)
}

func TestTranscribeRejectsMissingPath(t *testing.T) {
	t.Parallel()

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.ogg")})

	require.Error(t, cmd.Execute())
	require.Empty(t, *jobs)
}

func TestTranscribeDirectoryRunsEveryAudioFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "a.ogg"))
	second := writeFile(t, filepath.Join(dir, "b.mp3"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	require.Len(t, *jobs, 2)
	require.Equal(t, first, (*jobs)[0].audioPath)
	require.Equal(t, second, (*jobs)[1].audioPath)
	require.Equal(t, dir, (*jobs)[0].outputDir)
	require.Equal(t, dir, (*jobs)[1].outputDir)
}

func TestTranscribeDirectoryRejectsOutputDirFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ogg"))

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{"--output-dir", t.TempDir(), dir})

	require.Error(t, cmd.Execute())
	require.Empty(t, *jobs)
}

func TestTranscribeEmptyDirectorySucceedsWithoutJobs(t *testing.T) {
	t.Parallel()

	app, jobs := testApp(t)
	cmd := newTranscribeCmd(app)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())
	require.Empty(t, *jobs)
}
