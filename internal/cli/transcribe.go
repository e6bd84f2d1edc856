package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vodscribe/vodscribe/internal/config"
	"github.com/vodscribe/vodscribe/internal/engine"
	"github.com/vodscribe/vodscribe/internal/media"
	"github.com/vodscribe/vodscribe/internal/whisper"
)

var audioExtensions = map[string]bool{
	".ogg": true,
	".mp3": true,
	".wav": true,
	".m4a": true,
}

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file-or-directory>",
		Short: "Transcribe an audio file, or every audio file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.jobConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				return errMissingAPIKey
			}

			transcribeFn := app.transcribeFn
			if transcribeFn == nil {
				transcribeFn = app.transcribeFile
			}

			target := filepath.Clean(args[0])
			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("audio path: %w", err)
			}

			if !info.IsDir() {
				outputDir := app.outputDir
				if outputDir == "" {
					outputDir = filepath.Dir(target)
				}
				return transcribeFn(cmd.Context(), cfg, target, outputDir)
			}

			if app.outputDir != "" {
				return errors.New("--output-dir cannot be combined with a directory input; outputs are written next to each audio file")
			}

			files, err := listAudioFiles(target)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				app.log().Warn("no audio files found", zap.String("directory", target))
				return nil
			}

			for _, file := range files {
				if err := transcribeFn(cmd.Context(), cfg, file, filepath.Dir(file)); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&app.language, "language", app.language, "Language hint for the speech API (auto|en|de|...)")
	cmd.Flags().Float64Var(&app.temperature, "temperature", app.temperature, "Sampling temperature for the speech API")
	cmd.Flags().StringVar(&app.prompt, "prompt", app.prompt, "Free-text domain hint forwarded to the speech API")
	cmd.Flags().StringVar(&app.model, "model", app.model, "Speech model name")
	cmd.Flags().StringVar(&app.baseURL, "base-url", app.baseURL, "Speech API base URL")
	cmd.Flags().StringVar(&app.bitrate, "bitrate", app.bitrate, "Opus bitrate for extracted segments")
	cmd.Flags().StringVar(&app.outputDir, "output-dir", app.outputDir, "Directory for transcript files (default: next to the audio file)")
	cmd.Flags().DurationVar(&app.chunk, "chunk-duration", app.chunk, "Maximum duration per uploaded segment")
	cmd.Flags().DurationVar(&app.overlap, "overlap-duration", app.overlap, "Overlap between consecutive segments")
	cmd.Flags().Int64Var(&app.maxUpload, "max-upload-bytes", app.maxUpload, "Largest file uploaded without splitting")
	cmd.Flags().IntVar(&app.parallelism, "parallelism", app.parallelism, "Concurrent segment uploads; 0 means one per segment")
	cmd.Flags().IntVar(&app.maxAttempts, "max-attempts", app.maxAttempts, "Attempts per segment for transient API failures")

	return cmd
}

func (a *appState) transcribeFile(ctx context.Context, cfg config.Config, audioPath, outputDir string) error {
	asset, err := media.OpenAsset(audioPath)
	if err != nil {
		return err
	}

	client := whisper.NewAPIClient(cfg.APIKey, a.log())
	client.BaseURL = cfg.BaseURL
	client.Model = cfg.Model
	client.Retry.MaxAttempts = cfg.MaxAttempts

	extractor := media.NewExtractor(a.log())
	extractor.Bitrate = cfg.AudioBitrate

	eng := engine.New(client, extractor, a.log())
	progress := newSegmentProgress(a.progressEnabled())
	eng.OnSegmentDone = progress.report
	defer progress.stop()

	a.log().Info("transcribing...",
		zap.String("audio", audioPath),
		zap.String("model", cfg.Model),
		zap.String("language", cfg.Language),
	)
	started := time.Now()

	bundle, err := eng.Transcribe(ctx, asset, engine.Options{
		Split: engine.SplitPlan{
			MaxBytesWithoutSplit: cfg.MaxUploadBytes,
			ChunkDuration:        cfg.ChunkDuration.Std(),
			Overlap:              cfg.OverlapDuration.Std(),
		},
		Language:         cfg.Language,
		Temperature:      cfg.Temperature,
		Prompt:           cfg.Prompt,
		OverlapThreshold: cfg.OverlapThreshold.Std(),
		Parallelism:      cfg.Parallelism,
	})
	progress.stop()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}

	if err := engine.WriteBundle(outputDir, bundle); err != nil {
		return err
	}

	a.log().Info("transcription finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("segment_units", len(bundle.Segments)),
		zap.Int("word_units", len(bundle.Words)),
		zap.String("output_dir", outputDir),
	)
	fmt.Fprintf(a.outWriter(), "Saved transcripts for %s in %s\n", filepath.Base(audioPath), outputDir)
	return nil
}

func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
