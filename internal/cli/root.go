// Package cli wires the vodscribe commands: flag parsing, configuration
// merging, and the transcription pipeline behind the transcribe command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vodscribe/vodscribe/internal/config"
	"github.com/vodscribe/vodscribe/internal/logging"
	"github.com/vodscribe/vodscribe/internal/version"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	configPath string
	envFile    string

	language    string
	temperature float64
	prompt      string
	model       string
	baseURL     string
	bitrate     string
	outputDir   string
	chunk       time.Duration
	overlap     time.Duration
	maxUpload   int64
	parallelism int
	maxAttempts int

	cfg    config.Config
	logger *zap.Logger
	out    io.Writer

	transcribeFn func(ctx context.Context, cfg config.Config, audioPath, outputDir string) error
}

func NewRootCmd() *cobra.Command {
	defaults := config.Default()
	app := &appState{
		language:    defaults.Language,
		temperature: defaults.Temperature,
		model:       defaults.Model,
		baseURL:     defaults.BaseURL,
		bitrate:     defaults.AudioBitrate,
		chunk:       defaults.ChunkDuration.Std(),
		overlap:     defaults.OverlapDuration.Std(),
		maxUpload:   defaults.MaxUploadBytes,
		maxAttempts: defaults.MaxAttempts,
		out:         os.Stdout,
	}

	cmd := &cobra.Command{
		Use:           "vodscribe",
		Short:         "Transcribe long recordings through a remote speech-to-text API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			app.loadEnvFile()

			cfg, err := config.Load(app.configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			app.cfg = cfg
			app.logger.Debug("configuration loaded", zap.Bool("api_key_present", cfg.APIKey != ""))
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", app.envFile, "Path to a dotenv file with API credentials")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadEnvFile loads credentials from a dotenv file. Missing files are
// fine unless the user pointed at one explicitly.
func (a *appState) loadEnvFile() {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			a.log().Warn("failed to load env file", zap.String("path", a.envFile), zap.Error(err))
		}
		return
	}

	for _, candidate := range []string{"local.env", ".env"} {
		if err := godotenv.Load(candidate); err == nil {
			a.log().Debug("loaded env file", zap.String("path", candidate))
			return
		}
	}
}

// jobConfig merges the loaded configuration with any flags the user set
// on this invocation, flags winning.
func (a *appState) jobConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := a.cfg
	flags := cmd.Flags()

	if flags.Changed("language") {
		cfg.Language = sanitizeLanguage(a.language)
	}
	if flags.Changed("temperature") {
		cfg.Temperature = a.temperature
	}
	if flags.Changed("prompt") {
		cfg.Prompt = a.prompt
	}
	if flags.Changed("model") {
		cfg.Model = a.model
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("bitrate") {
		cfg.AudioBitrate = a.bitrate
	}
	if flags.Changed("chunk-duration") {
		cfg.ChunkDuration = config.Duration(a.chunk)
	}
	if flags.Changed("overlap-duration") {
		cfg.OverlapDuration = config.Duration(a.overlap)
	}
	if flags.Changed("max-upload-bytes") {
		cfg.MaxUploadBytes = a.maxUpload
	}
	if flags.Changed("parallelism") {
		cfg.Parallelism = a.parallelism
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = a.maxAttempts
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}

var errMissingAPIKey = errors.New("no API key configured; set OPENAI_API_KEY or use --env-file")
