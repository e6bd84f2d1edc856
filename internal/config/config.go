// Package config handles vodscribe job configuration: explicit defaults,
// an optional YAML file, and environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once per job and passed into each component; nothing
// reads configuration from ambient global state.
type Config struct {
	// APIKey comes from the environment only, never from the YAML file.
	APIKey string `yaml:"-"`

	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Language    string  `yaml:"language"`
	Temperature float64 `yaml:"temperature"`
	// Prompt is a free-text domain hint forwarded to the speech API, e.g.
	// product names the recording is likely to contain.
	Prompt string `yaml:"prompt"`

	// AudioBitrate is the opus bitrate for extracted segments.
	AudioBitrate string `yaml:"audio_bitrate"`
	// MaxUploadBytes is the largest file sent without splitting.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	ChunkDuration    Duration `yaml:"chunk_duration"`
	OverlapDuration  Duration `yaml:"overlap_duration"`
	OverlapThreshold Duration `yaml:"overlap_threshold"`

	// Parallelism bounds concurrent segment uploads; zero means one worker
	// per segment.
	Parallelism int `yaml:"parallelism"`
	MaxAttempts int `yaml:"max_attempts"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "4h" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration the original deployment shipped
// with: English audio, 12 kbps opus segments, 4-hour chunks with a 10s
// seam, and uploads capped just under the API's 25 MB limit.
func Default() Config {
	return Config{
		BaseURL:          "https://api.openai.com/v1",
		Model:            "whisper-1",
		Language:         "en",
		Temperature:      0.7,
		AudioBitrate:     "12k",
		MaxUploadBytes:   26004684, // 24.8 MiB
		ChunkDuration:    Duration(4 * time.Hour),
		OverlapDuration:  Duration(10 * time.Second),
		OverlapThreshold: Duration(500 * time.Millisecond),
		Parallelism:      0,
		MaxAttempts:      6,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables: OPENAI_API_KEY for the secret
// and VODSCRIBE_BASE_URL / VODSCRIBE_MODEL / VODSCRIBE_LANGUAGE for the
// common overrides.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.APIKey = key
	}
	if url := os.Getenv("VODSCRIBE_BASE_URL"); url != "" {
		c.BaseURL = url
	}
	if model := os.Getenv("VODSCRIBE_MODEL"); model != "" {
		c.Model = model
	}
	if lang := os.Getenv("VODSCRIBE_LANGUAGE"); lang != "" {
		c.Language = lang
	}
}

// Validate reports the first configuration error. The chunk/overlap
// check fails fast on combinations whose split loop would never advance.
func (c Config) Validate() error {
	if c.OverlapDuration < 0 {
		return errors.New("overlap_duration must not be negative")
	}
	if c.ChunkDuration <= c.OverlapDuration {
		return fmt.Errorf("chunk_duration %s must be greater than overlap_duration %s",
			c.ChunkDuration.Std(), c.OverlapDuration.Std())
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature %v must be between 0 and 1", c.Temperature)
	}
	if c.MaxAttempts < 1 {
		return errors.New("max_attempts must be at least 1")
	}
	if c.Parallelism < 0 {
		return errors.New("parallelism must not be negative")
	}
	return nil
}
