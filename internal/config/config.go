// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration loading.
var (
	// ErrInvalid is returned when a loaded value is out of range.
	ErrInvalid = errors.New("config: invalid value")
	// ErrEnvFile is returned when an env file exists but cannot be parsed.
	ErrEnvFile = errors.New("config: cannot read env file")
)

// Playback modes.
const (
	PlaybackDevice = "device"
	PlaybackNone   = "none"
)

// Config holds all configuration for the application.
type Config struct {
	// Remote credential. Optional at load time; without it every job
	// fails with a configuration error.
	APIKey string `env:"API_KEY" json:"-"` // Masked in JSON

	// Models
	VideoModel      string `env:"VIDEO_MODEL, default=veo-3.1-fast-generate-preview" json:"video_model"`
	ImageModel      string `env:"IMAGE_MODEL, default=gemini-2.5-flash-image" json:"image_model"`
	SpeechModel     string `env:"SPEECH_MODEL, default=gemini-2.5-flash-preview-tts" json:"speech_model"`
	ChatModel       string `env:"CHAT_MODEL, default=gemini-2.5-pro" json:"chat_model"`
	SearchChatModel string `env:"SEARCH_CHAT_MODEL, default=gemini-2.5-flash" json:"search_chat_model"`
	TextModel       string `env:"TEXT_MODEL, default=gemini-2.5-pro" json:"text_model"`
	EnhanceModel    string `env:"ENHANCE_MODEL, default=gemini-2.5-flash" json:"enhance_model"`

	// Polling of long-running operations. Zero attempts or timeout means
	// unbounded.
	PollInterval    time.Duration `env:"POLL_INTERVAL, default=10s" json:"poll_interval" validate:"gt=0"`
	PollMaxAttempts int           `env:"POLL_MAX_ATTEMPTS, default=0" json:"poll_max_attempts" validate:"gte=0"`
	PollTimeout     time.Duration `env:"POLL_TIMEOUT, default=0s" json:"poll_timeout" validate:"gte=0"`

	// Storage settings
	OutputDir string `env:"OUTPUT_DIR, default=./senpai-output" json:"output_dir"`
	MediaDir  string `env:"MEDIA_DIR" json:"media_dir,omitempty"`
	DataDir   string `env:"DATA_DIR" json:"data_dir,omitempty"`

	// Optional S3 export of downloads
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Local tools
	Playback   string `env:"PLAYBACK, default=device" json:"playback" validate:"oneof=device none"`
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads the optional env files, then the environment. With no
// arguments ".env" is tried. Missing files are skipped, and variables
// already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w %s: %w", ErrEnvFile, f, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. A missing API key is not an error here.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q", ErrInvalid, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// HasCredential reports whether an API key is configured.
func (c *Config) HasCredential() bool {
	return c.APIKey != ""
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// DataPath returns DataDir, defaulting to ~/.senpai.
func (c *Config) DataPath() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve data dir: %w", err)
	}
	return filepath.Join(home, ".senpai"), nil
}

// NewLogger creates a structured logger writing to stderr. Stdout is left
// to command output.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{APIKey: %s, VideoModel: %s, ImageModel: %s, SpeechModel: %s, ChatModel: %s, PollInterval: %s, PollMaxAttempts: %d, PollTimeout: %s, OutputDir: %s, S3Bucket: %s, S3Region: %s, Playback: %s, LogFormat: %s, LogLevel: %s}",
		mask(c.APIKey),
		c.VideoModel,
		c.ImageModel,
		c.SpeechModel,
		c.ChatModel,
		c.PollInterval,
		c.PollMaxAttempts,
		c.PollTimeout,
		c.OutputDir,
		c.S3Bucket,
		c.S3Region,
		c.Playback,
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
