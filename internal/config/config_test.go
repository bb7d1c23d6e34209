package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"API_KEY", "VIDEO_MODEL", "IMAGE_MODEL", "SPEECH_MODEL", "CHAT_MODEL",
	"SEARCH_CHAT_MODEL", "TEXT_MODEL", "ENHANCE_MODEL",
	"POLL_INTERVAL", "POLL_MAX_ATTEMPTS", "POLL_TIMEOUT",
	"OUTPUT_DIR", "MEDIA_DIR", "DATA_DIR",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"PLAYBACK", "FFMPEG_PATH", "LOG_FORMAT", "LOG_LEVEL",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.False(t, cfg.HasCredential())
	assert.Equal(t, "veo-3.1-fast-generate-preview", cfg.VideoModel)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.ImageModel)
	assert.Equal(t, "gemini-2.5-flash-preview-tts", cfg.SpeechModel)
	assert.Equal(t, "gemini-2.5-pro", cfg.ChatModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.SearchChatModel)
	assert.Equal(t, "gemini-2.5-pro", cfg.TextModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.EnhanceModel)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.PollMaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.PollTimeout)
	assert.Equal(t, "./senpai-output", cfg.OutputDir)
	assert.Equal(t, PlaybackDevice, cfg.Playback)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "custom-api-key")
	t.Setenv("VIDEO_MODEL", "veo-test")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_MAX_ATTEMPTS", "30")
	t.Setenv("POLL_TIMEOUT", "5m")
	t.Setenv("OUTPUT_DIR", "/custom/out")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("PLAYBACK", "none")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "custom-api-key", cfg.APIKey)
	assert.True(t, cfg.HasCredential())
	assert.Equal(t, "veo-test", cfg.VideoModel)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.PollMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.PollTimeout)
	assert.Equal(t, "/custom/out", cfg.OutputDir)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, PlaybackNone, cfg.Playback)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_MODEL", "from-environment")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_KEY=from-file\nCHAT_MODEL=from-file\n"), 0600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "from-environment", cfg.ChatModel, "environment wins over the file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable duration", "POLL_INTERVAL", "soon"},
		{"unparsable integer", "POLL_MAX_ATTEMPTS", "many"},
		{"zero interval", "POLL_INTERVAL", "0s"},
		{"negative attempts", "POLL_MAX_ATTEMPTS", "-1"},
		{"unknown playback", "PLAYBACK", "speakers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(noEnvFile(t))
			require.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{PollInterval: time.Second, Playback: PlaybackDevice}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.PollTimeout = -time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalid)
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{S3Bucket: tt.bucket, S3Region: tt.region}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_DataPath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/senpai"}
	dir, err := cfg.DataPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/senpai", dir)

	t.Setenv("HOME", "/home/tester")
	dir, err = (&Config{}).DataPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".senpai"), dir)
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		APIKey:             "secret-key",
		AWSSecretAccessKey: "aws-secret",
		VideoModel:         "veo-x",
		OutputDir:          "/tmp/out",
		PollInterval:       10 * time.Second,
		LogFormat:          "json",
		LogLevel:           "info",
	}

	str := cfg.String()

	assert.Contains(t, str, "veo-x")
	assert.Contains(t, str, "/tmp/out")
	assert.Contains(t, str, "****")
	assert.NotContains(t, str, "secret-key")
	assert.NotContains(t, str, "aws-secret")

	assert.Contains(t, (&Config{}).String(), "APIKey: <unset>")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{LogFormat: "json", LogLevel: "info"}

	var buf bytes.Buffer
	logger := cfg.newLogger(&buf)
	logger.Debug("hidden")
	logger.Info("test message")

	assert.Contains(t, buf.String(), `"msg":"test message"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{LogFormat: "text", LogLevel: "debug"}

	var buf bytes.Buffer
	cfg.newLogger(&buf).Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
	require.NotNil(t, cfg.NewLogger())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
