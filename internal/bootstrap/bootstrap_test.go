package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kim6922/senpai-ai/internal/config"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/storage"
	"github.com/Kim6922/senpai-ai/internal/studio"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		PollInterval: time.Second,
		OutputDir:    filepath.Join(root, "out"),
		MediaDir:     filepath.Join(root, "media"),
		DataDir:      filepath.Join(root, "data"),
		Playback:     config.PlaybackNone,
		FFmpegPath:   "ffmpeg",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDependencies_WithoutCredential(t *testing.T) {
	deps, err := NewDependencies(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	defer deps.Close()

	assert.False(t, deps.Studio.HasCredential())
	assert.False(t, deps.Subscription.Active())
	assert.IsType(t, &storage.LocalStorage{}, deps.Storage)

	_, err = deps.Studio.Voice.Submit(context.Background(), studio.VoiceInput{Text: "hello"})
	assert.True(t, job.IsKind(err, job.KindConfiguration))
	assert.NoError(t, deps.WaitPlayback(context.Background()))
}

func TestNewDependencies_SubscriptionPersists(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	deps, err := NewDependencies(ctx, cfg, quietLogger())
	require.NoError(t, err)
	require.NoError(t, deps.Subscription.Activate(ctx))
	assert.True(t, deps.Studio.Subscribed())
	require.NoError(t, deps.Close())

	deps, err = NewDependencies(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer deps.Close()
	assert.True(t, deps.Subscription.Active())
}

func TestNewDependencies_WithCredentialAndS3(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "test-key"
	cfg.S3Bucket = "senpai"
	cfg.S3Region = "us-east-1"
	cfg.S3Endpoint = "http://localhost:4566"
	cfg.AWSAccessKeyID = "k"
	cfg.AWSSecretAccessKey = "s"

	var events []job.Event
	deps, err := NewDependencies(context.Background(), cfg, quietLogger(),
		WithInMemoryFlagStore(),
		WithObserver(func(ev job.Event) { events = append(events, ev) }),
	)
	require.NoError(t, err)
	defer deps.Close()

	assert.True(t, deps.Studio.HasCredential())
	assert.IsType(t, &storage.S3Storage{}, deps.Storage)

	// Gated and unsubscribed: refused before any remote call, observed once.
	_, err = deps.Studio.Movie.Submit(context.Background(), studio.MovieInput{Prompt: "p"})
	assert.True(t, job.IsKind(err, job.KindSubscriptionRequired))
	require.Len(t, events, 1)
	assert.Equal(t, "movie", events[0].Workflow)
}
