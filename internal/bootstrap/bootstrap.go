// Package bootstrap wires the studio and its dependencies from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Kim6922/senpai-ai/internal/audio"
	"github.com/Kim6922/senpai-ai/internal/audio/device"
	"github.com/Kim6922/senpai-ai/internal/config"
	"github.com/Kim6922/senpai-ai/internal/gemini"
	"github.com/Kim6922/senpai-ai/internal/generator"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/media"
	"github.com/Kim6922/senpai-ai/internal/poller"
	"github.com/Kim6922/senpai-ai/internal/storage"
	"github.com/Kim6922/senpai-ai/internal/studio"
	"github.com/Kim6922/senpai-ai/internal/subscription"
)

// Dependencies holds everything a command needs.
type Dependencies struct {
	Studio       *studio.Studio
	Subscription *subscription.Flag
	Storage      storage.Storage

	flagStore subscription.Store
	device    *device.Context
}

// Option adjusts wiring beyond what the configuration covers.
type Option func(*options)

type options struct {
	observers []job.Observer
	inMemory  bool
}

// WithObserver is notified of every job transition.
func WithObserver(o job.Observer) Option {
	return func(opts *options) { opts.observers = append(opts.observers, o) }
}

// WithInMemoryFlagStore keeps the subscription flag in memory only.
func WithInMemoryFlagStore() Option {
	return func(opts *options) { opts.inMemory = true }
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	flagStore, err := initFlagStore(cfg, logger, o.inMemory)
	if err != nil {
		return nil, err
	}
	flag, err := subscription.Load(ctx, flagStore, logger)
	if err != nil {
		_ = flagStore.Close()
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	// A nil service makes every workflow report the missing credential.
	var svc generator.Service
	if cfg.HasCredential() {
		client, err := gemini.NewClient(ctx, cfg.APIKey, gemini.WithLogger(logger))
		if err != nil {
			_ = flagStore.Close()
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		svc = client
	} else {
		logger.Warn("API_KEY is not set; generation requests will be refused")
	}

	deps := &Dependencies{
		Subscription: flag,
		Storage:      store,
		flagStore:    flagStore,
	}
	playback := deps.initPlayback(cfg, logger)

	studioOpts := []studio.Option{
		studio.WithLogger(logger),
		studio.WithModels(studio.Models{
			Video:      cfg.VideoModel,
			Image:      cfg.ImageModel,
			Speech:     cfg.SpeechModel,
			Chat:       cfg.ChatModel,
			SearchChat: cfg.SearchChatModel,
			Text:       cfg.TextModel,
			Enhance:    cfg.EnhanceModel,
		}),
		studio.WithPollOptions(
			poller.WithInterval(cfg.PollInterval),
			poller.WithMaxAttempts(cfg.PollMaxAttempts),
			poller.WithTimeout(cfg.PollTimeout),
		),
		studio.WithGate(flag.Gate()),
		studio.WithPlayback(playback),
		studio.WithMedia(media.NewFFmpegProcessor(cfg.FFmpegPath)),
		studio.WithHistory(job.NewMemoryRepository()),
	}
	for _, obs := range o.observers {
		studioOpts = append(studioOpts, studio.WithObserver(obs))
	}
	deps.Studio = studio.New(svc, store, studioOpts...)

	logger.Debug("dependencies ready",
		slog.Bool("credential", cfg.HasCredential()),
		slog.Bool("subscribed", flag.Active()),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
		slog.String("playback", cfg.Playback),
	)
	return deps, nil
}

// WaitPlayback blocks until started audio has finished or ctx is done.
func (d *Dependencies) WaitPlayback(ctx context.Context) error {
	if d.device == nil {
		return nil
	}
	return d.device.Wait(ctx)
}

// Close releases studio results and closes the flag store.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Studio != nil {
		errs = append(errs, d.Studio.Close())
	}
	if d.flagStore != nil {
		errs = append(errs, d.flagStore.Close())
	}
	return errors.Join(errs...)
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	local, err := storage.NewLocalStorage(cfg.MediaDir, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	if !cfg.S3Enabled() {
		logger.Debug("local storage configured",
			slog.String("media_dir", local.TempDir()),
			slog.String("output_dir", local.OutputDir()),
		)
		return local, nil
	}

	s3Store, err := storage.NewS3Storage(ctx, local, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 storage: %w", err)
	}
	logger.Info("S3 export configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return s3Store, nil
}

func initFlagStore(cfg *config.Config, logger *slog.Logger, inMemory bool) (subscription.Store, error) {
	opts := subscription.BadgerOptions{InMemory: inMemory, Logger: logger}
	if !inMemory {
		dir, err := cfg.DataPath()
		if err != nil {
			return nil, err
		}
		opts.Dir = dir
	}
	store, err := subscription.OpenBadger(opts)
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}
	return store, nil
}

// initPlayback opens the output device. Machines without one fall back
// to silent playback.
func (d *Dependencies) initPlayback(cfg *config.Config, logger *slog.Logger) audio.Context {
	if cfg.Playback == config.PlaybackNone {
		return audio.Nop{}
	}
	dev, err := device.Open(audio.SampleRate, audio.Channels)
	if err != nil {
		logger.Warn("audio output unavailable, playback disabled", slog.String("error", err.Error()))
		return audio.Nop{}
	}
	d.device = dev
	return dev
}
