// Package commands implements the senpai command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/bootstrap"
	"github.com/Kim6922/senpai-ai/internal/config"
)

var (
	inputFile string
	outputDir string
	envFile   string
	verbose   bool
	noPlay    bool
)

var rootCmd = &cobra.Command{
	Use:   "senpai",
	Short: "Senpai AI generation studio",
	Long: `Senpai turns prompts into videos, movies, images, speech, music,
sound effects and tabletop RPG content using Gemini models.

Set API_KEY in the environment or in a .env file before generating.
Video, movie and image generation also require an active subscription
(see "senpai subscribe").

Results are written to OUTPUT_DIR (default ./senpai-output) and, when
S3_BUCKET and S3_REGION are set, exported to S3 as well.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "request YAML file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load instead of .env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noPlay, "no-play", false, "do not play generated audio")

	rootCmd.AddCommand(videoCmd, movieCmd, imageCmd, speechCmd, musicCmd, soundCmd, ttrpgCmd)
	rootCmd.AddCommand(chatCmd, enhanceCmd, scriptCmd)
	rootCmd.AddCommand(subscribeCmd, statusCmd, voicesCmd, examplesCmd, studioCmd)
}

// app is what a command works with. Close must be called when done.
type app struct {
	*bootstrap.Dependencies
	cfg    *config.Config
	logger *slog.Logger
}

func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if noPlay {
		cfg.Playback = config.PlaybackNone
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts ...bootstrap.Option) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize dependencies: %w", err)
	}
	return &app{Dependencies: deps, cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	if err := a.Close(); err != nil {
		a.logger.Warn("shutdown", slog.String("error", err.Error()))
	}
}
