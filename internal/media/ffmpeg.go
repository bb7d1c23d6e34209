package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoFrame is returned when ffmpeg succeeds but produces no image.
	ErrNoFrame = errors.New("media: no frame extracted")
	// ErrFFprobeExecution is returned when ffprobe fails.
	ErrFFprobeExecution = errors.New("media: ffprobe execution failed")
)

// FFmpegProcessor implements Processor with the ffmpeg and ffprobe CLIs.
type FFmpegProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegProcessor creates a processor. An empty ffmpegPath resolves
// "ffmpeg" through PATH; ffprobe is looked up next to it.
func NewFFmpegProcessor(ffmpegPath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobe := "ffprobe"
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		ffprobe = filepath.Join(dir, "ffprobe")
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobe}
}

// ExtractFirstFrame implements Processor. The frame is piped from ffmpeg
// so no intermediate file is written.
func (p *FFmpegProcessor) ExtractFirstFrame(ctx context.Context, videoPath string) ([]byte, error) {
	args := []string{
		"-v", "error",
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	}

	out, err := p.run(ctx, p.ffmpegPath, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrame, videoPath)
	}
	return out, nil
}

// Duration implements Processor.
func (p *FFmpegProcessor) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := p.run(ctx, p.ffprobePath, args)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFFprobeExecution, err)
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("media: parse duration %q: %w", out, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// run executes bin and returns its stdout. Failures carry stderr.
func (p *FFmpegProcessor) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	// #nosec G204 - binary paths come from configuration, not user input
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", filepath.Base(bin), ctx.Err())
		}
		return nil, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// FFmpegError is a failed ffmpeg or ffprobe run with its stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

var _ Processor = (*FFmpegProcessor)(nil)
