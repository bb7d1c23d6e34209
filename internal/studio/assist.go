package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Kim6922/senpai-ai/internal/generator"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/storage"
)

const (
	enhanceTemplate = `Enhance the following user prompt for an AI image generator to be more descriptive, vivid, and artistic. Return only the enhanced prompt, without any introductory text. User prompt: "%s"`
	scriptTemplate  = `You are an expert scriptwriter. Based on the following idea, write a short, detailed, and cinematic scene description that can be used as a prompt for an AI video generator. Return only the new prompt. Idea: "%s"`
)

var (
	// ErrNothingToDownload is returned when the workflow has no result.
	ErrNothingToDownload = errors.New("studio: nothing to download")
	// ErrNotDownloadable is returned for workflows without a file form.
	ErrNotDownloadable = errors.New("studio: workflow has no download")
)

// Download filenames.
var downloadNames = map[Workflow]string{
	WorkflowVideo: "senpai-video.mp4",
	WorkflowMovie: "senpai-movie.mp4",
	WorkflowImage: "senpai-image.png",
	WorkflowVoice: "senpai-audio.wav",
	WorkflowMusic: "senpai-music.wav",
	WorkflowSound: "senpai-soundfx.wav",
	WorkflowTTRPG: "senpai-ttrpg.md",
}

// DownloadName returns the fixed filename of w's download.
func DownloadName(w Workflow) (string, bool) {
	name, ok := downloadNames[w]
	return name, ok
}

// Downloaded is where a result was written.
type Downloaded struct {
	Path string
	// URL is set when the result was also exported.
	URL string
}

// Download writes the current result of w to the output directory under
// its fixed filename, and exports it when export is configured. It does
// nothing unless the workflow Succeeded.
func (s *Studio) Download(ctx context.Context, w Workflow) (Downloaded, error) {
	name, ok := downloadNames[w]
	if !ok {
		return Downloaded{}, fmt.Errorf("%w: %s", ErrNotDownloadable, w)
	}

	data, err := s.resultBytes(ctx, w)
	if err != nil {
		return Downloaded{}, err
	}

	path, err := s.store.WriteOutput(ctx, name, bytes.NewReader(data))
	if err != nil {
		return Downloaded{}, fmt.Errorf("studio: download %s: %w", w, err)
	}
	out := Downloaded{Path: path}

	url, err := s.store.Export(ctx, name, bytes.NewReader(data))
	switch {
	case errors.Is(err, storage.ErrExportNotConfigured):
	case err != nil:
		return out, fmt.Errorf("studio: export %s: %w", w, err)
	default:
		out.URL = url
		s.logger.Info("download exported", workflowAttr(w), slog.String("url", url))
	}
	return out, nil
}

func (s *Studio) resultBytes(ctx context.Context, w Workflow) ([]byte, error) {
	switch w {
	case WorkflowVideo:
		h, ok := succeeded(s.Video)
		return s.mediaBytes(ctx, h, ok)
	case WorkflowMovie:
		h, ok := succeeded(s.Movie)
		return s.mediaBytes(ctx, h, ok)
	case WorkflowImage:
		r, ok := succeeded(s.Image)
		if !ok || r == nil {
			return nil, ErrNothingToDownload
		}
		return s.mediaBytes(ctx, r.Media, true)
	case WorkflowVoice:
		r, ok := succeeded(s.Voice)
		return audioBytes(r, ok)
	case WorkflowMusic:
		r, ok := succeeded(s.Music)
		return audioBytes(r, ok)
	case WorkflowSound:
		r, ok := succeeded(s.Sound)
		return audioBytes(r, ok)
	case WorkflowTTRPG:
		text, ok := succeeded(s.TTRPG)
		if !ok {
			return nil, ErrNothingToDownload
		}
		return []byte(text), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotDownloadable, w)
}

func succeeded[In, Out any](j *job.Job[In, Out]) (Out, bool) {
	snap := j.Snapshot()
	if snap.Status != job.StatusSucceeded || !snap.HasResult {
		var zero Out
		return zero, false
	}
	return snap.Result, true
}

func (s *Studio) mediaBytes(ctx context.Context, h *MediaHandle, ok bool) ([]byte, error) {
	if !ok || h == nil {
		return nil, ErrNothingToDownload
	}
	rc, err := s.store.LoadTemp(ctx, h.Path)
	if err != nil {
		return nil, fmt.Errorf("studio: read media: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func audioBytes(r *AudioResult, ok bool) ([]byte, error) {
	if !ok || r == nil {
		return nil, ErrNothingToDownload
	}
	return r.WAV()
}

// EnhanceImagePrompt asks the text model for a more vivid version of
// prompt. An empty prompt is returned unchanged.
func (s *Studio) EnhanceImagePrompt(ctx context.Context, prompt string) (string, error) {
	return s.rewrite(ctx, prompt, s.models.Enhance, enhanceTemplate, "Failed to enhance prompt: ")
}

// WriteScript turns an idea into a cinematic scene description for the
// video and movie workflows. An empty idea is returned unchanged.
func (s *Studio) WriteScript(ctx context.Context, idea string) (string, error) {
	return s.rewrite(ctx, idea, s.models.Text, scriptTemplate, "Failed to generate script: ")
}

func (s *Studio) rewrite(ctx context.Context, prompt, model, template, failure string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return prompt, nil
	}
	if !s.credential {
		return "", job.Configuration()
	}

	text, err := s.svc.GenerateText(ctx, generator.TextRequest{
		Model:  model,
		Prompt: fmt.Sprintf(template, prompt),
	})
	if err != nil {
		jerr := job.Classify(err)
		if jerr.Kind == job.KindRemote || jerr.Kind == job.KindMissingResult {
			jerr = &job.Error{Kind: jerr.Kind, Message: failure + err.Error(), Err: err}
		}
		return "", jerr
	}
	return strings.TrimSpace(text), nil
}
