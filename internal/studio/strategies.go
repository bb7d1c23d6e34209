package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/Kim6922/senpai-ai/internal/audio"
	"github.com/Kim6922/senpai-ai/internal/generator"
	"github.com/Kim6922/senpai-ai/internal/poller"
)

const (
	musicTemplate = "Generate a soundscape described as: %s"
	soundTemplate = "Sound effect of a %s"
	ttrpgTemplate = `As an expert TTRPG game master for the %s system, create a %s based on the following idea. Format the output clearly using Markdown, with headings, bold text, and bullet points where appropriate. Idea: "%s"`
)

func (s *Studio) dispatchVideo(ctx context.Context, in VideoInput) (*MediaHandle, error) {
	if s.media == nil {
		return nil, fmt.Errorf("studio: no media processor to read %s", in.SourcePath)
	}
	frame, err := s.media.ExtractFirstFrame(ctx, in.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("studio: extract first frame: %w", err)
	}
	return s.renderVideo(ctx, WorkflowVideo, generator.VideoRequest{
		Model:         s.models.Video,
		Prompt:        in.Prompt,
		Image:         frame,
		ImageMIMEType: "image/png",
	})
}

func (s *Studio) dispatchMovie(ctx context.Context, in MovieInput) (*MediaHandle, error) {
	return s.renderVideo(ctx, WorkflowMovie, generator.VideoRequest{
		Model:  s.models.Video,
		Prompt: in.Prompt,
	})
}

// renderVideo starts a generation, polls it to completion, downloads the
// first video, and keeps it in scratch storage.
func (s *Studio) renderVideo(ctx context.Context, w Workflow, req generator.VideoRequest) (*MediaHandle, error) {
	op, err := s.svc.StartVideo(ctx, req.WithDefaults())
	if err != nil {
		return nil, err
	}

	op, err = poller.Poll(ctx, op, s.svc.GetVideoOperation, s.pollOpts...)
	if err != nil {
		return nil, err
	}
	if op.Failure != "" {
		return nil, fmt.Errorf("%w: %s", generator.ErrOperationFailed, op.Failure)
	}
	if op.AssetURI == "" {
		return nil, fmt.Errorf("%w: video generation did not return a valid video URI", generator.ErrMissingResult)
	}

	data, err := s.svc.FetchAsset(ctx, op.AssetURI)
	if err != nil {
		return nil, err
	}

	h, err := s.keep(ctx, w, ".mp4", "video/mp4", data)
	if err != nil {
		return nil, err
	}
	if s.media != nil {
		if d, err := s.media.Duration(ctx, h.Path); err != nil {
			s.logger.Debug("could not probe video duration", workflowAttr(w), slog.String("error", err.Error()))
		} else {
			h.Duration = d
		}
	}
	return h, nil
}

func (s *Studio) dispatchImage(ctx context.Context, in ImageInput) (*ImageResult, error) {
	img, err := s.svc.GenerateImage(ctx, generator.ImageRequest{Model: s.models.Image, Prompt: in.Prompt})
	if err != nil {
		return nil, err
	}
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: image generation did not return valid image data", generator.ErrMissingResult)
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	h, err := s.keep(ctx, WorkflowImage, ".png", mime, img.Data)
	if err != nil {
		return nil, err
	}
	return &ImageResult{
		Media:   h,
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	}, nil
}

// keep writes data to scratch storage as a media handle of w.
func (s *Studio) keep(ctx context.Context, w Workflow, ext, mime string, data []byte) (*MediaHandle, error) {
	path, err := s.store.SaveTemp(ctx, "senpai-"+string(w), ext, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("studio: keep %s result: %w", w, err)
	}
	return &MediaHandle{Path: path, MIMEType: mime, store: s.store}, nil
}

func (s *Studio) dispatchVoice(ctx context.Context, in VoiceInput) (*AudioResult, error) {
	return s.synthesize(ctx, WorkflowVoice, in.Text, in.Voice)
}

func (s *Studio) dispatchMusic(ctx context.Context, in MusicInput) (*AudioResult, error) {
	return s.synthesize(ctx, WorkflowMusic, fmt.Sprintf(musicTemplate, in.Prompt), in.Voice)
}

func (s *Studio) dispatchSound(ctx context.Context, in SoundInput) (*AudioResult, error) {
	return s.synthesize(ctx, WorkflowSound, fmt.Sprintf(soundTemplate, in.Prompt), DefaultVoice)
}

// synthesize runs the speech model, decodes its payload, and starts
// playback without waiting for it.
func (s *Studio) synthesize(ctx context.Context, w Workflow, text, voice string) (*AudioResult, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	payload, err := s.svc.GenerateSpeech(ctx, generator.SpeechRequest{
		Model: s.models.Speech,
		Text:  text,
		Voice: voice,
	})
	if err != nil {
		return nil, err
	}

	pcm, err := audio.DecodeTransport(payload)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: no audio data received from API", generator.ErrMissingResult)
	}
	buf, err := audio.DecodePCM(pcm, audio.SampleRate, audio.Channels)
	if err != nil {
		return nil, err
	}

	audio.Play(s.playback, buf, s.logger.With(workflowAttr(w)))
	return &AudioResult{PCM: pcm, Duration: buf.Duration()}, nil
}

func (s *Studio) dispatchTTRPG(ctx context.Context, in TTRPGInput) (string, error) {
	return s.svc.GenerateText(ctx, generator.TextRequest{
		Model:  s.models.Text,
		Prompt: fmt.Sprintf(ttrpgTemplate, in.System, in.Kind, in.Prompt),
	})
}

func (s *Studio) dispatchChat(ctx context.Context, in ChatInput) (ChatMessage, error) {
	return s.conv.Send(ctx, in.Text)
}
