package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/Kim6922/senpai-ai/internal/audio"
	"github.com/Kim6922/senpai-ai/internal/chat"
	"github.com/Kim6922/senpai-ai/internal/storage"
)

// Workflow names a studio job.
type Workflow string

// Workflows.
const (
	WorkflowVideo Workflow = "video"
	WorkflowMovie Workflow = "movie"
	WorkflowImage Workflow = "image"
	WorkflowVoice Workflow = "voice"
	WorkflowMusic Workflow = "music"
	WorkflowSound Workflow = "sound"
	WorkflowTTRPG Workflow = "ttrpg"
	WorkflowChat  Workflow = "chat"
)

// AllWorkflows lists the workflows in display order.
var AllWorkflows = []Workflow{
	WorkflowVideo, WorkflowMovie, WorkflowImage, WorkflowVoice,
	WorkflowMusic, WorkflowSound, WorkflowTTRPG, WorkflowChat,
}

// Gated reports whether w requires an active subscription.
func (w Workflow) Gated() bool {
	return w == WorkflowVideo || w == WorkflowMovie || w == WorkflowImage
}

// Validation messages, one per workflow.
var validationMessages = map[Workflow]string{
	WorkflowVideo: "Please upload a video and enter a prompt.",
	WorkflowMovie: "Please enter a prompt to generate a movie.",
	WorkflowImage: "Please enter a prompt to generate an image.",
	WorkflowVoice: "Please enter text to synthesize.",
	WorkflowMusic: "Please enter a prompt to generate music.",
	WorkflowSound: "Please enter a prompt to generate a sound effect.",
	WorkflowTTRPG: "Please enter a prompt to generate content.",
	WorkflowChat:  "Please enter a message.",
}

// ValidationMessage returns the message recorded when w's input is
// incomplete.
func ValidationMessage(w Workflow) string { return validationMessages[w] }

// VideoInput transforms an uploaded clip. The first frame of SourcePath
// seeds the generation.
type VideoInput struct {
	SourcePath string `yaml:"source" validate:"notblank"`
	Prompt     string `yaml:"prompt" validate:"notblank"`
}

// MovieInput generates a clip from text alone.
type MovieInput struct {
	Prompt string `yaml:"prompt" validate:"notblank"`
}

// ImageInput generates a single image.
type ImageInput struct {
	Prompt string `yaml:"prompt" validate:"notblank"`
}

// VoiceInput synthesizes Text. An empty Voice means DefaultVoice.
type VoiceInput struct {
	Text  string `yaml:"text" validate:"notblank"`
	Voice string `yaml:"voice" validate:"omitempty,voice"`
}

// MusicInput renders a soundscape through the speech model.
type MusicInput struct {
	Prompt string `yaml:"prompt" validate:"notblank"`
	Voice  string `yaml:"voice" validate:"omitempty,voice"`
}

// SoundInput renders a short sound effect.
type SoundInput struct {
	Prompt string `yaml:"prompt" validate:"notblank"`
}

// TTRPGInput asks for game content of Kind for System.
type TTRPGInput struct {
	Prompt string `yaml:"prompt" validate:"notblank"`
	System string `yaml:"system" validate:"required,gamesystem"`
	Kind   string `yaml:"kind" validate:"required,genkind"`
}

// ChatInput is one user message.
type ChatInput struct {
	Text string `yaml:"text" validate:"notblank"`
}

// ChatMessage is the final model reply of an exchange.
type ChatMessage = chat.Message

// newValidator registers the tags used by the workflow inputs.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("voice", func(fl validator.FieldLevel) bool {
		return IsVoice(fl.Field().String())
	})
	_ = v.RegisterValidation("gamesystem", func(fl validator.FieldLevel) bool {
		return slices.Contains(catalog().Systems, fl.Field().String())
	})
	_ = v.RegisterValidation("genkind", func(fl validator.FieldLevel) bool {
		return slices.Contains(catalog().Kinds, fl.Field().String())
	})
	return v
}

// MediaHandle is a generated file in local scratch storage. Release
// removes it; a nil handle releases nothing.
type MediaHandle struct {
	Path     string
	MIMEType string
	// Duration is zero when it could not be probed.
	Duration time.Duration

	store storage.Storage
	once  sync.Once
}

// Release implements job.Releaser.
func (h *MediaHandle) Release() error {
	if h == nil || h.store == nil {
		return nil
	}
	var err error
	h.once.Do(func() {
		err = h.store.CleanupTemp(context.Background(), []string{h.Path})
	})
	return err
}

// ImageResult is a generated image kept on disk, with its data URL for
// inline display.
type ImageResult struct {
	Media   *MediaHandle
	DataURL string
}

// Release implements job.Releaser.
func (r *ImageResult) Release() error {
	if r == nil {
		return nil
	}
	return r.Media.Release()
}

// AudioResult is synthesized speech as raw 16-bit PCM at audio.SampleRate.
type AudioResult struct {
	PCM      []byte
	Duration time.Duration
}

// WAV encodes the result for download.
func (r *AudioResult) WAV() ([]byte, error) {
	if r == nil {
		return nil, errors.New("studio: no audio")
	}
	wav, err := audio.EncodeWAV(r.PCM, audio.SampleRate, audio.Channels)
	if err != nil {
		return nil, fmt.Errorf("studio: encode wav: %w", err)
	}
	return wav, nil
}

func workflowAttr(w Workflow) slog.Attr {
	return slog.String("workflow", string(w))
}
