// Package generator defines the port between the studio workflows and the
// remote generation service. The gemini package provides the production
// implementation.
package generator

import (
	"context"
	"errors"
	"iter"
)

// Defaults applied to every video request.
const (
	DefaultNumberOfVideos = 1
	DefaultResolution     = "720p"
	DefaultAspectRatio    = "16:9"
)

var (
	// ErrNotConfigured is returned when no credential is available.
	ErrNotConfigured = errors.New("generator: API key is not configured")
	// ErrQuotaExceeded marks the remote rate-limit condition.
	ErrQuotaExceeded = errors.New("generator: quota exceeded")
	// ErrBillingRequired is returned when a model is restricted to billed accounts.
	ErrBillingRequired = errors.New("generator: billed account required")
	// ErrMissingResult is returned when a call succeeded but carried no usable artifact.
	ErrMissingResult = errors.New("generator: no usable result")
	// ErrOperationFailed is returned when a long-running operation finished with an error.
	ErrOperationFailed = errors.New("generator: operation failed")
	// ErrDownloadFailed is returned when an asset URI could not be fetched.
	ErrDownloadFailed = errors.New("generator: asset download failed")
)

// Operation is the handle of a long-running video generation.
type Operation struct {
	Name     string
	Finished bool
	// AssetURI locates the first generated video once Finished.
	AssetURI string
	// Failure is the remote error text of a finished operation, if any.
	Failure string
}

// Done reports whether the operation reached a terminal state.
func (o Operation) Done() bool { return o.Finished }

// VideoRequest starts a video generation. Image is optional.
type VideoRequest struct {
	Model          string
	Prompt         string
	Image          []byte
	ImageMIMEType  string
	NumberOfVideos int
	Resolution     string
	AspectRatio    string
}

// WithDefaults fills unset generation parameters.
func (r VideoRequest) WithDefaults() VideoRequest {
	if r.NumberOfVideos == 0 {
		r.NumberOfVideos = DefaultNumberOfVideos
	}
	if r.Resolution == "" {
		r.Resolution = DefaultResolution
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if len(r.Image) > 0 && r.ImageMIMEType == "" {
		r.ImageMIMEType = "image/png"
	}
	return r
}

// SpeechRequest synthesizes Text with a prebuilt voice.
type SpeechRequest struct {
	Model string
	Text  string
	Voice string
}

// ImageRequest generates a single image.
type ImageRequest struct {
	Model  string
	Prompt string
}

// Image is a generated image.
type Image struct {
	Data     []byte
	MIMEType string
}

// TextRequest is a one-shot text generation.
type TextRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
}

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one prior turn of a conversation.
type Message struct {
	Role Role
	Text string
}

// ChatRequest sends Message after History. With Search set the model may
// ground its answer in live web results; otherwise SystemInstruction
// applies.
type ChatRequest struct {
	Model             string
	History           []Message
	Message           string
	Search            bool
	SystemInstruction string
}

// Citation is a web source that grounded a reply.
type Citation struct {
	Title string
	URI   string
}

// Fragment is one incremental piece of a streamed reply. Citations is the
// grounding metadata known at the time the fragment was produced.
type Fragment struct {
	Text      string
	Citations []Citation
}

// Service is the remote generation service.
type Service interface {
	// StartVideo begins a long-running video generation.
	StartVideo(ctx context.Context, req VideoRequest) (Operation, error)

	// GetVideoOperation returns a fresh snapshot of op.
	GetVideoOperation(ctx context.Context, op Operation) (Operation, error)

	// GenerateSpeech returns the base64 PCM payload of the synthesized audio.
	GenerateSpeech(ctx context.Context, req SpeechRequest) (string, error)

	// GenerateImage returns the first image of the response.
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)

	// GenerateText returns the text of the response.
	GenerateText(ctx context.Context, req TextRequest) (string, error)

	// StreamChat yields reply fragments in arrival order. A non-nil error
	// ends the sequence.
	StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[Fragment, error]

	// FetchAsset downloads the bytes behind an asset URI.
	FetchAsset(ctx context.Context, uri string) ([]byte, error)
}
