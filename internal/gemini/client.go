// Package gemini implements generator.Service on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

// Client is the production generator.Service.
type Client struct {
	genai      *genai.Client
	downloader *Downloader
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for API calls and asset downloads.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a Client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, generator.ErrNotConfigured
	}

	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.genai = gc
	c.downloader = NewDownloader(apiKey, c.httpClient)
	return c, nil
}

// StartVideo implements generator.Service.
func (c *Client) StartVideo(ctx context.Context, req generator.VideoRequest) (generator.Operation, error) {
	req = req.WithDefaults()

	var image *genai.Image
	if len(req.Image) > 0 {
		image = &genai.Image{ImageBytes: req.Image, MIMEType: req.ImageMIMEType}
	}

	op, err := c.genai.Models.GenerateVideos(ctx, req.Model, req.Prompt, image, &genai.GenerateVideosConfig{
		NumberOfVideos: int32(req.NumberOfVideos),
		Resolution:     req.Resolution,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return generator.Operation{}, wrapError("start video", err)
	}

	c.logger.Info("video operation started",
		slog.String("operation", op.Name),
		slog.String("model", req.Model),
		slog.Bool("with_image", image != nil),
	)
	return operationFrom(op), nil
}

// GetVideoOperation implements generator.Service.
func (c *Client) GetVideoOperation(ctx context.Context, op generator.Operation) (generator.Operation, error) {
	fresh, err := c.genai.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return op, wrapError("get video operation", err)
	}
	return operationFrom(fresh), nil
}

// GenerateSpeech implements generator.Service.
func (c *Client) GenerateSpeech(ctx context.Context, req generator.SpeechRequest) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, genai.Text(req.Text), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.Voice},
			},
		},
	})
	if err != nil {
		return "", wrapError("generate speech", err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return "", missingResult("audio generation failed", resp)
	}
	// The SDK decodes inline data; the workflows expect the transport text.
	return encodeTransport(blob.Data), nil
}

// GenerateImage implements generator.Service.
func (c *Client) GenerateImage(ctx context.Context, req generator.ImageRequest) (generator.Image, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		return generator.Image{}, wrapError("generate image", err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return generator.Image{}, missingResult("image generation failed", resp)
	}
	mime := blob.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return generator.Image{Data: blob.Data, MIMEType: mime}, nil
}

// GenerateText implements generator.Service.
func (c *Client) GenerateText(ctx context.Context, req generator.TextRequest) (string, error) {
	var cfg *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", wrapError("generate text", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty text response", generator.ErrMissingResult)
	}
	return text, nil
}

// StreamChat implements generator.Service.
func (c *Client) StreamChat(ctx context.Context, req generator.ChatRequest) iter.Seq2[generator.Fragment, error] {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		contents = append(contents, genai.NewContentFromText(m.Text, genai.Role(m.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if req.Search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	return func(yield func(generator.Fragment, error) bool) {
		for resp, err := range c.genai.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				yield(generator.Fragment{}, wrapError("stream chat", err))
				return
			}
			if !yield(fragmentFrom(resp), nil) {
				return
			}
		}
	}
}

// FetchAsset implements generator.Service.
func (c *Client) FetchAsset(ctx context.Context, uri string) ([]byte, error) {
	return c.downloader.Fetch(ctx, uri)
}

// operationFrom converts an SDK operation to a handle. Only the first
// generated video is considered.
func operationFrom(op *genai.GenerateVideosOperation) generator.Operation {
	if op == nil {
		return generator.Operation{}
	}
	h := generator.Operation{Name: op.Name, Finished: op.Done}
	if len(op.Error) > 0 {
		h.Failure = operationFailure(op.Error)
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if gv := op.Response.GeneratedVideos[0]; gv != nil && gv.Video != nil {
			h.AssetURI = gv.Video.URI
		}
	}
	if h.Finished && h.AssetURI == "" && h.Failure == "" && op.Response != nil && len(op.Response.RAIMediaFilteredReasons) > 0 {
		h.Failure = strings.Join(op.Response.RAIMediaFilteredReasons, "; ")
	}
	return h
}

func operationFailure(e map[string]any) string {
	if msg, ok := e["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("%v", e)
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil {
				return p.InlineData
			}
		}
	}
	return nil
}

// missingResult reports a response without inline data, carrying the
// model's text answer when it gave one.
func missingResult(what string, resp *genai.GenerateContentResponse) error {
	if resp != nil {
		if text := strings.TrimSpace(resp.Text()); text != "" {
			return fmt.Errorf("%w: %s: model responded with: %s", generator.ErrMissingResult, what, text)
		}
	}
	return fmt.Errorf("%w: %s: no data received", generator.ErrMissingResult, what)
}

func fragmentFrom(resp *genai.GenerateContentResponse) generator.Fragment {
	f := generator.Fragment{Text: resp.Text()}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			f.Citations = append(f.Citations, generator.Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return f
}

const billedUsersMarker = "billed users"

// wrapError tags remote failures with the generator sentinels the job
// layer classifies on.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isQuotaError(err):
		return fmt.Errorf("gemini: %s: %w: %w", op, generator.ErrQuotaExceeded, err)
	case strings.Contains(err.Error(), billedUsersMarker):
		return fmt.Errorf("gemini: %s: %w: %w", op, generator.ErrBillingRequired, err)
	}
	return fmt.Errorf("gemini: %s: %w", op, err)
}

var _ generator.Service = (*Client)(nil)
