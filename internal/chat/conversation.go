package chat

import (
	"context"
	"sync"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

const (
	// Greeting opens every conversation. It is shown but never sent as history.
	Greeting = "Hello! I am Senpai, your creative assistant. How can I help you weave your ideas into reality today?"
	// Persona is the system instruction used when live search is off.
	Persona = "You are Senpai, a helpful and creative AI assistant with a slightly mysterious and wise persona, like a guide in a digital world. You help users with their creative projects. You keep your answers concise and helpful."
	// NotConfiguredReply is appended instead of contacting the service when
	// no credential is set.
	NotConfiguredReply = "I can't respond right now. The API Key is not configured."
)

// Default models.
const (
	DefaultModel       = "gemini-2.5-pro"
	DefaultSearchModel = "gemini-2.5-flash"
)

// Conversation runs exchanges against the generation service and records
// them in its transcript.
type Conversation struct {
	svc         generator.Service
	transcript  *Transcript
	model       string
	searchModel string

	mu     sync.Mutex
	search bool
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithModels overrides the models used without and with live search.
func WithModels(model, searchModel string) ConversationOption {
	return func(c *Conversation) {
		if model != "" {
			c.model = model
		}
		if searchModel != "" {
			c.searchModel = searchModel
		}
	}
}

// NewConversation creates a conversation whose transcript starts with the
// greeting.
func NewConversation(svc generator.Service, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		svc:         svc,
		transcript:  NewTranscript(Message{Role: RoleModel, Text: Greeting}),
		model:       DefaultModel,
		searchModel: DefaultSearchModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcript returns the conversation transcript.
func (c *Conversation) Transcript() *Transcript { return c.transcript }

// SetSearch toggles live web search for the next exchange only.
func (c *Conversation) SetSearch(on bool) {
	c.mu.Lock()
	c.search = on
	c.mu.Unlock()
}

// SearchEnabled reports whether the next exchange uses live search.
func (c *Conversation) SearchEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// Send appends the user's text, streams the reply into the transcript,
// and returns the final model message. The search toggle is cleared when
// the exchange ends, whatever its outcome.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	search := c.SearchEnabled()
	defer c.SetSearch(false)

	// History is everything before this exchange except the greeting.
	prior := c.transcript.Messages()[1:]
	history := make([]generator.Message, 0, len(prior))
	for _, m := range prior {
		history = append(history, generator.Message{Role: m.Role, Text: m.Text})
	}

	c.transcript.Append(Message{Role: RoleUser, Text: text})

	req := generator.ChatRequest{
		Model:   c.model,
		History: history,
		Message: text,
		Search:  search,
	}
	if search {
		req.Model = c.searchModel
	} else {
		req.SystemInstruction = Persona
	}

	return Aggregate(ctx, c.transcript, c.svc.StreamChat(ctx, req))
}

// ReportNotConfigured appends the reply shown when no credential is set.
func (c *Conversation) ReportNotConfigured() {
	c.transcript.Append(Message{Role: RoleModel, Text: NotConfiguredReply})
}
