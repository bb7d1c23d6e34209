// Package chat holds the conversation transcript and turns streamed reply
// fragments into transcript messages.
package chat

import (
	"slices"
	"sync"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

// Role identifies the author of a message.
type Role = generator.Role

// Message roles.
const (
	RoleUser  = generator.RoleUser
	RoleModel = generator.RoleModel
)

// Citation is a web source attached to a model message.
type Citation struct {
	Title string
	URL   string
}

// Message is one entry of the transcript.
type Message struct {
	Role      Role
	Text      string
	Citations []Citation
}

// Update is delivered to listeners whenever a message is appended or
// changed in place.
type Update struct {
	Index   int
	Message Message
}

// Transcript is an ordered, concurrency-safe list of messages.
type Transcript struct {
	mu        sync.RWMutex
	messages  []Message
	listeners []func(Update)
}

// NewTranscript creates a transcript seeded with initial messages.
func NewTranscript(initial ...Message) *Transcript {
	return &Transcript{messages: slices.Clone(initial)}
}

// Subscribe registers fn for every subsequent update. Listeners run
// synchronously on the writer's goroutine.
func (t *Transcript) Subscribe(fn func(Update)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Append adds m and returns its index.
func (t *Transcript) Append(m Message) int {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	idx := len(t.messages) - 1
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	notify(listeners, Update{Index: idx, Message: m})
	return idx
}

// Messages returns a copy of all messages.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		m.Citations = slices.Clone(m.Citations)
		out[i] = m
	}
	return out
}

// At returns the message at idx.
func (t *Transcript) At(idx int) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx < 0 || idx >= len(t.messages) {
		return Message{}, false
	}
	return t.messages[idx], true
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *Transcript) update(idx int, fn func(*Message)) {
	t.mu.Lock()
	if idx < 0 || idx >= len(t.messages) {
		t.mu.Unlock()
		return
	}
	fn(&t.messages[idx])
	m := t.messages[idx]
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	notify(listeners, Update{Index: idx, Message: m})
}

func notify(listeners []func(Update), u Update) {
	for _, fn := range listeners {
		fn(u)
	}
}
