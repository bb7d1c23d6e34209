package chat

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

// ErrorPrefix starts the message appended when a stream fails.
const ErrorPrefix = "Sorry, an error occurred: "

// Aggregate appends an empty model message to t and grows it with each
// fragment in arrival order. When the stream ends, the citations of the
// last fragment are attached, deduplicated in first-seen order. A stream
// error stops consumption, keeps the partial text, and appends a separate
// error message; nothing is retried.
func Aggregate(ctx context.Context, t *Transcript, fragments iter.Seq2[generator.Fragment, error]) (Message, error) {
	idx := t.Append(Message{Role: RoleModel})

	var text strings.Builder
	var last generator.Fragment
	for f, err := range fragments {
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			t.Append(Message{Role: RoleModel, Text: ErrorPrefix + err.Error()})
			m, _ := t.At(idx)
			return m, fmt.Errorf("chat: stream: %w", err)
		}

		text.WriteString(f.Text)
		last = f
		accumulated := text.String()
		t.update(idx, func(m *Message) { m.Text = accumulated })
	}

	citations := dedupe(last.Citations)
	t.update(idx, func(m *Message) { m.Citations = citations })

	m, _ := t.At(idx)
	return m, nil
}

func dedupe(in []generator.Citation) []Citation {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		key := c.URI
		if key == "" {
			key = c.Title
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Citation{Title: c.Title, URL: c.URI})
	}
	return out
}
