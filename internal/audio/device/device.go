// Package device plays decoded audio buffers on the system output device.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Kim6922/senpai-ai/internal/audio"
)

// ErrFormatMismatch is returned when a buffer's format differs from the
// format the device was opened with.
var ErrFormatMismatch = errors.New("device: buffer format does not match output")

// Context is an audio.Context backed by the platform output device.
// One Context is created per process.
type Context struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int

	mu      sync.Mutex
	players []player
}

// player is the part of *oto.Player the context manages.
type player interface {
	IsPlaying() bool
	Close() error
}

// Open creates the process-wide output context and waits until the device
// is ready.
func Open(sampleRate, channels int) (*Context, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("device: open output: %w", err)
	}
	<-ready

	return &Context{
		otoCtx:     otoCtx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Play starts playback and returns immediately. Buffers played while
// another one is still sounding are mixed by the device.
func (c *Context) Play(buf *audio.Buffer) error {
	if buf.SampleRate != c.sampleRate || buf.Channels != c.channels {
		return fmt.Errorf("%w: got %d Hz/%d ch, want %d Hz/%d ch",
			ErrFormatMismatch, buf.SampleRate, buf.Channels, c.sampleRate, c.channels)
	}

	p := c.otoCtx.NewPlayer(bytes.NewReader(buf.Float32LE()))
	p.Play()
	c.track(p)
	return nil
}

// track releases finished players and keeps p until it finishes.
func (c *Context) track(p player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	c.players = append(c.players, p)
}

// Wait blocks until every started player has finished or ctx is done.
func (c *Context) Wait(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.prune() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// prune drops finished players and reports how many are still playing.
func (c *Context) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

func (c *Context) pruneLocked() int {
	active := c.players[:0]
	for _, p := range c.players {
		if p.IsPlaying() {
			active = append(active, p)
			continue
		}
		_ = p.Close()
	}
	c.players = active
	return len(active)
}

var _ audio.Context = (*Context)(nil)
