package device

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePlayer struct {
	playing atomic.Bool
	closed  atomic.Bool
}

func (p *fakePlayer) IsPlaying() bool { return p.playing.Load() }

func (p *fakePlayer) Close() error {
	p.closed.Store(true)
	return nil
}

func newFakePlayer(playing bool) *fakePlayer {
	p := &fakePlayer{}
	p.playing.Store(playing)
	return p
}

func TestTrack_ReleasesFinishedPlayers(t *testing.T) {
	c := &Context{}
	first := newFakePlayer(true)
	c.track(first)

	first.playing.Store(false)
	second := newFakePlayer(true)
	c.track(second)

	assert.True(t, first.closed.Load())
	assert.False(t, second.closed.Load())
	assert.Len(t, c.players, 1)
}

func TestWait(t *testing.T) {
	c := &Context{}
	p := newFakePlayer(true)
	c.track(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.Canceled)
	assert.False(t, p.closed.Load())

	p.playing.Store(false)
	assert.NoError(t, c.Wait(context.Background()))
	assert.True(t, p.closed.Load())
	assert.Empty(t, c.players)
}
