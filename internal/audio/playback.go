package audio

import (
	"log/slog"
)

// Context is a process-wide playback sink shared by every audio workflow.
// Overlapping Play calls are allowed; they mix or queue as the
// implementation decides.
type Context interface {
	Play(buf *Buffer) error
}

// Nop discards every buffer. It is used when playback is disabled.
type Nop struct{}

// Play implements Context.
func (Nop) Play(*Buffer) error { return nil }

// Play hands buf to the playback context without waiting for it to finish.
// Playback failures are logged and never returned, so a generated result
// stays valid even when no output device is available.
func Play(pc Context, buf *Buffer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if pc == nil || buf == nil {
		return
	}
	if err := pc.Play(buf); err != nil {
		logger.Warn("audio playback failed",
			slog.String("error", err.Error()),
			slog.Int("frames", buf.Frames),
		)
	}
}

var _ Context = Nop{}
