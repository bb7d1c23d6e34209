// Package media wraps the ffmpeg tools used by the video workflows.
package media

import (
	"context"
	"time"
)

// Processor extracts what the video workflows need from local media.
type Processor interface {
	// ExtractFirstFrame returns the first frame of the video at videoPath
	// encoded as PNG.
	ExtractFirstFrame(ctx context.Context, videoPath string) ([]byte, error)

	// Duration returns the container duration of the media at path.
	Duration(ctx context.Context, path string) (time.Duration, error)
}
