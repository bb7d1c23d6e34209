package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_Done(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want bool
	}{
		{"pending", Operation{Name: "operations/1"}, false},
		{"finished with asset", Operation{Name: "operations/1", Finished: true, AssetURI: "https://x/v.mp4"}, true},
		{"finished with failure", Operation{Name: "operations/1", Finished: true, Failure: "blocked"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Done())
		})
	}
}

func TestVideoRequest_WithDefaults(t *testing.T) {
	t.Run("fills unset fields", func(t *testing.T) {
		r := VideoRequest{Prompt: "a cat"}.WithDefaults()

		assert.Equal(t, 1, r.NumberOfVideos)
		assert.Equal(t, "720p", r.Resolution)
		assert.Equal(t, "16:9", r.AspectRatio)
		assert.Empty(t, r.ImageMIMEType)
	})

	t.Run("image defaults to png", func(t *testing.T) {
		r := VideoRequest{Prompt: "a cat", Image: []byte{1}}.WithDefaults()
		assert.Equal(t, "image/png", r.ImageMIMEType)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		r := VideoRequest{NumberOfVideos: 2, Resolution: "1080p", AspectRatio: "9:16"}.WithDefaults()

		assert.Equal(t, 2, r.NumberOfVideos)
		assert.Equal(t, "1080p", r.Resolution)
		assert.Equal(t, "9:16", r.AspectRatio)
	})
}
