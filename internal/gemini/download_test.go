package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

func TestDownloader_Fetch(t *testing.T) {
	t.Run("appends key and returns body", func(t *testing.T) {
		var gotKey, gotAlt string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("key")
			gotAlt = r.URL.Query().Get("alt")
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("fake mp4 bytes"))
		}))
		defer server.Close()

		d := NewDownloader("secret-key", server.Client())
		data, err := d.Fetch(context.Background(), server.URL+"/files/abc:download?alt=media")

		require.NoError(t, err)
		assert.Equal(t, []byte("fake mp4 bytes"), data)
		assert.Equal(t, "secret-key", gotKey)
		assert.Equal(t, "media", gotAlt)
	})

	t.Run("non-2xx status is a download failure", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		d := NewDownloader("k", server.Client())
		_, err := d.Fetch(context.Background(), server.URL+"/v.mp4")

		require.Error(t, err)
		assert.ErrorIs(t, err, generator.ErrDownloadFailed)
		assert.Contains(t, err.Error(), "403")
		assert.Equal(t, 1, calls, "downloads are never retried")
	})

	t.Run("empty uri is a missing result", func(t *testing.T) {
		d := NewDownloader("k", nil)
		_, err := d.Fetch(context.Background(), "")

		assert.ErrorIs(t, err, generator.ErrMissingResult)
		assert.ErrorIs(t, err, ErrEmptyURI)
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		d := NewDownloader("k", nil)
		_, err := d.Fetch(context.Background(), url+"/v.mp4")
		assert.ErrorIs(t, err, generator.ErrDownloadFailed)
	})
}
