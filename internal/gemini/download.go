package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

// ErrEmptyURI is returned when an operation finished without an asset location.
var ErrEmptyURI = errors.New("gemini: empty asset URI")

// Downloader fetches generated assets. The service only serves them to
// requests that carry the credential as the "key" query parameter.
type Downloader struct {
	apiKey     string
	httpClient *http.Client
}

// NewDownloader creates a Downloader. A nil client uses http.DefaultClient.
func NewDownloader(apiKey string, httpClient *http.Client) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Downloader{apiKey: apiKey, httpClient: httpClient}
}

// Fetch performs a single GET of uri and returns the body.
func (d *Downloader) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: %w", generator.ErrMissingResult, ErrEmptyURI)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: parse uri: %v", generator.ErrDownloadFailed, err)
	}
	q := u.Query()
	q.Set("key", d.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generator.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", generator.ErrDownloadFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", generator.ErrDownloadFailed, err)
	}
	return data, nil
}
