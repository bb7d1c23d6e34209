package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestS3Storage_Export(t *testing.T) {
	var (
		mu          sync.Mutex
		gotPath     string
		gotBody     string
		contentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotBody = string(body)
		contentType = r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	s, err := NewS3Storage(ctx, setupTestStorage(t), S3Config{
		Bucket:          "senpai",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Prefix:          "downloads",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	url, err := s.Export(ctx, "senpai-music.wav", bytes.NewReader([]byte("RIFF")))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if want := server.URL + "/senpai/downloads/senpai-music.wav"; url != want {
		t.Errorf("url = %v, want %v", url, want)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/senpai/downloads/senpai-music.wav" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotBody, "RIFF") {
		t.Errorf("body = %q", gotBody)
	}
	if contentType != "audio/wav" {
		t.Errorf("content type = %q", contentType)
	}
}

func TestS3Storage_KeepsLocalBehaviour(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3Storage(ctx, setupTestStorage(t), S3Config{
		Bucket:          "senpai",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	path, err := s.SaveTemp(ctx, "image", ".png", bytes.NewReader([]byte("png")))
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}
	if err := s.CleanupTemp(ctx, []string{path}); err != nil {
		t.Fatalf("CleanupTemp() error = %v", err)
	}
}
