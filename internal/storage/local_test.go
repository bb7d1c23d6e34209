package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directories", func(t *testing.T) {
		root := t.TempDir()
		tempDir := filepath.Join(root, "media")
		outDir := filepath.Join(root, "out")

		s, err := NewLocalStorage(tempDir, outDir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}
		if s.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", s.TempDir(), tempDir)
		}
		if s.OutputDir() != outDir {
			t.Errorf("OutputDir() = %v, want %v", s.OutputDir(), outDir)
		}
		for _, dir := range []string{tempDir, outDir} {
			info, err := os.Stat(dir)
			if err != nil {
				t.Fatalf("directory %s not created: %v", dir, err)
			}
			if !info.IsDir() {
				t.Errorf("%s: expected directory", dir)
			}
		}
	})

	t.Run("uses default scratch directory when empty", func(t *testing.T) {
		s, err := NewLocalStorage("", t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}
		want := filepath.Join(os.TempDir(), "senpai")
		if s.TempDir() != want {
			t.Errorf("TempDir() = %v, want %v", s.TempDir(), want)
		}
	})
}

func TestLocalStorage_SaveTemp(t *testing.T) {
	s := setupTestStorage(t)

	t.Run("saves data with extension", func(t *testing.T) {
		path, err := s.SaveTemp(context.Background(), "frame", "png", bytes.NewReader([]byte("png bytes")))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}

		base := filepath.Base(path)
		if !strings.HasPrefix(base, "frame_") || !strings.HasSuffix(base, ".png") {
			t.Errorf("unexpected file name %s", base)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read saved file: %v", err)
		}
		if string(content) != "png bytes" {
			t.Errorf("got %q, want %q", content, "png bytes")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.SaveTemp(ctx, "video", ".mp4", bytes.NewReader(nil))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_LoadTemp(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	path, err := s.SaveTemp(ctx, "clip", ".mp4", bytes.NewReader([]byte("mp4 data")))
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}

	r, err := s.LoadTemp(ctx, path)
	if err != nil {
		t.Fatalf("LoadTemp() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "mp4 data" {
		t.Errorf("got %q, want %q", content, "mp4 data")
	}

	if _, err := s.LoadTemp(ctx, filepath.Join(s.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLocalStorage_CleanupTemp(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	var paths []string
	for i := 0; i < 3; i++ {
		path, err := s.SaveTemp(ctx, "cleanup", "", bytes.NewReader([]byte("data")))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(s.TempDir(), "already-gone"))

	if err := s.CleanupTemp(ctx, paths); err != nil {
		t.Fatalf("CleanupTemp() error = %v", err)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("file %s still exists", p)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.CleanupTemp(cancelled, []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLocalStorage_WriteOutput(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	path, err := s.WriteOutput(ctx, "senpai-audio.wav", bytes.NewReader([]byte("first")))
	if err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if path != filepath.Join(s.OutputDir(), "senpai-audio.wav") {
		t.Errorf("path = %s", path)
	}

	// Same name replaces the previous download.
	if _, err := s.WriteOutput(ctx, "senpai-audio.wav", bytes.NewReader([]byte("second"))); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("got %q, want %q", content, "second")
	}

	entries, err := os.ReadDir(s.OutputDir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want 1", len(entries))
	}
}

func TestLocalStorage_WriteOutputRejectsPaths(t *testing.T) {
	s := setupTestStorage(t)

	for _, name := range []string{"", "..", "../escape.wav", "sub/dir.wav"} {
		_, err := s.WriteOutput(context.Background(), name, bytes.NewReader(nil))
		if !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("WriteOutput(%q) error = %v, want ErrInvalidFilename", name, err)
		}
	}
}

func TestLocalStorage_Export(t *testing.T) {
	s := setupTestStorage(t)

	_, err := s.Export(context.Background(), "key", bytes.NewReader([]byte("data")))
	if !errors.Is(err, ErrExportNotConfigured) {
		t.Errorf("expected ErrExportNotConfigured, got %v", err)
	}
}

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "media"), filepath.Join(root, "out"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	return s
}
