package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloaderEnsureModel(t *testing.T) {
	payload := []byte("fake gguf payload")
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(cacheDir, "secret")

	var lastWritten int64
	path, err := dl.EnsureModel(context.Background(), srv.URL, "model.gguf", func(written, total int64) {
		lastWritten = written
	})
	if err != nil {
		t.Fatalf("ensure model: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("cached bytes = %q", data)
	}
	if lastWritten != int64(len(payload)) {
		t.Errorf("progress saw %d bytes, want %d", lastWritten, len(payload))
	}

	// Already cached: no second request.
	again, err := dl.EnsureModel(context.Background(), srv.URL, "model.gguf", nil)
	if err != nil {
		t.Fatalf("ensure cached model: %v", err)
	}
	if again != path {
		t.Errorf("cached path = %q, want %q", again, path)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}

func TestDownloaderFailedStatusLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(cacheDir, "")

	_, err := dl.EnsureModel(context.Background(), srv.URL, "model.gguf", nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("cache not clean after failure: %s", filepath.Join(cacheDir, e.Name()))
	}
}
