package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medialoom/loom/pkg/models"
)

func TestDownload_Success(t *testing.T) {
	content := "test file content"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(content))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	dl := NewDownloader(10*time.Second, "Test/1.0")

	result := dl.Download(context.Background(), server.URL+"/test.txt", DownloadOptions{
		OutputDir: tempDir,
	})

	if !result.Success {
		t.Fatalf("Download failed: %v", result.Error)
	}

	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != content {
		t.Errorf("Content mismatch: got %q, want %q", string(data), content)
	}
}

func TestDownload_RetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	dl := NewDownloader(10*time.Second, "Test/1.0")
	dl.retryCfg.InitialBackoff = time.Millisecond

	result := dl.Download(context.Background(), server.URL+"/clip.mp4", DownloadOptions{
		OutputDir: t.TempDir(),
	})

	if !result.Success {
		t.Fatalf("Download failed: %v", result.Error)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server calls = %d, want 2", calls)
	}
}

func TestDownload_NotFoundFails(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dl := NewDownloader(10*time.Second, "Test/1.0")
	result := dl.Download(context.Background(), server.URL+"/gone.mp4", DownloadOptions{
		OutputDir: t.TempDir(),
	})

	if result.Success {
		t.Fatal("expected failure for 404 response")
	}
	if result.Error == nil {
		t.Fatal("expected error on result")
	}
}

func TestDownloadFormat_FilenameFromTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video bytes"))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	dl := NewDownloader(10*time.Second, "Test/1.0")

	res := &models.MediaResult{Title: "Morning Run"}
	format := models.MediaFormat{FormatID: "default", Ext: "mp4", Quality: "HD", URL: server.URL + "/stream"}

	result := dl.DownloadFormat(context.Background(), res, format, DownloadOptions{OutputDir: tempDir})
	if !result.Success {
		t.Fatalf("DownloadFormat failed: %v", result.Error)
	}
	if got := filepath.Base(result.FilePath); got != "Morning Run_HD.mp4" {
		t.Errorf("filename = %q, want %q", got, "Morning Run_HD.mp4")
	}
}

func TestSanitizeFilename_Security(t *testing.T) {
	dangerous := []string{
		"../../etc/passwd",
		"/etc/shadow",
		"file:with:colons",
	}

	for _, input := range dangerous {
		t.Run(input, func(t *testing.T) {
			result := sanitizeFilename(input)
			if strings.Contains(result, "/") || strings.Contains(result, "\\") {
				t.Errorf("Sanitized filename contains path separator: %q", result)
			}
			if strings.Contains(result, "..") {
				t.Errorf("Sanitized filename contains '..': %q", result)
			}
		})
	}
}

func TestWorkerPool_DownloadImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.Write([]byte("image data"))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	res := &models.MediaResult{
		Title: "Carousel",
		Images: []models.MediaImage{
			{URL: server.URL + "/a.jpg"},
			{URL: server.URL + "/b.jpg"},
			{URL: server.URL + "/c.png"},
		},
		IsImagePost: true,
	}

	pool := NewWorkerPool(2, 10*time.Second, "Test/1.0")
	results := pool.DownloadImages(context.Background(), res, DownloadOptions{OutputDir: tempDir})

	if len(results) != len(res.Images) {
		t.Fatalf("Result count mismatch: got %d, want %d", len(results), len(res.Images))
	}
	for _, result := range results {
		if !result.Success {
			t.Errorf("download of %s failed: %v", result.URL, result.Error)
		}
		if !strings.HasPrefix(filepath.Base(result.FilePath), "Carousel_") {
			t.Errorf("unexpected filename %q", result.FilePath)
		}
	}
}

func BenchmarkSanitizeFilename(b *testing.B) {
	input := "https://example.com/path/to/file.mp4?query=param"
	for i := 0; i < b.N; i++ {
		sanitizeFilename(input)
	}
}
