package fallback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/pkg/models"
)

// writeScript drops a shell script into a temp dir and returns its path.
// The invoker runs it via /bin/sh, standing in for the real extraction script.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.sh")
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve_Success(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"success": true, "title": "Local Video", "thumbnail": "https://cdn/t.jpg", "formats": [{"format_id": "22", "ext": "mp4", "quality": "720p", "url": "https://cdn/v.mp4"}]}'
`)

	inv := New("/bin/sh", script, 5*time.Second)
	result, err := inv.Resolve(context.Background(), "https://example.com/video")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if result.Title != "Local Video" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Origin != models.OriginInternal {
		t.Errorf("Origin = %q, want internal", result.Origin)
	}
	if len(result.Formats) != 1 || result.Formats[0].FormatID != "22" {
		t.Errorf("formats = %+v", result.Formats)
	}
}

func TestResolve_TopLevelURLOnly(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"success": true, "title": "Bare", "url": "https://cdn/best.mp4", "ext": "mp4", "filesize": 1024}'
`)

	inv := New("/bin/sh", script, 5*time.Second)
	result, err := inv.Resolve(context.Background(), "https://example.com/video")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Formats) != 1 {
		t.Fatalf("formats = %d, want synthesized single entry", len(result.Formats))
	}
	if result.Formats[0].URL != "https://cdn/best.mp4" || result.Formats[0].Filesize != 1024 {
		t.Errorf("format = %+v", result.Formats[0])
	}
}

func TestResolve_ImagePost(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"success": true, "title": "Carousel", "images": [{"url": "https://cdn/1.jpg", "ext": "jpg"}, {"url": "https://cdn/2.jpg", "ext": "jpg"}]}'
`)

	inv := New("/bin/sh", script, 5*time.Second)
	result, err := inv.Resolve(context.Background(), "https://example.com/post")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.IsImagePost || len(result.Images) != 2 {
		t.Errorf("IsImagePost = %v, images = %d", result.IsImagePost, len(result.Images))
	}
}

func TestResolve_NonZeroExit(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo "ERROR: unsupported URL" >&2
exit 3
`)

	inv := New("/bin/sh", script, 5*time.Second)
	_, err := inv.Resolve(context.Background(), "https://example.com/video")

	if engine.CodeOf(err) != engine.ErrCodeFallbackProcess {
		t.Fatalf("code = %s, want FALLBACK_PROCESS", engine.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "unsupported URL") {
		t.Errorf("error should carry stderr diagnostics: %v", err)
	}
}

func TestResolve_ReportedFailure(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"success": false, "error": "no media found"}'
`)

	inv := New("/bin/sh", script, 5*time.Second)
	_, err := inv.Resolve(context.Background(), "https://example.com/video")

	if engine.CodeOf(err) != engine.ErrCodeFallbackProcess {
		t.Fatalf("code = %s, want FALLBACK_PROCESS", engine.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "no media found") {
		t.Errorf("error = %v", err)
	}
}

func TestResolve_MalformedOutput(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo 'this is not json'
`)

	inv := New("/bin/sh", script, 5*time.Second)
	_, err := inv.Resolve(context.Background(), "https://example.com/video")

	if engine.CodeOf(err) != engine.ErrCodeFallbackOutput {
		t.Fatalf("code = %s, want FALLBACK_OUTPUT", engine.CodeOf(err))
	}
	if !errors.Is(err, engine.ErrMalformedJSON) {
		t.Error("error should match ErrMalformedJSON")
	}
}

func TestResolve_TimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
sleep 30
`)

	inv := New("/bin/sh", script, 100*time.Millisecond)
	start := time.Now()
	_, err := inv.Resolve(context.Background(), "https://example.com/video")
	elapsed := time.Since(start)

	if engine.CodeOf(err) != engine.ErrCodeFallbackTimeout {
		t.Fatalf("code = %s, want FALLBACK_TIMEOUT", engine.CodeOf(err))
	}
	if elapsed > 2*time.Second {
		t.Errorf("Resolve took %s, process was not killed on deadline", elapsed)
	}
}

func TestResolve_MissingInterpreter(t *testing.T) {
	inv := New("/nonexistent/interpreter", "/nonexistent/script", time.Second)
	_, err := inv.Resolve(context.Background(), "https://example.com/video")
	if engine.CodeOf(err) != engine.ErrCodeFallbackProcess {
		t.Errorf("code = %s, want FALLBACK_PROCESS", engine.CodeOf(err))
	}
}
