// Package fallback invokes the local extraction script when the external
// resolver fails. The script contract: print a single JSON object to stdout
// on success, exit non-zero with diagnostics on stderr on failure.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/pkg/models"
)

// Invoker runs the extraction script with a bounded wall-clock timeout.
type Invoker struct {
	interpreter string
	scriptPath  string
	timeout     time.Duration
}

// New creates an Invoker. interpreter is typically "python3".
func New(interpreter, scriptPath string, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Invoker{
		interpreter: interpreter,
		scriptPath:  scriptPath,
		timeout:     timeout,
	}
}

// Name returns the name of this resolver
func (inv *Invoker) Name() string {
	return "FallbackInvoker"
}

// scriptOutput mirrors what the extraction script prints on stdout.
type scriptOutput struct {
	Success   bool                 `json:"success"`
	Title     string               `json:"title,omitempty"`
	Thumbnail string               `json:"thumbnail,omitempty"`
	Duration  float64              `json:"duration,omitempty"`
	Uploader  string               `json:"uploader,omitempty"`
	URL       string               `json:"url,omitempty"`
	Ext       string               `json:"ext,omitempty"`
	Filesize  int64                `json:"filesize,omitempty"`
	Formats   []models.MediaFormat `json:"formats,omitempty"`
	Images    []models.MediaImage  `json:"images,omitempty"`
	Error     string               `json:"error,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Resolve spawns the script with the URL as its sole argument. The process is
// guaranteed to be terminated on timeout; stdout and stderr are captured
// separately so diagnostics can be surfaced.
func (inv *Invoker) Resolve(ctx context.Context, mediaURL string) (*models.MediaResult, error) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, inv.interpreter, inv.scriptPath, mediaURL)

	// The script may spawn its own subprocesses, and those inherit the
	// stdout/stderr pipes. Killing only the direct child would leave Run
	// blocked until the grandchildren close the pipes, so the deadline kill
	// targets the whole process group, and WaitDelay abandons the pipes if
	// anything in the tree survives it.
	setProcessGroup(cmd)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		// CommandContext already killed the process when the deadline fired.
		return nil, engine.NewResolveError(engine.ErrCodeFallbackTimeout,
			fmt.Sprintf("extraction script timed out after %s", inv.timeout), engine.ErrTimeout)
	}

	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, engine.NewResolveError(engine.ErrCodeFallbackProcess,
			fmt.Sprintf("extraction script failed: %s", diag), engine.ErrProcessFailed).
			WithDetail("stderr", diag)
	}

	var out scriptOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, engine.NewResolveError(engine.ErrCodeFallbackOutput,
			"failed to parse extraction output", engine.ErrMalformedJSON).
			WithDetail("stdout_prefix", prefix(stdout.String(), 200))
	}

	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		if msg == "" {
			msg = "extraction script reported failure"
		}
		return nil, engine.NewResolveError(engine.ErrCodeFallbackProcess, msg, engine.ErrProcessFailed)
	}

	result := &models.MediaResult{
		Success:     true,
		Title:       out.Title,
		Thumbnail:   out.Thumbnail,
		SourceURL:   mediaURL,
		Uploader:    out.Uploader,
		Duration:    out.Duration,
		Formats:     out.Formats,
		Images:      out.Images,
		IsImagePost: len(out.Images) > 0,
		Origin:      models.OriginInternal,
		ResolvedAt:  time.Now(),
	}

	// A bare top-level URL with no format list still yields one variant.
	if len(result.Formats) == 0 && out.URL != "" {
		ext := out.Ext
		if ext == "" {
			ext = "mp4"
		}
		result.Formats = append(result.Formats, models.MediaFormat{
			FormatID: "best",
			Ext:      ext,
			Quality:  "best",
			Filesize: out.Filesize,
			URL:      out.URL,
		})
	}

	log.Debug().
		Str("url", mediaURL).
		Int("formats", len(result.Formats)).
		Int("images", len(result.Images)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Fallback extraction completed")

	return result, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
