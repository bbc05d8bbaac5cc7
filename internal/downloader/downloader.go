// internal/downloader/downloader.go
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/medialoom/loom/internal/retry"
	urlutil "github.com/medialoom/loom/internal/utils/url"
	"github.com/medialoom/loom/pkg/models"
)

// DownloadResult represents the outcome of a single media retrieval
type DownloadResult struct {
	URL       string
	FilePath  string
	Size      int64
	Success   bool
	Error     error
	StartTime time.Time
	Duration  time.Duration
}

// DownloadOptions configures retrieval behavior
type DownloadOptions struct {
	OutputDir    string
	Filename     string
	Headers      map[string]string
	ShowProgress bool
}

// Downloader retrieves resolved media streams with streaming I/O and
// automatic retry on transient failures.
type Downloader struct {
	client    *http.Client
	userAgent string
	retryCfg  retry.Config
}

// NewDownloader creates a new Downloader instance
func NewDownloader(timeout time.Duration, userAgent string) *Downloader {
	if userAgent == "" {
		userAgent = "Loom/1.0 (https://github.com/medialoom/loom)"
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Downloader{
		client:    client,
		userAgent: userAgent,
		retryCfg:  retry.DefaultConfig(),
	}
}

// DownloadFormat retrieves one format of a resolved result, naming the file
// after the media title and the format's container extension.
func (d *Downloader) DownloadFormat(ctx context.Context, res *models.MediaResult, f models.MediaFormat, opts DownloadOptions) *DownloadResult {
	if opts.Filename == "" {
		opts.Filename = FilenameForFormat(res, f)
	}
	return d.Download(ctx, f.URL, opts)
}

// Download retrieves a single file with streaming I/O. Failures are reported
// on the result rather than returned, so batch callers can keep going.
func (d *Downloader) Download(ctx context.Context, fileURL string, opts DownloadOptions) *DownloadResult {
	result := &DownloadResult{
		URL:       fileURL,
		StartTime: time.Now(),
		Success:   false,
	}
	fail := func(err error) *DownloadResult {
		result.Error = err
		result.Duration = time.Since(result.StartTime)
		return result
	}

	if _, err := url.Parse(fileURL); err != nil {
		return fail(fmt.Errorf("invalid URL: %w", err))
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}

	filename := opts.Filename
	if filename == "" {
		filename = sanitizeFilename(fileURL)
	} else {
		filename = sanitizeFilename(filename)
	}

	filePath := filepath.Join(opts.OutputDir, filename)
	result.FilePath = filePath

	err := retry.Do(ctx, d.retryCfg, func() error {
		return d.fetch(ctx, fileURL, filePath, opts, result)
	})
	if err != nil {
		return fail(err)
	}

	result.Success = true
	result.Duration = time.Since(result.StartTime)

	log.Debug().
		Str("url", fileURL).
		Str("file", filePath).
		Int64("bytes", result.Size).
		Dur("duration", result.Duration).
		Msg("Download completed")

	return result
}

// fetch performs one streaming GET attempt. The destination file is truncated
// on each attempt so retries never append to partial data.
func (d *Downloader) fetch(ctx context.Context, fileURL, filePath string, opts DownloadOptions, result *DownloadResult) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return retry.NewHTTPError(resp.StatusCode, resp.Status, fileURL)
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	var dst io.Writer = outFile
	if opts.ShowProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(filePath))
		dst = io.MultiWriter(outFile, bar)
	}

	bytesWritten, err := io.Copy(dst, resp.Body)
	if err != nil {
		os.Remove(filePath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	result.Size = bytesWritten
	return nil
}

// FilenameForFormat derives a filesystem-safe name from the media title and
// the format's container extension.
func FilenameForFormat(res *models.MediaResult, f models.MediaFormat) string {
	stem := titleStem(res)
	ext := f.Ext
	if ext == "" {
		ext = urlutil.ExtFromPath(f.URL, "mp4")
	}
	if f.Quality != "" && f.Quality != "default" {
		stem = stem + "_" + f.Quality
	}
	return sanitizeFilename(stem + "." + ext)
}

// FilenameForImage names one entry of an image carousel by position.
func FilenameForImage(res *models.MediaResult, img models.MediaImage, index int) string {
	ext := urlutil.ExtFromPath(img.URL, "jpg")
	return sanitizeFilename(fmt.Sprintf("%s_%02d.%s", titleStem(res), index+1, ext))
}

func titleStem(res *models.MediaResult) string {
	if res == nil || strings.TrimSpace(res.Title) == "" {
		return fmt.Sprintf("media_%d", time.Now().Unix())
	}
	return strings.TrimSpace(res.Title)
}

// sanitizeFilename prevents path traversal and strips characters that are
// unsafe on common filesystems.
func sanitizeFilename(input string) string {
	var queryHash string
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		parts := strings.Split(u.Path, "/")
		if len(parts) > 0 {
			input = parts[len(parts)-1]
		}
		if u.RawQuery != "" {
			queryHash = "_" + hashString(u.RawQuery)
		}
	}

	for _, c := range []string{"/", "\\", "..", ":", "*", "?", "\"", "<", ">", "|"} {
		input = strings.ReplaceAll(input, c, "_")
	}

	input = strings.TrimSpace(input)
	input = strings.Trim(input, ".")

	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)

	if queryHash != "" {
		input = stem + queryHash + ext
	}

	if input == "" {
		input = fmt.Sprintf("download_%d", time.Now().Unix())
	}
	if len(input) > 200 {
		input = input[:200]
	}

	return input
}

// hashString creates a short hash so query-distinct URLs get unique filenames
func hashString(s string) string {
	hash := 0
	for _, c := range s {
		hash = ((hash << 5) - hash) + int(c)
	}
	if hash < 0 {
		hash = -hash
	}
	return fmt.Sprintf("%08x", hash)[:8]
}
