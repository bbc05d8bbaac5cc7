// Package external implements the client for the third-party resolution API.
//
// The upstream service accepts a media page URL and answers with one of three
// loosely-typed shapes: a single-file redirect, a multi-item "picker", or an
// error. All three are normalized into the unified models.MediaResult.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/pkg/models"
)

// Client talks to the external resolution endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	userAgent  string
	apiKey     string
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIKey attaches an Api-Key authorization header to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given endpoint with a fixed request timeout.
func New(endpoint string, timeout time.Duration, userAgent string, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		endpoint:  endpoint,
		timeout:   timeout,
		userAgent: userAgent,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of this resolver
func (c *Client) Name() string {
	return "ExternalResolver"
}

// resolvePayload is the request body the upstream API expects.
type resolvePayload struct {
	URL           string `json:"url"`
	DownloadMode  string `json:"downloadMode"`
	FilenameStyle string `json:"filenameStyle"`
	VideoQuality  string `json:"videoQuality"`
}

// Resolve sends the URL to the external API and normalizes the response.
// It returns within the configured timeout or fails with EXTERNAL_TIMEOUT;
// no partial results are ever returned.
func (c *Client) Resolve(ctx context.Context, mediaURL string) (*models.MediaResult, error) {
	start := time.Now()

	payload, err := json.Marshal(resolvePayload{
		URL:           mediaURL,
		DownloadMode:  "auto",
		FilenameStyle: "basic",
		VideoQuality:  "max",
	})
	if err != nil {
		return nil, engine.NewResolveError(engine.ErrCodeExternalFailed, "failed to encode request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, engine.NewResolveError(engine.ErrCodeExternalFailed, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, engine.NewResolveError(engine.ErrCodeExternalTimeout,
				fmt.Sprintf("external API timeout after %s", c.timeout), engine.ErrTimeout)
		}
		return nil, engine.NewResolveError(engine.ErrCodeExternalFailed, "external API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, engine.NewResolveError(engine.ErrCodeExternalHTTP,
			fmt.Sprintf("external API returned %d", resp.StatusCode), nil).
			WithDetail("status_code", resp.StatusCode)
	}

	var upstream upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return nil, engine.NewResolveError(engine.ErrCodeExternalFailed, "failed to decode external response", err)
	}

	result, err := normalize(&upstream, mediaURL)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("url", mediaURL).
		Str("shape", upstream.Status).
		Int("formats", len(result.Formats)).
		Int("images", len(result.Images)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("External resolution completed")

	return result, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
