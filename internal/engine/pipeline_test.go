package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medialoom/loom/internal/cache"
	"github.com/medialoom/loom/internal/ratelimit"
	"github.com/medialoom/loom/pkg/models"
)

// stubResolver counts invocations and replays a canned result or error.
type stubResolver struct {
	name   string
	result *models.MediaResult
	err    error

	mu        sync.Mutex
	calls     int
	calledAt  []time.Time
	seenURLs  []string
	onResolve func()
}

func (s *stubResolver) Resolve(ctx context.Context, url string) (*models.MediaResult, error) {
	s.mu.Lock()
	s.calls++
	s.calledAt = append(s.calledAt, time.Now())
	s.seenURLs = append(s.seenURLs, url)
	s.mu.Unlock()
	if s.onResolve != nil {
		s.onResolve()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func externalOK(title string) *stubResolver {
	return &stubResolver{
		name: "ExternalResolver",
		result: &models.MediaResult{
			Success:   true,
			Title:     title,
			SourceURL: "https://example.com/video",
			Formats:   []models.MediaFormat{{FormatID: "default", Ext: "mp4", Quality: "HD", URL: "https://cdn/f.mp4"}},
			Origin:    models.OriginExternal,
		},
	}
}

func fallbackOK(title string) *stubResolver {
	return &stubResolver{
		name: "FallbackInvoker",
		result: &models.MediaResult{
			Success: true,
			Title:   title,
			Formats: []models.MediaFormat{{FormatID: "best", Ext: "mp4", Quality: "best", URL: "https://cdn/g.mp4"}},
			Origin:  models.OriginInternal,
		},
	}
}

func TestResolve_InvalidURLMakesNoCalls(t *testing.T) {
	ext := externalOK("x")
	fb := fallbackOK("y")
	p := NewPipeline(ext, fb)

	for _, raw := range []string{"not a url", "ftp://x/y", ""} {
		_, err := p.Resolve(context.Background(), raw)
		if err == nil {
			t.Errorf("Resolve(%q) = nil error", raw)
		}
		if !IsInputError(err) {
			t.Errorf("Resolve(%q) error code = %s, want input error", raw, CodeOf(err))
		}
	}

	if ext.callCount() != 0 || fb.callCount() != 0 {
		t.Errorf("outbound calls made for invalid input: external=%d fallback=%d",
			ext.callCount(), fb.callCount())
	}
}

func TestResolve_MissingVsInvalid(t *testing.T) {
	p := NewPipeline(externalOK("x"), fallbackOK("y"))

	_, err := p.Resolve(context.Background(), "")
	if CodeOf(err) != ErrCodeMissingURL {
		t.Errorf("empty URL code = %s, want MISSING_URL", CodeOf(err))
	}

	_, err = p.Resolve(context.Background(), "not a url")
	if CodeOf(err) != ErrCodeInvalidURL {
		t.Errorf("bad URL code = %s, want INVALID_URL", CodeOf(err))
	}
}

func TestResolve_ExternalSuccessSkipsFallback(t *testing.T) {
	ext := externalOK("My Video")
	fb := fallbackOK("unused")
	p := NewPipeline(ext, fb)

	result, err := p.Resolve(context.Background(), "https://example.com/video")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Origin != models.OriginExternal {
		t.Errorf("Origin = %q, want external", result.Origin)
	}
	if fb.callCount() != 0 {
		t.Errorf("fallback called %d times on external success", fb.callCount())
	}
}

func TestResolve_FallbackAfterExternalFailure(t *testing.T) {
	ext := &stubResolver{
		name: "ExternalResolver",
		err:  NewResolveError(ErrCodeExternalTimeout, "external API timeout", ErrTimeout),
	}
	fb := fallbackOK("Recovered")
	p := NewPipeline(ext, fb)

	result, err := p.Resolve(context.Background(), "https://example.com/video")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Origin != models.OriginInternal {
		t.Errorf("Origin = %q, want internal", result.Origin)
	}
	if ext.callCount() != 1 || fb.callCount() != 1 {
		t.Errorf("calls: external=%d fallback=%d, want 1/1", ext.callCount(), fb.callCount())
	}
}

func TestResolve_OrderingExternalBeforeFallback(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	ext := &stubResolver{
		name:      "ExternalResolver",
		err:       errors.New("boom"),
		onResolve: record("external"),
	}
	fb := fallbackOK("x")
	fb.onResolve = record("fallback")

	p := NewPipeline(ext, fb)
	if _, err := p.Resolve(context.Background(), "https://example.com/video"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(order) != 2 || order[0] != "external" || order[1] != "fallback" {
		t.Errorf("call order = %v, want [external fallback]", order)
	}
}

func TestResolve_BothFailAggregates(t *testing.T) {
	ext := &stubResolver{
		name: "ExternalResolver",
		err:  NewResolveError(ErrCodeExternalHTTP, "external API returned 502", nil),
	}
	fb := &stubResolver{
		name: "FallbackInvoker",
		err:  NewResolveError(ErrCodeFallbackProcess, "extraction script failed: ERROR: no extractor", ErrProcessFailed),
	}
	p := NewPipeline(ext, fb)

	_, err := p.Resolve(context.Background(), "https://example.com/video")
	if err == nil {
		t.Fatal("expected aggregated error")
	}

	if CodeOf(err) != ErrCodeFallbackProcess {
		t.Errorf("code = %s, want terminal fallback code", CodeOf(err))
	}
	msg := err.Error()
	if !strings.Contains(msg, "external API returned 502") {
		t.Errorf("aggregated message missing external reason: %q", msg)
	}
	if !strings.Contains(msg, "no extractor") {
		t.Errorf("aggregated message missing fallback diagnostics: %q", msg)
	}

	failure := FailureResult(err)
	if failure.Success {
		t.Error("failure result marked successful")
	}
	if failure.Origin != models.OriginInternal {
		t.Errorf("failure origin = %q, want internal", failure.Origin)
	}
	if len(failure.Formats) != 0 || len(failure.Images) != 0 {
		t.Error("failure result must carry no formats or images")
	}
	if failure.Error == "" {
		t.Error("failure result missing error message")
	}
}

func TestResolve_CancelledContextStopsBeforeExternal(t *testing.T) {
	ext := externalOK("unreached")
	fb := fallbackOK("unreached")
	p := NewPipeline(ext, fb, WithRateLimiter(ratelimit.NewDomainLimiter(1, 1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Resolve(ctx, "https://example.com/video")
	if err == nil {
		t.Fatal("Resolve with cancelled context = nil error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
	if ext.callCount() != 0 || fb.callCount() != 0 {
		t.Errorf("outbound calls after cancellation: external=%d fallback=%d",
			ext.callCount(), fb.callCount())
	}
}

func TestResolve_CacheShortCircuits(t *testing.T) {
	ext := externalOK("Cached Video")
	fb := fallbackOK("y")
	mc := cache.NewMemoryCache(1024 * 1024)
	defer mc.Close()

	p := NewPipeline(ext, fb, WithCache(mc, time.Minute))

	url := "https://example.com/video"
	if _, err := p.Resolve(context.Background(), url); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, err := p.Resolve(context.Background(), url); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if ext.callCount() != 1 {
		t.Errorf("external called %d times, want 1 (second hit served from cache)", ext.callCount())
	}
}
