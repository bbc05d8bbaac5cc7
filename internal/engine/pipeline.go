package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/cache"
	"github.com/medialoom/loom/internal/engine/metadata"
	"github.com/medialoom/loom/internal/ratelimit"
	urlutil "github.com/medialoom/loom/internal/utils/url"
	"github.com/medialoom/loom/pkg/models"
)

// Prefetcher fills missing page metadata on otherwise-successful results.
type Prefetcher interface {
	Prefetch(ctx context.Context, url string) (*metadata.PageMeta, bool)
}

// Pipeline sequences URL validation, external resolution, and the local
// fallback invoker into a single Resolve call.
//
// Ordering is strict: the fallback is only attempted after the external path
// has definitively failed or timed out, and exactly once. The two paths are
// never raced.
type Pipeline struct {
	external Resolver
	fallback Resolver
	cache    cache.Cache
	limiter  ratelimit.RateLimiter
	prefetch Prefetcher
	cacheTTL time.Duration
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithCache enables result caching keyed by normalized URL.
func WithCache(c cache.Cache, ttl time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithRateLimiter throttles resolution per target domain.
func WithRateLimiter(rl ratelimit.RateLimiter) PipelineOption {
	return func(p *Pipeline) { p.limiter = rl }
}

// WithPrefetcher enables best-effort metadata enrichment.
func WithPrefetcher(pf Prefetcher) PipelineOption {
	return func(p *Pipeline) { p.prefetch = pf }
}

// NewPipeline creates a Pipeline over the given resolution backends.
func NewPipeline(external, fallback Resolver, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		external: external,
		fallback: fallback,
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the name of this resolver
func (p *Pipeline) Name() string {
	return "ResolutionPipeline"
}

// Resolve validates the URL, then tries the external resolver and, when it
// fails, the fallback invoker. Input errors fail fast with no outbound call.
func (p *Pipeline) Resolve(ctx context.Context, rawURL string) (*models.MediaResult, error) {
	if err := urlutil.Validate(rawURL); err != nil {
		if errors.Is(err, urlutil.ErrMissingURL) {
			return nil, NewResolveError(ErrCodeMissingURL, "URL is required", ErrMissingURL)
		}
		return nil, NewResolveError(ErrCodeInvalidURL, "Invalid URL format", ErrInvalidURL)
	}

	key := urlutil.Normalize(rawURL)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			log.Debug().Str("url", rawURL).Msg("Resolution cache hit")
			return cached, nil
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, rawURL); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("Rate limiter wait interrupted")
			return nil, fmt.Errorf("rate limit wait for %s: %w", rawURL, err)
		}
	}

	result, extErr := p.external.Resolve(ctx, rawURL)
	if extErr == nil {
		p.finish(ctx, key, result)
		return result, nil
	}

	// External failures are recovered locally; they are never surfaced
	// on their own.
	log.Warn().
		Err(extErr).
		Str("url", rawURL).
		Str("stage", p.external.Name()).
		Msg("External resolution failed, falling back to local extraction")

	result, fbErr := p.fallback.Resolve(ctx, rawURL)
	if fbErr == nil {
		p.finish(ctx, key, result)
		return result, nil
	}

	log.Error().
		Err(fbErr).
		Str("url", rawURL).
		Str("stage", p.fallback.Name()).
		Msg("Fallback extraction failed")

	code := CodeOf(fbErr)
	if code == "" {
		code = ErrCodeFallbackProcess
	}
	return nil, NewResolveError(code,
		fmt.Sprintf("both external API and internal engine failed: external: %v; fallback: %v", extErr, fbErr),
		fbErr)
}

// finish applies metadata enrichment and stores the result in cache.
func (p *Pipeline) finish(ctx context.Context, key string, result *models.MediaResult) {
	if p.prefetch != nil && result.Success && (result.Title == "" || result.Thumbnail == "") {
		if meta, ok := p.prefetch.Prefetch(ctx, result.SourceURL); ok {
			if result.Title == "" {
				result.Title = meta.Title
			}
			if result.Thumbnail == "" {
				result.Thumbnail = meta.Thumbnail
			}
			if result.Description == "" {
				result.Description = meta.Description
			}
		}
	}

	if p.cache != nil {
		if err := p.cache.Set(key, result, p.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache resolution result")
		}
	}
}

// FailureResult builds the uniform failure body returned to callers when
// both stages fail. Origin is tagged internal because the local engine had
// the last word.
func FailureResult(err error) *models.MediaResult {
	return &models.MediaResult{
		Success: false,
		Origin:  models.OriginInternal,
		Error:   err.Error(),
	}
}
