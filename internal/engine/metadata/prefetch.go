// Package metadata fetches lightweight page metadata (title, thumbnail,
// description) for resolved results that lack them. It is strictly best
// effort: any failure yields no metadata, never an error for the caller.
package metadata

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	urlutil "github.com/medialoom/loom/internal/utils/url"
)

// PageMeta holds the metadata harvested from a media page.
type PageMeta struct {
	Title       string
	Thumbnail   string
	Description string
}

// Fetcher retrieves and parses page metadata over plain HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with a bounded request timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Prefetch fetches the page at url and extracts metadata. The boolean is
// false when nothing useful could be harvested.
func (f *Fetcher) Prefetch(ctx context.Context, pageURL string) (*PageMeta, bool) {
	if pageURL == "" {
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("Metadata prefetch request failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false
	}

	meta := FromDocument(doc, pageURL)
	if meta.Title == "" && meta.Thumbnail == "" && meta.Description == "" {
		return nil, false
	}
	return meta, true
}

// FromDocument extracts metadata from an already-parsed document.
func FromDocument(doc *goquery.Document, pageURL string) *PageMeta {
	meta := &PageMeta{}

	// Collect meta name/property tags in one pass.
	tags := make(map[string]string)
	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		content, _ := sel.Attr("content")
		if content == "" {
			return
		}
		if name, exists := sel.Attr("name"); exists {
			tags[name] = content
		}
		if property, exists := sel.Attr("property"); exists {
			tags[property] = content
		}
	})

	meta.Title = firstNonEmpty(tags["og:title"], tags["twitter:title"])
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if thumb := firstNonEmpty(tags["og:image"], tags["twitter:image"]); thumb != "" {
		meta.Thumbnail = urlutil.ResolveURL(pageURL, thumb)
	}

	if desc := firstNonEmpty(tags["og:description"], tags["description"]); desc != "" {
		meta.Description = FlattenDescription(desc)
	}

	// Some platforms only expose metadata through inline script globals.
	if meta.Title == "" || meta.Thumbnail == "" {
		harvestScriptGlobals(doc, pageURL, meta)
	}

	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
