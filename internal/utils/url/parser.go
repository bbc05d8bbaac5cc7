package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMissingURL is returned when the submitted URL is empty.
var ErrMissingURL = errors.New("missing URL")

// Validate performs syntactic validation of a submitted media URL.
// It never makes a network call; the pipeline relies on that to fail fast.
func Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrMissingURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Normalize returns a canonical form of the URL used as a cache key:
// lowercased host, no fragment, no trailing slash on the path.
func Normalize(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}

// Host extracts the hostname from a URL string, or "" if it cannot be parsed.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// ExtFromPath guesses a file extension from the URL path, e.g.
// "https://cdn/file.mp4" -> "mp4". Returns fallback when no extension is present.
func ExtFromPath(raw, fallback string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	path := parsed.Path
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return fallback
	}
	ext := path[idx+1:]
	if len(ext) > 5 || strings.Contains(ext, "/") {
		return fallback
	}
	return strings.ToLower(ext)
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}
