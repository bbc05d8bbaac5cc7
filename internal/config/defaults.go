package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultUserAgent = "Loom/1.0 (https://github.com/medialoom/loom)"

	// External resolution API
	DefaultExternalEndpoint = "https://api.example.com/resolve"
	DefaultExternalTimeout  = 5 * time.Second

	// Fallback extraction script
	DefaultFallbackInterpreter = "python3"
	DefaultFallbackScript      = "scripts/extract.py"
	DefaultFallbackTimeout     = 10 * time.Second

	DefaultHTTPTimeout = 30 * time.Second
	DefaultListenAddr  = ":8080"

	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10

	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 16 * 1024 * 1024 // 16MB

	DefaultDownloadConcurrency = 4
	DefaultDownloadDir         = "downloads"
)
