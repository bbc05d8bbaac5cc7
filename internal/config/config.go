package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	ListenAddr  string

	// External resolution API
	ExternalEndpoint string
	ExternalTimeout  time.Duration

	// Fallback extraction script
	FallbackInterpreter string
	FallbackScript      string
	FallbackTimeout     time.Duration

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Downloads
	DownloadConcurrency int
	DownloadDir         string
}

// Load builds a Config by combining defaults, environment variables, and CLI
// flags. Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		HTTPTimeout:         DefaultHTTPTimeout,
		UserAgent:           DefaultUserAgent,
		ListenAddr:          DefaultListenAddr,
		ExternalEndpoint:    DefaultExternalEndpoint,
		ExternalTimeout:     DefaultExternalTimeout,
		FallbackInterpreter: DefaultFallbackInterpreter,
		FallbackScript:      DefaultFallbackScript,
		FallbackTimeout:     DefaultFallbackTimeout,
		RateLimitRPS:        DefaultRateLimitRPS,
		RateLimitBurst:      DefaultRateLimitBurst,
		CacheTTL:            DefaultCacheTTL,
		CacheMaxSizeBytes:   DefaultCacheMaxSizeBytes,
		DownloadConcurrency: DefaultDownloadConcurrency,
		DownloadDir:         DefaultDownloadDir,
	}

	// Override from environment variables (simple helpers)
	if v := os.Getenv("LOOM_RESOLVER_ENDPOINT"); v != "" {
		cfg.ExternalEndpoint = v
	}
	if v := os.Getenv("LOOM_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("LOOM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("LOOM_FALLBACK_INTERPRETER"); v != "" {
		cfg.FallbackInterpreter = v
	}
	if v := os.Getenv("LOOM_FALLBACK_SCRIPT"); v != "" {
		cfg.FallbackScript = v
	}
	if v := os.Getenv("LOOM_EXTERNAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ExternalTimeout = d
		}
	}
	if v := os.Getenv("LOOM_FALLBACK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FallbackTimeout = d
		}
	}
	if v := os.Getenv("LOOM_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := lookupFlag(cmd, "endpoint"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ExternalEndpoint = s
			}
		}
		if f := lookupFlag(cmd, "listen"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ListenAddr = s
			}
		}
		if f := lookupFlag(cmd, "user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := lookupFlag(cmd, "timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.HTTPTimeout = d
				}
			}
		}
		if f := lookupFlag(cmd, "fallback-script"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.FallbackScript = s
			}
		}
		if f := lookupFlag(cmd, "json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := lookupFlag(cmd, "verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// lookupFlag finds a flag on the command's local or persistent set. The
// persistent set is checked explicitly because the two are only merged once
// the command actually executes.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}
