package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.ExternalTimeout <= 0 {
		return fmt.Errorf("external resolver timeout must be > 0")
	}
	if c.FallbackTimeout <= 0 {
		return fmt.Errorf("fallback timeout must be > 0")
	}
	if c.ExternalEndpoint == "" {
		return fmt.Errorf("external resolver endpoint is required")
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	if c.DownloadConcurrency <= 0 {
		return fmt.Errorf("download concurrency must be > 0")
	}
	return nil
}
