package config

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ExternalTimeout != DefaultExternalTimeout {
		t.Errorf("ExternalTimeout = %v, want %v", cfg.ExternalTimeout, DefaultExternalTimeout)
	}
	if cfg.FallbackTimeout != DefaultFallbackTimeout {
		t.Errorf("FallbackTimeout = %v, want %v", cfg.FallbackTimeout, DefaultFallbackTimeout)
	}
	if cfg.FallbackInterpreter != "python3" {
		t.Errorf("FallbackInterpreter = %q", cfg.FallbackInterpreter)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOOM_RESOLVER_ENDPOINT", "https://resolver.internal/api")
	t.Setenv("LOOM_EXTERNAL_TIMEOUT", "2s")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ExternalEndpoint != "https://resolver.internal/api" {
		t.Errorf("ExternalEndpoint = %q", cfg.ExternalEndpoint)
	}
	if cfg.ExternalTimeout != 2*time.Second {
		t.Errorf("ExternalTimeout = %v, want 2s", cfg.ExternalTimeout)
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	cmd.PersistentFlags().Set("endpoint", "https://flags.example/resolve")
	cmd.PersistentFlags().Set("verbose", "true")
	cmd.PersistentFlags().Set("fallback-script", "/opt/loom/extract.py")

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ExternalEndpoint != "https://flags.example/resolve" {
		t.Errorf("ExternalEndpoint = %q", cfg.ExternalEndpoint)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from --verbose", cfg.LogLevel)
	}
	if cfg.FallbackScript != "/opt/loom/extract.py" {
		t.Errorf("FallbackScript = %q", cfg.FallbackScript)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := Load(nil)

	cfg.ExternalTimeout = 0
	if err := validate(cfg); err == nil {
		t.Error("zero external timeout accepted")
	}

	cfg, _ = Load(nil)
	cfg.ExternalEndpoint = ""
	if err := validate(cfg); err == nil {
		t.Error("empty endpoint accepted")
	}
}
