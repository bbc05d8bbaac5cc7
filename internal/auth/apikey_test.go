package auth

import (
	"os"
	"testing"
)

func TestLoadAPIKey_EnvOverride(t *testing.T) {
	t.Setenv("LOOM_RESOLVER_API_KEY", "  from-env  ")

	if got := LoadAPIKey(); got != "from-env" {
		t.Errorf("LoadAPIKey() = %q, want trimmed env value", got)
	}
}

func TestSaveLoadDeleteAPIKey_FileFallback(t *testing.T) {
	// Force file-based storage and sandbox it to a temp home.
	t.Setenv("CI", "true")
	t.Setenv("HOME", t.TempDir())
	os.Unsetenv("LOOM_RESOLVER_API_KEY")
	forced := true
	fileBasedStorageCache = &forced
	t.Cleanup(func() { fileBasedStorageCache = nil })

	if err := SaveAPIKey("  secret-key  "); err != nil {
		t.Fatalf("SaveAPIKey failed: %v", err)
	}
	if got := LoadAPIKey(); got != "secret-key" {
		t.Errorf("LoadAPIKey() = %q, want %q", got, "secret-key")
	}

	if err := DeleteAPIKey(); err != nil {
		t.Fatalf("DeleteAPIKey failed: %v", err)
	}
	if got := LoadAPIKey(); got != "" {
		t.Errorf("LoadAPIKey() after delete = %q, want empty", got)
	}

	// Deleting again must not error.
	if err := DeleteAPIKey(); err != nil {
		t.Errorf("second DeleteAPIKey errored: %v", err)
	}
}

func TestSaveAPIKey_RejectsEmpty(t *testing.T) {
	if err := SaveAPIKey("   "); err == nil {
		t.Error("empty API key accepted")
	}
}
