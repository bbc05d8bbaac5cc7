// internal/auth/apikey.go
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "loom-cli"
	// apiKeyName is the credential name for the external resolver API key
	apiKeyName = "resolver-api-key"
	// FallbackDir is the directory for file-based credential storage (when keyring fails)
	FallbackDir = ".loom/credentials"
)

// useFileBasedStorage checks if we should use file-based storage
// This is a fallback for environments where keyring isn't available (Codespaces, CI)
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	// Cache the result to avoid repeated tests
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	// Check environment hints
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	// Try to use keyring, but if it fails, use file-based storage
	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := (err != nil)
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}

func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, apiKeyName), nil
}

// SaveAPIKey stores the external resolver API key in the OS keyring, or a
// file when no keyring is available. A LOOM_RESOLVER_API_KEY env override
// always wins on load, so CI never needs a keyring.
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if useFileBasedStorage() {
		path, err := getCredentialPath()
		if err != nil {
			return fmt.Errorf("failed to get credential path: %w", err)
		}
		if err := os.WriteFile(path, []byte(key), 0600); err != nil {
			return fmt.Errorf("failed to save credential file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, apiKeyName, key); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// LoadAPIKey returns the stored API key, or "" when none is configured.
func LoadAPIKey() string {
	if v := os.Getenv("LOOM_RESOLVER_API_KEY"); v != "" {
		return strings.TrimSpace(v)
	}

	if useFileBasedStorage() {
		path, err := getCredentialPath()
		if err != nil {
			return ""
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	key, err := keyring.Get(KeyringService, apiKeyName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(key)
}

// DeleteAPIKey removes the stored API key. Missing credentials are not an error.
func DeleteAPIKey() error {
	if useFileBasedStorage() {
		path, err := getCredentialPath()
		if err != nil {
			return err
		}
		err = os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	err := keyring.Delete(KeyringService, apiKeyName)
	if err != nil && err != keyring.ErrNotFound {
		return err
	}
	return nil
}
