// Package secrets stores package-registry tokens. It uses the OS keychain
// (macOS Keychain, Linux Secret Service) when available, with a file-based
// fallback for environments without a keychain (CI, containers).
package secrets

import (
	"errors"
	"strings"
)

// serviceName is the keychain service identifier for all distcheck secrets.
const serviceName = "distcheck"

// SecretStore provides secure credential storage.
type SecretStore interface {
	// Get retrieves a secret by key. Returns ErrNotFound if not present.
	Get(key string) (string, error)
	// Set stores a secret under the given key, replacing any existing value.
	Set(key, value string) error
	// Delete removes a secret. No error if the key doesn't exist.
	Delete(key string) error
}

// ErrNotFound is returned when a secret key does not exist.
var ErrNotFound = errors.New("secret not found")

// TokenKey builds the canonical key for a registry token.
// Format: "registry/<host>/token" (e.g. "registry/registry.npmjs.org/token").
func TokenKey(registry string) string {
	host := strings.TrimSpace(registry)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	return "registry/" + host + "/token"
}

// New returns the best available SecretStore for the current environment.
// It tries the OS keychain first, falling back to a file-based store in dir.
func New(dir string) SecretStore {
	ks := newKeychainStore()
	// Probe: try a set+get+delete cycle to verify keychain availability.
	probeKey := "__distcheck_probe__"
	if err := ks.Set(probeKey, "ok"); err != nil {
		return newFileStore(dir)
	}
	_ = ks.Delete(probeKey)
	return ks
}

// TokenEnv returns the environment entries exposing the stored token for
// registry to package manager commands, or nil when no token is stored.
func TokenEnv(store SecretStore, registry string) ([]string, error) {
	token, err := store.Get(TokenKey(registry))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{"NPM_TOKEN=" + token}, nil
}
