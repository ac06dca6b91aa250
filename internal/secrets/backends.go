package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

// keychainStore keeps secrets in the OS keychain via go-keyring.
type keychainStore struct{}

func newKeychainStore() *keychainStore {
	return &keychainStore{}
}

func (keychainStore) Get(key string) (string, error) {
	val, err := keyring.Get(serviceName, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (keychainStore) Set(key, value string) error {
	return keyring.Set(serviceName, key, value)
}

func (keychainStore) Delete(key string) error {
	if err := keyring.Delete(serviceName, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

const secretsFile = "secrets.json"
const secretsFileMode = 0o600

// fileDocument is the on-disk layout of the fallback store.
type fileDocument struct {
	Version int               `json:"version"`
	Secrets map[string]string `json:"secrets"`
}

// fileStore is the fallback for environments without an OS keychain. The
// file is replaced atomically and readable only by the owner.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(dir string) *fileStore {
	return &fileStore{path: filepath.Join(dir, secretsFile)}
}

func (f *fileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := doc.Secrets[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (f *fileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Secrets[key] = value
	return f.save(doc)
}

func (f *fileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Secrets[key]; !ok {
		return nil
	}
	delete(doc.Secrets, key)
	return f.save(doc)
}

func (f *fileStore) load() (*fileDocument, error) {
	doc := &fileDocument{Version: 1, Secrets: map[string]string{}}
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	if err := json.Unmarshal(raw, doc); err != nil || doc.Secrets == nil {
		return &fileDocument{Version: 1, Secrets: map[string]string{}}, nil // corrupt file, start fresh
	}
	return doc, nil
}

func (f *fileStore) save(doc *fileDocument) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".secrets-*.json")
	if err != nil {
		return fmt.Errorf("failed to write secrets: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write secrets: %w", err)
	}
	if err := tmp.Chmod(secretsFileMode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
