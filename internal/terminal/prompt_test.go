package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadSecretFromPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin")
	if err := os.WriteFile(path, []byte("  npm_abc123  \nsecond line\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := ReadSecret("Token:", f)
	if err != nil {
		t.Fatalf("ReadSecret() error = %v", err)
	}
	if got != "npm_abc123" {
		t.Fatalf("ReadSecret() = %q, want npm_abc123", got)
	}
}

func TestReadSecretEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := ReadSecret("Token:", f)
	if err != nil {
		t.Fatalf("ReadSecret() error = %v", err)
	}
	if got != "" {
		t.Fatalf("ReadSecret() = %q, want empty", got)
	}
}
