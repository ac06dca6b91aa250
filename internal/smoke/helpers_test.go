package smoke

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/moasq/distcheck/internal/runner"
	"github.com/moasq/distcheck/internal/terminal"
)

// recordingRunner returns canned results and remembers every command.
type recordingRunner struct {
	calls   []string
	results map[string]runner.Result
}

func (r *recordingRunner) Run(_ context.Context, command, dir string) runner.Result {
	r.calls = append(r.calls, command)
	if res, ok := r.results[command]; ok {
		res.Command = command
		res.Dir = dir
		return res
	}
	return runner.Result{Command: command, Dir: dir, OK: true}
}

func captureTerminal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := terminal.Output()
	terminal.SetOutput(&buf)
	t.Cleanup(func() { terminal.SetOutput(prev) })
	return &buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeFile(path string) error {
	return os.Remove(path)
}
