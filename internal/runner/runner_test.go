package runner

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moasq/distcheck/internal/terminal"
)

func quietOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := terminal.Output()
	terminal.SetOutput(&buf)
	t.Cleanup(func() { terminal.SetOutput(prev) })
	return &buf
}

func TestRunSuccessCapturesOutput(t *testing.T) {
	quietOutput(t)
	r := New()

	res := r.Run(context.Background(), "echo built; echo note >&2", "")
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "built" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "note" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestRunExitStatusDecidesOutcome(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Quiet: true})

	tests := []struct {
		command  string
		ok       bool
		exitCode int
	}{
		{"true", true, 0},
		{"false", false, 1},
		{"exit 3", false, 3},
		{"echo everything is fine; exit 2", false, 2},
		{"echo error >&2; exit 0", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			res := r.Run(context.Background(), tt.command, "")
			if res.OK != tt.ok {
				t.Fatalf("OK = %v, want %v (%+v)", res.OK, tt.ok, res)
			}
			if res.ExitCode != tt.exitCode {
				t.Fatalf("ExitCode = %d, want %d", res.ExitCode, tt.exitCode)
			}
		})
	}
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	quietOutput(t)
	dir := t.TempDir()
	r := New(Opts{Quiet: true})

	res := r.Run(context.Background(), "pwd", dir)
	if !res.OK {
		t.Fatalf("pwd failed: %+v", res)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestRunMissingDirectoryIsFailureNotPanic(t *testing.T) {
	buf := quietOutput(t)
	r := New()

	res := r.Run(context.Background(), "true", filepath.Join(t.TempDir(), "missing"))
	if res.OK {
		t.Fatal("expected failure for missing working directory")
	}
	if res.Err == "" {
		t.Fatal("expected spawn error message")
	}
	if !strings.Contains(buf.String(), "Failed:") {
		t.Fatalf("expected failure narration, got %q", buf.String())
	}
}

func TestRunMissingShellIsFailure(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Shell: "distcheck-no-such-shell", Quiet: true})

	res := r.Run(context.Background(), "true", "")
	if res.OK || res.Err == "" {
		t.Fatalf("expected spawn failure, got %+v", res)
	}
}

func TestRunPassesExtraEnvironment(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Env: []string{"NPM_TOKEN=secret-value"}, Quiet: true})

	res := r.Run(context.Background(), `test "$NPM_TOKEN" = secret-value`, "")
	if !res.OK {
		t.Fatalf("expected env var to reach command, got %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Timeout: 100 * time.Millisecond, Quiet: true})

	res := r.Run(context.Background(), "exec sleep 5", "")
	if res.OK {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Err, "timed out") {
		t.Fatalf("Err = %q, want timeout message", res.Err)
	}
	if res.Duration > 4*time.Second {
		t.Fatalf("command was not cut short: %v", res.Duration)
	}
}

func TestRunParentDeadlineWithoutTimeout(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := r.Run(ctx, "exec sleep 5", "")
	if res.OK {
		t.Fatal("expected failure when the caller's deadline passes")
	}
	if strings.Contains(res.Err, "after 0s") {
		t.Fatalf("Err = %q, must not report a zero timeout", res.Err)
	}
	if !strings.Contains(res.Err, context.DeadlineExceeded.Error()) {
		t.Fatalf("Err = %q, want the context error", res.Err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	quietOutput(t)
	r := New(Opts{Timeout: time.Minute, Quiet: true})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := r.Run(ctx, "exec sleep 5", "")
	if res.OK {
		t.Fatal("expected failure after cancellation")
	}
	if !strings.Contains(res.Err, context.Canceled.Error()) {
		t.Fatalf("Err = %q, want cancellation", res.Err)
	}
}

func TestDiagnosticsPrefersStderr(t *testing.T) {
	res := Result{Stdout: "progress", Stderr: "boom\n", Err: ""}
	if got := res.Diagnostics(); got != "boom" {
		t.Errorf("Diagnostics() = %q, want boom", got)
	}
	res = Result{Stdout: "only stdout\n"}
	if got := res.Diagnostics(); got != "only stdout" {
		t.Errorf("Diagnostics() = %q", got)
	}
	res = Result{Err: "exec: not found"}
	if got := res.Diagnostics(); got != "exec: not found" {
		t.Errorf("Diagnostics() = %q", got)
	}
}
