package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/moasq/distcheck/internal/smoke"
	"github.com/moasq/distcheck/internal/terminal"
)

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range map[string]string{
		"package.json":   `{"name":"site"}`,
		"vite.config.ts": "export default {}",
		"index.html":     "<!doctype html>",
		".env.example":   "VITE_API_URL=",
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	checkFlags = checkOptions{}

	prev := terminal.Output()
	t.Cleanup(func() { terminal.SetOutput(prev) })
	terminal.SetOutput(io.Discard)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestCheckJSONReport(t *testing.T) {
	root := newProject(t)
	t.Setenv("DISTCHECK_INSTALL_COMMAND", "true")
	t.Setenv("DISTCHECK_BUILD_COMMAND", "mkdir -p dist/assets && echo '<html></html>' > dist/index.html && echo x > dist/assets/app.js")

	out, err := execute(t, "check", "--dir", root, "--json")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}

	var report smoke.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, out)
	}
	if !report.Success || report.OutputEntries != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	data, err := os.ReadFile(filepath.Join(root, ".distcheck", "runs.json"))
	if err != nil {
		t.Fatalf("run should be recorded: %v", err)
	}
	if !strings.Contains(string(data), report.ID) {
		t.Fatal("recorded run does not match the report")
	}
}

func TestCheckFailureReturnsError(t *testing.T) {
	root := newProject(t)
	if err := os.Remove(filepath.Join(root, "index.html")); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--dir", root)
	if err == nil {
		t.Fatal("expected error for missing index.html")
	}
	if !strings.Contains(err.Error(), "index.html") {
		t.Fatalf("error should name the missing file, got %v", err)
	}
}

func TestCheckMissingProjectDirIsNotCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "typo")

	if _, err := execute(t, "--dir", dir); err == nil {
		t.Fatal("expected error for missing project directory")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("project directory should not be created, stat err = %v", err)
	}
}

func TestDescribeRun(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		report smoke.Report
		want   string
	}{
		{
			name: "passed",
			report: smoke.Report{
				StartedAt: start, FinishedAt: start.Add(42 * time.Second),
				Success: true, OutputEntries: 12, Warnings: []string{"csp"},
			},
			want: "12 output files, 1 warnings",
		},
		{
			name: "failed",
			report: smoke.Report{
				StartedAt: start, FinishedAt: start.Add(3 * time.Second),
				Checkpoints: []smoke.CheckpointResult{
					{Name: "structure", Status: smoke.StatusPassed},
					{Name: "install", Status: smoke.StatusFailed},
				},
			},
			want: "failed at install",
		},
		{
			name:   "interrupted",
			report: smoke.Report{StartedAt: start, FinishedAt: start},
			want:   "interrupted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeRun(tt.report); !strings.Contains(got, tt.want) {
				t.Fatalf("describeRun() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
