// Package runner executes shell commands for the smoke checkpoints and
// reports their outcome as a Result instead of an error.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/terminal"
)

// Result is the outcome of one command invocation.
type Result struct {
	Command  string        `json:"command"`
	Dir      string        `json:"dir,omitempty"`
	OK       bool          `json:"ok"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Err      string        `json:"error,omitempty"` // spawn or timeout failure, empty on a clean exit
	Duration time.Duration `json:"duration"`
}

// Diagnostics returns the captured text most useful for a failure message.
func (r Result) Diagnostics() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stdout); s != "" && len(parts) == 0 {
		parts = append(parts, s)
	}
	if r.Err != "" {
		parts = append(parts, r.Err)
	}
	return strings.Join(parts, "\n")
}

// Opts holds optional runner configuration.
type Opts struct {
	// Shell is the interpreter used for command strings. Defaults to "sh".
	Shell string
	// Env is appended to the inherited process environment.
	Env []string
	// Timeout bounds each command. Zero waits until the process exits.
	Timeout time.Duration
	// Logger receives structured start/finish events.
	Logger *zap.Logger
	// Quiet suppresses terminal narration of captured output.
	Quiet bool
}

// Runner runs shell command strings.
type Runner struct {
	shell   string
	env     []string
	timeout time.Duration
	logger  *zap.Logger
	quiet   bool
}

// New creates a runner.
func New(opts ...Opts) *Runner {
	r := &Runner{shell: "sh", logger: zap.NewNop()}
	if len(opts) > 0 {
		o := opts[0]
		if o.Shell != "" {
			r.shell = o.Shell
		}
		r.env = append(r.env, o.Env...)
		r.timeout = o.Timeout
		r.quiet = o.Quiet
		if o.Logger != nil {
			r.logger = o.Logger
		}
	}
	return r
}

// Run executes command through the shell in dir (the current directory when
// empty) and blocks until it exits. Failures of any kind come back as
// Result.OK == false.
func (r *Runner) Run(ctx context.Context, command, dir string) Result {
	res := Result{Command: command, Dir: dir, ExitCode: -1}

	runCtx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	r.logger.Debug("command starting", zap.String("command", command), zap.String("dir", dir))

	var spinner *terminal.Spinner
	if !r.quiet {
		terminal.Info(fmt.Sprintf("Running: %s", command))
		spinner = terminal.NewSpinner(command)
		spinner.Start()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Orphaned grandchildren can hold the output pipes open after a kill.
	cmd.WaitDelay = 2 * time.Second
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if spinner != nil {
		spinner.StopWithMessage(fmt.Sprintf("  Finished in %s", res.Duration.Round(time.Millisecond)))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.OK = true
		res.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && r.timeout > 0 && ctx.Err() == nil:
		res.Err = fmt.Sprintf("timed out after %s", r.timeout)
	case runCtx.Err() != nil:
		res.Err = fmt.Sprintf("interrupted: %v", runCtx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			res.Err = err.Error()
		}
	default:
		res.Err = err.Error()
	}

	if !r.quiet {
		terminal.Block("Output", res.Stdout)
		terminal.Block("Error output", res.Stderr)
		switch {
		case res.Err != "":
			terminal.Error(fmt.Sprintf("Failed: %s", res.Err))
		case !res.OK:
			terminal.Detail("Exit code", fmt.Sprintf("%d", res.ExitCode))
		}
	}

	fields := []zap.Field{
		zap.String("command", command),
		zap.Bool("ok", res.OK),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
	}
	if res.OK {
		r.logger.Debug("command finished", fields...)
	} else {
		if res.Err != "" {
			fields = append(fields, zap.String("error", res.Err))
		}
		r.logger.Warn("command failed", fields...)
	}

	return res
}
