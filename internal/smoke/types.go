package smoke

import (
	"context"
	"errors"
	"time"

	"github.com/moasq/distcheck/internal/runner"
)

// Hard-failure kinds. Checkpoint errors wrap one of these.
var (
	ErrMissingFile   = errors.New("required file missing")
	ErrCommandFailed = errors.New("command failed")
	ErrMissingOutput = errors.New("build output directory missing")
)

// CommandRunner runs a shell command string in dir.
type CommandRunner interface {
	Run(ctx context.Context, command, dir string) runner.Result
}

// Status is the outcome of one checkpoint.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Checkpoint identifies one step of the run, in execution order.
type Checkpoint int

const (
	StepStructure Checkpoint = iota + 1
	StepEnvironment
	StepInstall
	StepBuild
	StepOutput
	StepScaffold
)

// checkpointCount is the number of checkpoints in a full run.
const checkpointCount = 6

func (c Checkpoint) String() string {
	switch c {
	case StepStructure:
		return "structure"
	case StepEnvironment:
		return "environment"
	case StepInstall:
		return "install"
	case StepBuild:
		return "build"
	case StepOutput:
		return "output"
	case StepScaffold:
		return "scaffold"
	default:
		return "unknown"
	}
}

func (c Checkpoint) label() string {
	switch c {
	case StepStructure:
		return "Verifying project structure"
	case StepEnvironment:
		return "Checking environment setup"
	case StepInstall:
		return "Installing dependencies"
	case StepBuild:
		return "Running production build"
	case StepOutput:
		return "Verifying build output"
	case StepScaffold:
		return "Preparing local server scaffold"
	default:
		return "Working"
	}
}

// CheckpointResult records what happened at one checkpoint.
type CheckpointResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes one smoke run.
type Report struct {
	ID            string             `json:"id"`
	ProjectDir    string             `json:"project_dir"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
	Checkpoints   []CheckpointResult `json:"checkpoints"`
	OutputEntries int                `json:"output_entries"`
	Warnings      []string           `json:"warnings,omitempty"`
	Success       bool               `json:"success"`
	Error         string             `json:"error,omitempty"`
}

// Checkpoint returns the recorded result for c, or nil if c never ran.
func (r *Report) Checkpoint(c Checkpoint) *CheckpointResult {
	if r == nil {
		return nil
	}
	for i := range r.Checkpoints {
		if r.Checkpoints[i].Name == c.String() {
			return &r.Checkpoints[i]
		}
	}
	return nil
}

// ExitCode maps the report to the process exit status.
func (r *Report) ExitCode() int {
	if r != nil && r.Success {
		return 0
	}
	return 1
}
