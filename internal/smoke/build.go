package smoke

import (
	"context"
	"fmt"

	"github.com/moasq/distcheck/internal/runner"
)

// BuildStep is one external command of the build sequence.
type BuildStep struct {
	Name    string
	Command string
}

// RunBuild runs steps in order in dir and stops at the first failure. It
// returns the results of every step that ran.
func RunBuild(ctx context.Context, r CommandRunner, dir string, steps []BuildStep) ([]runner.Result, error) {
	results := make([]runner.Result, 0, len(steps))
	for _, step := range steps {
		res := r.Run(ctx, step.Command, dir)
		results = append(results, res)
		if !res.OK {
			return results, stepError(step, res)
		}
	}
	return results, nil
}

func stepError(step BuildStep, res runner.Result) error {
	msg := fmt.Sprintf("%s: %q", step.Name, step.Command)
	switch {
	case res.Err != "":
		msg += ": " + res.Err
	default:
		msg += fmt.Sprintf(" exited with status %d", res.ExitCode)
	}
	if diag := res.Diagnostics(); diag != "" && diag != res.Err {
		msg += "\n" + diag
	}
	return fmt.Errorf("%w: %s", ErrCommandFailed, msg)
}
