// Package smoke runs the deployment smoke test for a front-end project: a
// fixed, forward-only sequence of checkpoints where the first hard failure
// ends the run.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/terminal"
)

// Options holds optional behavior switches for a run.
type Options struct {
	// AllMissing reports every missing required file instead of the first.
	AllMissing bool
	// SkipInstall skips the dependency install checkpoint.
	SkipInstall bool
	// KeepScaffold leaves the server script on disk for manual use.
	KeepScaffold bool
	// Logger receives structured checkpoint events.
	Logger *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Smoke runs the checkpoints for one project.
type Smoke struct {
	cfg    *config.Config
	runner CommandRunner
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates a smoke run for cfg using r for external commands.
func New(cfg *config.Config, r CommandRunner, opts ...Options) *Smoke {
	s := &Smoke{cfg: cfg, runner: r, logger: zap.NewNop(), now: time.Now}
	if len(opts) > 0 {
		s.opts = opts[0]
		if s.opts.Logger != nil {
			s.logger = s.opts.Logger
		}
		if s.opts.Now != nil {
			s.now = s.opts.Now
		}
	}
	return s
}

// Run executes all checkpoints. The returned report is never nil; err is
// non-nil exactly when the report is not successful.
func (s *Smoke) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:         uuid.NewString(),
		ProjectDir: s.cfg.ProjectDir,
		StartedAt:  s.now(),
	}

	terminal.Header("Smoke test")
	terminal.Detail("Project", s.cfg.ProjectDir)

	steps := []struct {
		check Checkpoint
		run   func(context.Context, *Report) (Status, string, error)
	}{
		{StepStructure, s.structure},
		{StepEnvironment, s.environment},
		{StepInstall, s.install},
		{StepBuild, s.build},
		{StepOutput, s.output},
		{StepScaffold, s.scaffold},
	}

	var runErr error
	for _, step := range steps {
		if runErr == nil {
			runErr = ctx.Err()
		}
		if runErr != nil {
			report.Checkpoints = append(report.Checkpoints, CheckpointResult{Name: step.check.String(), Status: StatusSkipped})
			continue
		}

		terminal.Step(int(step.check), checkpointCount, step.check.label())
		start := s.now()
		status, detail, err := step.run(ctx, report)
		result := CheckpointResult{
			Name:     step.check.String(),
			Status:   status,
			Detail:   detail,
			Duration: s.now().Sub(start),
		}
		if err != nil {
			result.Status = StatusFailed
			if result.Detail == "" {
				result.Detail = err.Error()
			}
			runErr = fmt.Errorf("%s checkpoint: %w", step.check, err)
		}
		report.Checkpoints = append(report.Checkpoints, result)

		s.logger.Debug("checkpoint finished",
			zap.String("checkpoint", result.Name),
			zap.String("status", string(result.Status)),
			zap.Duration("duration", result.Duration))
	}

	report.FinishedAt = s.now()
	report.Success = runErr == nil
	if runErr != nil {
		report.Error = runErr.Error()
	}
	s.summarize(report)
	return report, runErr
}

func (s *Smoke) structure(_ context.Context, _ *Report) (Status, string, error) {
	check := CheckStructure
	if s.opts.AllMissing {
		check = CheckStructureAll
	}
	if err := check(s.cfg.ProjectDir, s.cfg.RequiredFiles); err != nil {
		return StatusFailed, "", err
	}
	return StatusPassed, fmt.Sprintf("%d required files present", len(s.cfg.RequiredFiles)), nil
}

func (s *Smoke) environment(_ context.Context, report *Report) (Status, string, error) {
	outcome, err := EnsureEnvFile(s.cfg.Path(s.cfg.EnvFile), s.cfg.Path(s.cfg.EnvTemplate))
	if err != nil {
		terminal.Error(err.Error())
		return StatusFailed, "", err
	}
	switch outcome {
	case EnvCreated:
		terminal.Warning(fmt.Sprintf("No %s file found, created from %s", s.cfg.EnvFile, s.cfg.EnvTemplate))
		terminal.Success(fmt.Sprintf("Created %s from %s", s.cfg.EnvFile, s.cfg.EnvTemplate))
		return StatusPassed, fmt.Sprintf("created %s from %s", s.cfg.EnvFile, s.cfg.EnvTemplate), nil
	case EnvNoTemplate:
		msg := fmt.Sprintf("No %s file and no %s template; continuing without one", s.cfg.EnvFile, s.cfg.EnvTemplate)
		terminal.Warning(msg)
		report.Warnings = append(report.Warnings, msg)
		return StatusWarning, msg, nil
	default:
		terminal.Success(fmt.Sprintf("Found: %s", s.cfg.EnvFile))
		return StatusPassed, fmt.Sprintf("%s present", s.cfg.EnvFile), nil
	}
}

func (s *Smoke) install(ctx context.Context, _ *Report) (Status, string, error) {
	if s.opts.SkipInstall {
		terminal.Info("Skipping dependency install")
		return StatusSkipped, "skipped by request", nil
	}
	return s.command(ctx, BuildStep{Name: "install dependencies", Command: s.cfg.InstallCommand}, "Failed to install dependencies", "Dependencies installed")
}

func (s *Smoke) build(ctx context.Context, _ *Report) (Status, string, error) {
	return s.command(ctx, BuildStep{Name: "build", Command: s.cfg.BuildCommand}, "Build failed", "Build succeeded")
}

func (s *Smoke) command(ctx context.Context, step BuildStep, failMsg, okMsg string) (Status, string, error) {
	results, err := RunBuild(ctx, s.runner, s.cfg.ProjectDir, []BuildStep{step})
	if err != nil {
		terminal.Error(failMsg)
		return StatusFailed, "", err
	}
	terminal.Success(okMsg)
	return StatusPassed, fmt.Sprintf("%s (%s)", step.Command, results[0].Duration.Round(time.Millisecond)), nil
}

func (s *Smoke) output(_ context.Context, report *Report) (Status, string, error) {
	out, err := InspectOutput(s.cfg.Path(s.cfg.OutputDir), s.cfg.EntryFile, s.cfg.PolicyMarker, s.cfg.TagMarker)
	if err != nil {
		if errors.Is(err, ErrMissingOutput) {
			terminal.Error(fmt.Sprintf("No %s directory found after build", s.cfg.OutputDir))
		} else {
			terminal.Error(err.Error())
		}
		return StatusFailed, "", err
	}

	report.OutputEntries = out.Entries
	terminal.Success(fmt.Sprintf("Found %d files in %s/", out.Entries, s.cfg.OutputDir))

	if !out.EntryFound {
		return StatusPassed, fmt.Sprintf("%d entries, no %s", out.Entries, s.cfg.EntryFile), nil
	}
	terminal.Success(fmt.Sprintf("%s exists", s.cfg.EntryFile))

	if out.PolicyConflict {
		msg := fmt.Sprintf("Found %s meta tag in built %s; it may conflict with the policy sent in HTTP headers", s.cfg.PolicyMarker, s.cfg.EntryFile)
		terminal.Warning(msg)
		report.Warnings = append(report.Warnings, msg)
		return StatusWarning, msg, nil
	}
	terminal.Success(fmt.Sprintf("No %s meta tag in %s", s.cfg.PolicyMarker, s.cfg.EntryFile))
	return StatusPassed, fmt.Sprintf("%d entries", out.Entries), nil
}

func (s *Smoke) scaffold(_ context.Context, _ *Report) (Status, string, error) {
	path := s.cfg.Path(s.cfg.ScaffoldFile)
	written, cleanup, err := WriteScaffold(path, ScaffoldParams{
		Port: s.cfg.ScaffoldPort,
		Dir:  s.cfg.OutputDir,
	})
	if err != nil {
		terminal.Error(err.Error())
		return StatusFailed, "", err
	}
	name := filepath.Base(written)
	if written != path {
		terminal.Info(fmt.Sprintf("%s already exists and is left untouched; using %s", s.cfg.ScaffoldFile, name))
	}

	if s.opts.KeepScaffold {
		terminal.Success(fmt.Sprintf("Wrote %s (serves %s/ on port %d)", name, s.cfg.OutputDir, s.cfg.ScaffoldPort))
		return StatusPassed, "kept " + name, nil
	}

	if err := cleanup(); err != nil {
		terminal.Error(err.Error())
		return StatusFailed, "", err
	}
	terminal.Success(fmt.Sprintf("Server scaffold verified; run `distcheck serve` to preview %s/ on port %d", s.cfg.OutputDir, s.cfg.ScaffoldPort))
	return StatusPassed, "written and removed " + name, nil
}

func (s *Smoke) summarize(report *Report) {
	terminal.Header("Summary")
	for _, cp := range report.Checkpoints {
		switch cp.Status {
		case StatusSkipped:
			terminal.Detail(cp.Name, "skipped")
		case StatusWarning:
			terminal.Detail(cp.Name, fmt.Sprintf("%s (warning)", terminal.Mark(true)))
		default:
			terminal.Detail(cp.Name, terminal.Mark(cp.Status == StatusPassed))
		}
	}
	if out := report.Checkpoint(StepOutput); out != nil && (out.Status == StatusPassed || out.Status == StatusWarning) {
		terminal.Detail("Total output files", fmt.Sprintf("%d", report.OutputEntries))
	}
	terminal.Divider()
	if report.Success {
		terminal.Success("Smoke test completed successfully")
		return
	}
	terminal.Error("Smoke test failed")
}
