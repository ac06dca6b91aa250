package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/runner"
	"github.com/moasq/distcheck/internal/secrets"
	"github.com/moasq/distcheck/internal/smoke"
	"github.com/moasq/distcheck/internal/storage"
)

type handlers struct {
	logger *zap.Logger
	// newRunner builds the command runner; tests replace it.
	newRunner func(cfg *config.Config, env []string) smoke.CommandRunner
}

type dirInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"Project root directory. Defaults to the server working directory."`
}

type runInput struct {
	Dir         string `json:"dir,omitempty" jsonschema:"Project root directory. Defaults to the server working directory."`
	SkipInstall bool   `json:"skip_install,omitempty" jsonschema:"Skip the dependency install step when dependencies are already present."`
}

type reportOutput struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
	Report  string `json:"report,omitempty"`
}

type inspectOutput struct {
	Entries        int  `json:"entries"`
	EntryFound     bool `json:"entry_found"`
	PolicyConflict bool `json:"policy_conflict"`
}

func (h *handlers) loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	return config.Load(dir, "")
}

func (h *handlers) commandRunner(cfg *config.Config) smoke.CommandRunner {
	var env []string
	dir, err := config.SecretsDir()
	if err == nil {
		env, err = secrets.TokenEnv(secrets.New(dir), cfg.Registry)
	}
	if err != nil {
		h.logger.Warn("registry token unavailable", zap.Error(err))
	}
	if h.newRunner != nil {
		return h.newRunner(cfg, env)
	}
	return runner.New(runner.Opts{Env: env, Timeout: cfg.Timeout(), Logger: h.logger, Quiet: true})
}

func (h *handlers) runSmokeCheck(ctx context.Context, req *mcp.CallToolRequest, input runInput) (*mcp.CallToolResult, reportOutput, error) {
	cfg, err := h.loadConfig(input.Dir)
	if err != nil {
		return nil, reportOutput{}, err
	}

	report, runErr := smoke.New(cfg, h.commandRunner(cfg), smoke.Options{
		SkipInstall: input.SkipInstall,
		Logger:      h.logger,
	}).Run(ctx)

	if cfg.ProjectExists() {
		if err := storage.NewRunStore(cfg.StateDir(), cfg.HistoryLimit).Append(report); err != nil {
			h.logger.Warn("failed to record run", zap.Error(err))
		}
	}

	out, err := toOutput(report)
	if err != nil {
		return nil, reportOutput{}, err
	}
	if runErr != nil {
		out.Summary = "Smoke test failed: " + runErr.Error()
	}
	return nil, out, nil
}

func (h *handlers) inspectOutput(ctx context.Context, req *mcp.CallToolRequest, input dirInput) (*mcp.CallToolResult, inspectOutput, error) {
	cfg, err := h.loadConfig(input.Dir)
	if err != nil {
		return nil, inspectOutput{}, err
	}
	out, err := smoke.InspectOutput(cfg.Path(cfg.OutputDir), cfg.EntryFile, cfg.PolicyMarker, cfg.TagMarker)
	if err != nil {
		return nil, inspectOutput{}, err
	}
	return nil, inspectOutput{
		Entries:        out.Entries,
		EntryFound:     out.EntryFound,
		PolicyConflict: out.PolicyConflict,
	}, nil
}

func (h *handlers) lastRun(ctx context.Context, req *mcp.CallToolRequest, input dirInput) (*mcp.CallToolResult, reportOutput, error) {
	cfg, err := h.loadConfig(input.Dir)
	if err != nil {
		return nil, reportOutput{}, err
	}
	last, err := storage.NewRunStore(cfg.StateDir(), cfg.HistoryLimit).Last()
	if err != nil {
		return nil, reportOutput{}, err
	}
	if last == nil {
		return nil, reportOutput{Summary: "No smoke test has been recorded for this project"}, nil
	}
	out, err := toOutput(last)
	return nil, out, err
}

func toOutput(report *smoke.Report) (reportOutput, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return reportOutput{}, fmt.Errorf("failed to encode report: %w", err)
	}
	summary := fmt.Sprintf("Smoke test passed: %d output files", report.OutputEntries)
	if !report.Success {
		summary = "Smoke test failed"
		if report.Error != "" {
			summary += ": " + report.Error
		}
	}
	if len(report.Warnings) > 0 {
		summary += fmt.Sprintf(" (%d warnings)", len(report.Warnings))
	}
	return reportOutput{Success: report.Success, Summary: summary, Report: string(data)}, nil
}
