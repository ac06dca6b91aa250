package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/runner"
	"github.com/moasq/distcheck/internal/secrets"
	"github.com/moasq/distcheck/internal/smoke"
	"github.com/moasq/distcheck/internal/storage"
	"github.com/moasq/distcheck/internal/terminal"
)

// checkOptions holds the flags shared by `distcheck` and `distcheck check`.
type checkOptions struct {
	dir          string
	configPath   string
	json         bool
	allMissing   bool
	skipInstall  bool
	keepScaffold bool
	timeout      time.Duration
}

var checkFlags checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the deployment smoke test",
	Long: "Run the six smoke checkpoints in order and stop at the first hard failure. " +
		"Exits 0 when every checkpoint passes (warnings allowed) and 1 otherwise.",
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func addCheckFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&checkFlags.dir, "dir", "d", ".", "Project root directory")
	f.StringVarP(&checkFlags.configPath, "config", "c", "", "Config file (default <dir>/"+config.FileName+")")
	f.BoolVar(&checkFlags.json, "json", false, "Print the final report as JSON on stdout")
	f.BoolVar(&checkFlags.allMissing, "all-missing", false, "Report every missing required file instead of the first")
	f.BoolVar(&checkFlags.skipInstall, "skip-install", false, "Skip the dependency install checkpoint")
	f.BoolVar(&checkFlags.keepScaffold, "keep-scaffold", false, "Leave the server scaffold on disk")
	f.DurationVar(&checkFlags.timeout, "timeout", 0, "Per-command timeout, e.g. 10m (0 waits for completion)")
	_ = f.MarkHidden("keep-scaffold")
}

func init() {
	addCheckFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(checkFlags.dir, checkFlags.configPath)
	if err != nil {
		return err
	}
	if checkFlags.timeout > 0 {
		cfg.CommandTimeout = config.Duration(checkFlags.timeout)
	}

	if checkFlags.json {
		// stdout carries the report.
		terminal.SetOutput(os.Stderr)
	} else {
		terminal.Banner(Version)
	}

	var env []string
	store, err := openSecrets()
	if err == nil {
		env, err = secrets.TokenEnv(store, cfg.Registry)
	}
	if err != nil {
		logger.Warn("registry token unavailable", zap.Error(err))
	}

	r := runner.New(runner.Opts{
		Env:     env,
		Timeout: cfg.Timeout(),
		Logger:  logger,
	})

	report, runErr := smoke.New(cfg, r, smoke.Options{
		AllMissing:   checkFlags.allMissing,
		SkipInstall:  checkFlags.skipInstall,
		KeepScaffold: checkFlags.keepScaffold,
		Logger:       logger,
	}).Run(cmd.Context())

	// A mistyped --dir must not be created just to hold history.
	if cfg.ProjectExists() {
		if err := storage.NewRunStore(cfg.StateDir(), cfg.HistoryLimit).Append(report); err != nil {
			logger.Warn("failed to record run", zap.Error(err))
		}
	}

	if checkFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	}

	return runErr
}
