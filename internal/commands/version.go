package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/terminal"
	"github.com/moasq/distcheck/internal/update"
)

var versionCheckFlag bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the distcheck version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "distcheck %s\n", Version)
		if !versionCheckFlag {
			return nil
		}

		rel, err := update.Latest(cmd.Context(), update.Owner, update.Repo, Version)
		if err != nil {
			logger.Debug("update check failed", zap.Error(err))
			terminal.Warning("Could not check for updates")
			return nil
		}
		if rel.Newer() {
			terminal.Warning(fmt.Sprintf("distcheck %s is available (you have %s)", rel.Latest, rel.Current))
			terminal.Detail("Release", rel.URL)
			return nil
		}
		terminal.Success("distcheck is up to date")
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheckFlag, "check", false, "Check GitHub for a newer release")
}
