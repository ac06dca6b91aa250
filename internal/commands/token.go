package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/secrets"
	"github.com/moasq/distcheck/internal/terminal"
)

var tokenDir string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the package registry token",
	Long:  "Store a registry token in the OS keychain (or a 0600 file when no keychain is available). The token reaches install and build commands as NPM_TOKEN.",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the registry token (reads stdin when piped)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := loadTokenStore()
		if err != nil {
			return err
		}
		value, err := terminal.ReadSecret(fmt.Sprintf("Token for %s:", cfg.Registry), os.Stdin)
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("token must not be empty")
		}
		if err := store.Set(secrets.TokenKey(cfg.Registry), value); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		terminal.Success(fmt.Sprintf("Stored token for %s", cfg.Registry))
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored registry token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := loadTokenStore()
		if err != nil {
			return err
		}
		if err := store.Delete(secrets.TokenKey(cfg.Registry)); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		terminal.Success(fmt.Sprintf("Removed token for %s", cfg.Registry))
		return nil
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a registry token is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := loadTokenStore()
		if err != nil {
			return err
		}
		env, err := secrets.TokenEnv(store, cfg.Registry)
		if err != nil {
			return err
		}
		terminal.Detail("Registry", cfg.Registry)
		terminal.Detail("Token", terminal.Mark(len(env) > 0))
		return nil
	},
}

func loadTokenStore() (*config.Config, secrets.SecretStore, error) {
	cfg, err := config.Load(tokenDir, "")
	if err != nil {
		return nil, nil, err
	}
	store, err := openSecrets()
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// openSecrets returns the token store. Its file fallback lives in the
// per-user config directory so tokens never land in a project tree.
func openSecrets() (secrets.SecretStore, error) {
	dir, err := config.SecretsDir()
	if err != nil {
		return nil, err
	}
	return secrets.New(dir), nil
}

func init() {
	tokenCmd.PersistentFlags().StringVarP(&tokenDir, "dir", "d", ".", "Project root directory")

	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
	tokenCmd.AddCommand(tokenStatusCmd)
}
