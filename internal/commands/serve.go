package commands

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/preview"
	"github.com/moasq/distcheck/internal/terminal"
)

var serveFlags struct {
	dir        string
	configPath string
	host       string
	port       int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the build output locally",
	Long:  "Serve the build output directory over HTTP with JavaScript modules sent as application/javascript. Stops on Ctrl+C.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveFlags.dir, serveFlags.configPath)
		if err != nil {
			return err
		}
		port := serveFlags.port
		if port == 0 {
			port = cfg.ScaffoldPort
		}

		addr := net.JoinHostPort(serveFlags.host, strconv.Itoa(port))
		srv, err := preview.NewServer(cfg.Path(cfg.OutputDir), addr, logger)
		if err != nil {
			return fmt.Errorf("%w (run `distcheck` to build first)", err)
		}

		terminal.Success(fmt.Sprintf("Serving %s/ at %s", cfg.OutputDir, srv.URL()))
		terminal.Info("Press Ctrl+C to stop")
		return srv.Serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.dir, "dir", "d", ".", "Project root directory")
	serveCmd.Flags().StringVarP(&serveFlags.configPath, "config", "c", "", "Config file (default <dir>/"+config.FileName+")")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "127.0.0.1", "Address to bind")
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "Port to listen on (default scaffold_port, 4173)")
}
