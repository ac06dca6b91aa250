// Package mcpserver exposes the smoke test as MCP tools over stdio so agents
// can verify a front-end build before deploying it.
package mcpserver

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/moasq/distcheck/internal/terminal"
)

// Run starts the distcheck MCP server over stdio.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, logger *zap.Logger) error {
	// stdout carries the protocol; narration goes to stderr.
	terminal.SetOutput(os.Stderr)

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "distcheck",
			Version: version,
		},
		nil,
	)

	h := &handlers{logger: logger}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_smoke_check",
		Description: "Run the full deployment smoke test for a front-end project: required files, .env bootstrap, dependency install, production build, build output inspection and server scaffold. Returns the run report. Example: run_smoke_check(dir: \"/home/me/site\")",
	}, h.runSmokeCheck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_output",
		Description: "Inspect an existing build output directory without running any command. Reports the entry count and whether the entry HTML embeds a Content-Security-Policy meta tag.",
	}, h.inspectOutput)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "last_run",
		Description: "Return the most recent smoke test report recorded for a project. Read-only.",
	}, h.lastRun)

	return server.Run(ctx, &mcp.StdioTransport{})
}
