package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/history"
	mcpserver "github.com/me-e6/pengine/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing question answering, query analysis and dataset search tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		database, err := db.Open(historyDBPath(a.cfg))
		if err != nil {
			return err
		}
		defer database.Close()

		if a.store.Count() == 0 {
			a.logger.Warn("knowledge store is empty; run `pengine ingest` first")
		}

		mcpserver.Version = Version

		// Stdout carries MCP protocol messages; the logger writes to stderr.
		a.logger.Info("pengine MCP server started on stdio", zap.Int("datasets", a.store.Count()))

		srv := mcpserver.NewServer(a.engine, a.retriever, history.NewStore(database), a.logger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
