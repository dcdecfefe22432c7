package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/history"
	"github.com/me-e6/pengine/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API",
	Long: `Starts the pengine HTTP server: question answering (JSON and a
websocket stage stream), query history review and dataset management.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		dbPath := historyDBPath(a.cfg)
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		schema, err := database.SchemaVersion()
		if err != nil {
			return fmt.Errorf("reading database schema: %w", err)
		}

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			PersistDir:     vectorDir(a.cfg),
		}, server.Deps{
			Engine:    a.engine,
			History:   history.NewStore(database),
			Store:     a.store,
			Retriever: a.retriever,
			Tagger:    a.analyzer,
		}, a.logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("server shutdown", zap.Error(err))
			}
		}()

		a.logger.Info("pengine server starting",
			zap.String("version", Version),
			zap.Int("port", port),
			zap.String("database", dbPath),
			zap.Int("schema_version", schema),
			zap.Int("datasets", a.store.Count()),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
