package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/devserver"
	"github.com/synergysphere/sphere/internal/logging"
	"github.com/synergysphere/sphere/internal/store"
)

// shutdownTimeout bounds graceful shutdown of the development server.
const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listenAddr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local development server",
		Long: `Starts a development server implementing the SynergySphere REST API
(users, projects, tasks) backed by SQLite, for use with the other commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.Listen = listenAddr
			}
			if dbPath != "" {
				cfg.Server.DB = dbPath
			}

			logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			logger.Info("starting development server", "listen", cfg.Server.Listen, "db", cfg.Server.DB)

			s, err := store.New(cfg.Server.DB)
			if err != nil {
				return err
			}

			tokens, err := devserver.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
			if err != nil {
				s.Close()
				return err
			}
			if cfg.Server.JWTSecret == "" {
				logger.Warn("no jwt_secret configured, tokens will not survive a restart")
			}

			service := devserver.NewService(s, tokens)
			server := devserver.NewServer(service, cfg.Server.Listen, logger)

			// Set up signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			serverErr := make(chan error, 1)
			go func() {
				err := server.Start()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			select {
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", "signal", sig.String())
			case err := <-serverErr:
				if err != nil {
					logger.Error("server error", "error", err)
					s.Close()
					return err
				}
			case <-cmd.Context().Done():
				logger.Info("context cancelled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			if err := s.Close(); err != nil {
				logger.Error("database close error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config, 127.0.0.1:5000)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (default from config)")
	return cmd
}
