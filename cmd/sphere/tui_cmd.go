package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/tui"
)

// healthTimeout bounds the health check run before the TUI starts.
const healthTimeout = 2 * time.Second

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.requireSession()
			if err != nil {
				return err
			}

			// A dead server is reported up front rather than as two failed tabs.
			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			ok, err := e.client.CheckHealth(ctx)
			cancel()
			if err != nil || !ok {
				e.logger.Warn("health check failed", "api", e.cfg.APIURL, "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not healthy, lists may fail to load\n", e.cfg.APIURL)
			}

			app, err := tui.New(e.client, s, tui.WithLogger(e.logger))
			if err != nil {
				return err
			}
			if err := app.Run(); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}
}
