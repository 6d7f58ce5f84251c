package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/models"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	apiURL     string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sphere",
		Short: "SynergySphere - projects and tasks from the terminal",
		Long: `sphere is a client for the SynergySphere team collaboration API.
It lists, searches, creates and edits projects and tasks, and can run a
local development server that speaks the same REST contract.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// No RunE - defaults to showing help when no subcommand is provided
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", "", "API server address (overrides config and $SPHERE_API)")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.config/sphere/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newResourceCmd(opts, models.KindProject),
		newResourceCmd(opts, models.KindTask),
		newTUICmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", api.UserMessage(err))
		os.Exit(1)
	}
}
