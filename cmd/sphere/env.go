package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/config"
	"github.com/synergysphere/sphere/internal/localstore"
	"github.com/synergysphere/sphere/internal/logging"
	"github.com/synergysphere/sphere/internal/session"
)

// env is what a client command needs: configuration, a logger writing to
// the data directory, the persisted session and an API client carrying
// its token.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Manager
	client   *api.Client

	closers []io.Closer
}

// loadConfig resolves configuration from --config, then applies --api and
// --log-level on top.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openEnv prepares a client command. The caller must Close the result.
func openEnv(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	logger, logFile, err := logging.OpenFile(cfg.LogFile(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.closers = append(e.closers, logFile)

	local, err := localstore.New(filepath.Clean(cfg.ClientDB()))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, local)
	e.sessions = session.NewManager(local)

	current, err := e.sessions.Current()
	if err != nil {
		e.Close()
		return nil, err
	}
	e.client = api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger),
		api.WithToken(current.Token),
	)
	logger.Debug("command started", "command", cmd.CommandPath(), "api", cfg.APIURL)
	return e, nil
}

// requireSession returns the persisted session or session.ErrNotAuthenticated.
func (e *env) requireSession() (session.Session, error) {
	s, err := e.sessions.Require()
	if errors.Is(err, session.ErrNotAuthenticated) {
		return s, fmt.Errorf("%w: run 'sphere login' first", err)
	}
	return s, err
}

// Close releases the client database and log file, newest first.
func (e *env) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}
