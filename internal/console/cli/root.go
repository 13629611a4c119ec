// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli implements the foundation-console command line.

Commands drive the same session stack a browser build would use, which makes
them useful for smoke-testing a deployment's auth flow:

  - whoami: log in, print identity and visible modules, log out.
  - probe:  log in, fire N concurrent protected requests, print refresh stats.
  - guard:  evaluate a route guard for the given roles.
*/
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/foundation-console/internal/console"
	"github.com/taibuivan/foundation-console/internal/console/navigate"
	"github.com/taibuivan/foundation-console/internal/console/session"
	"github.com/taibuivan/foundation-console/internal/platform/config"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	envFile  string
	apiURL   string
	email    string
	password string
	debug    bool
}

// runtime is what a command needs once flags and config are resolved.
type runtime struct {
	cfg       *config.Console
	logger    *slog.Logger
	navigator *navigate.Recorder
	console   *console.Console
}

// NewRootCommand builds the command tree. Logs go to logOutput.
func NewRootCommand(logOutput io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "foundation-console",
		Short:         "Drive the foundation console session stack from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file read before the environment")
	flags.StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides CONSOLE_API_URL)")
	flags.StringVar(&opts.email, "email", "", "login email (overrides CONSOLE_EMAIL)")
	flags.StringVar(&opts.password, "password", "", "login password (overrides CONSOLE_PASSWORD)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	setup := func() (*runtime, error) {
		return opts.resolve(logOutput)
	}

	root.AddCommand(
		newWhoamiCommand(setup),
		newProbeCommand(setup),
		newGuardCommand(setup),
	)
	return root
}

// resolve loads config, applies flag overrides and wires the console.
func (opts *rootOptions) resolve(logOutput io.Writer) (*runtime, error) {
	cfg, err := config.LoadConsole(opts.envFile)
	if err != nil {
		return nil, err
	}

	if opts.apiURL != "" {
		cfg.APIBaseURL = opts.apiURL
	}
	if opts.email != "" {
		cfg.Email = opts.email
	}
	if opts.password != "" {
		cfg.Password = opts.password
	}
	if opts.debug {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{Level: level})).
		With(slog.String(constants.FieldApp, constants.ConsoleName))

	navigator := navigate.NewRecorder(logger)
	wired, err := console.New(cfg, logger, navigator)
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, navigator: navigator, console: wired}, nil
}

// login authenticates with the configured operator credentials.
func (rt *runtime) login(ctx context.Context) (*session.Session, error) {
	return rt.console.Store.Login(ctx, session.Credentials{
		Email:    rt.cfg.Email,
		Password: rt.cfg.Password,
	})
}
