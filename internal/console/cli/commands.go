// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/taibuivan/foundation-console/internal/console/guard"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

type setupFunc func() (*runtime, error)

var errMissingCredentials = errors.New("cli: set --email/--password or CONSOLE_EMAIL/CONSOLE_PASSWORD")

// # whoami

func newWhoamiCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Log in, print the current identity and visible modules, then log out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			if rt.cfg.Email == "" || rt.cfg.Password == "" {
				return errMissingCredentials
			}

			ctx := cmd.Context()
			if _, err := rt.login(ctx); err != nil {
				return err
			}
			defer rt.console.Store.Logout(ctx)

			current, err := rt.console.Store.CheckAuth(ctx)
			if err != nil {
				return err
			}
			if current == nil {
				return errors.New("cli: backend did not confirm the session")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %s\n", current.ID)
			fmt.Fprintf(out, "name:     %s\n", current.DisplayName)
			fmt.Fprintf(out, "email:    %s (verified: %t)\n", current.Email, current.EmailVerified)
			fmt.Fprintf(out, "roles:    %s\n", strings.Join(current.Roles, ", "))
			fmt.Fprintf(out, "modules:  %s\n", strings.Join(rt.console.Store.Modules(), ", "))
			return nil
		},
	}
}

// # probe

func newProbeCommand(setup setupFunc) *cobra.Command {
	var requests int
	var path string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fire concurrent protected requests and report refresh coordination stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if requests < 1 {
				return fmt.Errorf("cli: --requests must be at least 1, got %d", requests)
			}

			rt, err := setup()
			if err != nil {
				return err
			}
			if rt.cfg.Email == "" || rt.cfg.Password == "" {
				return errMissingCredentials
			}

			ctx := cmd.Context()
			if _, err := rt.login(ctx); err != nil {
				return err
			}
			defer rt.console.Store.Logout(ctx)

			succeeded, failed := probe(ctx, rt, path, requests)
			stats := rt.console.Coordinator.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "requests:          %d ok, %d failed\n", succeeded, failed)
			fmt.Fprintf(out, "refresh flights:   %d started, %d succeeded, %d failed\n",
				stats.FlightsStarted, stats.FlightsSucceeded, stats.FlightsFailed)
			fmt.Fprintf(out, "queued / replayed: %d / %d\n", stats.RequestsQueued, stats.RequestsReplayed)
			fmt.Fprintf(out, "redirects:         %s\n", strings.Join(rt.navigator.History(), ", "))

			if failed > 0 {
				return fmt.Errorf("cli: %d of %d requests failed", failed, requests)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&requests, "requests", "n", 10, "number of concurrent requests")
	cmd.Flags().StringVar(&path, "path", constants.PathProfile, "protected path to request")
	return cmd
}

// probe issues n concurrent GETs of path and counts the outcomes.
func probe(ctx context.Context, rt *runtime, path string, n int) (succeeded, failed int64) {
	var ok, ko atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rt.console.Client.Get(ctx, path); err != nil {
				rt.logger.WarnContext(ctx, "probe_request_failed", "error", err)
				ko.Add(1)
				return
			}
			ok.Add(1)
		}()
	}
	wg.Wait()

	return ok.Load(), ko.Load()
}

// # guard

func newGuardCommand(setup setupFunc) *cobra.Command {
	var roles []string
	var verify bool

	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Evaluate a route guard requiring any of --role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store := rt.console.Store

			if rt.cfg.Email != "" && rt.cfg.Password != "" {
				if _, err := rt.login(ctx); err != nil {
					return err
				}
				defer store.Logout(ctx)
			} else if _, err := store.CheckAuth(ctx); err != nil {
				return err
			}

			routeGuard := guard.New(roles...)
			outcome := routeGuard.Evaluate(store.Snapshot())
			if verify {
				outcome = routeGuard.Verify(ctx, store, store)
			}

			if outcome.Decision == guard.DecisionRedirect {
				rt.console.Navigator.Navigate(outcome.Destination)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "required: [%s]\noutcome:  %s\n", strings.Join(roles, ", "), outcome)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "required role (repeatable); any one admits")
	cmd.Flags().BoolVar(&verify, "verify", false, "confirm the credential with the backend")
	return cmd
}
