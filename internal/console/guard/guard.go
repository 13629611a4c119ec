// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard gates protected console views on the session state.

The decision is a pure function of the store snapshot and the required roles:

 1. Loading: render a placeholder and make no redirect decision yet.
 2. Anonymous: redirect to the login destination.
 3. Missing every required role (super_admin bypasses): redirect to unauthorized.
 4. Otherwise render the protected content.

[Guard.Watch] re-evaluates on every store change, so a view follows logins,
logouts and session expiry without polling.
*/
package guard

import (
	"context"
	"fmt"
	"slices"

	"github.com/taibuivan/foundation-console/internal/console/session"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/internal/platform/sec"
)

// # Outcome

// Decision is what a protected view should do.
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionRedirect
	DecisionRender
)

func (decision Decision) String() string {
	switch decision {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return fmt.Sprintf("decision(%d)", int(decision))
	}
}

// Outcome is a guard decision. Destination is set only for DecisionRedirect.
type Outcome struct {
	Decision    Decision
	Destination string
}

func (outcome Outcome) String() string {
	if outcome.Decision == DecisionRedirect {
		return "redirect " + outcome.Destination
	}
	return outcome.Decision.String()
}

var (
	loading      = Outcome{Decision: DecisionLoading}
	render       = Outcome{Decision: DecisionRender}
	toLogin      = Outcome{Decision: DecisionRedirect, Destination: constants.DestinationLogin}
	unauthorized = Outcome{Decision: DecisionRedirect, Destination: constants.DestinationUnauthorized}
)

// # Evaluation

// Evaluate decides what a view requiring any of required should do in state.
// An empty required list only demands authentication.
func Evaluate(state session.State, required []string) Outcome {
	if state.IsLoading() {
		return loading
	}
	if !state.IsAuthenticated() {
		return toLogin
	}
	if !sec.HasAnyRole(state.Session.Roles, required) {
		return unauthorized
	}
	return render
}

// # Guard

// Source is the part of the session store a guard observes.
type Source interface {
	Snapshot() session.State
	Subscribe() (<-chan session.State, func())
}

// Verifier asks the backend whether the credential is still valid.
type Verifier interface {
	VerifyToken(ctx context.Context) bool
}

// Guard binds a set of required roles.
type Guard struct {
	required []string
}

// New builds a [Guard] admitting any holder of one of required.
func New(required ...string) *Guard {
	return &Guard{required: slices.Clone(required)}
}

// Required returns the roles this guard admits.
func (guard *Guard) Required() []string {
	return slices.Clone(guard.required)
}

// Evaluate applies the guard to state.
func (guard *Guard) Evaluate(state session.State) Outcome {
	return Evaluate(state, guard.required)
}

// Verify evaluates source and, when the local answer is render, confirms the
// credential with the backend. A rejected credential redirects to login.
func (guard *Guard) Verify(ctx context.Context, source Source, verifier Verifier) Outcome {
	outcome := guard.Evaluate(source.Snapshot())
	if outcome.Decision != DecisionRender {
		return outcome
	}
	if !verifier.VerifyToken(ctx) {
		return toLogin
	}
	return render
}

/*
Watch evaluates the guard against every state source publishes.

The returned channel emits an outcome whenever it differs from the previous
one and is closed when ctx is done.
*/
func (guard *Guard) Watch(ctx context.Context, source Source) <-chan Outcome {
	states, unsubscribe := source.Subscribe()
	outcomes := make(chan Outcome, 1)

	go func() {
		defer close(outcomes)
		defer unsubscribe()

		var last *Outcome
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-states:
				if !ok {
					return
				}

				outcome := guard.Evaluate(state)
				if last != nil && *last == outcome {
					continue
				}
				last = &outcome

				select {
				case outcomes <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return outcomes
}
