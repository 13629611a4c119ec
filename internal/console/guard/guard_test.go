// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/foundation-console/internal/console/httpclient"
	"github.com/taibuivan/foundation-console/internal/console/session"
)

func authenticated(roles ...string) session.State {
	return session.State{
		Status:  session.StatusAuthenticated,
		Session: &session.Session{ID: "user-1", Email: "a@b.com", Roles: roles},
	}
}

/*
TestEvaluate covers the loading, login, unauthorized and render outcomes.
*/
func TestEvaluate(t *testing.T) {
	admins := []string{"super_admin", "general_admin"}

	tests := []struct {
		name     string
		state    session.State
		required []string
		want     Outcome
	}{
		{"loading_never_redirects", session.State{Status: session.StatusLoading}, admins, loading},
		{"loading_with_stale_session", session.State{Status: session.StatusLoading, Session: &session.Session{ID: "user-1"}}, nil, loading},
		{"anonymous_to_login", session.State{Status: session.StatusAnonymous}, nil, toLogin},
		{"entrepreneur_unauthorized", authenticated("entrepreneur"), admins, unauthorized},
		{"no_roles_unauthorized", authenticated(), []string{"fair_admin"}, unauthorized},
		{"general_admin_admitted", authenticated("general_admin"), admins, render},
		{"super_admin_bypass", authenticated("super_admin"), []string{"fair_admin"}, render},
		{"super_admin_any_guard", authenticated("super_admin"), []string{"content_admin", "project_admin"}, render},
		{"authentication_only", authenticated("entrepreneur"), nil, render},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.state, tt.required))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "loading", loading.String())
	assert.Equal(t, "render", render.String())
	assert.Equal(t, "redirect /unauthorized", unauthorized.String())
}

// # Store-driven tests

type doerFunc func(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error)

func (f doerFunc) Do(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error) {
	return f(ctx, request)
}

// newStore answers login with a session holding roles; every other call fails.
func newStore(t *testing.T, roles ...string) *session.Store {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": map[string]any{
		"user": map[string]any{"id": "user-1", "email": "a@b.com", "roles": roles},
	}})
	require.NoError(t, err)

	return session.New(doerFunc(func(_ context.Context, request *httpclient.Request) (*httpclient.Response, error) {
		if request.Path == "/auth/login" {
			return &httpclient.Response{Status: http.StatusOK, Body: body}, nil
		}
		return nil, &httpclient.NetworkError{Method: request.Method, Path: request.Path, Err: errors.New("offline")}
	}), session.Options{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))})
}

func next(t *testing.T, outcomes <-chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome := <-outcomes:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome emitted")
		return Outcome{}
	}
}

/*
TestGuard_Watch follows the store through login, logout and invalidation.
*/
func TestGuard_Watch(t *testing.T) {
	store := newStore(t, "fair_admin")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes := New("fair_admin").Watch(ctx, store)
	assert.Equal(t, loading, next(t, outcomes))

	_, err := store.Login(ctx, session.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, render, next(t, outcomes))

	store.Logout(ctx)
	assert.Equal(t, toLogin, next(t, outcomes))

	store.Invalidate()
	assert.Equal(t, loading, next(t, outcomes))

	cancel()
	for range outcomes {
	}
}

/*
TestGuard_WatchUnauthorized redirects a logged-in user lacking the role.
*/
func TestGuard_WatchUnauthorized(t *testing.T) {
	store := newStore(t, "entrepreneur")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes := New("super_admin", "general_admin").Watch(ctx, store)
	assert.Equal(t, loading, next(t, outcomes))

	_, err := store.Login(ctx, session.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, unauthorized, next(t, outcomes))
}

type verifierFunc func(ctx context.Context) bool

func (f verifierFunc) VerifyToken(ctx context.Context) bool { return f(ctx) }

/*
TestGuard_Verify consults the backend only when the local answer is render.
*/
func TestGuard_Verify(t *testing.T) {
	store := newStore(t, "fair_admin")
	ctx := context.Background()
	guard := New("fair_admin")

	calls := 0
	rejecting := verifierFunc(func(context.Context) bool { calls++; return false })

	assert.Equal(t, loading, guard.Verify(ctx, store, rejecting))
	assert.Equal(t, 0, calls)

	_, err := store.Login(ctx, session.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	assert.Equal(t, toLogin, guard.Verify(ctx, store, rejecting))
	assert.Equal(t, 1, calls)
	assert.Equal(t, render, guard.Verify(ctx, store, verifierFunc(func(context.Context) bool { return true })))
}

/*
TestMiddleware maps outcomes onto HTTP responses.
*/
func TestMiddleware(t *testing.T) {
	store := newStore(t, "entrepreneur")
	protected := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	serve := func(required ...string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		Middleware(store, required...)(protected).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/fairs", nil))
		return recorder
	}

	loadingResponse := serve()
	assert.Equal(t, http.StatusServiceUnavailable, loadingResponse.Code)
	assert.Equal(t, "1", loadingResponse.Header().Get("Retry-After"))

	store.Logout(context.Background())
	anonymous := serve()
	assert.Equal(t, http.StatusSeeOther, anonymous.Code)
	assert.Equal(t, "/login", anonymous.Header().Get("Location"))

	_, err := store.Login(context.Background(), session.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	denied := serve("general_admin")
	assert.Equal(t, http.StatusSeeOther, denied.Code)
	assert.Equal(t, "/unauthorized", denied.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, serve("entrepreneur").Code)
}
