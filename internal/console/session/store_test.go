// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/foundation-console/internal/console/httpclient"
	"github.com/taibuivan/foundation-console/internal/console/navigate"
	"github.com/taibuivan/foundation-console/internal/console/refresh"
)

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// # Fake backend

type backend struct {
	refreshCalls  atomic.Int32
	logoutStatus  atomic.Int32
	refreshStatus atomic.Int32
	roles         []string
}

func (b *backend) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	profile := map[string]any{
		"id":             "user-1",
		"display_name":   "Ana",
		"email":          "a@b.com",
		"roles":          b.roles,
		"email_verified": true,
	}

	switch request.URL.Path {
	case "/api/v1/auth/login":
		var credentials Credentials
		_ = json.NewDecoder(request.Body).Decode(&credentials)
		if credentials.Email != "a@b.com" || credentials.Password != "Secret123!" {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Invalid login credentials", "code": "UNAUTHORIZED"})
			return
		}
		http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: "token-1", Path: "/"})
		writeJSON(writer, http.StatusOK, map[string]any{"data": map[string]any{"user": profile}})

	case "/api/v1/auth/profile", "/api/v1/fairs":
		if cookie, err := request.Cookie("access_token"); err != nil || cookie.Value != "token-1" {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}
		writeJSON(writer, http.StatusOK, map[string]any{"data": profile})

	case "/api/v1/auth/refresh":
		b.refreshCalls.Add(1)
		writeJSON(writer, int(b.refreshStatus.Load()), map[string]string{"error": "Invalid or expired refresh token", "code": "UNAUTHORIZED"})

	case "/api/v1/auth/verify-token":
		if cookie, err := request.Cookie("access_token"); err != nil || cookie.Value != "token-1" {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}
		writer.WriteHeader(http.StatusNoContent)

	case "/api/v1/auth/logout":
		http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
		writer.WriteHeader(int(b.logoutStatus.Load()))

	default:
		writer.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}

type harness struct {
	backend     *backend
	server      *httptest.Server
	client      *httpclient.Client
	coordinator *refresh.Coordinator
	navigator   *navigate.Recorder
	store       *Store
}

func newHarness(t *testing.T, roles ...string) *harness {
	t.Helper()

	h := &harness{backend: &backend{roles: roles}, navigator: navigate.NewRecorder(nil)}
	h.backend.logoutStatus.Store(http.StatusNoContent)
	h.backend.refreshStatus.Store(http.StatusUnauthorized)

	h.server = httptest.NewServer(h.backend)
	t.Cleanup(h.server.Close)

	client, err := httpclient.New(httpclient.Options{BaseURL: h.server.URL + "/api/v1", Logger: discardLogger})
	require.NoError(t, err)
	h.client = client

	h.coordinator = refresh.Install(client, refresh.Options{Navigator: h.navigator, Logger: discardLogger})
	h.store = New(client, Options{Idler: h.coordinator, Logger: discardLogger})
	h.coordinator.OnExpired(h.store.Expire)
	return h
}

// # Scenarios

/*
TestStore_Login stores the session and lets protected calls through without a refresh.
*/
func TestStore_Login(t *testing.T) {
	h := newHarness(t, "fair_admin")
	ctx := context.Background()
	assert.True(t, h.store.IsLoading())

	current, err := h.store.Login(ctx, Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", current.Email)
	assert.Equal(t, "a@b.com", h.store.Current().Email)
	assert.Equal(t, StatusAuthenticated, h.store.Status())

	_, err = h.client.Get(ctx, "/fairs")
	require.NoError(t, err)
	assert.Equal(t, int32(0), h.backend.refreshCalls.Load())

	assert.Equal(t, []string{"dashboard", "profile", "fairs", "enrollments"}, h.store.Modules())
}

/*
TestStore_LoginRejected wraps the HTTP failure in an AuthError and never refreshes.
*/
func TestStore_LoginRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.store.Login(context.Background(), Credentials{Email: "a@b.com", Password: "wrong"})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid login credentials", httpErr.Message)

	assert.Nil(t, h.store.Current())
	assert.Equal(t, int32(0), h.backend.refreshCalls.Load())
}

/*
TestStore_LogoutAlwaysClears clears the session whatever the backend answers.
*/
func TestStore_LogoutAlwaysClears(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"backend_ok", func(*harness) {}},
		{"backend_error", func(h *harness) { h.backend.logoutStatus.Store(http.StatusInternalServerError) }},
		{"backend_down", func(h *harness) { h.server.Close() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			var cleared atomic.Int32
			h.store.RegisterCache(CacheFunc(func() { cleared.Add(1) }))

			_, err := h.store.Login(ctx, Credentials{Email: "a@b.com", Password: "Secret123!"})
			require.NoError(t, err)

			tt.setup(h)
			h.store.Logout(ctx)

			assert.Nil(t, h.store.Current())
			assert.Equal(t, StatusAnonymous, h.store.Status())
			assert.Equal(t, int32(1), cleared.Load())
		})
	}
}

/*
TestStore_CheckAuth maps backend answers to statuses.
*/
func TestStore_CheckAuth(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		_, err := h.store.Login(ctx, Credentials{Email: "a@b.com", Password: "Secret123!"})
		require.NoError(t, err)

		current, err := h.store.CheckAuth(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", current.ID)
		assert.Equal(t, StatusAuthenticated, h.store.Status())
	})

	t.Run("rejected_means_anonymous", func(t *testing.T) {
		h := newHarness(t)

		current, err := h.store.CheckAuth(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, current)
		assert.Equal(t, StatusAnonymous, h.store.Status())

		// The 401 went through one failed refresh flight and its redirect.
		assert.Equal(t, int32(1), h.backend.refreshCalls.Load())
		assert.Equal(t, []string{"/session-expired"}, h.navigator.History())
	})

	t.Run("network_failure_returns_error", func(t *testing.T) {
		h := newHarness(t)
		h.server.Close()

		current, err := h.store.CheckAuth(context.Background())
		assert.Nil(t, current)
		assert.True(t, httpclient.IsNetwork(err))
		assert.Equal(t, StatusAnonymous, h.store.Status())
	})
}

/*
TestStore_ExpireOnRefreshFailure clears the session when the coordinator gives up.
*/
func TestStore_ExpireOnRefreshFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.store.Login(ctx, Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	// Lose the credential; the next protected call fails refresh terminally.
	h.store.Logout(ctx)
	h.store.set(StatusAuthenticated, &Session{ID: "user-1"})

	_, err = h.client.Get(ctx, "/fairs")
	var refreshErr *refresh.RefreshError
	require.ErrorAs(t, err, &refreshErr)

	assert.Nil(t, h.store.Current())
	assert.Equal(t, StatusAnonymous, h.store.Status())
}

// # Unit behaviour

type doerFunc func(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error)

func (f doerFunc) Do(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error) {
	return f(ctx, request)
}

func jsonResponse(t *testing.T, payload any) *httpclient.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": payload})
	require.NoError(t, err)
	return &httpclient.Response{Status: http.StatusOK, Body: body}
}

/*
TestStore_Invalidate drops the session without any network call.
*/
func TestStore_Invalidate(t *testing.T) {
	var calls atomic.Int32
	store := New(doerFunc(func(context.Context, *httpclient.Request) (*httpclient.Response, error) {
		calls.Add(1)
		return nil, errors.New("unexpected call")
	}), Options{Logger: discardLogger})

	store.set(StatusAuthenticated, &Session{ID: "user-1"})
	store.Invalidate()

	assert.Nil(t, store.Current())
	assert.True(t, store.IsLoading())
	assert.Equal(t, int32(0), calls.Load())
}

/*
TestStore_LogoutWaitsForRefresh orders the backend logout after the active flight.
*/
func TestStore_LogoutWaitsForRefresh(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(event string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	}

	idler := idlerFunc(func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		record("refresh_settled")
		return nil
	})
	store := New(doerFunc(func(_ context.Context, request *httpclient.Request) (*httpclient.Response, error) {
		record(request.Path)
		return nil, &httpclient.NetworkError{Method: request.Method, Path: request.Path, Err: errors.New("reset")}
	}), Options{Idler: idler, Logger: discardLogger})
	store.set(StatusAuthenticated, &Session{ID: "user-1"})

	store.Logout(context.Background())

	assert.Equal(t, []string{"refresh_settled", "/auth/logout"}, events)
	assert.Nil(t, store.Current())
}

type idlerFunc func(ctx context.Context) error

func (f idlerFunc) AwaitIdle(ctx context.Context) error { return f(ctx) }

/*
TestStore_StaleCheckDiscarded keeps a login that completed while a check was in flight.
*/
func TestStore_StaleCheckDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	store := New(doerFunc(func(_ context.Context, request *httpclient.Request) (*httpclient.Response, error) {
		switch request.Path {
		case "/auth/profile":
			close(started)
			<-release
			return jsonResponse(t, map[string]any{"id": "old-user"}), nil
		default:
			return jsonResponse(t, map[string]any{"user": map[string]any{"id": "new-user"}}), nil
		}
	}), Options{Logger: discardLogger})

	done := make(chan *Session, 1)
	go func() {
		current, _ := store.CheckAuth(context.Background())
		done <- current
	}()
	<-started

	_, err := store.Login(context.Background(), Credentials{Email: "n@b.com", Password: "x"})
	require.NoError(t, err)
	close(release)

	assert.Equal(t, "new-user", (<-done).ID)
	assert.Equal(t, "new-user", store.Current().ID)
}

/*
TestStore_Subscribe delivers the latest state to every subscriber.
*/
func TestStore_Subscribe(t *testing.T) {
	store := New(doerFunc(func(context.Context, *httpclient.Request) (*httpclient.Response, error) {
		return &httpclient.Response{Status: http.StatusNoContent}, nil
	}), Options{Logger: discardLogger})

	updates, unsubscribe := store.Subscribe()
	assert.Equal(t, StatusLoading, (<-updates).Status)

	store.set(StatusAuthenticated, &Session{ID: "user-1"})
	state := <-updates
	assert.True(t, state.IsAuthenticated())
	assert.Equal(t, "user-1", state.Session.ID)

	// A slow subscriber only sees the latest value.
	store.set(StatusAuthenticated, &Session{ID: "user-2"})
	store.Logout(context.Background())
	assert.Equal(t, StatusAnonymous, (<-updates).Status)

	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
	unsubscribe()
}

/*
TestStore_SnapshotIsolation prevents callers from mutating the stored session.
*/
func TestStore_SnapshotIsolation(t *testing.T) {
	store := New(doerFunc(nil), Options{Logger: discardLogger})
	store.set(StatusAuthenticated, &Session{ID: "user-1", Roles: []string{"fair_admin"}})

	current := store.Current()
	current.Roles[0] = "super_admin"

	assert.Equal(t, []string{"fair_admin"}, store.Current().Roles)
	assert.False(t, store.Current().HasRole("super_admin"))
}

/*
TestStore_VerifyToken reflects the backend's view of the credential.
*/
func TestStore_VerifyToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.store.Login(ctx, Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.True(t, h.store.VerifyToken(ctx))

	h.store.Logout(ctx)
	assert.False(t, h.store.VerifyToken(ctx))
}

/*
TestStore_LoginErrorClassification wraps only credential refusals in AuthError;
throttling and server failures reach the caller unchanged.
*/
func TestStore_LoginErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantAuth bool
	}{
		{"Bad credentials", http.StatusUnauthorized, true},
		{"Inactive account", http.StatusForbidden, true},
		{"Throttled", http.StatusTooManyRequests, false},
		{"Server failure", http.StatusInternalServerError, false},
		{"Unavailable", http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New(doerFunc(func(context.Context, *httpclient.Request) (*httpclient.Response, error) {
				return nil, &httpclient.HTTPError{Method: http.MethodPost, Path: "/auth/login", Status: tt.status}
			}), Options{Logger: discardLogger})

			_, err := store.Login(context.Background(), Credentials{Email: "a@b.com", Password: "Secret123!"})

			var authErr *AuthError
			assert.Equal(t, tt.wantAuth, errors.As(err, &authErr))
			assert.Equal(t, tt.status, httpclient.StatusOf(err))
			assert.Nil(t, store.Current())
		})
	}
}
