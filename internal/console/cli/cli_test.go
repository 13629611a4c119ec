// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// # Fake backend

// backend accepts one operator. Every minted access token stays valid until
// expire revokes it.
type backend struct {
	mu      sync.Mutex
	current string
	minted  int
	valid   map[string]bool
	roles   []string
}

func (b *backend) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	profile := map[string]any{
		"id":             "user-ops",
		"display_name":   "Ops",
		"email":          "ops@fundacion.app",
		"roles":          b.roles,
		"email_verified": true,
	}

	switch request.URL.Path {
	case "/api/v1/auth/login":
		var credentials struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(request.Body).Decode(&credentials)
		if credentials.Email != "ops@fundacion.app" || credentials.Password != "Secret123!" {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Invalid login credentials", "code": "UNAUTHORIZED"})
			return
		}
		b.issue(writer)
		http.SetCookie(writer, &http.Cookie{Name: "refresh_token", Value: "refresh", Path: "/api/v1/auth"})
		writeJSON(writer, http.StatusOK, map[string]any{"data": map[string]any{"user": profile}})

	case "/api/v1/auth/refresh":
		if _, err := request.Cookie("refresh_token"); err != nil {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Refresh token missing", "code": "UNAUTHORIZED"})
			return
		}
		b.issue(writer)
		writeJSON(writer, http.StatusOK, map[string]any{"data": map[string]any{"expires_in": 900}})

	case "/api/v1/auth/logout":
		http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
		http.SetCookie(writer, &http.Cookie{Name: "refresh_token", Value: "", Path: "/api/v1/auth", MaxAge: -1})
		writer.WriteHeader(http.StatusNoContent)

	case "/api/v1/auth/profile", "/api/v1/fairs":
		if !b.authorized(request) {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}
		writeJSON(writer, http.StatusOK, map[string]any{"data": profile})

	case "/api/v1/auth/verify-token":
		if !b.authorized(request) {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}
		writer.WriteHeader(http.StatusNoContent)

	default:
		writer.WriteHeader(http.StatusNotFound)
	}
}

func (b *backend) issue(writer http.ResponseWriter) {
	b.minted++
	b.current = fmt.Sprintf("token-%d", b.minted)
	b.valid[b.current] = true
	http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: b.current, Path: "/"})
}

func (b *backend) authorized(request *http.Request) bool {
	cookie, err := request.Cookie("access_token")
	return err == nil && b.valid[cookie.Value]
}

// expire revokes the current access token.
func (b *backend) expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.valid, b.current)
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}

func newBackend(t *testing.T, roles ...string) (*backend, string) {
	t.Helper()
	b := &backend{roles: roles, valid: map[string]bool{}}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return b, server.URL + "/api/v1"
}

// run executes the root command and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Keep ambient operator settings from leaking into the test.
	t.Setenv("CONSOLE_EMAIL", "")
	t.Setenv("CONSOLE_PASSWORD", "")

	var stdout, logs bytes.Buffer
	root := NewRootCommand(&logs)
	root.SetOut(&stdout)
	root.SetArgs(append([]string{"--env-file="}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// # Commands

func TestWhoami(t *testing.T) {
	_, url := newBackend(t, "fair_admin")

	out, err := run(t, "whoami", "--api-url", url, "--email", "ops@fundacion.app", "--password", "Secret123!")
	require.NoError(t, err)

	assert.Contains(t, out, "id:       user-ops")
	assert.Contains(t, out, "roles:    fair_admin")
	assert.Contains(t, out, "modules:  dashboard, profile, fairs, enrollments")
}

func TestWhoami_Failures(t *testing.T) {
	_, url := newBackend(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "Missing credentials",
			args: []string{"whoami", "--api-url", url},
			want: "CONSOLE_EMAIL",
		},
		{
			name: "Rejected credentials",
			args: []string{"whoami", "--api-url", url, "--email", "ops@fundacion.app", "--password", "wrong"},
			want: "Invalid login credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProbe(t *testing.T) {
	_, url := newBackend(t, "general_admin")

	out, err := run(t, "probe", "-n", "6", "--api-url", url, "--email", "ops@fundacion.app", "--password", "Secret123!")
	require.NoError(t, err)

	assert.Contains(t, out, "6 ok, 0 failed")
	assert.Contains(t, out, "refresh flights:   0 started")
}

func TestProbe_InvalidCount(t *testing.T) {
	_, err := run(t, "probe", "-n", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--requests")
}

func TestProbe_RefreshesOnce(t *testing.T) {
	b, url := newBackend(t, "general_admin")

	rt, err := (&rootOptions{apiURL: url, email: "ops@fundacion.app", password: "Secret123!"}).resolve(&bytes.Buffer{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = rt.login(ctx)
	require.NoError(t, err)

	b.expire()
	succeeded, failed := probe(ctx, rt, "/fairs", 5)

	assert.EqualValues(t, 5, succeeded)
	assert.Zero(t, failed)

	stats := rt.console.Coordinator.Stats()
	assert.GreaterOrEqual(t, stats.FlightsStarted, int64(1))
	assert.Zero(t, stats.FlightsFailed)
	assert.Empty(t, rt.navigator.History())
}

func TestGuard(t *testing.T) {
	_, url := newBackend(t, "content_admin")
	login := []string{"--api-url", url, "--email", "ops@fundacion.app", "--password", "Secret123!"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "Role held", args: append([]string{"guard", "--role", "content_admin"}, login...), want: "outcome:  render"},
		{name: "Role missing", args: append([]string{"guard", "--role", "fair_admin"}, login...), want: "outcome:  redirect /unauthorized"},
		{name: "Verified", args: append([]string{"guard", "--verify"}, login...), want: "outcome:  render"},
		{name: "Anonymous", args: []string{"guard", "--api-url", url}, want: "outcome:  redirect /login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}
