// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session is the console's single source of truth for "who is logged in".

A [Store] caches the current [Session] and distinguishes three statuses:

  - StatusLoading: no answer yet (startup, in-flight check, or invalidated).
  - StatusAuthenticated: a Session is current.
  - StatusAnonymous: the backend said there is no valid session.

Consumers either read a [State] snapshot or [Store.Subscribe] to every change.
Identity checks never retry on their own; credential renewal is the refresh
coordinator's job, one layer below in the HTTP client.
*/
package session

import (
	"fmt"
	"slices"
)

// # Status

// Status is the store's knowledge about the current identity.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (status Status) String() string {
	switch status {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(status))
	}
}

// # Session

// Session is the authenticated identity recognized by the console.
// Values are replaced on every refetch, never mutated.
type Session struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	EmailVerified bool     `json:"email_verified"`
}

// HasRole reports whether the session holds role.
func (session *Session) HasRole(role string) bool {
	return session != nil && slices.Contains(session.Roles, role)
}

func (session *Session) clone() *Session {
	if session == nil {
		return nil
	}
	clone := *session
	clone.Roles = slices.Clone(session.Roles)
	return &clone
}

// # State

// State is an immutable snapshot of the store.
type State struct {
	Status  Status
	Session *Session
}

// IsLoading reports whether no decision can be made yet.
func (state State) IsLoading() bool { return state.Status == StatusLoading }

// IsAuthenticated reports whether a Session is current.
func (state State) IsAuthenticated() bool {
	return state.Status == StatusAuthenticated && state.Session != nil
}

// Roles returns the roles of the current session, or nil.
func (state State) Roles() []string {
	if !state.IsAuthenticated() {
		return nil
	}
	return slices.Clone(state.Session.Roles)
}

// # Credentials

// Credentials are the login form inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// # Errors

// AuthError reports a login rejected by the backend (bad credentials,
// inactive account). It unwraps to the underlying *httpclient.HTTPError.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "session: login rejected: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// # Derived caches

// Cache is any client-side cache derived from the session (module lists,
// fetched records). The store clears registered caches on logout and expiry.
type Cache interface {
	Clear()
}

// CacheFunc adapts a function to [Cache].
type CacheFunc func()

// Clear implements Cache.
func (f CacheFunc) Clear() { f() }
