// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/taibuivan/foundation-console/internal/console/httpclient"
	"github.com/taibuivan/foundation-console/internal/console/permission"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

// # Contracts

// Doer sends a request through the HTTP client.
type Doer interface {
	Do(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error)
}

// Idler reports when no credential refresh is in flight.
type Idler interface {
	AwaitIdle(ctx context.Context) error
}

// Options configures a [Store].
type Options struct {
	// Idler lets logout wait for an in-flight refresh. Optional.
	Idler Idler

	// Permissions computes visible modules. Defaults to permission.Default().
	Permissions *permission.Table

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// # Store

// Store caches the current session.
//
// It is safe for concurrent use. State changes are broadcast to subscribers
// with latest-value semantics: a slow subscriber skips intermediate states
// but always observes the most recent one.
type Store struct {
	client      Doer
	idler       Idler
	permissions *permission.Table
	logger      *slog.Logger

	mu          sync.RWMutex
	state       State
	version     uint64
	subscribers map[int]chan State
	nextID      int
	caches      []Cache
}

// New builds a [Store] in StatusLoading.
func New(client Doer, opts Options) *Store {
	store := &Store{
		client:      client,
		idler:       opts.Idler,
		permissions: opts.Permissions,
		logger:      opts.Logger,
		state:       State{Status: StatusLoading},
		subscribers: make(map[int]chan State),
	}
	if store.permissions == nil {
		store.permissions = permission.Default()
	}
	if store.logger == nil {
		store.logger = slog.Default()
	}
	return store
}

// # Reads

// Snapshot returns the current state.
func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return State{Status: store.state.Status, Session: store.state.Session.clone()}
}

// Current returns the current session, or nil when none is known.
func (store *Store) Current() *Session {
	return store.Snapshot().Session
}

// Status returns the current status.
func (store *Store) Status() Status {
	return store.Snapshot().Status
}

// IsLoading reports whether an identity answer is pending.
func (store *Store) IsLoading() bool {
	return store.Status() == StatusLoading
}

// Modules returns the console modules visible to the current session.
func (store *Store) Modules() []string {
	return store.permissions.Modules(store.Snapshot().Roles())
}

// # Subscriptions

// Subscribe returns a channel that receives the current state immediately and
// every later change. The returned function unsubscribes and closes the channel.
func (store *Store) Subscribe() (<-chan State, func()) {
	updates := make(chan State, 1)

	store.mu.Lock()
	id := store.nextID
	store.nextID++
	store.subscribers[id] = updates
	updates <- State{Status: store.state.Status, Session: store.state.Session.clone()}
	store.mu.Unlock()

	var once sync.Once
	return updates, func() {
		once.Do(func() {
			store.mu.Lock()
			delete(store.subscribers, id)
			store.mu.Unlock()
			close(updates)
		})
	}
}

// RegisterCache adds a derived cache cleared on logout and expiry.
func (store *Store) RegisterCache(cache Cache) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.caches = append(store.caches, cache)
}

// # Transitions

// setLocked replaces the state and broadcasts it. The caller holds the write lock.
func (store *Store) setLocked(status Status, current *Session) {
	store.version++
	store.state = State{Status: status, Session: current}

	for _, updates := range store.subscribers {
		select {
		case <-updates:
		default:
		}
		updates <- State{Status: status, Session: current.clone()}
	}
}

func (store *Store) set(status Status, current *Session) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.setLocked(status, current)
}

// setIfUnchanged applies a check result only when nothing else changed the
// store since the check began.
func (store *Store) setIfUnchanged(version uint64, status Status, current *Session) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.version != version {
		return false
	}
	store.setLocked(status, current)
	return true
}

// clear drops the session and every derived cache.
func (store *Store) clear() {
	store.mu.Lock()
	store.setLocked(StatusAnonymous, nil)
	caches := append([]Cache(nil), store.caches...)
	store.mu.Unlock()

	for _, cache := range caches {
		cache.Clear()
	}
}

// Invalidate drops the cached session without any network call. The store
// reports StatusLoading until the next [Store.CheckAuth].
func (store *Store) Invalidate() {
	store.set(StatusLoading, nil)
}

// Expire clears the session after a terminal refresh failure.
// It is registered with the refresh coordinator's OnExpired hook.
func (store *Store) Expire() {
	store.logger.Info("session_expired")
	store.clear()
}

// # Operations

/*
Login authenticates with credentials and stores the returned session.

Returns:
  - *Session: the new current session
  - error: *AuthError when the backend rejects the credentials (401, or 403
    for an inactive account), the raw client error otherwise (e.g. a 429 or
    5xx *httpclient.HTTPError, or *httpclient.NetworkError)
*/
func (store *Store) Login(ctx context.Context, credentials Credentials) (*Session, error) {
	request, err := httpclient.NewRequest(http.MethodPost, constants.PathLogin, credentials)
	if err != nil {
		return nil, err
	}

	response, err := store.client.Do(ctx, request)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && isCredentialRejection(httpErr.Status) {
			return nil, &AuthError{Err: httpErr}
		}
		return nil, err
	}

	var body struct {
		User *Session `json:"user"`
	}
	if err := response.Decode(&body); err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, errors.New("session: login response carried no user")
	}

	store.set(StatusAuthenticated, body.User)
	store.logger.InfoContext(ctx, "session_login_succeeded", slog.String("user_id", body.User.ID))
	return body.User.clone(), nil
}

// isCredentialRejection reports whether a login status means the credentials
// themselves were refused.
func isCredentialRejection(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

/*
Logout ends the session.

It waits for any in-flight refresh, calls the backend best effort, then always
clears the session and derived caches. Backend failures are logged, never returned.
*/
func (store *Store) Logout(ctx context.Context) {
	if store.idler != nil {
		if err := store.idler.AwaitIdle(ctx); err != nil {
			store.logger.WarnContext(ctx, "session_logout_refresh_wait_abandoned", slog.Any("error", err))
		}
	}

	request := &httpclient.Request{Method: http.MethodPost, Path: constants.PathLogout}
	if _, err := store.client.Do(ctx, request); err != nil {
		store.logger.WarnContext(ctx, "session_logout_failed", slog.Any("error", err))
	}

	store.clear()
}

/*
CheckAuth asks the backend who is logged in and stores the answer.

It does not retry. An HTTP rejection means anonymous and yields (nil, nil);
a transport failure also marks the store anonymous and returns the error so
the caller can log it.
*/
func (store *Store) CheckAuth(ctx context.Context) (*Session, error) {
	store.mu.Lock()
	store.setLocked(StatusLoading, store.state.Session)
	version := store.version
	store.mu.Unlock()

	response, err := store.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: constants.PathProfile})
	if err != nil {
		store.setIfUnchanged(version, StatusAnonymous, nil)

		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return nil, nil
		}
		return nil, err
	}

	current := &Session{}
	if err := response.Decode(current); err != nil {
		store.setIfUnchanged(version, StatusAnonymous, nil)
		return nil, err
	}

	if !store.setIfUnchanged(version, StatusAuthenticated, current) {
		return store.Current(), nil
	}
	return current.clone(), nil
}

// Refetch forces a fresh identity check. It is an alias of [Store.CheckAuth].
func (store *Store) Refetch(ctx context.Context) (*Session, error) {
	return store.CheckAuth(ctx)
}

// VerifyToken asks the backend whether the current credential is valid.
func (store *Store) VerifyToken(ctx context.Context) bool {
	_, err := store.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: constants.PathVerifyToken})
	return err == nil
}
