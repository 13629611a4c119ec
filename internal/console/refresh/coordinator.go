// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package refresh keeps the console session alive across expired access tokens.

A [Coordinator] is installed as the [httpclient.Interceptor]. When a protected
request fails with 401 it renews the credential with a single refresh call,
parks every other request that fails meanwhile, and replays them all once the
new cookie is in the jar.

# State machine

	IDLE ──401──▶ REFRESHING ──settled──▶ IDLE
	               │
	               └─ further 401s queue as pending requests

Detaching the pending queue and returning to IDLE happen in one critical
section, so a request evaluated after the flight settled always sees IDLE and
never joins a queue nobody will drain.

# Failure

When the refresh itself fails (rejected, network error, or timeout) every
pending request is rejected with the same [*RefreshError], the expiry
listeners run, and the navigator is sent to the session-expired destination
exactly once.
*/
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/foundation-console/internal/console/httpclient"
	"github.com/taibuivan/foundation-console/internal/console/navigate"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

// # State

// State is the coordinator's refresh state.
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// # Errors

// RefreshError reports that the refresh call failed terminally.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "refresh: session renewal failed: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error { return e.Err }

// # Configuration

// Doer sends a request through the HTTP client.
type Doer interface {
	Do(ctx context.Context, request *httpclient.Request) (*httpclient.Response, error)
}

// Options configures a [Coordinator].
type Options struct {
	// Path is the refresh endpoint. Defaults to constants.PathRefresh.
	Path string

	// Timeout bounds one refresh flight. Defaults to constants.DefaultRefreshTimeout.
	Timeout time.Duration

	// Navigator receives the session-expired redirect. Defaults to navigate.Discard.
	Navigator navigate.Navigator

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Stats is a snapshot of the coordinator's counters.
type Stats struct {
	FlightsStarted   int64
	FlightsSucceeded int64
	FlightsFailed    int64
	RequestsQueued   int64
	RequestsReplayed int64
}

// # Coordinator

// Coordinator serializes refresh attempts for one HTTP client.
//
// It is safe for concurrent use.
type Coordinator struct {
	client    Doer
	path      string
	timeout   time.Duration
	navigator navigate.Navigator
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	pending  []chan error
	idle     chan struct{}
	expiries []func()

	flightsStarted   atomic.Int64
	flightsSucceeded atomic.Int64
	flightsFailed    atomic.Int64
	requestsQueued   atomic.Int64
	requestsReplayed atomic.Int64
}

// New builds a [Coordinator] that refreshes through client.
//
// The caller installs it with client.SetInterceptor; [Install] does both.
func New(client Doer, opts Options) *Coordinator {
	coordinator := &Coordinator{
		client:    client,
		path:      opts.Path,
		timeout:   opts.Timeout,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		state:     StateIdle,
	}

	if coordinator.path == "" {
		coordinator.path = constants.PathRefresh
	}
	if coordinator.timeout <= 0 {
		coordinator.timeout = constants.DefaultRefreshTimeout
	}
	if coordinator.navigator == nil {
		coordinator.navigator = navigate.Discard
	}
	if coordinator.logger == nil {
		coordinator.logger = slog.Default()
	}
	return coordinator
}

// Install builds a [Coordinator] and registers it as client's interceptor.
func Install(client *httpclient.Client, opts Options) *Coordinator {
	coordinator := New(client, opts)
	client.SetInterceptor(coordinator)
	return coordinator
}

// OnExpired registers fn to run after a terminal refresh failure, before the redirect.
func (coordinator *Coordinator) OnExpired(fn func()) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	coordinator.expiries = append(coordinator.expiries, fn)
}

// State returns the current refresh state.
func (coordinator *Coordinator) State() State {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.state
}

// Stats returns a snapshot of the counters.
func (coordinator *Coordinator) Stats() Stats {
	return Stats{
		FlightsStarted:   coordinator.flightsStarted.Load(),
		FlightsSucceeded: coordinator.flightsSucceeded.Load(),
		FlightsFailed:    coordinator.flightsFailed.Load(),
		RequestsQueued:   coordinator.requestsQueued.Load(),
		RequestsReplayed: coordinator.requestsReplayed.Load(),
	}
}

// AwaitIdle blocks until no refresh flight is active or ctx is done.
func (coordinator *Coordinator) AwaitIdle(ctx context.Context) error {
	coordinator.mu.Lock()
	if coordinator.state == StateIdle {
		coordinator.mu.Unlock()
		return nil
	}
	idle := coordinator.idle
	coordinator.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// # Interception

/*
Intercept implements [httpclient.Interceptor].

Flow:
 1. Anything but a 401 on a protected, not yet retried request passes through.
 2. A retried copy of the request is taken; the caller's value is never modified.
 3. IDLE: lead a new flight, then replay or fail.
 4. REFRESHING: queue behind the active flight, then replay or fail.
*/
func (coordinator *Coordinator) Intercept(ctx context.Context, request *httpclient.Request, err error, replay httpclient.ReplayFunc) (*httpclient.Response, error) {
	if !coordinator.qualifies(request, err) {
		return nil, err
	}
	request = request.Clone()
	request.Retried = true

	coordinator.mu.Lock()
	if coordinator.state == StateRefreshing {
		pending := make(chan error, 1)
		coordinator.pending = append(coordinator.pending, pending)
		coordinator.mu.Unlock()
		coordinator.requestsQueued.Add(1)

		return coordinator.await(ctx, request, pending, replay)
	}

	coordinator.state = StateRefreshing
	coordinator.idle = make(chan struct{})
	coordinator.mu.Unlock()

	refreshErr := coordinator.fly(ctx)
	if refreshErr != nil {
		return nil, refreshErr
	}
	return coordinator.replay(ctx, request, replay)
}

// qualifies reports whether err on request should start or join a refresh.
func (coordinator *Coordinator) qualifies(request *httpclient.Request, err error) bool {
	if request.Retried || request.SkipIntercept {
		return false
	}
	if request.Path == coordinator.path || httpclient.IsPublicEndpoint(request.Path) {
		return false
	}
	return httpclient.StatusOf(err) == http.StatusUnauthorized
}

// await parks a request until the active flight settles.
func (coordinator *Coordinator) await(ctx context.Context, request *httpclient.Request, pending <-chan error, replay httpclient.ReplayFunc) (*httpclient.Response, error) {
	select {
	case refreshErr := <-pending:
		if refreshErr != nil {
			return nil, refreshErr
		}
		return coordinator.replay(ctx, request, replay)
	case <-ctx.Done():
		// The buffered channel lets the flight settle this entry without a receiver.
		return nil, ctx.Err()
	}
}

func (coordinator *Coordinator) replay(ctx context.Context, request *httpclient.Request, replay httpclient.ReplayFunc) (*httpclient.Response, error) {
	coordinator.requestsReplayed.Add(1)
	return replay(ctx, request)
}

/*
fly runs one refresh flight as its leader and settles every pending request.

The refresh outlives the leader's cancellation because queued requests depend
on it; it is bounded by the coordinator timeout instead. Settlement is deferred
so a panicking transport still returns the coordinator to idle; the panic
becomes a [RefreshError] and takes the session-expired path.
*/
func (coordinator *Coordinator) fly(ctx context.Context) (refreshErr *RefreshError) {
	coordinator.flightsStarted.Add(1)
	coordinator.logger.DebugContext(ctx, "refresh_flight_started")

	defer func() {
		if recovered := recover(); recovered != nil {
			refreshErr = &RefreshError{Err: fmt.Errorf("refresh panicked: %v", recovered)}
		}
		coordinator.settle(ctx, refreshErr)
	}()

	return coordinator.refresh(ctx)
}

// settle detaches the queue and returns to idle in one critical section, then
// wakes every pending request with the flight's outcome.
func (coordinator *Coordinator) settle(ctx context.Context, refreshErr *RefreshError) {
	coordinator.mu.Lock()
	queue := coordinator.pending
	coordinator.pending = nil
	coordinator.state = StateIdle
	idle := coordinator.idle
	expiries := coordinator.expiries
	coordinator.mu.Unlock()

	for _, pending := range queue {
		if refreshErr != nil {
			pending <- refreshErr
		} else {
			pending <- nil
		}
	}
	close(idle)

	if refreshErr == nil {
		coordinator.flightsSucceeded.Add(1)
		coordinator.logger.DebugContext(ctx, "refresh_flight_succeeded",
			slog.Int("queued", len(queue)),
		)
		return
	}

	coordinator.flightsFailed.Add(1)
	coordinator.logger.WarnContext(ctx, "refresh_flight_failed",
		slog.Int("queued", len(queue)),
		slog.Any("error", refreshErr.Err),
	)

	for _, expire := range expiries {
		expire()
	}
	coordinator.navigator.Navigate(constants.DestinationSessionExpired)
}

// refresh performs the refresh call itself, never intercepted.
func (coordinator *Coordinator) refresh(ctx context.Context) *RefreshError {
	flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), coordinator.timeout)
	defer cancel()

	_, err := coordinator.client.Do(flightCtx, &httpclient.Request{
		Method:        http.MethodPost,
		Path:          coordinator.path,
		SkipIntercept: true,
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", coordinator.timeout, err)
	}
	return &RefreshError{Err: err}
}
