// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package httpclient is the console's single gateway to the foundation REST API.

It carries the session credential implicitly through an injected cookie jar,
so no caller ever reads or attaches a token, and it exposes one extension
point, the [Interceptor], which sees every failed response before the caller
does.

# Error taxonomy

  - [*NetworkError]: no response was received (dial, TLS, timeout, cancellation).
  - [*HTTPError]: the backend answered with a non-2xx status.

# Usage

	client, err := httpclient.New(httpclient.Options{BaseURL: cfg.APIBaseURL})
	response, err := client.Get(ctx, constants.PathProfile)
*/
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/pkg/uuid"
)

// maxResponseBytes caps how much of a response body is buffered.
const maxResponseBytes = 10 << 20

// # Contracts

// ReplayFunc reissues a request through the full client pipeline.
type ReplayFunc func(ctx context.Context, request *Request) (*Response, error)

// Interceptor inspects every failed request before the caller sees the error.
//
// It returns either a replacement outcome (typically obtained via replay) or
// the error itself to pass the failure through unchanged.
type Interceptor interface {
	Intercept(ctx context.Context, request *Request, err error, replay ReplayFunc) (*Response, error)
}

// Options configures a [Client].
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api/v1.
	BaseURL string

	// Jar holds the ambient credential. Defaults to [NewJar].
	Jar http.CookieJar

	// Timeout bounds a single round trip. Defaults to constants.DefaultClientTimeout.
	Timeout time.Duration

	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper

	// Logger receives debug entries for every round trip. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client performs API calls on behalf of the console.
//
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.RWMutex
	interceptor Interceptor
}

// New builds a [Client] from opts.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("httpclient: invalid base URL %q", opts.BaseURL)
	}

	jar := opts.Jar
	if jar == nil {
		if jar, err = NewJar(); err != nil {
			return nil, err
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultClientTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimSuffix(base.String(), "/"),
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		logger: logger,
	}, nil
}

// SetInterceptor installs the response interceptor. Passing nil removes it.
func (client *Client) SetInterceptor(interceptor Interceptor) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.interceptor = interceptor
}

// Jar returns the credential holder shared by every request of this client.
func (client *Client) Jar() http.CookieJar {
	return client.httpClient.Jar
}

// BaseURL returns the API root this client targets.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// # Request Pipeline

/*
Do sends request and routes any failure through the interceptor.

Returns:
  - *Response: the 2xx outcome, possibly obtained by an interceptor replay
  - error: *NetworkError, *HTTPError, or whatever the interceptor surfaces
*/
func (client *Client) Do(ctx context.Context, request *Request) (*Response, error) {
	response, err := client.send(ctx, request)
	if err == nil || request.SkipIntercept {
		return response, err
	}

	client.mu.RLock()
	interceptor := client.interceptor
	client.mu.RUnlock()

	if interceptor == nil {
		return nil, err
	}
	return interceptor.Intercept(ctx, request, err, client.Do)
}

// send performs exactly one round trip.
func (client *Client) send(ctx context.Context, request *Request) (*Response, error) {
	var body io.Reader
	if request.Body != nil {
		body = bytes.NewReader(request.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, client.baseURL+request.Path, body)
	if err != nil {
		return nil, &NetworkError{Method: request.Method, Path: request.Path, Err: err}
	}

	for key, values := range request.Header {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}
	httpRequest.Header.Set("Accept", "application/json")
	if request.Body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	requestID := httpRequest.Header.Get(constants.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.RequestID()
		httpRequest.Header.Set(constants.HeaderXRequestID, requestID)
	}

	start := time.Now()
	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		client.logger.DebugContext(ctx, "http_request_failed",
			slog.String("method", request.Method),
			slog.String("path", request.Path),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return nil, &NetworkError{Method: request.Method, Path: request.Path, Err: err}
	}
	defer httpResponse.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Method: request.Method, Path: request.Path, Err: err}
	}

	client.logger.DebugContext(ctx, "http_request_completed",
		slog.String("method", request.Method),
		slog.String("path", request.Path),
		slog.Int("status", httpResponse.StatusCode),
		slog.Bool("retried", request.Retried),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	)

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return nil, newHTTPError(request, httpResponse.StatusCode, payload)
	}

	return &Response{
		Status: httpResponse.StatusCode,
		Header: httpResponse.Header,
		Body:   payload,
	}, nil
}

// # Convenience Methods

// Send builds a JSON request and passes it to [Client.Do].
func (client *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	request, err := NewRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return client.Do(ctx, request)
}

// Get issues a GET request.
func (client *Client) Get(ctx context.Context, path string) (*Response, error) {
	return client.Send(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (client *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return client.Send(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (client *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return client.Send(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH request with a JSON body.
func (client *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return client.Send(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE request.
func (client *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return client.Send(ctx, http.MethodDelete, path, nil)
}
