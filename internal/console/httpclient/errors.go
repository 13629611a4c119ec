// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError is a transport-level failure: no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("httpclient: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a completed round trip with a non-2xx status.
//
// Code and Message come from the backend's error envelope when it has one.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("httpclient: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// errorEnvelope mirrors the backend's JSON error body.
type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newHTTPError(request *Request, status int, body []byte) *HTTPError {
	httpErr := &HTTPError{
		Method:  request.Method,
		Path:    request.Path,
		Status:  status,
		Message: http.StatusText(status),
		Body:    body,
	}

	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) == nil {
		httpErr.Code = envelope.Code
		if envelope.Error != "" {
			httpErr.Message = envelope.Error
		}
	}
	return httpErr
}

// StatusOf returns the HTTP status carried by err, or 0 when err holds no [HTTPError].
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err carries a 401 [HTTPError].
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNetwork reports whether err carries a [NetworkError].
func IsNetwork(err error) bool {
	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}
