// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

// # Request

// Request is a fully buffered API call that can be reissued unchanged.
type Request struct {
	Method string

	// Path is relative to the client's base URL and may carry a query string.
	Path string

	// Body is the encoded payload; nil for bodiless requests.
	Body []byte

	// Header holds extra headers. The client sets Content-Type, Accept and X-Request-ID.
	Header http.Header

	// Retried marks a request that has already been replayed once after a refresh.
	Retried bool

	// SkipIntercept sends the request straight through without consulting the interceptor.
	SkipIntercept bool
}

// NewRequest builds a [Request], JSON-encoding body when it is not nil.
func NewRequest(method, path string, body any) (*Request, error) {
	request := &Request{Method: method, Path: path}
	if body == nil {
		return request, nil
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode %s %s body: %w", method, path, err)
	}
	request.Body = encoded
	return request, nil
}

// Clone returns a deep copy of the request.
func (request *Request) Clone() *Request {
	clone := *request
	if request.Body != nil {
		clone.Body = bytes.Clone(request.Body)
	}
	if request.Header != nil {
		clone.Header = request.Header.Clone()
	}
	return &clone
}

// # Public Endpoints

// publicEndpoints answer 401 as a business outcome (bad credentials, used token),
// never as an expired session.
var publicEndpoints = map[string]struct{}{
	constants.PathLogin:            {},
	constants.PathRegister:         {},
	constants.PathForgotPassword:   {},
	constants.PathResetPassword:    {},
	constants.PathActivate:         {},
	constants.PathResendActivation: {},
}

// IsPublicEndpoint reports whether path is one of the public auth endpoints.
// Query strings and a trailing slash are ignored.
func IsPublicEndpoint(path string) bool {
	path, _, _ = strings.Cut(path, "?")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	_, ok := publicEndpoints[path]
	return ok
}

// # Response

// Response is a successful (2xx) round trip with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// successEnvelope mirrors the backend's {"data": ...} wrapper.
type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the response into target, unwrapping the "data" envelope
// when present. An empty body leaves target untouched.
func (response *Response) Decode(target any) error {
	if len(bytes.TrimSpace(response.Body)) == 0 {
		return nil
	}

	var envelope successEnvelope
	if err := json.Unmarshal(response.Body, &envelope); err == nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, target); err != nil {
			return fmt.Errorf("httpclient: decode response data: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(response.Body, target); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}
