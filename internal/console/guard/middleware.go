// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"net/http"
	"strconv"

	"github.com/taibuivan/foundation-console/internal/console/session"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/internal/platform/respond"
)

// StateReader exposes the current session state.
type StateReader interface {
	Snapshot() session.State
}

// loadingRetryAfter is the Retry-After hint, in seconds, of the loading placeholder.
const loadingRetryAfter = 1

/*
Middleware gates an http.Handler with the same decision as [Evaluate].

  - Loading: 503 with Retry-After; no redirect is issued.
  - Redirect: 303 See Other to the destination.
  - Render: the next handler runs.
*/
func Middleware(store StateReader, required ...string) func(http.Handler) http.Handler {
	guard := New(required...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			outcome := guard.Evaluate(store.Snapshot())

			switch outcome.Decision {
			case DecisionLoading:
				writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(loadingRetryAfter))
				respond.JSON(writer, http.StatusServiceUnavailable, respond.SuccessEnvelope{
					Data: map[string]string{constants.FieldStatus: outcome.String()},
				})
			case DecisionRedirect:
				http.Redirect(writer, request, outcome.Destination, http.StatusSeeOther)
			default:
				next.ServeHTTP(writer, request)
			}
		})
	}
}
