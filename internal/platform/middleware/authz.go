// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/foundation-console/internal/platform/request"
	"github.com/taibuivan/foundation-console/internal/platform/respond"
	"github.com/taibuivan/foundation-console/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Defining TokenVerifier here decouples the middleware from [sec.TokenService],
// allowing tests to inject fakes.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate resolves the caller's identity from the access token.
//
// # Flow
//  1. Read the HttpOnly access cookie; fall back to 'Authorization: Bearer <token>'.
//  2. If neither is present, request proceeds as anonymous.
//  3. If present, verify the JWT via [TokenVerifier]. An invalid or expired token
//     also proceeds as anonymous: public routes (login, refresh) must keep working
//     with a stale cookie, and protected routes answer 401 through [RequireAuth],
//     which is what starts the console's refresh flow.
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			tokenStr := requestutil.Cookie(request, constants.AccessTokenCookieName)

			// ── 1. Header Fallback ────────────────────────────────────────────
			if tokenStr == "" {
				authHeader := request.Header.Get("Authorization")
				if authHeader != "" {
					parts := strings.Split(authHeader, " ")
					if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
						respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
						return
					}
					tokenStr = parts[1]
				}
			}

			// ── 2. Anonymous Access ───────────────────────────────────────────
			if tokenStr == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "access_token_rejected",
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests unless the user holds at least one of roles.
//
// It implies [RequireAuth]. Holders of [sec.RoleSuperAdmin] are always admitted.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !sec.HasAnyRole(claims.Roles, roles) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
