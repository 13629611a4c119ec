// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between the auth API server and the console client.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and cookie configuration.
  - Console: Client timeouts and redirect destinations.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "foundation-api"
	AppVersion = "0.1.0-dev"

	// ConsoleName tags every log entry emitted by the console client.
	ConsoleName = "foundation-console"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "fundacion.app"

	// APIPrefix is the versioned mount point of every REST route.
	APIPrefix = "/api/v1"

	// AccessTokenCookieName is the cookie carrying the short-lived JWT.
	AccessTokenCookieName = "access_token"

	// AccessTokenCookiePath scopes the access cookie to the whole site.
	AccessTokenCookiePath = "/"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # Auth Endpoints
//
// Paths are relative to [APIPrefix]; the console client joins them onto its base URL.

const (
	PathLogin            = "/auth/login"
	PathLogout           = "/auth/logout"
	PathRefresh          = "/auth/refresh"
	PathProfile          = "/auth/profile"
	PathVerifyToken      = "/auth/verify-token"
	PathRegister         = "/auth/register"
	PathForgotPassword   = "/auth/forgot-password"
	PathResetPassword    = "/auth/reset-password"
	PathActivate         = "/auth/activate"
	PathResendActivation = "/auth/resend-activation"
)

// # Console Client

const (
	// DefaultClientTimeout bounds a single round trip of the console HTTP client.
	DefaultClientTimeout = 30 * time.Second

	// DefaultRefreshTimeout bounds a single refresh flight. Overridable via config.
	DefaultRefreshTimeout = 15 * time.Second

	// DestinationLogin is where unauthenticated users are sent.
	DestinationLogin = "/login"

	// DestinationUnauthorized is where users lacking a required role are sent.
	DestinationUnauthorized = "/unauthorized"

	// DestinationSessionExpired is where users land after a refresh fails terminally.
	DestinationSessionExpired = "/session-expired"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers = "users"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixResetToken      = "auth:reset_token:"
	RedisPrefixActivationToken = "auth:activation_token:"
)
