// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Lookups return an [apperr.AppError] with code NOT_FOUND when no row matches.
type UserRepository interface {

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given normalized email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create persists a brand-new user account.
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// MarkVerified flags the account's email as confirmed.
	MarkVerified(ctx context.Context, userID string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new tracking session for an authenticated login.

		Parameters:
		  - ctx: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(ctx context.Context, session *Session) error

	/*
		FindByTokenHash returns the active (unrevoked, unexpired) session
		matching the given token hash.

		Parameters:
		  - ctx: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity
		  - error: NOT_FOUND or retrieval failures
	*/
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	/*
		Revoke marks a session as permanently invalidated.

		It reports false when the session was already revoked, which lets
		refresh rotation detect a concurrent use of the same token.

		Parameters:
		  - ctx: context.Context
		  - sessionID: string

		Returns:
		  - bool: true if this call performed the revocation
		  - error: Persistence failures
	*/
	Revoke(ctx context.Context, sessionID string) (bool, error)

	// RevokeAll revokes every active session belonging to the userID.
	RevokeAll(ctx context.Context, userID string) error
}

// # Volatile Data Access

// TokenRepository stores single-use tokens (activation, password reset) that
// map to a user ID for a limited time.
type TokenRepository interface {

	// Set stores a token associated with a userID for ttl.
	Set(ctx context.Context, token string, userID string, ttl time.Duration) error

	// Consume returns the userID for token and deletes it atomically.
	// An unknown or expired token yields NOT_FOUND.
	Consume(ctx context.Context, token string) (string, error)
}
