// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the foundation's identity API: account enrollment and
activation, cookie-based login, refresh token rotation, and password recovery.

# Architecture

  - user.go: domain entities and the public Profile projection.
  - service.go: use cases (Register, Login, RefreshSession, ...).
  - store*.go: repository contracts and their Postgres/Redis implementations.
  - http.go: chi routes, cookie handling, request validation.

The console client consumes this API; the wire shapes here (Profile JSON, cookie
names, error codes) are the other half of its contract.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered foundation account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Roles        []string  `json:"roles"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile returns the identity projection sent to clients.
func (user *User) Profile() Profile {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return Profile{
		ID:            user.ID,
		DisplayName:   user.DisplayName,
		Email:         user.Email,
		Roles:         roles,
		EmailVerified: user.IsVerified,
	}
}

// Profile is the client-facing identity returned by login and /auth/profile.
type Profile struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	EmailVerified bool     `json:"email_verified"`
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

// Field names for validation and response payloads in the authentication domain.
const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldToken       = "token"
	FieldUser        = "user"
	FieldExpiresIn   = "expires_in"
	FieldMessage     = "message"
)
