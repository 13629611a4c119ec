// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Short so that the console exercises its refresh flow regularly.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a session/refresh token remains valid.
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// ActivationTokenTTL is the duration an account activation token remains valid.
	ActivationTokenTTL = 48 * time.Hour

	// ActivationTokenLength is the byte length of the random activation token.
	ActivationTokenLength = 32

	// MinPasswordLength applies to registration and password reset.
	MinPasswordLength = 8
)
