// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/ctxutil"
	"github.com/taibuivan/foundation-console/internal/platform/sec"
	"github.com/taibuivan/foundation-console/internal/platform/validate"
	"github.com/taibuivan/foundation-console/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - email: The account email.
	//   - roles: The role labels of the account.
	//   - timeToLive: The duration before the token expires.
	GenerateAccessToken(userID, email string, roles []string, timeToLive time.Duration) (string, error)
}

// PasswordHasher hashes and checks passwords. [BcryptHasher] is the production implementation.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(plain, hash string) bool
}

// BcryptHasher adapts the sec package's bcrypt helpers to [PasswordHasher].
type BcryptHasher struct{}

// Hash implements PasswordHasher.
func (BcryptHasher) Hash(plain string) (string, error) { return sec.HashPassword(plain) }

// Check implements PasswordHasher.
func (BcryptHasher) Check(plain, hash string) bool { return sec.CheckPasswordHash(plain, hash) }

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Users            UserRepository
	Sessions         SessionRepository
	ResetTokens      TokenRepository
	ActivationTokens TokenRepository
	Tokens           TokenProvider
	Hasher           PasswordHasher
	Notifier         Notifier
}

// Service implements user authentication use cases.
type Service struct {
	users            UserRepository
	sessions         SessionRepository
	resetTokens      TokenRepository
	activationTokens TokenRepository
	tokens           TokenProvider
	hasher           PasswordHasher
	notifier         Notifier
	now              func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(deps Dependencies) *Service {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{
		users:            deps.Users,
		sessions:         deps.Sessions,
		resetTokens:      deps.ResetTokens,
		activationTokens: deps.ActivationTokens,
		tokens:           deps.Tokens,
		hasher:           hasher,
		notifier:         deps.Notifier,
		now:              time.Now,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: New accounts receive the entrepreneur role and an unverified email.
An activation token is issued and handed to the [Notifier].

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := validate.NormalizeEmail(input.Email)

	// Verify email uniqueness. Return a client-safe Conflict error.
	if _, err := service.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Roles:        []string{sec.RoleEntrepreneur},
		IsVerified:   false,
		IsActive:     true,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// A failed activation mail is recoverable through resend-activation.
	if err := service.issueActivation(ctx, user); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_activation_issue_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return user, nil
}

// issueActivation stores a fresh activation token and notifies the user.
func (service *Service) issueActivation(ctx context.Context, user *User) error {
	token, err := sec.GenerateSecureToken(ActivationTokenLength)
	if err != nil {
		return err
	}
	if err := service.activationTokens.Set(ctx, token, user.ID, ActivationTokenTTL); err != nil {
		return err
	}
	return service.notifier.SendActivation(ctx, user, token)
}

// Activate confirms the email address bound to an activation token.
func (service *Service) Activate(ctx context.Context, token string) error {
	userID, err := service.activationTokens.Consume(ctx, token)
	if err != nil {
		return err
	}

	if err := service.users.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("auth_service_activate_failed: %w", err)
	}
	return nil
}

// ResendActivation issues a new activation token.
//
// Unknown or already verified emails succeed silently to prevent enumeration.
func (service *Service) ResendActivation(ctx context.Context, email string) error {
	user, err := service.users.FindByEmail(ctx, validate.NormalizeEmail(email))
	if err != nil || user.IsVerified {
		return nil
	}
	if err := service.issueActivation(ctx, user); err != nil {
		return fmt.Errorf("auth_service_resend_activation_failed: %w", err)
	}
	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthorized, AccountInactive, or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.users.FindByEmail(ctx, validate.NormalizeEmail(input.Email))

	// Unknown email and wrong password share one message to prevent enumeration.
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	if !service.hasher.Check(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !user.IsActive {
		return nil, apperr.AccountInactive()
	}

	return service.openSession(ctx, user, input.UserAgent, input.IPAddress)
}

// openSession mints an access token and persists a new refresh session.
func (service *Service) openSession(ctx context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Email, user.Roles, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := service.now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}

	if err := service.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

/*
Logout permanently revokes the session behind a refresh token.

Description: Idempotent; an unknown or already revoked token is a success.
*/
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	if _, err := service.sessions.Revoke(ctx, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the presented refresh token, revokes it, and issues a
fresh pair. Revocation is conditional, so when two requests present the same
token concurrently exactly one wins and the other is Unauthorized. This is why
the console serializes its refresh calls.

Parameters:
  - ctx: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginSession: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(ctx context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	revoked, err := service.sessions.Revoke(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}
	if !revoked {
		return nil, apperr.Unauthorized("Refresh token already used")
	}

	user, err := service.users.FindByID(ctx, session.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.openSession(ctx, user, userAgent, ipAddress)
}

// Profile returns the current identity of userID.
func (service *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("User not found or suspended")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("User not found or suspended")
	}
	return user, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Unknown emails succeed silently to prevent enumeration.
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := service.users.FindByEmail(ctx, validate.NormalizeEmail(email))
	if err != nil {
		return nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.resetTokens.Set(ctx, token, user.ID, ResetTokenTTL); err != nil {
		return fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	return service.notifier.SendPasswordReset(ctx, user, token)
}

/*
ResetPassword completes the forgot-password flow.

Description: Consumes the token, stores the new hash, and revokes every
session of the user so stolen refresh tokens die with the old password.
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := service.resetTokens.Consume(ctx, token)
	if err != nil {
		return err
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	if err := service.sessions.RevokeAll(ctx, userID); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_reset_revoke_all_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return nil
}
