// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, passwordhash, displayname, roles, isverified, isactive, createdat, updatedat`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Roles,
		&user.IsVerified,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - ctx: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Roles,
		user.IsVerified,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return dberr.Wrap(err, "User", "Email is already registered", "postgres_user_repo_create_failed")
}

// FindByID returns a live (not soft-deleted) account by primary key.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE id = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "", "postgres_user_repo_find_by_id_failed")
	}
	return user, nil
}

// FindByEmail returns a live account by its normalized email.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE email = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "", "postgres_user_repo_find_by_email_failed")
	}
	return user, nil
}

// UpdatePassword replaces the password hash and bumps updatedat.
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const query = `UPDATE users.account SET passwordhash = $2, updatedat = now() WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(ctx, query, userID, newHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// MarkVerified flags the account's email as confirmed.
func (repository *PostgresUserRepository) MarkVerified(ctx context.Context, userID string) error {
	const query = `UPDATE users.account SET isverified = TRUE, updatedat = now() WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create inserts a refresh session.
func (repository *PostgresSessionRepository) Create(ctx context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (id, userid, tokenhash, useragent, ipaddress, expiresat, isrevoked, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.IsRevoked,
		session.CreatedAt,
	)
	return dberr.Wrap(err, "Session", "Session already exists", "postgres_session_repo_create_failed")
}

// FindByTokenHash returns the active session for a refresh token hash.
func (repository *PostgresSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, userid, tokenhash, useragent, ipaddress, expiresat, isrevoked, createdat
		FROM users.session
		WHERE tokenhash = $1 AND NOT isrevoked AND expiresat > now()`

	session := &Session{}
	err := repository.pool.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "", "postgres_session_repo_find_failed")
	}
	return session, nil
}

// Revoke flips isrevoked; the WHERE clause makes concurrent rotations race-safe.
func (repository *PostgresSessionRepository) Revoke(ctx context.Context, sessionID string) (bool, error) {
	const query = `UPDATE users.session SET isrevoked = TRUE WHERE id = $1 AND NOT isrevoked`

	tag, err := repository.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAll revokes every active session of a user.
func (repository *PostgresSessionRepository) RevokeAll(ctx context.Context, userID string) error {
	const query = `UPDATE users.session SET isrevoked = TRUE WHERE userid = $1 AND NOT isrevoked`

	if _, err := repository.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}
