// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
)

/*
Wrap inspects a database error and classifies it.

  - pgx.ErrNoRows becomes a 404 for resource.
  - A unique violation becomes a 409 carrying conflict as its message.
  - Anything else is wrapped with action for server-side logs.

Errors that already are an [apperr.AppError] pass through unchanged.
*/
func Wrap(err error, resource, conflict, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		appErr := apperr.Conflict(conflict)
		appErr.Cause = err
		return appErr
	}

	return fmt.Errorf("%s: %w", action, err)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
