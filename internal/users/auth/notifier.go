// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
)

// Notifier delivers account emails (activation links, password reset links).
type Notifier interface {
	SendActivation(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// LogNotifier writes outgoing account emails to the structured log.
//
// TODO: replace with the foundation's transactional mail provider once its API credentials exist.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendActivation logs the activation token for user.
func (notifier *LogNotifier) SendActivation(ctx context.Context, user *User, token string) error {
	notifier.logger.InfoContext(ctx, "auth_activation_email_queued",
		slog.String("user_id", user.ID),
		slog.String("token", token),
	)
	return nil
}

// SendPasswordReset logs the password reset token for user.
func (notifier *LogNotifier) SendPasswordReset(ctx context.Context, user *User, token string) error {
	notifier.logger.InfoContext(ctx, "auth_password_reset_email_queued",
		slog.String("user_id", user.ID),
		slog.String("token", token),
	)
	return nil
}
