// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
)

// RedisTokenRepository implements TokenRepository using Redis key expiry.
type RedisTokenRepository struct {
	client *redis.Client
	prefix string
	kind   string
}

// NewResetTokenRepository creates the Redis-backed store for password reset tokens.
func NewResetTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: constants.RedisPrefixResetToken, kind: "Reset token"}
}

// NewActivationTokenRepository creates the Redis-backed store for activation tokens.
func NewActivationTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: constants.RedisPrefixActivationToken, kind: "Activation token"}
}

/*
Set stores a token with its associated userID and TTL.

Parameters:
  - ctx: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisTokenRepository) Set(ctx context.Context, token string, userID string, ttl time.Duration) error {
	if err := repository.client.Set(ctx, repository.prefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_set_failed: %w", err)
	}
	return nil
}

/*
Consume retrieves and deletes the userID for a given token in one round trip.

Description: GETDEL guarantees a token can be redeemed once even under
concurrent requests.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - string: Original UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisTokenRepository) Consume(ctx context.Context, token string) (string, error) {
	userID, err := repository.client.GetDel(ctx, repository.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound(repository.kind)
		}
		return "", fmt.Errorf("redis_token_consume_failed: %w", err)
	}
	return userID, nil
}
