// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/foundation-console/internal/platform/redis"
)

/*
TestNewClient connects to an in-memory Redis and pings it.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr(), logger)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, redisstore.Ping(context.Background(), client))
}

/*
TestNewClient_InvalidURL rejects malformed URLs before dialing.
*/
func TestNewClient_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	_, err := redisstore.NewClient(context.Background(), "not-a-url", logger)
	assert.Error(t, err)
}
