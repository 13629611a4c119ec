// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/foundation-console/internal/platform/apperr"
	"github.com/taibuivan/foundation-console/internal/platform/constants"
	"github.com/taibuivan/foundation-console/internal/platform/sec"
)

// # In-memory repositories

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]*User
	fails error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*User{}}
}

func (repo *memoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.fails != nil {
		return nil, repo.fails
	}
	for _, user := range repo.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) Create(_ context.Context, user *User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *user
	repo.byID[user.ID] = &clone
	return nil
}

func (repo *memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

func (repo *memoryUsers) MarkVerified(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.IsVerified = true
	return nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*Session

	// lookupErr, when set, simulates a storage outage on token lookups.
	lookupErr error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*Session{}}
}

func (repo *memorySessions) Create(_ context.Context, session *Session) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *session
	repo.sessions[session.ID] = &clone
	return nil
}

func (repo *memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.lookupErr != nil {
		return nil, repo.lookupErr
	}
	for _, session := range repo.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repo *memorySessions) Revoke(_ context.Context, sessionID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[sessionID]
	if !ok || session.IsRevoked {
		return false, nil
	}
	session.IsRevoked = true
	return true, nil
}

func (repo *memorySessions) RevokeAll(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, session := range repo.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo *memorySessions) failLookups(err error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.lookupErr = err
}

func (repo *memorySessions) active(userID string) int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	count := 0
	for _, session := range repo.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

// # Collaborators

// plainHasher keeps tests fast; bcrypt itself is covered in the sec package.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "plain:" + plain, nil }
func (plainHasher) Check(plain, hash string) bool   { return hash == "plain:"+plain }

type recordingNotifier struct {
	mu          sync.Mutex
	activations map[string]string
	resets      map[string]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{activations: map[string]string{}, resets: map[string]string{}}
}

func (notifier *recordingNotifier) SendActivation(_ context.Context, user *User, token string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.activations[user.Email] = token
	return nil
}

func (notifier *recordingNotifier) SendPasswordReset(_ context.Context, user *User, token string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.resets[user.Email] = token
	return nil
}

func (notifier *recordingNotifier) activation(email string) string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return notifier.activations[email]
}

func (notifier *recordingNotifier) reset(email string) string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return notifier.resets[email]
}

// # Fixture

type fixture struct {
	service  *Service
	users    *memoryUsers
	sessions *memorySessions
	notifier *recordingNotifier
	tokens   *sec.TokenService
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fixture{
		users:    newMemoryUsers(),
		sessions: newMemorySessions(),
		notifier: newRecordingNotifier(),
		tokens:   sec.NewTokenServiceFromKeys(key, &key.PublicKey, constants.AuthIssuer),
		redis:    server,
	}
	f.service = NewService(Dependencies{
		Users:            f.users,
		Sessions:         f.sessions,
		ResetTokens:      NewResetTokenRepository(client),
		ActivationTokens: NewActivationTokenRepository(client),
		Tokens:           f.tokens,
		Hasher:           plainHasher{},
		Notifier:         f.notifier,
	})
	return f
}

// seedUser stores an active account and returns it.
func (f *fixture) seedUser(t *testing.T, email, password string, roles ...string) *User {
	t.Helper()
	user := &User{
		ID:           "user-" + strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: "plain:" + password,
		DisplayName:  "Test " + email,
		Roles:        roles,
		IsVerified:   true,
		IsActive:     true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}
