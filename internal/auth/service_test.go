package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T) (*Service, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeRepo{users: map[string]*User{
		"maria@example.com": {
			ID:           "u-1",
			Email:        "maria@example.com",
			Name:         "Maria Souza",
			Role:         "manager",
			PasswordHash: string(hash),
			IsActive:     true,
		},
		"gone@example.com": {
			ID:           "u-2",
			Email:        "gone@example.com",
			Name:         "Former Employee",
			Role:         "operator",
			PasswordHash: string(hash),
			IsActive:     false,
		},
	}}
	return NewService(repo, sessions), sessions
}

func TestLogin(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Login(ctx, "maria@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.NotEmpty(t, token)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err := sessions.Resolve(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "u-1", id.UserID)
	require.Equal(t, "manager", id.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "maria@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "gone@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "maria@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = sessions.Resolve(ctx, req)
	require.ErrorIs(t, err, shared.ErrNoSession)
}
