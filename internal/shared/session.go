package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession indicates the request carried no usable session token.
var ErrNoSession = errors.New("no active session")

// SessionManager orchestrates bearer-token sessions backed by Redis.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
}

type sessionPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl}
}

// Issue creates a session for the given identity and returns its token.
func (sm *SessionManager) Issue(ctx context.Context, id Identity) (string, error) {
	token := sm.generateToken()
	data, err := json.Marshal(sessionPayload{UserID: id.UserID, Name: id.Name, Role: id.Role})
	if err != nil {
		return "", err
	}
	if err := sm.client.Set(ctx, sm.redisKey(token), data, sm.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve loads the identity for the token in the Authorization header.
func (sm *SessionManager) Resolve(ctx context.Context, r *http.Request) (*Identity, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrNoSession
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	// Sliding expiry: touching the session extends it.
	_ = sm.client.Expire(ctx, sm.redisKey(token), sm.ttl).Err()

	return &Identity{UserID: stored.UserID, Name: stored.Name, Role: stored.Role}, nil
}

// Revoke deletes the session for the token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}

func (sm *SessionManager) generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
