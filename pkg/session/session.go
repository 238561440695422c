// Package session provides session management for authenticated users.
//
// Sessions gate the persistence API: a request carrying a valid session ID
// may create, list and modify the drawings owned by the session's user.
// Storage backends:
//   - memory: In-memory storage for development/testing
//   - redis: Redis-backed storage for multi-instance deployments
//   - file: File-based storage for the CLI
//
// # Usage
//
// Create a session store:
//
//	// Development
//	store := session.NewMemoryStore()
//
//	// Production
//	store, err := session.NewRedisStore(ctx, session.RedisConfig{
//	    Addr: "localhost:6379",
//	})
//
//	// CLI
//	store, err := session.NewFileStore("")  // Uses ~/.config/pixelshare/sessions/
//
// Manage sessions:
//
//	sess, err := session.New("user-42", "Ada", session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, sessionID)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/matzehuels/pixelshare/pkg/errors"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

// Session stores user session data.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TTL returns the remaining lifetime, or zero when expired.
func (s *Session) TTL() time.Duration {
	return max(time.Until(s.ExpiresAt), 0)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// LocalUserID owns every drawing when authentication is disabled.
const LocalUserID = "local"

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a new session for userID.
func New(userID, name string, ttl time.Duration) (*Session, error) {
	if err := errors.ValidateID(userID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "user ID")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		UserID:    userID,
		Name:      name,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// MockLocal creates a session for local use without authentication.
// This is used when --no-auth is enabled.
func MockLocal() *Session {
	now := time.Now()
	return &Session{
		ID:        "local-session",
		UserID:    LocalUserID,
		Name:      "Local User",
		ExpiresAt: now.Add(365 * 24 * time.Hour),
		CreatedAt: now,
	}
}
