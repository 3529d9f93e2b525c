package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shadestock/api/internal/database"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUsernameNotFound  = errors.New("username not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrNoSession         = errors.New("no active session")
)

// UserStore defines the database methods needed by the gate.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	GetUserByUsernameKey(ctx context.Context, usernameKey string) (database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// Gate is the two-step sign-in flow: CheckUsername resolves a candidate
// user, Login verifies the password and opens a session.
type Gate struct {
	users    UserStore
	sessions SessionStore
	now      func() time.Time
}

func NewGate(users UserStore, sessions SessionStore) *Gate {
	return &Gate{users: users, sessions: sessions, now: time.Now}
}

// UsernameKey is the comparison form of a username: trimmed, NFC
// normalized and Unicode case-folded. It is what the unique index covers.
func UsernameKey(username string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(username)))
}

// CheckUsername returns the single user whose username matches
// case-insensitively. The returned user still carries its password hash;
// callers must not expose it.
func (g *Gate) CheckUsername(ctx context.Context, username string) (database.User, error) {
	key := UsernameKey(username)
	if key == "" {
		return database.User{}, ErrUsernameNotFound
	}
	user, err := g.users.GetUserByUsernameKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.User{}, ErrUsernameNotFound
		}
		return database.User{}, fmt.Errorf("lookup username: %w", err)
	}
	return user, nil
}

// Login compares password with the user's credential exactly and, on a
// match, persists a new session for the user.
func (g *Gate) Login(ctx context.Context, user database.User, password string) (*Session, error) {
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: g.now().UTC(),
	}
	if err := g.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &sess, nil
}

// Restore rehydrates a persisted session. When the session or its user
// cannot be loaded the session is discarded and ErrNoSession returned.
// A session whose user changed role is re-saved with the current role.
func (g *Gate) Restore(ctx context.Context, sessionID string) (*Session, database.User, error) {
	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			log.Printf("ERROR: load session: %v", err)
		}
		return nil, database.User{}, ErrNoSession
	}

	user, err := g.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("ERROR: restore session user %s: %v", sess.UserID, err)
		}
		g.discard(ctx, sessionID)
		return nil, database.User{}, ErrNoSession
	}

	if user.Role != sess.Role {
		sess.Role = user.Role
		if err := g.sessions.Save(ctx, sess); err != nil {
			return nil, database.User{}, fmt.Errorf("update session role: %w", err)
		}
	}
	return &sess, user, nil
}

func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RevokeUser ends every session of the user.
func (g *Gate) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	if err := g.sessions.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

func (g *Gate) discard(ctx context.Context, sessionID string) {
	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		log.Printf("ERROR: discard session: %v", err)
	}
}
