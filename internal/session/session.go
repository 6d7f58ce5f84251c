// Package session holds the authenticated user and token for the client.
//
// There is no separate logged-in flag: a session is authenticated exactly
// when a token is persisted, and it is re-read from storage every time a
// protected view is entered.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/synergysphere/sphere/internal/models"
)

// Storage keys. These names are fixed so any client sharing the storage sees
// the same session.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// ErrNotAuthenticated is returned when a protected view is entered without a
// persisted token.
var ErrNotAuthenticated = errors.New("not logged in")

// Storage is durable key/value storage. localstore.Store implements it.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is the current identity and its access token.
type Session struct {
	User  models.User
	Token string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Manager reads and writes the session in durable storage.
type Manager struct {
	storage Storage
}

// NewManager creates a session manager over storage.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Save persists a token and user after a successful login.
func (m *Manager) Save(token string, user models.User) error {
	if strings.TrimSpace(token) == "" {
		return &models.ValidationError{Field: TokenKey, Message: "token is required"}
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.storage.Set(UserKey, string(data)); err != nil {
		return err
	}
	return m.storage.Set(TokenKey, token)
}

// Current reads the session back from storage. A missing token yields an
// unauthenticated session, not an error. A stored user that cannot be
// decoded is ignored; the token alone decides authentication.
func (m *Manager) Current() (Session, error) {
	token, ok, err := m.storage.Get(TokenKey)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return Session{}, nil
	}

	s := Session{Token: token}
	raw, ok, err := m.storage.Get(UserKey)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if ok {
		_ = json.Unmarshal([]byte(raw), &s.User)
	}
	return s, nil
}

// Require returns the current session or ErrNotAuthenticated.
func (m *Manager) Require() (Session, error) {
	s, err := m.Current()
	if err != nil {
		return Session{}, err
	}
	if !s.Authenticated() {
		return Session{}, ErrNotAuthenticated
	}
	return s, nil
}

// Logout clears the persisted token and user.
func (m *Manager) Logout() error {
	if err := m.storage.Delete(TokenKey); err != nil {
		return err
	}
	return m.storage.Delete(UserKey)
}
