package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Keys under which session values are persisted
const (
	AccessTokenKey  = "admin_access_token"
	RefreshTokenKey = "admin_refresh_token"
	UserKey         = "admin_user"
	SessionIDKey    = "admin_session_id"
	StartedAtKey    = "admin_session_started_at"
)

var allKeys = []string{AccessTokenKey, RefreshTokenKey, UserKey, SessionIDKey, StartedAtKey}

var (
	// ErrNotFound is returned by stores when a key has no value
	ErrNotFound = errors.New("session value not found")

	// ErrNoSession is returned when an operation needs an active session
	ErrNoSession = errors.New("no active session")
)

// Store persists session values by key
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Reason explains why a session ended
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
)

// Session is the process-wide holder of the auth tokens and the current user.
// It is created on login, rotated on token refresh and invalidated on logout or 401.
type Session struct {
	store Store

	mu        sync.RWMutex
	listeners []func(Reason)
}

// New creates a session context over store
func New(store Store) *Session {
	return &Session{store: store}
}

// OnInvalidate registers fn to run after every invalidation
func (s *Session) OnInvalidate(fn func(Reason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Begin replaces whatever the store holds with the tokens and user returned by
// a successful login. Invalidate listeners are not called.
func (s *Session) Begin(ctx context.Context, login models.LoginResponse) error {
	if login.Access == "" {
		return fmt.Errorf("login response has no access token")
	}

	user, err := json.Marshal(login.User)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	values := map[string]string{
		AccessTokenKey: login.Access,
		UserKey:        string(user),
		SessionIDKey:   uuid.NewString(),
		StartedAtKey:   time.Now().UTC().Format(time.RFC3339),
	}
	if login.Refresh != "" {
		values[RefreshTokenKey] = login.Refresh
	}

	// nothing from a previous login may survive into this one
	if err := s.store.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("failed to clear previous session: %w", err)
	}
	for key, value := range values {
		if err := s.store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}
	return nil
}

// Rotate replaces the access token and, when given, the refresh token
func (s *Session) Rotate(ctx context.Context, access, refresh string) error {
	if access == "" {
		return fmt.Errorf("refresh response has no access token")
	}
	if err := s.store.Set(ctx, AccessTokenKey, access); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if refresh != "" {
		if err := s.store.Set(ctx, RefreshTokenKey, refresh); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
	}
	return nil
}

// AccessToken returns the stored access token or "" when logged out
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.optional(ctx, AccessTokenKey)
}

// RefreshToken returns the stored refresh token or "" when absent
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.optional(ctx, RefreshTokenKey)
}

// ID returns the identifier assigned at Begin
func (s *Session) ID(ctx context.Context) (string, error) {
	return s.optional(ctx, SessionIDKey)
}

// Authenticated reports whether an access token is stored
func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.AccessToken(ctx)
	return err == nil && token != ""
}

// User returns the cached user
func (s *Session) User(ctx context.Context) (*models.User, error) {
	raw, err := s.store.Get(ctx, UserKey)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// SetUser replaces the cached user
func (s *Session) SetUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.store.Set(ctx, UserKey, string(data))
}

// Invalidate clears every stored value and notifies listeners
func (s *Session) Invalidate(ctx context.Context, reason Reason) error {
	if err := s.store.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.RLock()
	listeners := make([]func(Reason), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(reason)
	}
	return nil
}

func (s *Session) optional(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return value, err
}
