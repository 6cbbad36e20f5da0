// Package preferences is the durable, typed preference store: the persisted
// lockout expiration, the preferred auth method and the preferred token
// lifetime.
package preferences

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/repositories/kv"
)

// LockoutExpiresAtKey holds the RFC 3339 lockout expiration.
const LockoutExpiresAtKey = "lockout-expires-at"

const (
	keyAuthMethod    = "auth-method"
	keyTokenLifetime = "token-lifetime"
)

// AuthMethod is how the user prefers to unlock.
type AuthMethod string

const (
	AuthMethodNone      AuthMethod = "none"
	AuthMethodPasscode  AuthMethod = "passcode"
	AuthMethodBiometric AuthMethod = "biometric"
)

// ParseAuthMethod validates s.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch m := AuthMethod(s); m {
	case AuthMethodNone, AuthMethodPasscode, AuthMethodBiometric:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown auth method %q", common.ErrValidation, s)
	}
}

// TokenLifetime is the user-selectable token lifetime.
type TokenLifetime string

const (
	// LifetimeUnset means no choice was made; the configured default applies.
	LifetimeUnset     TokenLifetime = ""
	Lifetime5Minutes  TokenLifetime = "5m"
	Lifetime15Minutes TokenLifetime = "15m"
	Lifetime30Minutes TokenLifetime = "30m"
	Lifetime1Hour     TokenLifetime = "1h"
	Lifetime2Hours    TokenLifetime = "2h"
	LifetimeNever     TokenLifetime = "never"
)

// NeverExpires stands in for an unbounded token lifetime.
const NeverExpires = 100 * 365 * 24 * time.Hour

var lifetimes = map[TokenLifetime]time.Duration{
	Lifetime5Minutes:  5 * time.Minute,
	Lifetime15Minutes: 15 * time.Minute,
	Lifetime30Minutes: 30 * time.Minute,
	Lifetime1Hour:     time.Hour,
	Lifetime2Hours:    2 * time.Hour,
	LifetimeNever:     NeverExpires,
}

// ParseTokenLifetime validates s; "unset" and "" both mean LifetimeUnset.
func ParseTokenLifetime(s string) (TokenLifetime, error) {
	if s == "" || s == "unset" {
		return LifetimeUnset, nil
	}
	l := TokenLifetime(s)
	if _, ok := lifetimes[l]; !ok {
		return "", fmt.Errorf("%w: unknown token lifetime %q", common.ErrValidation, s)
	}
	return l, nil
}

// Duration resolves l, using fallback for LifetimeUnset.
func (l TokenLifetime) Duration(fallback time.Duration) time.Duration {
	if d, ok := lifetimes[l]; ok {
		return d
	}
	return fallback
}

func (l TokenLifetime) String() string {
	if l == LifetimeUnset {
		return "unset"
	}
	return string(l)
}

// Store reads and writes typed preferences through a kv namespace.
type Store struct {
	repo kv.Repository
}

func NewStore(repo kv.Repository) *Store {
	return &Store{repo: repo}
}

// LockoutExpiresAt returns the persisted lockout expiration, if any.
func (s *Store) LockoutExpiresAt(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.repo.Get(ctx, LockoutExpiresAtKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load lockout expiration: %w", err)
	}
	if len(raw) == 0 {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse lockout expiration %q: %w", raw, err)
	}
	return t, true, nil
}

func (s *Store) SetLockoutExpiresAt(ctx context.Context, t time.Time) error {
	if err := s.repo.Set(ctx, LockoutExpiresAtKey, []byte(t.UTC().Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("%w: save lockout expiration: %w", common.ErrPersistFailure, err)
	}
	return nil
}

func (s *Store) ClearLockoutExpiresAt(ctx context.Context) error {
	if err := s.repo.Delete(ctx, LockoutExpiresAtKey); err != nil {
		return fmt.Errorf("%w: clear lockout expiration: %w", common.ErrPersistFailure, err)
	}
	return nil
}

// AuthMethod returns the stored method, AuthMethodNone when nothing is stored.
func (s *Store) AuthMethod(ctx context.Context) (AuthMethod, error) {
	raw, err := s.repo.Get(ctx, keyAuthMethod)
	if err != nil {
		return AuthMethodNone, fmt.Errorf("load auth method: %w", err)
	}
	if len(raw) == 0 {
		return AuthMethodNone, nil
	}
	return ParseAuthMethod(string(raw))
}

func (s *Store) SetAuthMethod(ctx context.Context, m AuthMethod) error {
	if _, err := ParseAuthMethod(string(m)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, keyAuthMethod, []byte(m)); err != nil {
		return fmt.Errorf("%w: save auth method: %w", common.ErrPersistFailure, err)
	}
	return nil
}

// TokenLifetime returns the stored lifetime, LifetimeUnset when nothing is stored.
func (s *Store) TokenLifetime(ctx context.Context) (TokenLifetime, error) {
	raw, err := s.repo.Get(ctx, keyTokenLifetime)
	if err != nil {
		return LifetimeUnset, fmt.Errorf("load token lifetime: %w", err)
	}
	return ParseTokenLifetime(string(raw))
}

func (s *Store) SetTokenLifetime(ctx context.Context, l TokenLifetime) error {
	if _, err := ParseTokenLifetime(string(l)); err != nil {
		return err
	}
	if l == LifetimeUnset {
		if err := s.repo.Delete(ctx, keyTokenLifetime); err != nil {
			return fmt.Errorf("%w: clear token lifetime: %w", common.ErrPersistFailure, err)
		}
		return nil
	}
	if err := s.repo.Set(ctx, keyTokenLifetime, []byte(l)); err != nil {
		return fmt.Errorf("%w: save token lifetime: %w", common.ErrPersistFailure, err)
	}
	return nil
}
