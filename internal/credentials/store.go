// Package credentials persists the single local passcode credential: the
// hex digest and the salt it was derived with ("last used salt").
package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/repositories/kv"
)

// Fixed logical keys in the secure blob store.
const (
	SaltKey = "last-used-salt"
	HashKey = "passcode-hash"
)

// Store is the salt/credential store on top of the secure kv namespace.
type Store struct {
	repo kv.Repository
}

func NewStore(repo kv.Repository) *Store {
	return &Store{repo: repo}
}

// LoadSalt returns the active salt or common.ErrorNotFound.
func (s *Store) LoadSalt(ctx context.Context) ([]byte, error) {
	salt, err := s.repo.Get(ctx, SaltKey)
	if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}
	if len(salt) == 0 {
		return nil, common.ErrorNotFound
	}
	return salt, nil
}

// SaveSalt overwrites the active salt.
func (s *Store) SaveSalt(ctx context.Context, salt []byte) error {
	if err := s.repo.Set(ctx, SaltKey, salt); err != nil {
		return fmt.Errorf("%w: save salt: %w", common.ErrPersistFailure, err)
	}
	return nil
}

// LoadHash returns the stored hex digest or common.ErrorNotFound.
func (s *Store) LoadHash(ctx context.Context) (string, error) {
	hash, err := s.repo.Get(ctx, HashKey)
	if err != nil {
		return "", fmt.Errorf("load hash: %w", err)
	}
	if len(hash) == 0 {
		return "", common.ErrorNotFound
	}
	return string(hash), nil
}

// HasCredential reports whether a hash is stored. The salt is not checked:
// a hash without its salt is still a configured credential, just an
// unusable one.
func (s *Store) HasCredential(ctx context.Context) (bool, error) {
	hash, err := s.repo.Get(ctx, HashKey)
	if err != nil {
		return false, fmt.Errorf("load hash: %w", err)
	}
	return len(hash) > 0, nil
}

// Commit writes hash and salt as one unit; either both land or neither does.
func (s *Store) Commit(ctx context.Context, hashHex string, salt []byte) error {
	err := s.repo.SetMany(ctx, map[string][]byte{
		HashKey: []byte(hashHex),
		SaltKey: salt,
	})
	if err != nil {
		return fmt.Errorf("%w: commit credential: %w", common.ErrPersistFailure, err)
	}
	return nil
}

// Clear removes the credential entirely.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, HashKey, SaltKey); err != nil {
		return fmt.Errorf("%w: clear credential: %w", common.ErrPersistFailure, err)
	}
	return nil
}
