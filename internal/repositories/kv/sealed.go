package kv

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/cryptox"
)

// SealedRepository encrypts values with AES-GCM before handing them to the
// wrapped repository. Keys are stored in the clear.
type SealedRepository struct {
	inner Repository
	key   []byte
}

// NewSealedRepository wraps inner; key must be cryptox.SealKeyLength bytes.
func NewSealedRepository(inner Repository, key []byte) (*SealedRepository, error) {
	if len(key) != cryptox.SealKeyLength {
		return nil, fmt.Errorf("seal key must be %d bytes", cryptox.SealKeyLength)
	}
	return &SealedRepository{inner: inner, key: append([]byte(nil), key...)}, nil
}

func (r *SealedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := r.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	plain, err := cryptox.Open(sealed, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed value[%s]: %w", key, err)
	}
	return plain, nil
}

func (r *SealedRepository) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(value, r.key)
	if err != nil {
		return fmt.Errorf("failed to seal value[%s]: %w", key, err)
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *SealedRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		s, err := cryptox.Seal(v, r.key)
		if err != nil {
			return fmt.Errorf("failed to seal value[%s]: %w", k, err)
		}
		sealed[k] = s
	}
	return r.inner.SetMany(ctx, sealed)
}

func (r *SealedRepository) Delete(ctx context.Context, keys ...string) error {
	return r.inner.Delete(ctx, keys...)
}

func (r *SealedRepository) List(ctx context.Context) (map[string][]byte, error) {
	all, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(all))
	for k, v := range all {
		plain, err := cryptox.Open(v, r.key)
		if err != nil {
			return nil, fmt.Errorf("failed to open sealed value[%s]: %w", k, err)
		}
		out[k] = plain
	}
	return out, nil
}

func (r *SealedRepository) Clear(ctx context.Context) error {
	return r.inner.Clear(ctx)
}
