package kv

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/gophlock/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealKey() []byte {
	return bytes.Repeat([]byte{7}, cryptox.SealKeyLength)
}

func TestSealedRepository_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) Repository {
		r, err := NewSealedRepository(NewMemoryRepository(), sealKey())
		require.NoError(t, err)
		return r
	})
}

func TestSealedRepository_StoresCiphertext(t *testing.T) {
	inner := NewMemoryRepository()
	r, err := NewSealedRepository(inner, sealKey())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "last-used-salt", []byte("plain-salt")))

	raw, err := inner.Get(ctx, "last-used-salt")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plain-salt")
}

func TestSealedRepository_WrongKeyFails(t *testing.T) {
	inner := NewMemoryRepository()
	ctx := context.Background()

	r1, err := NewSealedRepository(inner, sealKey())
	require.NoError(t, err)
	require.NoError(t, r1.Set(ctx, "k", []byte("v")))

	r2, err := NewSealedRepository(inner, bytes.Repeat([]byte{8}, cryptox.SealKeyLength))
	require.NoError(t, err)

	_, err = r2.Get(ctx, "k")
	require.ErrorIs(t, err, cryptox.ErrSealedDataCorrupt)
}

func TestNewSealedRepository_BadKey(t *testing.T) {
	_, err := NewSealedRepository(NewMemoryRepository(), []byte("short"))
	require.Error(t, err)
}
