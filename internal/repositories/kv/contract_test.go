package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContract exercises the Repository behaviour every driver must share.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("set then get", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))

		v, err := r.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, v)
	})

	t.Run("missing key returns nil nil", func(t *testing.T) {
		r := newRepo(t)

		v, err := r.Get(context.Background(), "absent")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.Set(ctx, "k", []byte("old")))
		require.NoError(t, r.Set(ctx, "k", []byte("new")))

		v, err := r.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), v)
	})

	t.Run("set many and list", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.SetMany(ctx, map[string][]byte{
			"passcode-hash":  []byte("abcd"),
			"last-used-salt": {0xAA, 0xBB},
		}))

		m, err := r.List(ctx)
		require.NoError(t, err)
		assert.Len(t, m, 2)
		assert.Equal(t, []byte("abcd"), m["passcode-hash"])
		assert.Equal(t, []byte{0xAA, 0xBB}, m["last-used-salt"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.SetMany(ctx, map[string][]byte{"a": {1}, "b": {2}, "c": {3}}))
		require.NoError(t, r.Delete(ctx, "a", "b"))
		require.NoError(t, r.Delete(ctx, "a"))

		m, err := r.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"c": {3}}, m)
	})

	t.Run("clear removes all", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.Set(ctx, "a", []byte{1}))
		require.NoError(t, r.Set(ctx, "b", []byte{2}))
		require.NoError(t, r.Clear(ctx))

		m, err := r.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, m)
	})
}
