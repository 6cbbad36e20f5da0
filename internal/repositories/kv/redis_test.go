package kv

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRepository_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) Repository {
		_, client := newRedis(t)
		r, err := NewRedisRepository(client, "gophlock:", NamespaceSecure)
		require.NoError(t, err)
		return r
	})
}

func TestRedisRepository_KeyLayout(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	r, err := NewRedisRepository(client, "gophlock:", NamespacePreferences)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, "auth-method", []byte("passcode")))

	got, err := mr.Get("gophlock:preferences:auth-method")
	require.NoError(t, err)
	assert.Equal(t, "passcode", got)
}

func TestRedisRepository_ClearLeavesOtherNamespaces(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	secure, err := NewRedisRepository(client, "gophlock:", NamespaceSecure)
	require.NoError(t, err)
	prefs, err := NewRedisRepository(client, "gophlock:", NamespacePreferences)
	require.NoError(t, err)

	require.NoError(t, secure.Set(ctx, "last-used-salt", []byte{1}))
	require.NoError(t, prefs.Set(ctx, "auth-method", []byte("none")))

	require.NoError(t, prefs.Clear(ctx))

	v, err := secure.Get(ctx, "last-used-salt")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)
}

func TestRedisRepository_ErrorsWrapped(t *testing.T) {
	mr, client := newRedis(t)
	r, err := NewRedisRepository(client, "", NamespaceSecure)
	require.NoError(t, err)

	mr.Close()

	_, err = r.Get(context.Background(), "k")
	require.ErrorContains(t, err, "failed to get redis[k]")

	err = r.SetMany(context.Background(), map[string][]byte{"k": {1}})
	require.ErrorContains(t, err, "failed to set redis batch")
}
