package cryptox

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheapParams keeps unit tests fast; production cost comes from DefaultParams.
func cheapParams() Params {
	p := DefaultParams()
	p.N = 16
	p.R = 8
	p.P = 1
	return p
}

func TestHasher_Deterministic(t *testing.T) {
	h, err := NewHasher(cheapParams())
	require.NoError(t, err)

	ctx := context.Background()
	salt := []byte("0123456789abcdef")

	d1, err := h.Hash(ctx, []byte("1234"), salt)
	require.NoError(t, err)
	d2, err := h.Hash(ctx, []byte("1234"), salt)
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "same inputs must produce the same digest")
	assert.Len(t, d1, 2*cheapParams().KeyLength)
}

func TestHasher_DifferentSaltsDiffer(t *testing.T) {
	h, err := NewHasher(cheapParams())
	require.NoError(t, err)

	ctx := context.Background()
	d1, err := h.Hash(ctx, []byte("1234"), []byte("salt-number-one!"))
	require.NoError(t, err)
	d2, err := h.Hash(ctx, []byte("1234"), []byte("salt-number-two!"))
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestHasher_ScryptKnownVector(t *testing.T) {
	// RFC 7914, section 12.
	p := Params{KDF: KDFScrypt, N: 1024, R: 8, P: 16, KeyLength: 64, SaltLength: 16}
	h, err := NewHasher(p)
	require.NoError(t, err)

	got, err := h.Hash(context.Background(), []byte("password"), []byte("NaCl"))
	require.NoError(t, err)

	want := "fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b373162" +
		"2eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640"
	assert.Equal(t, want, got)
}

func TestHasher_Argon2idSnapshot(t *testing.T) {
	p := Params{KDF: KDFArgon2id, Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLength: 32, SaltLength: 16}
	h, err := NewHasher(p)
	require.NoError(t, err)

	got, err := h.Hash(context.Background(), []byte("secret-password"), []byte("fixed-salt"))
	require.NoError(t, err)
	assert.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", got)
}

func TestHasher_EmptySaltIsHashingFailure(t *testing.T) {
	h, err := NewHasher(cheapParams())
	require.NoError(t, err)

	_, err = h.Hash(context.Background(), []byte("1234"), nil)
	require.ErrorIs(t, err, common.ErrHashingFailure)
}

func TestHasher_CanceledContext(t *testing.T) {
	h, err := NewHasher(DefaultParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, []byte("1234"), []byte("0123456789abcdef"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHasher_DoesNotMutateInput(t *testing.T) {
	h, err := NewHasher(cheapParams())
	require.NoError(t, err)

	pw := []byte("1234")
	_, err = h.Hash(context.Background(), pw, []byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), pw)
}

func TestHasher_NewSalt(t *testing.T) {
	h, err := NewHasher(cheapParams())
	require.NoError(t, err)

	a, err := h.NewSalt()
	require.NoError(t, err)
	b, err := h.NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, cheapParams().SaltLength)
	assert.NotEqual(t, a, b)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{name: "defaults", mutate: func(p *Params) {}},
		{name: "argon2id", mutate: func(p *Params) { p.KDF = KDFArgon2id }},
		{name: "N not power of two", mutate: func(p *Params) { p.N = 1000 }, wantErr: true},
		{name: "N is one", mutate: func(p *Params) { p.N = 1 }, wantErr: true},
		{name: "zero block size", mutate: func(p *Params) { p.R = 0 }, wantErr: true},
		{name: "zero parallelism", mutate: func(p *Params) { p.P = 0 }, wantErr: true},
		{name: "short salt", mutate: func(p *Params) { p.SaltLength = 8 }, wantErr: true},
		{name: "zero key length", mutate: func(p *Params) { p.KeyLength = 0 }, wantErr: true},
		{name: "argon2 zero memory", mutate: func(p *Params) { p.KDF = KDFArgon2id; p.MemoryKiB = 0 }, wantErr: true},
		{name: "unknown kdf", mutate: func(p *Params) { p.KDF = "md5" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			_, err := NewHasher(p)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrHashingFailure)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
