// Package cryptox wraps the key-derivation and AEAD primitives used by the
// authentication core: the memory-hard passcode hasher and AES-GCM sealing
// of stored blobs.
package cryptox

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// Supported KDF identifiers.
const (
	KDFScrypt   = "scrypt"
	KDFArgon2id = "argon2id"
)

const minSaltLength = 16

// Params fixes the cost of the passcode KDF. The defaults aim at roughly one
// second per hash on a laptop-class CPU.
//
// scrypt uses N (cost / iteration count, a power of two), R (block size)
// and P (parallelism). argon2id uses Time, MemoryKiB and Threads.
type Params struct {
	KDF        string
	N          int
	R          int
	P          int
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	KeyLength  int
	SaltLength int
}

// DefaultParams returns the scrypt parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		KDF:        KDFScrypt,
		N:          1 << 15,
		R:          8,
		P:          1,
		Time:       1,
		MemoryKiB:  64 * 1024,
		Threads:    4,
		KeyLength:  64,
		SaltLength: 32,
	}
}

// Validate reports parameter combinations the primitives would reject or
// that are too weak to be useful.
func (p Params) Validate() error {
	if p.KeyLength <= 0 {
		return errors.New("key length must be positive")
	}
	if p.SaltLength < minSaltLength {
		return fmt.Errorf("salt length must be at least %d bytes", minSaltLength)
	}

	switch p.KDF {
	case KDFScrypt:
		if p.N <= 1 || p.N&(p.N-1) != 0 {
			return fmt.Errorf("scrypt N must be a power of two > 1, got %d", p.N)
		}
		if p.R <= 0 || p.P <= 0 {
			return errors.New("scrypt r and p must be positive")
		}
	case KDFArgon2id:
		if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
			return errors.New("argon2id time, memory and threads must be positive")
		}
	default:
		return fmt.Errorf("unsupported kdf %q", p.KDF)
	}
	return nil
}

// Hasher turns (passcode, salt) into a hex digest under fixed Params.
// It is safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates p and returns a Hasher bound to it.
func NewHasher(p Params) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
	return &Hasher{params: p}, nil
}

// Params returns the parameters the hasher was built with.
func (h *Hasher) Params() Params {
	return h.params
}

// NewSalt returns SaltLength fresh random bytes.
func (h *Hasher) NewSalt() ([]byte, error) {
	salt, err := common.RandomBytes(h.params.SaltLength)
	if err != nil {
		return nil, fmt.Errorf("%w: generate salt: %w", common.ErrHashingFailure, err)
	}
	return salt, nil
}

type hashResult struct {
	digest string
	err    error
}

// Hash derives the digest of passcode under salt and returns it hex-encoded.
//
// The derivation runs on its own goroutine; Hash returns early with ctx.Err()
// if ctx is done first. The result channel is buffered, so an abandoned
// derivation finishes and is collected without leaking.
func (h *Hasher) Hash(ctx context.Context, passcode []byte, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", fmt.Errorf("%w: empty salt", common.ErrHashingFailure)
	}

	pw := append([]byte(nil), passcode...)
	s := append([]byte(nil), salt...)

	done := make(chan hashResult, 1)
	go func() {
		defer common.WipeByteArray(pw)
		key, err := h.derive(pw, s)
		if err != nil {
			done <- hashResult{err: fmt.Errorf("%w: %w", common.ErrHashingFailure, err)}
			return
		}
		done <- hashResult{digest: hex.EncodeToString(key)}
		common.WipeByteArray(key)
	}()

	select {
	case r := <-done:
		return r.digest, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *Hasher) derive(passcode, salt []byte) ([]byte, error) {
	p := h.params
	switch p.KDF {
	case KDFScrypt:
		return scrypt.Key(passcode, salt, p.N, p.R, p.P, p.KeyLength)
	case KDFArgon2id:
		return argon2.IDKey(passcode, salt, p.Time, p.MemoryKiB, p.Threads, uint32(p.KeyLength)), nil
	default:
		return nil, fmt.Errorf("unsupported kdf %q", p.KDF)
	}
}
