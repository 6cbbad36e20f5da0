package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/common"
)

// SealKeyLength is the AES-256 key size expected by Seal and Open.
const SealKeyLength = 32

// ErrSealedDataCorrupt is returned by Open when the blob is too short or
// fails authentication.
var ErrSealedDataCorrupt = errors.New("sealed data corrupt")

// Seal encrypts plaintext with AES-GCM under key. A random nonce is generated
// per call and prepended to the returned ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := common.RandomBytes(aesgcm.NonceSize())
	if err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns+aesgcm.Overhead() {
		return nil, ErrSealedDataCorrupt
	}

	plaintext, err := aesgcm.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealedDataCorrupt, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SealKeyLength {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", SealKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
