// Package kv provides the key/value repositories backing the secure blob
// store and the preference store. Drivers: sqlite (default), in-memory and
// redis; any of them can be wrapped with AES-GCM sealing.
package kv

import (
	"context"
)

// Repository is a flat key/value namespace.
//
// Get returns (nil, nil) when the key is absent. SetMany and Delete apply
// all of their keys or none of them.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Namespaces understood by every driver.
const (
	NamespaceSecure      = "secure"
	NamespacePreferences = "preferences"
)
