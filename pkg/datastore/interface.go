// Package datastore persists the small amount of client state PixNDrive keeps
// between runs: the auth token and the caller's cached profile.
package datastore

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyAuthToken   = "auth_token"
	KeyUserProfile = "user_profile"
)

// MaxKeyLength is the longest key a store accepts, in bytes.
const MaxKeyLength = 128

// Key validation errors.
var ErrKeyEmpty = errors.New("key must not be empty")
var ErrKeyTooLong = errors.New("key must not exceed 128 characters")

// KeyValueStore is a process-wide string store. Implementations include the
// default SQLite store and an in-memory store for tests.
type KeyValueStore interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or overwrites a value.
	Set(ctx context.Context, key, value string) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying storage.
	Close() error
}

// Compile-time checks.
var (
	_ KeyValueStore = (*SQLite)(nil)
	_ KeyValueStore = (*Memory)(nil)
)

// ValidateKey checks that a key is non-empty and at most MaxKeyLength bytes.
func ValidateKey(key string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}
