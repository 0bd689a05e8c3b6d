// Package kv defines the key-value persistence port used for progress
// ledgers and reward state. Absent keys mean "empty default", and write
// errors are never fatal to the in-memory state.
package kv

import "context"

type Store interface {
	// Get returns the value for key, or app_errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
