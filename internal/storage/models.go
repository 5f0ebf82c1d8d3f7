package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an optimistic write lost every retry.
var ErrConflict = errors.New("concurrent modification")

// UpdateFunc receives the current value of a key (exists is false when the
// key is absent) and returns the value to write. Returning an error aborts
// the update and leaves the stored value untouched.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// KV is the contract shared by every backend. Update is an atomic
// read-modify-write of a single key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]Entry, error)
	Close() error
}

// Entry describes a stored key without its value.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}
