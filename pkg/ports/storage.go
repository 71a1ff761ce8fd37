package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a KeyValueStore when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Record is a stored value together with its write time.
type Record struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyValueStore is the storage port used by the database actor.
type KeyValueStore interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, key string) (Record, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}
