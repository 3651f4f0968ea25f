// Package storage is the key/value persistence the storefront keeps its cart and
// wishlist in: the browser's local storage for the terminal client, a Redis
// session for the hosted API, or memory for tests.
package storage

import (
	"context"
	"errors"
)

// ErrUnavailable marks backend I/O failures (as opposed to undecodable data).
var ErrUnavailable = errors.New("storage unavailable")

// Backend persists opaque blobs under fixed keys.
type Backend interface {
	// Get returns the blob stored at key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
