// Package storage abstracts the key-value persistence backing the
// start-page document. Two named areas exist: "local" holds potentially
// large blobs (wallpapers), "sync" holds small cross-device documents and
// must tolerate external quota limits, so callers keep synced payloads
// small.
package storage

import (
	"context"
	"fmt"

	"github.com/voidtab/voidtab/internal/settings"
)

// Area is one of the two named storage partitions.
type Area string

const (
	AreaLocal Area = "local"
	AreaSync  Area = "sync"
)

// Change describes one observed external mutation of a stored key.
type Change struct {
	Area     Area
	Key      string
	OldValue []byte
	NewValue []byte
}

// ChangeHandler receives batches of external changes.
type ChangeHandler func(changes []Change)

// KV is the storage port consumed by the document store.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string, area Area) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, area Area) error
	Remove(ctx context.Context, key string, area Area) error

	// OnChanged subscribes to changes made by external writers (another
	// process sharing the same backing store). Backends that cannot
	// observe external writes return a no-op unsubscribe. The handler is
	// never invoked for this instance's own writes.
	OnChanged(handler ChangeHandler) (unsubscribe func(), err error)

	Close() error
}

// New selects a storage adapter from the application settings.
func New(ctx context.Context, s *settings.Settings) (KV, error) {
	switch s.Storage.Backend {
	case settings.BackendSQLite:
		return NewSQLiteKV(ctx, s.Storage.DatabasePath)
	case settings.BackendFile:
		return NewFileKV(ctx, s.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected %q or %q)", s.Storage.Backend, settings.BackendFile, settings.BackendSQLite)
	}
}
