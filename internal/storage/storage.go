// Package storage provides the result-store boundary: a per-project
// persistence target holding the latest canonical run output. Adapters
// perform exactly one terminal write per run and never read back their own
// write; the status command is the reader.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNoResults indicates no run output has ever been persisted for the
	// project. Callers must surface this as "no evidence", never as a pass.
	ErrNoResults = errors.New("no test results stored")
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store is closed")
)

// Store persists the latest run output for one project. Implementations must
// guarantee last-write-wins semantics with no partially visible writes;
// concurrent reporters racing on the same target may overwrite each other but
// must never corrupt the stored document.
type Store interface {
	// SaveTest persists the serialized run output, replacing any previous one.
	SaveTest(ctx context.Context, data []byte) error
	// LoadTest returns the most recently persisted run output, or
	// ErrNoResults when nothing has been written yet.
	LoadTest(ctx context.Context) ([]byte, error)
	// Close releases any resources held by the store.
	Close() error
}
