// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"sync"
	"time"
)

// DefaultWriteTimeout bounds one write issued by a Writer.
const DefaultWriteTimeout = 2 * time.Second

// Writer persists successive versions of a single key. Callers number
// versions under their own lock and call Write after releasing it, so
// readers of the in-memory state never wait on the backend. A version
// older than the last one attempted is dropped; the stored value never
// goes back in time.
type Writer struct {
	store   Store
	key     string
	timeout time.Duration

	mu      sync.Mutex
	written uint64
}

// NewWriter returns a Writer for key. A non-positive timeout means
// DefaultWriteTimeout.
func NewWriter(store Store, key string, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Writer{store: store, key: key, timeout: timeout}
}

// Write stores value as version rev. It reports whether the value was
// sent to the store; a stale version returns false and no error.
func (w *Writer) Write(rev uint64, value []byte) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rev <= w.written {
		return false, nil
	}
	// A failed write still supersedes older versions.
	w.written = rev

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.store.Set(ctx, w.key, value); err != nil {
		return false, err
	}
	return true, nil
}
