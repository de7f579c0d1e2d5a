// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps bounded, de-duplicated, newest-first lists of
// recent searches and persists them in a kv.Store so they survive a
// restart. The in-memory list is authoritative: persistence failures are
// logged and otherwise ignored, and unreadable persisted data loads as an
// empty history.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/kv"
	"github.com/pdiddy/annotation-browser/internal/logger"
)

// DefaultCapacity is the number of entries each history keeps.
const DefaultCapacity = 3

// Config describes one history: where it is persisted and how entries
// are identified and stamped.
type Config[E any] struct {
	// StorageKey is the kv key the list is persisted under.
	StorageKey string

	// Capacity bounds the list length. Zero means DefaultCapacity.
	Capacity int

	// Key returns the de-duplication key of an entry.
	Key func(E) string

	// Stamp sets the insertion time on an entry.
	Stamp func(*E, time.Time)

	// Now overrides time.Now, for tests.
	Now func() time.Time

	// WriteTimeout bounds one persisted write. Zero means
	// kv.DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// persisted is the stored envelope.
type persisted[E any] struct {
	Version int `json:"version"`
	Entries []E `json:"entries"`
}

const persistVersion = 1

// Store is a bounded most-recently-used list of E.
type Store[E any] struct {
	cfg Config[E]
	kv  kv.Store
	w   *kv.Writer
	log *zap.Logger

	mu      sync.Mutex
	entries []E
	rev     uint64
}

// New builds a history and hydrates it from kvs.
func New[E any](kvs kv.Store, log *zap.Logger, cfg Config[E]) *Store[E] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Store[E]{
		cfg: cfg,
		kv:  kvs,
		log: logger.OrNop(log).With(zap.String("history", cfg.StorageKey)),
	}
	if kvs != nil {
		s.w = kv.NewWriter(kvs, cfg.StorageKey, cfg.WriteTimeout)
	}
	s.entries = s.load()
	return s
}

func (s *Store[E]) load() []E {
	if s.kv == nil {
		return nil
	}
	data, err := s.kv.Get(context.Background(), s.cfg.StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("could not read history, starting empty", zap.Error(err))
		return nil
	}

	var p persisted[E]
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("discarding malformed history", zap.Error(err))
		return nil
	}
	if p.Version != persistVersion {
		s.log.Warn("discarding history with unknown version", zap.Int("version", p.Version))
		return nil
	}

	// Re-apply the list invariants in case the stored list predates them.
	var out []E
	seen := make(map[string]bool, len(p.Entries))
	for _, e := range p.Entries {
		k := s.cfg.Key(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
		if len(out) == s.cfg.Capacity {
			break
		}
	}
	return out
}

// commitLocked installs entries as the new list and returns its version.
// s.mu must be held. Entry slices are never modified once installed, so
// the caller may encode them after unlocking.
func (s *Store[E]) commitLocked(entries []E) uint64 {
	s.entries = entries
	s.rev++
	return s.rev
}

// save persists version rev of the list. It runs without s.mu so reads
// are not held up by the backend.
func (s *Store[E]) save(rev uint64, entries []E) {
	if s.w == nil {
		return
	}
	if entries == nil {
		entries = []E{}
	}
	data, err := json.Marshal(persisted[E]{Version: persistVersion, Entries: entries})
	if err != nil {
		s.log.Warn("could not encode history", zap.Error(err))
		return
	}
	if _, err := s.w.Write(rev, data); err != nil {
		s.log.Warn("could not persist history", zap.Error(err))
	}
}

// Add stamps entry with the current time, drops any entry with the same
// key, puts entry first and truncates to capacity. It returns the stamped
// entry.
func (s *Store[E]) Add(entry E) E {
	s.mu.Lock()

	s.cfg.Stamp(&entry, s.cfg.Now())
	k := s.cfg.Key(entry)

	next := make([]E, 0, s.cfg.Capacity)
	next = append(next, entry)
	for _, e := range s.entries {
		if len(next) == s.cfg.Capacity {
			break
		}
		if s.cfg.Key(e) == k {
			continue
		}
		next = append(next, e)
	}
	rev := s.commitLocked(next)
	s.mu.Unlock()

	s.save(rev, next)
	return entry
}

// Remove drops the entry with the given key, if present.
func (s *Store[E]) Remove(key string) bool {
	s.mu.Lock()
	next := make([]E, 0, len(s.entries))
	for _, e := range s.entries {
		if s.cfg.Key(e) != key {
			next = append(next, e)
		}
	}
	if len(next) == len(s.entries) {
		s.mu.Unlock()
		return false
	}
	rev := s.commitLocked(next)
	s.mu.Unlock()

	s.save(rev, next)
	return true
}

// Clear empties the history.
func (s *Store[E]) Clear() {
	s.mu.Lock()
	rev := s.commitLocked(nil)
	s.mu.Unlock()

	s.save(rev, nil)
}

// Recent returns up to limit entries, newest first. A non-positive limit
// means the capacity.
func (s *Store[E]) Recent(limit int) []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > s.cfg.Capacity {
		limit = s.cfg.Capacity
	}
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return append([]E{}, s.entries[:limit]...)
}

// All returns every entry, newest first.
func (s *Store[E]) All() []E {
	return s.Recent(0)
}

// Len returns the number of entries.
func (s *Store[E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the maximum number of entries kept.
func (s *Store[E]) Capacity() int {
	return s.cfg.Capacity
}
