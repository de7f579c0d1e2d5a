// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout persists the sidebar geometry of the browser.
package layout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/kv"
	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// StorageKey is the kv key the layout is persisted under.
const StorageKey = "ui-layout"

// Sidebar width bounds in pixels.
const (
	MinSidebarWidth     = 200
	MaxSidebarWidth     = 600
	DefaultSidebarWidth = 300
)

// Default returns the layout used when nothing was persisted.
func Default() types.Layout {
	return types.Layout{SidebarWidth: DefaultSidebarWidth, SidebarOpen: true}
}

// ClampWidth limits w to [MinSidebarWidth, MaxSidebarWidth].
func ClampWidth(w int) int {
	switch {
	case w < MinSidebarWidth:
		return MinSidebarWidth
	case w > MaxSidebarWidth:
		return MaxSidebarWidth
	default:
		return w
	}
}

// Store holds the current layout and writes every change through to kv.
type Store struct {
	kv  kv.Store
	w   *kv.Writer
	log *zap.Logger

	mu     sync.Mutex
	layout types.Layout
	rev    uint64
}

// New hydrates a layout store from kvs. Missing or unreadable data yields
// Default.
func New(kvs kv.Store, log *zap.Logger) *Store {
	s := &Store{kv: kvs, log: logger.OrNop(log).With(zap.String("store", StorageKey))}
	if kvs != nil {
		s.w = kv.NewWriter(kvs, StorageKey, 0)
	}
	s.layout = s.load()
	return s
}

func (s *Store) load() types.Layout {
	if s.kv == nil {
		return Default()
	}
	data, err := s.kv.Get(context.Background(), StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return Default()
	}
	if err != nil {
		s.log.Warn("could not read layout, using defaults", zap.Error(err))
		return Default()
	}
	l := Default()
	if err := json.Unmarshal(data, &l); err != nil {
		s.log.Warn("discarding malformed layout", zap.Error(err))
		return Default()
	}
	l.SidebarWidth = ClampWidth(l.SidebarWidth)
	return l
}

// commitLocked installs l and returns its version. s.mu must be held.
func (s *Store) commitLocked(l types.Layout) uint64 {
	s.layout = l
	s.rev++
	return s.rev
}

// save persists version rev outside s.mu.
func (s *Store) save(rev uint64, l types.Layout) {
	if s.w == nil {
		return
	}
	data, err := json.Marshal(l)
	if err != nil {
		s.log.Warn("could not encode layout", zap.Error(err))
		return
	}
	if _, err := s.w.Write(rev, data); err != nil {
		s.log.Warn("could not persist layout", zap.Error(err))
	}
}

// Get returns the current layout.
func (s *Store) Get() types.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Set replaces the layout, clamping the width, and returns what was stored.
func (s *Store) Set(l types.Layout) types.Layout {
	l.SidebarWidth = ClampWidth(l.SidebarWidth)
	s.mu.Lock()
	rev := s.commitLocked(l)
	s.mu.Unlock()

	s.save(rev, l)
	return l
}

// SetSidebarWidth resizes the sidebar and returns the clamped width.
func (s *Store) SetSidebarWidth(w int) int {
	s.mu.Lock()
	l := s.layout
	l.SidebarWidth = ClampWidth(w)
	rev := s.commitLocked(l)
	s.mu.Unlock()

	s.save(rev, l)
	return l.SidebarWidth
}

// ToggleSidebar flips the sidebar and returns whether it is now open.
func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	l := s.layout
	l.SidebarOpen = !l.SidebarOpen
	rev := s.commitLocked(l)
	s.mu.Unlock()

	s.save(rev, l)
	return l.SidebarOpen
}
