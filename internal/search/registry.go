// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a free-text query out to independent record
// sources ("models") and keeps a race-free aggregate of their results.
//
// A Model describes one source: how to fetch records and how to project
// them onto the uniform Item shape. A Registry holds the models composed
// for one search bar, and a Dispatcher turns a changing input string into
// per-model result state, discarding anything that belongs to a query the
// user already replaced.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Registry configuration errors.
var (
	ErrDuplicateModel = errors.New("duplicate model key")
	ErrEmptyKey       = errors.New("model key is empty")
	ErrInvalidLimit   = errors.New("model limit must not be negative")
	ErrNoFetch        = errors.New("model has no fetch function")
	ErrNoID           = errors.New("model has no id projection")
)

// Item is a record shaped for display, tagged with the model it came from.
type Item struct {
	ModelKey string `json:"model_key"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Meta     string `json:"meta,omitempty"`

	// Data is the original record; its concrete type is fixed per model.
	Data any `json:"data"`
}

// Source is a type-erased model as seen by the registry and dispatcher.
type Source interface {
	Key() string
	Label() string
	Limit() int
	Fetch(ctx context.Context, query string) ([]Item, error)
}

// FetchFunc retrieves at most limit records matching query.
type FetchFunc[T any] func(ctx context.Context, query string, limit int) ([]T, error)

// Model describes one searchable record source. Projections must be pure;
// GetID must return the same key for equal records.
type Model[T any] struct {
	Key   string
	Label string

	// Limit caps the results requested per query. Zero disables the model.
	Limit int

	FetchResults FetchFunc[T]

	GetID       func(T) string
	GetTitle    func(T) string
	GetSubtitle func(T) string
	GetMeta     func(T) string
}

// Source erases the record type so models of different types can share
// one Registry.
func (m Model[T]) Source() Source {
	return &modelSource[T]{m: m}
}

type modelSource[T any] struct {
	m Model[T]
}

func (s *modelSource[T]) Key() string   { return s.m.Key }
func (s *modelSource[T]) Label() string { return s.m.Label }
func (s *modelSource[T]) Limit() int    { return s.m.Limit }

func (s *modelSource[T]) validate() error {
	if s.m.FetchResults == nil {
		return ErrNoFetch
	}
	if s.m.GetID == nil {
		return ErrNoID
	}
	return nil
}

// Fetch calls the model's fetch function and shapes the records. Backends
// that ignore the limit are truncated here.
func (s *modelSource[T]) Fetch(ctx context.Context, query string) ([]Item, error) {
	if s.m.Limit <= 0 {
		return nil, nil
	}
	records, err := s.m.FetchResults(ctx, query, s.m.Limit)
	if err != nil {
		return nil, err
	}
	if len(records) > s.m.Limit {
		records = records[:s.m.Limit]
	}

	items := make([]Item, 0, len(records))
	for _, r := range records {
		it := Item{
			ModelKey: s.m.Key,
			ID:       s.m.GetID(r),
			Data:     r,
		}
		if s.m.GetTitle != nil {
			it.Title = s.m.GetTitle(r)
		} else {
			it.Title = it.ID
		}
		if s.m.GetSubtitle != nil {
			it.Subtitle = s.m.GetSubtitle(r)
		}
		if s.m.GetMeta != nil {
			it.Meta = s.m.GetMeta(r)
		}
		items = append(items, it)
	}
	return items, nil
}

// Registry is the ordered set of models composed for one search bar.
// It performs no fetching.
type Registry struct {
	sources []Source
	byKey   map[string]Source
}

// NewRegistry validates sources and keeps them in the given order. A
// repeated key, an empty key or a negative limit rejects the whole set.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Source, len(sources))}
	for i, s := range sources {
		key := s.Key()
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("model %d: %w", i, ErrEmptyKey)
		}
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("model %q: %w", key, ErrDuplicateModel)
		}
		if s.Limit() < 0 {
			return nil, fmt.Errorf("model %q: %w", key, ErrInvalidLimit)
		}
		if v, ok := s.(interface{ validate() error }); ok {
			if err := v.validate(); err != nil {
				return nil, fmt.Errorf("model %q: %w", key, err)
			}
		}
		r.byKey[key] = s
		r.sources = append(r.sources, s)
	}
	return r, nil
}

// Sources returns the models in registration order.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// Keys returns the model keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.sources))
	for i, s := range r.sources {
		keys[i] = s.Key()
	}
	return keys
}

// Lookup returns the model registered under key.
func (r *Registry) Lookup(key string) (Source, bool) {
	s, ok := r.byKey[key]
	return s, ok
}
