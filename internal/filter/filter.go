// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter holds the shared annotation filter state: selected taxa
// and assemblies, metadata facets, the most-recent-per-species toggle and
// the pagination cursor. Every mutation is one atomic replacement of the
// whole state; listeners see complete states only, in write order.
package filter

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pdiddy/annotation-browser/pkg/types"
)

// Listener receives the new state after each mutation. Listeners must not
// mutate the store.
type Listener func(types.FilterState)

// Store is the filter state container handed to every panel that reads
// or edits the active query.
type Store struct {
	// writeMu serializes writers together with their notifications.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   types.FilterState
	subs    map[int]Listener
	nextSub int
}

// New returns a store with every facet unset.
func New() *Store {
	return &Store{
		state: types.DefaultFilterState(),
		subs:  make(map[int]Listener),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() types.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// replace computes the next state from a copy of the current one and
// swaps it in.
func (s *Store) replace(fn func(*types.FilterState)) types.FilterState {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	normalize(&next)
	s.state = next
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next.Clone())
	}
	return next.Clone()
}

func normalize(st *types.FilterState) {
	if strings.TrimSpace(st.Source) == "" {
		st.Source = types.SourceAll
	}
	if st.Page < types.FirstPage {
		st.Page = types.FirstPage
	}
	if st.SelectedTaxons == nil {
		st.SelectedTaxons = []types.Taxon{}
	}
	if st.SelectedAssemblies == nil {
		st.SelectedAssemblies = []types.Assembly{}
	}
	for _, l := range []*[]string{&st.Biotypes, &st.FeatureTypes, &st.Pipelines, &st.Providers} {
		if *l == nil {
			*l = []string{}
		}
	}
}

// Update applies a multi-field facet edit atomically and resets the page.
func (s *Store) Update(fn func(*types.FilterState)) types.FilterState {
	return s.replace(func(st *types.FilterState) {
		fn(st)
		st.Page = types.FirstPage
	})
}

// Replace swaps in st as a whole, page included. It is meant for restoring
// a saved or shared state.
func (s *Store) Replace(st types.FilterState) types.FilterState {
	return s.replace(func(cur *types.FilterState) {
		*cur = st.Clone()
	})
}

// SetSelectedTaxons replaces the taxon selection. Callers de-duplicate on TaxID.
func (s *Store) SetSelectedTaxons(taxons []types.Taxon) {
	s.Update(func(st *types.FilterState) {
		st.SelectedTaxons = append([]types.Taxon{}, taxons...)
	})
}

// SetSelectedAssemblies replaces the assembly selection. Callers
// de-duplicate on AssemblyAccession.
func (s *Store) SetSelectedAssemblies(assemblies []types.Assembly) {
	s.Update(func(st *types.FilterState) {
		st.SelectedAssemblies = append([]types.Assembly{}, assemblies...)
	})
}

func (s *Store) SetBiotypes(v []string) {
	s.Update(func(st *types.FilterState) { st.Biotypes = append([]string{}, v...) })
}

func (s *Store) SetFeatureTypes(v []string) {
	s.Update(func(st *types.FilterState) { st.FeatureTypes = append([]string{}, v...) })
}

func (s *Store) SetPipelines(v []string) {
	s.Update(func(st *types.FilterState) { st.Pipelines = append([]string{}, v...) })
}

func (s *Store) SetProviders(v []string) {
	s.Update(func(st *types.FilterState) { st.Providers = append([]string{}, v...) })
}

// SetSource selects the annotation source; "" and "all" both unset it.
func (s *Store) SetSource(source string) {
	s.Update(func(st *types.FilterState) { st.Source = source })
}

// ToggleMostRecentPerSpecies flips the toggle and returns its new value.
func (s *Store) ToggleMostRecentPerSpecies() bool {
	return s.Update(func(st *types.FilterState) {
		st.MostRecentPerSpecies = !st.MostRecentPerSpecies
	}).MostRecentPerSpecies
}

func (s *Store) SetMostRecentPerSpecies(on bool) {
	s.Update(func(st *types.FilterState) { st.MostRecentPerSpecies = on })
}

// SetPage moves the pagination cursor. Pages below the first clamp to it.
func (s *Store) SetPage(page int) {
	s.replace(func(st *types.FilterState) { st.Page = page })
}

// ClearAll resets every facet and selection in one update.
func (s *Store) ClearAll() {
	s.replace(func(st *types.FilterState) { *st = types.DefaultFilterState() })
}

// HasActiveFilters reports whether the current state narrows the query.
func (s *Store) HasActiveFilters() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return HasActive(s.state)
}

// HasActive is the definition of an active filter shared by every view:
// any facet list non-empty, a source other than "all", the most recent
// toggle on, or any taxon or assembly selected.
func HasActive(st types.FilterState) bool {
	return len(st.Biotypes) > 0 ||
		len(st.FeatureTypes) > 0 ||
		len(st.Pipelines) > 0 ||
		len(st.Providers) > 0 ||
		(st.Source != "" && st.Source != types.SourceAll) ||
		st.MostRecentPerSpecies ||
		len(st.SelectedTaxons) > 0 ||
		len(st.SelectedAssemblies) > 0
}

// ContainsTaxon reports whether taxid is already selected.
func (s *Store) ContainsTaxon(taxid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ContainsTaxon(s.state, taxid)
}

// ContainsAssembly reports whether accession is already selected.
func (s *Store) ContainsAssembly(accession string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ContainsAssembly(s.state, accession)
}

func ContainsTaxon(st types.FilterState, taxid string) bool {
	for _, t := range st.SelectedTaxons {
		if t.TaxID == taxid {
			return true
		}
	}
	return false
}

func ContainsAssembly(st types.FilterState, accession string) bool {
	for _, a := range st.SelectedAssemblies {
		if a.AssemblyAccession == accession {
			return true
		}
	}
	return false
}

// UniqueSelections returns st with repeated taxa and assemblies removed,
// keeping the first record for each taxid and accession. Callers use it
// before SetSelected* or Replace, which store lists as given.
func UniqueSelections(st types.FilterState) types.FilterState {
	st = st.Clone()

	taxons := st.SelectedTaxons[:0]
	seenTaxa := make(map[string]bool, len(st.SelectedTaxons))
	for _, t := range st.SelectedTaxons {
		if seenTaxa[t.TaxID] {
			continue
		}
		seenTaxa[t.TaxID] = true
		taxons = append(taxons, t)
	}
	st.SelectedTaxons = taxons

	assemblies := st.SelectedAssemblies[:0]
	seenAssemblies := make(map[string]bool, len(st.SelectedAssemblies))
	for _, a := range st.SelectedAssemblies {
		if seenAssemblies[a.AssemblyAccession] {
			continue
		}
		seenAssemblies[a.AssemblyAccession] = true
		assemblies = append(assemblies, a)
	}
	st.SelectedAssemblies = assemblies
	return st
}

// Query renders st as annotation catalog query parameters for one page of
// pageSize results.
func Query(st types.FilterState, pageSize int) url.Values {
	v := url.Values{}
	if len(st.SelectedTaxons) > 0 {
		ids := make([]string, len(st.SelectedTaxons))
		for i, t := range st.SelectedTaxons {
			ids[i] = t.TaxID
		}
		v.Set("taxids", strings.Join(ids, ","))
	}
	if len(st.SelectedAssemblies) > 0 {
		acc := make([]string, len(st.SelectedAssemblies))
		for i, a := range st.SelectedAssemblies {
			acc[i] = a.AssemblyAccession
		}
		v.Set("assembly_accessions", strings.Join(acc, ","))
	}
	if st.Source != "" && st.Source != types.SourceAll {
		v.Set("db_sources", st.Source)
	}
	for name, list := range map[string][]string{
		"biotypes":      st.Biotypes,
		"feature_types": st.FeatureTypes,
		"pipelines":     st.Pipelines,
		"providers":     st.Providers,
	} {
		if len(list) > 0 {
			v.Set(name, strings.Join(list, ","))
		}
	}
	if st.MostRecentPerSpecies {
		v.Set("latest_release_by", "organism")
	}
	if pageSize > 0 {
		page := st.Page
		if page < types.FirstPage {
			page = types.FirstPage
		}
		v.Set("limit", strconv.Itoa(pageSize))
		v.Set("offset", strconv.Itoa((page-1)*pageSize))
	}
	return v
}
