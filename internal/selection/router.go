// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection turns a chosen search result into its side effects:
// the result is merged into the filter selection, recorded in the search
// history and the application navigates to its detail route, in that
// order, so the destination view sees the updated filters.
package selection

import (
	"errors"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/internal/history"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// ErrNoResult is returned when Select is called without a result.
var ErrNoResult = errors.New("no result selected")

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// Router applies selections against shared filter state and history.
type Router struct {
	filters *filter.Store
	history *history.Search
	nav     Navigator
	log     *zap.Logger
}

// NewRouter wires a router. A nil history skips recording and a nil
// navigator discards routes.
func NewRouter(filters *filter.Store, hist *history.Search, nav Navigator, opts ...Option) *Router {
	r := &Router{filters: filters, history: hist, nav: nav, log: zap.NewNop()}
	if r.nav == nil {
		r.nav = NavigatorFunc(func(string) {})
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// plan is what a selection resolves to before any side effect runs.
type plan struct {
	path  string
	merge func()
	entry *types.HistoryEntry
}

// Select applies res for the search query that produced it and returns
// the route navigated to.
func (r *Router) Select(query string, res Result) (string, error) {
	if res == nil {
		return "", ErrNoResult
	}
	p := r.resolve(query, res)

	if p.merge != nil && r.filters != nil {
		p.merge()
	}
	if p.entry != nil && r.history != nil {
		r.history.Add(*p.entry)
	}
	r.nav.Navigate(p.path)

	r.log.Debug("selection routed",
		zap.String("model", res.ModelKey()),
		zap.String("path", p.path))
	return p.path, nil
}

// SelectItem converts a search item and selects it.
func (r *Router) SelectItem(query string, it search.Item) (string, error) {
	res, err := FromItem(it)
	if err != nil {
		return "", err
	}
	return r.Select(query, res)
}

func (r *Router) resolve(query string, res Result) plan {
	switch v := res.(type) {
	case AssemblyResult:
		a := v.Record
		path := AssemblyPath(a.AssemblyAccession)
		name := a.AssemblyName
		if name == "" {
			name = a.AssemblyAccession
		}
		return plan{
			path:  path,
			merge: func() { r.mergeAssembly(a) },
			entry: &types.HistoryEntry{
				Query:           query,
				ResultType:      types.ResultAssembly,
				ResultName:      name,
				ResultSubtitle:  a.OrganismName,
				AnnotationCount: a.AnnotationsCount,
				RouterPath:      path,
				ResultID:        a.AssemblyAccession,
			},
		}

	case OrganismResult:
		o := v.Record
		path := OrganismPath(o.TaxID)
		return plan{
			path:  path,
			merge: func() { r.mergeTaxon(types.TaxonFromOrganism(o)) },
			entry: &types.HistoryEntry{
				Query:           query,
				ResultType:      types.ResultOrganism,
				ResultName:      o.OrganismName,
				ResultSubtitle:  o.CommonName,
				AnnotationCount: o.AnnotationsCount,
				RouterPath:      path,
				ResultID:        o.TaxID,
			},
		}

	case TaxonResult:
		t := v.Record
		path := TaxonPath(t.TaxID)
		return plan{
			path:  path,
			merge: func() { r.mergeTaxon(t) },
			entry: &types.HistoryEntry{
				Query:           query,
				ResultType:      types.ResultTaxon,
				ResultName:      t.ScientificName,
				ResultSubtitle:  t.Rank,
				AnnotationCount: t.AnnotationsCount,
				RouterPath:      path,
				ResultID:        t.TaxID,
			},
		}

	default:
		// No filter rule and no history type for this source.
		r.log.Info("no selection rule for model, using default route",
			zap.String("model", res.ModelKey()))
		return plan{path: DefaultPath}
	}
}

func (r *Router) mergeAssembly(a types.Assembly) {
	if r.filters.ContainsAssembly(a.AssemblyAccession) {
		return
	}
	r.filters.Update(func(st *types.FilterState) {
		if !filter.ContainsAssembly(*st, a.AssemblyAccession) {
			st.SelectedAssemblies = append(st.SelectedAssemblies, a)
		}
	})
}

func (r *Router) mergeTaxon(t types.Taxon) {
	if r.filters.ContainsTaxon(t.TaxID) {
		return
	}
	r.filters.Update(func(st *types.FilterState) {
		if !filter.ContainsTaxon(*st, t.TaxID) {
			st.SelectedTaxons = append(st.SelectedTaxons, t)
		}
	})
}
