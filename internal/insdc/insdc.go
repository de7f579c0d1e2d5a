// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package insdc resolves INSDC-style lookups (a taxid, an assembly
// accession or a scientific name) to an organism or taxon and records
// them in the INSDC search history.
package insdc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/history"
	"github.com/pdiddy/annotation-browser/internal/selection"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// ErrNoMatch is returned when a lookup resolves to nothing.
var ErrNoMatch = errors.New("no INSDC match")

// ErrEmptyQuery is returned for blank lookups.
var ErrEmptyQuery = errors.New("empty INSDC query")

var (
	taxidRe     = regexp.MustCompile(`^[0-9]+$`)
	accessionRe = regexp.MustCompile(`^GC[AF]_[0-9]+(\.[0-9]+)?$`)
)

// Classify reports which INSDC field a query addresses.
func Classify(query string) types.FieldType {
	q := strings.TrimSpace(query)
	switch {
	case taxidRe.MatchString(q):
		return types.FieldTaxID
	case accessionRe.MatchString(strings.ToUpper(q)):
		return types.FieldAssemblyAccession
	default:
		return types.FieldScientificName
	}
}

// Match is what a lookup resolved to.
type Match struct {
	Type  types.MatchType `json:"match_type"`
	Name  string          `json:"matched_name"`
	TaxID string          `json:"matched_taxid"`
}

// Path returns the detail route of the match.
func (m Match) Path() string {
	if m.Type == types.MatchTaxon {
		return selection.TaxonPath(m.TaxID)
	}
	return selection.OrganismPath(m.TaxID)
}

// Entry builds the history entry for query resolved to match.
func Entry(query string, match Match) types.INSDCHistoryEntry {
	q := strings.TrimSpace(query)
	return types.INSDCHistoryEntry{
		Query:        q,
		FieldType:    Classify(q),
		MatchType:    match.Type,
		MatchedName:  match.Name,
		MatchedTaxID: match.TaxID,
		RouterPath:   match.Path(),
	}
}

// Record adds the lookup to hist and returns the stored entry.
func Record(hist *history.INSDC, query string, match Match) types.INSDCHistoryEntry {
	return hist.Add(Entry(query, match))
}

// Resolver looks INSDC queries up in the catalog.
type Resolver struct {
	catalog catalog.Fetcher
}

func NewResolver(f catalog.Fetcher) *Resolver {
	return &Resolver{catalog: f}
}

// candidates is how many records each lookup inspects for an exact hit.
const candidates = 10

// Resolve finds the organism or taxon a query designates. Organisms are
// preferred over taxa; accessions resolve to the assembly's organism.
func (r *Resolver) Resolve(ctx context.Context, query string) (Match, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Match{}, ErrEmptyQuery
	}

	field := Classify(q)
	if field == types.FieldAssemblyAccession {
		assemblies, err := r.catalog.Assemblies(ctx, q, candidates)
		if err != nil {
			return Match{}, fmt.Errorf("resolving %q: %w", q, err)
		}
		for _, a := range assemblies {
			if strings.EqualFold(a.AssemblyAccession, q) {
				return Match{Type: types.MatchOrganism, Name: a.OrganismName, TaxID: a.TaxID}, nil
			}
		}
		return Match{}, fmt.Errorf("%q: %w", q, ErrNoMatch)
	}

	organisms, err := r.catalog.Organisms(ctx, q, candidates)
	if err != nil {
		return Match{}, fmt.Errorf("resolving %q: %w", q, err)
	}
	for _, o := range organisms {
		if matches(field, q, o.TaxID, o.OrganismName) {
			return Match{Type: types.MatchOrganism, Name: o.OrganismName, TaxID: o.TaxID}, nil
		}
	}

	taxons, err := r.catalog.Taxons(ctx, q, candidates)
	if err != nil {
		return Match{}, fmt.Errorf("resolving %q: %w", q, err)
	}
	for _, t := range taxons {
		if matches(field, q, t.TaxID, t.ScientificName) {
			return Match{Type: types.MatchTaxon, Name: t.ScientificName, TaxID: t.TaxID}, nil
		}
	}
	return Match{}, fmt.Errorf("%q: %w", q, ErrNoMatch)
}

func matches(field types.FieldType, q, taxid, name string) bool {
	if field == types.FieldTaxID {
		return taxid == q
	}
	return strings.EqualFold(name, q)
}

// Lookup resolves query and records the result in hist.
func (r *Resolver) Lookup(ctx context.Context, hist *history.INSDC, query string) (types.INSDCHistoryEntry, error) {
	m, err := r.Resolve(ctx, query)
	if err != nil {
		return types.INSDCHistoryEntry{}, err
	}
	return Record(hist, query, m), nil
}
