// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"errors"
	"fmt"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// ErrPayloadMismatch is returned when an item's data does not have the
// record type its model key promises.
var ErrPayloadMismatch = errors.New("selection payload does not match model")

// Result is a selected search result. It is a closed set: one variant per
// catalog model plus UnknownResult for sources the router has no rule for.
type Result interface {
	ModelKey() string
	isResult()
}

// OrganismResult is a selected organism.
type OrganismResult struct{ Record types.Organism }

// TaxonResult is a selected taxon.
type TaxonResult struct{ Record types.Taxon }

// AssemblyResult is a selected assembly.
type AssemblyResult struct{ Record types.Assembly }

// UnknownResult is a selection from a model the router does not know.
type UnknownResult struct {
	Key  string
	Data any
}

func (OrganismResult) ModelKey() string  { return catalog.KeyOrganism }
func (TaxonResult) ModelKey() string     { return catalog.KeyTaxon }
func (AssemblyResult) ModelKey() string  { return catalog.KeyAssembly }
func (u UnknownResult) ModelKey() string { return u.Key }

func (OrganismResult) isResult() {}
func (TaxonResult) isResult()    {}
func (AssemblyResult) isResult() {}
func (UnknownResult) isResult()  {}

// FromItem builds the Result variant for a search item from its model key.
func FromItem(it search.Item) (Result, error) {
	switch it.ModelKey {
	case catalog.KeyOrganism:
		rec, ok := it.Data.(types.Organism)
		if !ok {
			return nil, fmt.Errorf("%s item %q: %w", it.ModelKey, it.ID, ErrPayloadMismatch)
		}
		return OrganismResult{Record: rec}, nil
	case catalog.KeyTaxon:
		rec, ok := it.Data.(types.Taxon)
		if !ok {
			return nil, fmt.Errorf("%s item %q: %w", it.ModelKey, it.ID, ErrPayloadMismatch)
		}
		return TaxonResult{Record: rec}, nil
	case catalog.KeyAssembly:
		rec, ok := it.Data.(types.Assembly)
		if !ok {
			return nil, fmt.Errorf("%s item %q: %w", it.ModelKey, it.ID, ErrPayloadMismatch)
		}
		return AssemblyResult{Record: rec}, nil
	default:
		return UnknownResult{Key: it.ModelKey, Data: it.Data}, nil
	}
}
