// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"

	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// Fetcher is the subset of Client the models need.
type Fetcher interface {
	Organisms(ctx context.Context, query string, limit int) ([]types.Organism, error)
	Taxons(ctx context.Context, query string, limit int) ([]types.Taxon, error)
	Assemblies(ctx context.Context, query string, limit int) ([]types.Assembly, error)
}

// OrganismModel describes organisms as a search source.
func OrganismModel(f Fetcher, limit int) search.Model[types.Organism] {
	return search.Model[types.Organism]{
		Key:          KeyOrganism,
		Label:        "Organisms",
		Limit:        limit,
		FetchResults: f.Organisms,
		GetID:        func(o types.Organism) string { return o.TaxID },
		GetTitle:     func(o types.Organism) string { return o.OrganismName },
		GetSubtitle: func(o types.Organism) string {
			if o.CommonName != "" {
				return o.CommonName
			}
			return "Taxid " + o.TaxID
		},
		GetMeta: func(o types.Organism) string { return annotations(o.AnnotationsCount) },
	}
}

// TaxonModel describes taxonomy nodes as a search source.
func TaxonModel(f Fetcher, limit int) search.Model[types.Taxon] {
	return search.Model[types.Taxon]{
		Key:          KeyTaxon,
		Label:        "Taxa",
		Limit:        limit,
		FetchResults: f.Taxons,
		GetID:        func(t types.Taxon) string { return t.TaxID },
		GetTitle:     func(t types.Taxon) string { return t.ScientificName },
		GetSubtitle: func(t types.Taxon) string {
			if t.Rank == "" {
				return "Taxid " + t.TaxID
			}
			return t.Rank + " · Taxid " + t.TaxID
		},
		GetMeta: func(t types.Taxon) string { return annotations(t.AnnotationsCount) },
	}
}

// AssemblyModel describes assemblies as a search source.
func AssemblyModel(f Fetcher, limit int) search.Model[types.Assembly] {
	return search.Model[types.Assembly]{
		Key:          KeyAssembly,
		Label:        "Assemblies",
		Limit:        limit,
		FetchResults: f.Assemblies,
		GetID:        func(a types.Assembly) string { return a.AssemblyAccession },
		GetTitle: func(a types.Assembly) string {
			if a.AssemblyName != "" {
				return a.AssemblyName
			}
			return a.AssemblyAccession
		},
		GetSubtitle: func(a types.Assembly) string {
			return a.AssemblyAccession + " · " + a.OrganismName
		},
		GetMeta: func(a types.Assembly) string { return annotations(a.AnnotationsCount) },
	}
}

// Sources returns the organism, taxon and assembly models with the limits
// from cfg, in display order.
func Sources(f Fetcher, cfg types.SearchConfig) []search.Source {
	return []search.Source{
		OrganismModel(f, cfg.OrganismLimit).Source(),
		TaxonModel(f, cfg.TaxonLimit).Source(),
		AssemblyModel(f, cfg.AssemblyLimit).Source(),
	}
}

func annotations(n int) string {
	if n == 1 {
		return "1 annotation"
	}
	return fmt.Sprintf("%d annotations", n)
}
