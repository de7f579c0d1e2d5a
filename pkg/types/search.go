// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the annotation browser:
// catalog records returned by the search models, recent-search history
// entries, the filter state and configuration.
package types

// Organism is a species-level record from the annotation catalog.
type Organism struct {
	// TaxID is the NCBI taxonomy identifier (e.g. "9606").
	TaxID string `json:"taxid" yaml:"taxid"`

	// OrganismName is the scientific name (e.g. "Homo sapiens").
	OrganismName string `json:"organism_name" yaml:"organism_name"`

	// CommonName is the vernacular name, if the catalog knows one.
	CommonName string `json:"common_name,omitempty" yaml:"common_name,omitempty"`

	AnnotationsCount int `json:"annotations_count" yaml:"annotations_count"`
	AssembliesCount  int `json:"assemblies_count" yaml:"assemblies_count"`
}

// Taxon is a node of the taxonomic tree at any rank.
type Taxon struct {
	TaxID          string `json:"taxid" yaml:"taxid"`
	ScientificName string `json:"scientific_name" yaml:"scientific_name"`
	Rank           string `json:"rank,omitempty" yaml:"rank,omitempty"`

	AnnotationsCount int `json:"annotations_count" yaml:"annotations_count"`
	OrganismsCount   int `json:"organisms_count" yaml:"organisms_count"`
}

// Assembly is a genome assembly with annotations attached.
type Assembly struct {
	// AssemblyAccession is the INSDC accession (e.g. "GCF_000001405.40").
	AssemblyAccession string `json:"assembly_accession" yaml:"assembly_accession"`

	AssemblyName string `json:"assembly_name" yaml:"assembly_name"`
	OrganismName string `json:"organism_name" yaml:"organism_name"`
	TaxID        string `json:"taxid" yaml:"taxid"`

	AnnotationsCount int `json:"annotations_count" yaml:"annotations_count"`
}

// TaxonFromOrganism projects an organism onto the taxon record used by
// the filter selection. Organisms are species-rank taxa.
func TaxonFromOrganism(o Organism) Taxon {
	return Taxon{
		TaxID:            o.TaxID,
		ScientificName:   o.OrganismName,
		Rank:             "species",
		AnnotationsCount: o.AnnotationsCount,
		OrganismsCount:   1,
	}
}
