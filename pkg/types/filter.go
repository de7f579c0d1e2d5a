// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceAll is the unset value of FilterState.Source.
const SourceAll = "all"

// FirstPage is the page a facet change resets pagination to.
const FirstPage = 1

// FilterState describes the active annotation query shared by every panel
// of the browser. SelectedTaxons is unique on TaxID and SelectedAssemblies
// on AssemblyAccession.
type FilterState struct {
	SelectedTaxons       []Taxon    `json:"selected_taxons" yaml:"selected_taxons"`
	SelectedAssemblies   []Assembly `json:"selected_assemblies" yaml:"selected_assemblies"`
	Source               string     `json:"source" yaml:"source"`
	Biotypes             []string   `json:"biotypes" yaml:"biotypes"`
	FeatureTypes         []string   `json:"feature_types" yaml:"feature_types"`
	Pipelines            []string   `json:"pipelines" yaml:"pipelines"`
	Providers            []string   `json:"providers" yaml:"providers"`
	MostRecentPerSpecies bool       `json:"most_recent_per_species" yaml:"most_recent_per_species"`
	Page                 int        `json:"page" yaml:"page"`
}

// DefaultFilterState returns the state with every facet unset.
func DefaultFilterState() FilterState {
	return FilterState{
		SelectedTaxons:     []Taxon{},
		SelectedAssemblies: []Assembly{},
		Source:             SourceAll,
		Biotypes:           []string{},
		FeatureTypes:       []string{},
		Pipelines:          []string{},
		Providers:          []string{},
		Page:               FirstPage,
	}
}

// Clone returns a deep copy so callers cannot alias the store's slices.
func (s FilterState) Clone() FilterState {
	c := s
	c.SelectedTaxons = append([]Taxon{}, s.SelectedTaxons...)
	c.SelectedAssemblies = append([]Assembly{}, s.SelectedAssemblies...)
	c.Biotypes = append([]string{}, s.Biotypes...)
	c.FeatureTypes = append([]string{}, s.FeatureTypes...)
	c.Pipelines = append([]string{}, s.Pipelines...)
	c.Providers = append([]string{}, s.Providers...)
	return c
}

// Layout is the persisted portion of the UI state: sidebar geometry.
type Layout struct {
	SidebarWidth int  `json:"sidebar_width" yaml:"sidebar_width"`
	SidebarOpen  bool `json:"sidebar_open" yaml:"sidebar_open"`
}
