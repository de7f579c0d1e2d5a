// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResultType names the kind of record a history entry points at.
type ResultType string

const (
	ResultOrganism ResultType = "organism"
	ResultAssembly ResultType = "assembly"
	ResultTaxon    ResultType = "taxon"
)

// HistoryEntry records one selection made from the federated search bar.
// Entries are unique on RouterPath within a history.
type HistoryEntry struct {
	Query           string     `json:"query" yaml:"query"`
	ResultType      ResultType `json:"result_type" yaml:"result_type"`
	ResultName      string     `json:"result_name" yaml:"result_name"`
	ResultSubtitle  string     `json:"result_subtitle,omitempty" yaml:"result_subtitle,omitempty"`
	AnnotationCount int        `json:"annotation_count" yaml:"annotation_count"`
	RouterPath      string     `json:"router_path" yaml:"router_path"`
	ResultID        string     `json:"result_id,omitempty" yaml:"result_id,omitempty"`
	Timestamp       time.Time  `json:"timestamp" yaml:"timestamp"`
}

// FieldType identifies which INSDC field a query was matched against.
type FieldType string

const (
	FieldScientificName    FieldType = "scientific_name"
	FieldTaxID             FieldType = "taxid"
	FieldAssemblyAccession FieldType = "assembly_accession"
)

// MatchType is the kind of record an INSDC query resolved to.
type MatchType string

const (
	MatchOrganism MatchType = "organism"
	MatchTaxon    MatchType = "taxon"
)

// INSDCHistoryEntry records one resolved INSDC lookup. Entries are unique
// on (Query, MatchedTaxID) within a history.
type INSDCHistoryEntry struct {
	Query        string    `json:"query" yaml:"query"`
	FieldType    FieldType `json:"field_type" yaml:"field_type"`
	MatchType    MatchType `json:"match_type" yaml:"match_type"`
	MatchedName  string    `json:"matched_name" yaml:"matched_name"`
	MatchedTaxID string    `json:"matched_taxid" yaml:"matched_taxid"`
	RouterPath   string    `json:"router_path" yaml:"router_path"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}
