// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Render annotation filters as catalog query parameters",
	Long: `Filters builds a filter state from flags and prints the annotation catalog
query string it corresponds to. Taxa and assemblies are given by identifier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		taxids, _ := f.GetStringSlice("taxid")
		accessions, _ := f.GetStringSlice("assembly")
		source, _ := f.GetString("source")
		biotypes, _ := f.GetStringSlice("biotype")
		featureTypes, _ := f.GetStringSlice("feature-type")
		pipelines, _ := f.GetStringSlice("pipeline")
		providers, _ := f.GetStringSlice("provider")
		latest, _ := f.GetBool("most-recent")
		page, _ := f.GetInt("page")
		pageSize, _ := f.GetInt("page-size")
		asJSON, _ := f.GetBool("json")

		s := filter.New()
		s.Update(func(st *types.FilterState) {
			for _, id := range taxids {
				if !filter.ContainsTaxon(*st, id) {
					st.SelectedTaxons = append(st.SelectedTaxons, types.Taxon{TaxID: id})
				}
			}
			for _, acc := range accessions {
				if !filter.ContainsAssembly(*st, acc) {
					st.SelectedAssemblies = append(st.SelectedAssemblies, types.Assembly{AssemblyAccession: acc})
				}
			}
			st.Source = source
			st.Biotypes = biotypes
			st.FeatureTypes = featureTypes
			st.Pipelines = pipelines
			st.Providers = providers
			st.MostRecentPerSpecies = latest
		})
		s.SetPage(page)

		st := s.Snapshot()
		if asJSON {
			return encodeJSON(cmd.OutOrStdout(), struct {
				State  types.FilterState `json:"state"`
				Active bool              `json:"active"`
				Query  string            `json:"query"`
			}{st, s.HasActiveFilters(), filter.Query(st, pageSize).Encode()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), filter.Query(st, pageSize).Encode())
		return nil
	},
}

func init() {
	f := filtersCmd.Flags()
	f.StringSlice("taxid", nil, "selected taxon ids")
	f.StringSlice("assembly", nil, "selected assembly accessions")
	f.String("source", types.SourceAll, "database source (all, GenBank, RefSeq, Ensembl)")
	f.StringSlice("biotype", nil, "biotypes")
	f.StringSlice("feature-type", nil, "feature types")
	f.StringSlice("pipeline", nil, "annotation pipelines")
	f.StringSlice("provider", nil, "annotation providers")
	f.Bool("most-recent", false, "only the most recent annotation per species")
	f.Int("page", types.FirstPage, "page number (1-based)")
	f.Int("page-size", 20, "results per page")
	f.Bool("json", false, "output state and query as JSON")

	rootCmd.AddCommand(filtersCmd)
}
