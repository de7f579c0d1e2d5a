// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insdcCmd = &cobra.Command{
	Use:   "insdc <query>",
	Short: "Resolve a taxid, assembly accession or scientific name",
	Long: `INSDC classifies the query as a taxid, a GCA_/GCF_ assembly accession or a
scientific name, resolves it to an organism or taxon in the catalog and
records the lookup in the INSDC history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cfg, log, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.resolver.Lookup(cmd.Context(), a.insdc, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return encodeJSON(cmd.OutOrStdout(), entry)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s %s) -> %s\n",
			entry.MatchedName, entry.MatchType, entry.MatchedTaxID, entry.RouterPath)
		return nil
	},
}

func init() {
	insdcCmd.Flags().Bool("json", false, "output the recorded entry as JSON")
	rootCmd.AddCommand(insdcCmd)
}
