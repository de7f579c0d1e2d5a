// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotation-browser/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	Long: `History lists the most recent selections made from search, newest first.
With --insdc it lists resolved INSDC lookups instead. Both histories keep
at most three entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useINSDC, _ := cmd.Flags().GetBool("insdc")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cfg, log, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if useINSDC {
			return printINSDCHistory(out, a.insdc.All(), asJSON)
		}
		return printSearchHistory(out, a.history.All(), asJSON)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		useINSDC, _ := cmd.Flags().GetBool("insdc")

		a, err := newApp(cfg, log, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if useINSDC {
			a.insdc.Clear()
		} else {
			a.history.Clear()
		}
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().Bool("insdc", false, "use the INSDC lookup history")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func printSearchHistory(w io.Writer, entries []types.HistoryEntry, asJSON bool) error {
	if asJSON {
		return encodeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recent searches")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-8s %-30s %-40s %s\n", e.ResultType, e.ResultName, e.RouterPath, when(e.Timestamp))
	}
	return nil
}

func printINSDCHistory(w io.Writer, entries []types.INSDCHistoryEntry, asJSON bool) error {
	if asJSON {
		return encodeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recent INSDC lookups")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %-18s %-30s %-24s %s\n", e.Query, e.FieldType, e.MatchedName, e.RouterPath, when(e.Timestamp))
	}
	return nil
}

func when(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
