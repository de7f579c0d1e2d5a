// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotation-browser/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search organisms, taxa and assemblies in one query",
	Long: `Search sends the query to every enabled catalog model (organisms, taxa,
assemblies) concurrently and prints each model's results. A model that fails
shows its error without hiding the others.

With --select N the N-th listed result is selected: it is added to the
filter selection, recorded in the search history and its route is printed.

With --watch, queries are read from stdin one per line and debounced like
keystrokes; only the last line typed within the debounce window is searched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Int("select", 0, "select the N-th result (1-based) after searching")
	searchCmd.Flags().Bool("watch", false, "read queries from stdin and search as they settle")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	pick, _ := cmd.Flags().GetInt("select")
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := newApp(cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if watch {
		return watchQueries(cmd.Context(), a, cmd.InOrStdin(), out, asJSON)
	}
	if len(args) == 0 {
		return fmt.Errorf("a query is required unless --watch is set")
	}

	d := search.NewDispatcher(a.registry, a.dispatcherOptions(log)...)
	defer d.Close()

	snap, err := d.Search(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := printSnapshot(out, a.registry, snap, asJSON); err != nil {
		return err
	}

	if pick <= 0 {
		return nil
	}
	items := flatten(a.registry, snap)
	if pick > len(items) {
		return fmt.Errorf("--select %d: only %d results", pick, len(items))
	}
	path, err := a.router.SelectItem(snap.Query, items[pick-1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "selected %s -> %s\n", items[pick-1].Title, path)
	return nil
}

// watchQueries feeds stdin lines to the debounced dispatcher and prints
// every settled generation once.
func watchQueries(ctx context.Context, a *app, in io.Reader, out io.Writer, asJSON bool) error {
	kick := make(chan struct{}, 1)
	opts := append(a.dispatcherOptions(log), search.WithOnChange(func(search.Snapshot) {
		select {
		case kick <- struct{}{}:
		default:
		}
	}))
	d := search.NewDispatcher(a.registry, opts...)
	defer d.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	var printed uint64
	emit := func(snap search.Snapshot) error {
		if snap.AnyLoading() || snap.Query == "" || snap.Generation == printed {
			return nil
		}
		printed = snap.Generation
		return printSnapshot(out, a.registry, snap, asJSON)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				d.Flush()
				snap, err := d.Wait(ctx)
				if err != nil {
					return nil
				}
				return emit(snap)
			}
			d.SetQuery(line)
		case <-kick:
			if err := emit(d.Snapshot()); err != nil {
				return err
			}
		}
	}
}

func flatten(reg *search.Registry, snap search.Snapshot) []search.Item {
	var items []search.Item
	for _, key := range reg.Keys() {
		items = append(items, snap.Model(key).Items...)
	}
	return items
}

type jsonModel struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Items []search.Item `json:"items"`
	Error string        `json:"error,omitempty"`
}

func printSnapshot(w io.Writer, reg *search.Registry, snap search.Snapshot, asJSON bool) error {
	if asJSON {
		models := make([]jsonModel, 0, len(reg.Keys()))
		for _, src := range reg.Sources() {
			st := snap.Model(src.Key())
			m := jsonModel{Key: src.Key(), Label: src.Label(), Items: st.Items}
			if m.Items == nil {
				m.Items = []search.Item{}
			}
			if st.Err != nil {
				m.Error = st.Err.Error()
			}
			models = append(models, m)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query  string      `json:"query"`
			Models []jsonModel `json:"models"`
		}{snap.Query, models})
	}

	if !snap.HasResults() {
		fmt.Fprintf(w, "No results for %q\n", snap.Query)
	}
	n := 0
	for _, src := range reg.Sources() {
		if src.Limit() == 0 {
			continue
		}
		st := snap.Model(src.Key())
		switch {
		case st.Err != nil:
			fmt.Fprintf(w, "%s: error: %v\n", src.Label(), st.Err)
		case len(st.Items) > 0:
			fmt.Fprintf(w, "%s\n", src.Label())
			for _, it := range st.Items {
				n++
				line := fmt.Sprintf("  %2d. %s", n, it.Title)
				if it.Subtitle != "" {
					line += "  (" + it.Subtitle + ")"
				}
				if it.Meta != "" {
					line += "  " + it.Meta
				}
				fmt.Fprintln(w, strings.TrimRight(line, " "))
			}
		}
	}
	return nil
}
