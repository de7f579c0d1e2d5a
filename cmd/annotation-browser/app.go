// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/internal/history"
	"github.com/pdiddy/annotation-browser/internal/insdc"
	"github.com/pdiddy/annotation-browser/internal/kv"
	"github.com/pdiddy/annotation-browser/internal/layout"
	"github.com/pdiddy/annotation-browser/internal/metrics"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/internal/selection"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// app is the composition root shared by the subcommands.
type app struct {
	cfg      types.Config
	store    kv.Store
	catalog  *catalog.Client
	registry *search.Registry
	dispatch *metrics.Dispatch
	filters  *filter.Store
	history  *history.Search
	insdc    *history.INSDC
	layout   *layout.Store
	resolver *insdc.Resolver
	nav      *selection.RecordingNavigator
	router   *selection.Router
}

// newApp wires every store against the configured backend. Metrics are
// registered with reg when it is non-nil.
func newApp(c types.Config, log *zap.Logger, reg prometheus.Registerer) (*app, error) {
	store, err := kv.Open(c.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", c.Storage.Backend, err)
	}

	client, err := catalog.NewClient(c.Catalog, nil, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry, err := search.NewRegistry(catalog.Sources(client, c.Search)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{
		cfg:      c,
		store:    store,
		catalog:  client,
		registry: registry,
		dispatch: metrics.NewDispatch(reg),
		filters:  filter.New(),
		history:  history.NewSearch(store, log),
		insdc:    history.NewINSDC(store, log),
		layout:   layout.New(store, log),
		resolver: insdc.NewResolver(client),
		nav:      &selection.RecordingNavigator{},
	}
	a.router = selection.NewRouter(a.filters, a.history, a.nav, selection.WithLogger(log))
	return a, nil
}

// dispatcherOptions are the options every dispatcher of this app uses.
func (a *app) dispatcherOptions(log *zap.Logger) []search.Option {
	return []search.Option{
		search.WithDebounce(a.cfg.Search.Debounce),
		search.WithLogger(log),
		search.WithMetrics(a.dispatch),
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
