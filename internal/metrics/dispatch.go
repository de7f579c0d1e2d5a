// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for the search
// dispatcher and the catalog fetchers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "annotation_browser"

// Outcome labels for FetchesTotal.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Dispatch holds the collectors updated by a search dispatcher.
// A nil *Dispatch is valid and records nothing.
type Dispatch struct {
	DispatchesTotal prometheus.Counter
	EmptyTotal      prometheus.Counter
	FetchesTotal    *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	InFlight        *prometheus.GaugeVec
}

// NewDispatch creates the dispatcher collectors and registers them with
// reg. Passing nil skips registration.
func NewDispatch(reg prometheus.Registerer) *Dispatch {
	d := &Dispatch{
		DispatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_dispatches_total",
			Help:      "Total number of debounced query dispatches",
		}),
		EmptyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_empty_dispatches_total",
			Help:      "Dispatches whose trimmed query was empty",
		}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fetches_total",
			Help:      "Model fetches by outcome (ok, error, stale)",
		}, []string{"model", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_fetch_duration_seconds",
			Help:      "Model fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"model"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_fetches_in_flight",
			Help:      "Model fetches currently running",
		}, []string{"model"}),
	}
	if reg != nil {
		reg.MustRegister(d.DispatchesTotal, d.EmptyTotal, d.FetchesTotal, d.FetchDuration, d.InFlight)
	}
	return d
}

// Dispatched counts one dispatch; empty marks a whitespace-only query.
func (d *Dispatch) Dispatched(empty bool) {
	if d == nil {
		return
	}
	d.DispatchesTotal.Inc()
	if empty {
		d.EmptyTotal.Inc()
	}
}

// FetchStarted marks a model fetch as running.
func (d *Dispatch) FetchStarted(model string) {
	if d == nil {
		return
	}
	d.InFlight.WithLabelValues(model).Inc()
}

// FetchFinished records a completed model fetch.
func (d *Dispatch) FetchFinished(model, outcome string, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.InFlight.WithLabelValues(model).Dec()
	d.FetchesTotal.WithLabelValues(model, outcome).Inc()
	d.FetchDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}
