// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDispatch_Counters(t *testing.T) {
	d := NewDispatch(prometheus.NewRegistry())

	d.Dispatched(false)
	d.Dispatched(true)
	d.FetchStarted("organism")
	d.FetchFinished("organism", OutcomeOK, 10*time.Millisecond)
	d.FetchStarted("taxon")
	d.FetchFinished("taxon", OutcomeStale, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.DispatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.EmptyTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.FetchesTotal.WithLabelValues("organism", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.FetchesTotal.WithLabelValues("taxon", OutcomeStale)))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.InFlight.WithLabelValues("organism")))
}

func TestDispatch_NilIsNoop(t *testing.T) {
	var d *Dispatch
	assert.NotPanics(t, func() {
		d.Dispatched(true)
		d.FetchStarted("organism")
		d.FetchFinished("organism", OutcomeError, time.Second)
	})
}

func TestNewDispatch_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewDispatch(nil)
		NewDispatch(nil)
	})
}
