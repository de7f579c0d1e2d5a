// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/annotation-browser/internal/metrics"
)

// --- fake model ---

type record struct {
	ID    string
	Query string
}

// fakeModel answers every query with limit records tagged with the query.
// delay, if set, decides how long each query takes to resolve.
type fakeModel struct {
	key   string
	limit int
	delay func(query string) time.Duration
	err   error

	mu      sync.Mutex
	queries []string
	calls   atomic.Int32
}

func (f *fakeModel) fetch(ctx context.Context, query string, limit int) ([]record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.delay != nil {
		// Ignore ctx on purpose: stale results must be dropped even when
		// the backend does not honour cancellation.
		time.Sleep(f.delay(query))
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]record, limit+2) // over-deliver to exercise truncation
	for i := range out {
		out[i] = record{ID: fmt.Sprintf("%s-%d", f.key, i), Query: query}
	}
	return out, nil
}

func (f *fakeModel) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeModel) model() Model[record] {
	return Model[record]{
		Key:          f.key,
		Label:        f.key,
		Limit:        f.limit,
		FetchResults: f.fetch,
		GetID:        func(r record) string { return r.ID },
		GetTitle:     func(r record) string { return r.Query },
		GetMeta:      func(r record) string { return "meta" },
	}
}

func newRegistry(t *testing.T, models ...*fakeModel) *Registry {
	t.Helper()
	sources := make([]Source, len(models))
	for i, m := range models {
		sources[i] = m.model().Source()
	}
	reg, err := NewRegistry(sources...)
	require.NoError(t, err)
	return reg
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// --- Registry ---

func TestNewRegistry_RejectsDuplicateKey(t *testing.T) {
	a := &fakeModel{key: "organism", limit: 5}
	b := &fakeModel{key: "organism", limit: 3}
	_, err := NewRegistry(a.model().Source(), b.model().Source())
	assert.ErrorIs(t, err, ErrDuplicateModel)
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name  string
		model Model[record]
		want  error
	}{
		{"empty key", Model[record]{Key: " ", FetchResults: (&fakeModel{}).fetch, GetID: func(r record) string { return r.ID }}, ErrEmptyKey},
		{"negative limit", Model[record]{Key: "k", Limit: -1, FetchResults: (&fakeModel{}).fetch, GetID: func(r record) string { return r.ID }}, ErrInvalidLimit},
		{"no fetch", Model[record]{Key: "k", Limit: 1, GetID: func(r record) string { return r.ID }}, ErrNoFetch},
		{"no id", Model[record]{Key: "k", Limit: 1, FetchResults: (&fakeModel{}).fetch}, ErrNoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.model.Source())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegistry_OrderAndLookup(t *testing.T) {
	reg := newRegistry(t,
		&fakeModel{key: "organism", limit: 5},
		&fakeModel{key: "taxon", limit: 5},
		&fakeModel{key: "assembly", limit: 5},
	)
	assert.Equal(t, []string{"organism", "taxon", "assembly"}, reg.Keys())
	assert.Len(t, reg.Sources(), 3)

	s, ok := reg.Lookup("taxon")
	require.True(t, ok)
	assert.Equal(t, 5, s.Limit())

	_, ok = reg.Lookup("gene")
	assert.False(t, ok)
}

func TestModelFetch_ShapesAndTruncates(t *testing.T) {
	f := &fakeModel{key: "organism", limit: 3}
	items, err := f.model().Source().Fetch(context.Background(), "Homo")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, Item{ModelKey: "organism", ID: "organism-0", Title: "Homo", Meta: "meta", Data: record{ID: "organism-0", Query: "Homo"}}, items[0])
}

func TestModelFetch_TitleDefaultsToID(t *testing.T) {
	m := Model[record]{
		Key:          "taxon",
		Limit:        1,
		FetchResults: (&fakeModel{key: "taxon"}).fetch,
		GetID:        func(r record) string { return r.ID },
	}
	items, err := m.Source().Fetch(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, items[0].ID, items[0].Title)
}

// --- Dispatcher ---

func TestDispatch_PopulatesEachModel(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	tax := &fakeModel{key: "taxon", limit: 5}
	asm := &fakeModel{key: "assembly", limit: 5}
	d := NewDispatcher(newRegistry(t, org, tax, asm))
	defer d.Close()

	snap, err := d.Search(waitCtx(t), "Homo")
	require.NoError(t, err)

	assert.Equal(t, "Homo", snap.Query)
	assert.False(t, snap.AnyLoading())
	assert.True(t, snap.HasResults())
	for _, key := range []string{"organism", "taxon", "assembly"} {
		st := snap.Model(key)
		assert.Len(t, st.Items, 5, key)
		assert.NoError(t, st.Err, key)
	}
}

func TestDispatch_LimitZeroNeverFetches(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	off := &fakeModel{key: "assembly", limit: 0}
	d := NewDispatcher(newRegistry(t, org, off))
	defer d.Close()

	for _, q := range []string{"Homo", "Mus", "9606"} {
		_, err := d.Search(waitCtx(t), q)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(0), off.calls.Load())
	assert.Equal(t, int32(3), org.calls.Load())
}

func TestDispatch_EmptyQueryClearsWithoutFetching(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, org))
	defer d.Close()

	_, err := d.Search(waitCtx(t), "Homo")
	require.NoError(t, err)
	require.True(t, d.Snapshot().HasResults())

	for _, q := range []string{"", "   ", "\t\n"} {
		snap, err := d.Search(waitCtx(t), q)
		require.NoError(t, err)
		assert.False(t, snap.HasResults(), "%q", q)
		assert.False(t, snap.AnyLoading(), "%q", q)
		assert.NoError(t, snap.Model("organism").Err)
	}
	assert.Equal(t, int32(1), org.calls.Load())
}

func TestDispatch_ErrorIsolatedPerModel(t *testing.T) {
	failing := &fakeModel{key: "taxon", limit: 5, err: errors.New("catalog unavailable")}
	working := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, working, failing))
	defer d.Close()

	snap, err := d.Search(waitCtx(t), "Homo")
	require.NoError(t, err)

	assert.Error(t, snap.Model("taxon").Err)
	assert.Empty(t, snap.Model("taxon").Items)
	assert.Len(t, snap.Model("organism").Items, 5)
	assert.True(t, snap.HasResults())
}

func TestDispatch_ErrorClearsPreviousResults(t *testing.T) {
	m := &fakeModel{key: "organism", limit: 2}
	d := NewDispatcher(newRegistry(t, m))
	defer d.Close()

	_, err := d.Search(waitCtx(t), "Homo")
	require.NoError(t, err)

	m.err = errors.New("boom")
	snap, err := d.Search(waitCtx(t), "Mus")
	require.NoError(t, err)
	assert.Empty(t, snap.Model("organism").Items)
	assert.Error(t, snap.Model("organism").Err)
}

// Earlier queries resolve later than the final one; once everything has
// settled only the final query may be visible.
func TestDispatch_LastQueryWins(t *testing.T) {
	burst := []string{"H", "Ho", "Hom", "Homo", "Homo s", "Homo sapiens"}
	delays := map[string]time.Duration{}
	for i, q := range burst {
		delays[q] = time.Duration(len(burst)-i) * 15 * time.Millisecond
	}
	delay := func(q string) time.Duration { return delays[q] }

	org := &fakeModel{key: "organism", limit: 3, delay: delay}
	asm := &fakeModel{key: "assembly", limit: 3, delay: delay}

	var mu sync.Mutex
	var observed []Snapshot
	d := NewDispatcher(newRegistry(t, org, asm), WithOnChange(func(s Snapshot) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	}))
	defer d.Close()

	for _, q := range burst {
		d.Dispatch(context.Background(), q)
	}
	snap, err := d.Wait(waitCtx(t))
	require.NoError(t, err)

	// Let every stale fetch finish so a late write would show up.
	time.Sleep(delays[burst[0]] + 50*time.Millisecond)
	snap = d.Snapshot()

	assert.Equal(t, "Homo sapiens", snap.Query)
	assert.Equal(t, uint64(len(burst)), snap.Generation)
	for _, key := range []string{"organism", "assembly"} {
		require.Len(t, snap.Model(key).Items, 3, key)
		for _, it := range snap.Model(key).Items {
			assert.Equal(t, "Homo sapiens", it.Title, key)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, s := range observed {
		for key, st := range s.Models {
			for _, it := range st.Items {
				assert.Equal(t, s.Query, it.Title, "snapshot for %q shows %s results of %q", s.Query, key, it.Title)
			}
		}
	}
	require.NotEmpty(t, observed)
	assert.Equal(t, snap, observed[len(observed)-1])
}

func TestOnChange_LastDeliveredIsCurrent(t *testing.T) {
	m := &fakeModel{key: "organism", limit: 1, delay: func(q string) time.Duration {
		if q == "new" {
			return 20 * time.Millisecond
		}
		return 0
	}}

	var mu sync.Mutex
	var observed []Snapshot
	d := NewDispatcher(newRegistry(t, m), WithOnChange(func(s Snapshot) {
		// A slow consumer lets notifications of different generations overlap.
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	}))
	defer d.Close()

	go d.Dispatch(context.Background(), "old")
	require.Eventually(t, func() bool { return d.Generation() >= 1 }, time.Second, time.Millisecond)
	go d.Dispatch(context.Background(), "new")

	require.Eventually(t, func() bool {
		snap := d.Snapshot()
		if snap.Query != "new" || snap.AnyLoading() {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		return len(observed) > 0 && observed[len(observed)-1].Query == "new" &&
			!observed[len(observed)-1].AnyLoading()
	}, 2*time.Second, 10*time.Millisecond)

	// Wait out any notification still in flight.
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	last := observed[len(observed)-1]
	assert.Equal(t, d.Snapshot(), last)
	assert.Equal(t, "new", last.Model("organism").Items[0].Title)
	for i := 1; i < len(observed); i++ {
		assert.GreaterOrEqual(t, observed[i].Generation, observed[i-1].Generation)
	}
}

func TestDispatch_StaleDiscardCounted(t *testing.T) {
	slow := &fakeModel{key: "organism", limit: 1, delay: func(q string) time.Duration {
		if q == "old" {
			return 40 * time.Millisecond
		}
		return 0
	}}
	m := metrics.NewDispatch(prometheus.NewRegistry())
	d := NewDispatcher(newRegistry(t, slow), WithMetrics(m))
	defer d.Close()

	d.Dispatch(context.Background(), "old")
	_, err := d.Search(waitCtx(t), "new")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.FetchesTotal.WithLabelValues("organism", metrics.OutcomeStale)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchesTotal))
	assert.Equal(t, "new", d.Snapshot().Model("organism").Items[0].Title)
}

func TestSetQuery_DebouncesToLastValue(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, org), WithDebounce(40*time.Millisecond))
	defer d.Close()

	d.SetQuery("Hom")
	d.SetQuery("Homo sapiens")

	assert.Eventually(t, func() bool { return org.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return org.calls.Load() > 1 }, 150*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{"Homo sapiens"}, org.seen())
	assert.Equal(t, uint64(1), d.Generation())
}

func TestSetQuery_NoLeadingDispatch(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, org), WithDebounce(80*time.Millisecond))
	defer d.Close()

	d.SetQuery("Homo")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), org.calls.Load())
	assert.Equal(t, uint64(0), d.Generation())

	assert.Eventually(t, func() bool { return org.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSetQuery_SeparatedInputsDispatchEach(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, org), WithDebounce(20*time.Millisecond))
	defer d.Close()

	d.SetQuery("Homo")
	require.Eventually(t, func() bool { return org.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	d.SetQuery("Mus")
	require.Eventually(t, func() bool { return org.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"Homo", "Mus"}, org.seen())
}

func TestFlush_DispatchesPendingNow(t *testing.T) {
	org := &fakeModel{key: "organism", limit: 5}
	d := NewDispatcher(newRegistry(t, org), WithDebounce(time.Hour))
	defer d.Close()

	assert.False(t, d.Flush(), "nothing pending")

	d.SetQuery("Hom")
	d.SetQuery("Homo")
	require.True(t, d.Flush())

	snap, err := d.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "Homo", snap.Query)
	assert.Equal(t, []string{"Homo"}, org.seen())
	assert.False(t, d.Flush(), "timer already consumed")
}

func TestClose_StopsPendingAndInFlight(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	stuck := Model[record]{
		Key:   "organism",
		Limit: 1,
		FetchResults: func(ctx context.Context, q string, limit int) ([]record, error) {
			<-block
			return []record{{ID: "x", Query: q}}, nil
		},
		GetID: func(r record) string { return r.ID },
	}
	reg, err := NewRegistry(stuck.Source())
	require.NoError(t, err)

	d := NewDispatcher(reg, WithDebounce(10*time.Millisecond))
	d.Dispatch(context.Background(), "Homo")
	require.True(t, d.Snapshot().AnyLoading())

	d.SetQuery("Mus")
	d.Close()

	snap, err := d.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.False(t, snap.AnyLoading())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap.Generation, d.Generation(), "debounced query must not dispatch after Close")
}

func TestWait_HonoursContext(t *testing.T) {
	never := Model[record]{
		Key:   "organism",
		Limit: 1,
		FetchResults: func(ctx context.Context, q string, limit int) ([]record, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		GetID: func(r record) string { return r.ID },
	}
	reg, err := NewRegistry(never.Source())
	require.NoError(t, err)
	d := NewDispatcher(reg)
	defer d.Close()

	d.Dispatch(context.Background(), "Homo")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap, err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, snap.AnyLoading())
}
