// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/metrics"
)

// DefaultDebounce is the quiet period after the last SetQuery before the
// query is dispatched.
const DefaultDebounce = 300 * time.Millisecond

// ModelState is the visible state of one model for the current generation.
type ModelState struct {
	Items   []Item `json:"items"`
	Loading bool   `json:"loading"`
	Err     error  `json:"-"`
}

// Snapshot is a consistent copy of the dispatcher state.
type Snapshot struct {
	Query      string                `json:"query"`
	Generation uint64                `json:"generation"`
	Keys       []string              `json:"keys"`
	Models     map[string]ModelState `json:"models"`
}

// AnyLoading reports whether any model of the current generation is still
// fetching.
func (s Snapshot) AnyLoading() bool {
	for _, m := range s.Models {
		if m.Loading {
			return true
		}
	}
	return false
}

// HasResults reports whether any model has a non-empty result list.
func (s Snapshot) HasResults() bool {
	for _, m := range s.Models {
		if len(m.Items) > 0 {
			return true
		}
	}
	return false
}

// Model returns the state of the model registered under key.
func (s Snapshot) Model(key string) ModelState {
	return s.Models[key]
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.debounce = d
		}
	}
}

// WithLogger sets the logger used for fetch failures and stale discards.
func WithLogger(l *zap.Logger) Option {
	return func(x *Dispatcher) {
		if l != nil {
			x.log = l
		}
	}
}

// WithMetrics records dispatch and fetch outcomes in m.
func WithMetrics(m *metrics.Dispatch) Option {
	return func(x *Dispatcher) { x.metrics = m }
}

// WithOnChange registers a callback invoked with a fresh Snapshot after
// every visible state change. It may be called from fetch goroutines, but
// calls never overlap and each one sees state at least as new as the
// previous, so the last snapshot delivered is the current state. fn must
// not call back into the Dispatcher.
func WithOnChange(fn func(Snapshot)) Option {
	return func(x *Dispatcher) { x.onChange = fn }
}

// Dispatcher debounces query input, fans each query out to every enabled
// model and applies only results that belong to the current generation.
type Dispatcher struct {
	reg      *Registry
	debounce time.Duration
	log      *zap.Logger
	metrics  *metrics.Dispatch
	onChange func(Snapshot)
	notifyMu sync.Mutex

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	query    string
	states   map[string]ModelState
	cancel   context.CancelFunc
	timer    *time.Timer
	timerSeq uint64
	pending  string
	changed  chan struct{}
	closed   bool
}

// NewDispatcher creates a dispatcher over reg. Close it when the search
// bar goes away.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:      reg,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		states:   emptyStates(reg),
		changed:  make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	d.baseCtx, d.baseCancel = context.WithCancel(context.Background())
	return d
}

func emptyStates(reg *Registry) map[string]ModelState {
	states := make(map[string]ModelState, len(reg.sources))
	for _, s := range reg.sources {
		states[s.Key()] = ModelState{}
	}
	return states
}

// SetQuery records the latest input and restarts the debounce timer. Only
// the value present when the timer fires is dispatched.
func (d *Dispatcher) SetQuery(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.pending = query
	d.timerSeq++
	seq := d.timerSeq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, func() { d.fire(seq) })
}

func (d *Dispatcher) fire(seq uint64) {
	d.mu.Lock()
	// A timer that was stopped too late to prevent firing is superseded.
	if d.closed || seq != d.timerSeq {
		d.mu.Unlock()
		return
	}
	query := d.pending
	d.timer = nil
	d.mu.Unlock()

	d.Dispatch(d.baseCtx, query)
}

// Flush dispatches a pending debounced query now, as when the user
// submits the input. It reports whether a query was pending.
func (d *Dispatcher) Flush() bool {
	d.mu.Lock()
	if d.closed || d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.timerSeq++
	query := d.pending
	d.mu.Unlock()

	d.Dispatch(d.baseCtx, query)
	return true
}

// Dispatch starts a new generation for query immediately, bypassing the
// debounce, and returns the generation number. In-flight fetches of
// earlier generations are cancelled and their outcomes discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, query string) uint64 {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	if d.closed {
		g := d.gen
		d.mu.Unlock()
		return g
	}

	d.gen++
	g := d.gen
	d.query = query
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	if query == "" {
		d.states = emptyStates(d.reg)
		d.publishLocked()
		d.mu.Unlock()

		d.metrics.Dispatched(true)
		d.notify()
		return g
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	states := make(map[string]ModelState, len(d.reg.sources))
	var launch []Source
	for _, s := range d.reg.sources {
		if s.Limit() == 0 {
			states[s.Key()] = ModelState{}
			continue
		}
		states[s.Key()] = ModelState{Loading: true}
		launch = append(launch, s)
	}
	d.states = states
	d.publishLocked()
	d.mu.Unlock()

	d.metrics.Dispatched(false)
	d.log.Debug("dispatching query",
		zap.String("query", query),
		zap.Uint64("generation", g),
		zap.Int("models", len(launch)))

	for _, s := range launch {
		go d.run(runCtx, g, query, s)
	}
	d.notify()
	return g
}

func (d *Dispatcher) run(ctx context.Context, g uint64, query string, s Source) {
	key := s.Key()
	start := time.Now()
	d.metrics.FetchStarted(key)

	items, err := s.Fetch(ctx, query)

	d.mu.Lock()
	if d.gen != g {
		d.mu.Unlock()
		d.metrics.FetchFinished(key, metrics.OutcomeStale, time.Since(start))
		d.log.Debug("discarding stale results",
			zap.String("model", key),
			zap.Uint64("generation", g))
		return
	}

	st := ModelState{Items: items}
	outcome := metrics.OutcomeOK
	if err != nil {
		st = ModelState{Err: err}
		outcome = metrics.OutcomeError
	}
	d.states[key] = st
	d.publishLocked()
	d.mu.Unlock()

	d.metrics.FetchFinished(key, outcome, time.Since(start))
	if err != nil {
		d.log.Warn("model fetch failed",
			zap.String("model", key),
			zap.String("query", query),
			zap.Error(err))
	}
	d.notify()
}

// publishLocked wakes waiters. d.mu must be held.
func (d *Dispatcher) publishLocked() {
	close(d.changed)
	d.changed = make(chan struct{})
}

// notify hands the current state to the change callback. The snapshot is
// taken under notifyMu, after the change being reported, so a late
// notification of an older change still delivers the newest state.
func (d *Dispatcher) notify() {
	if d.onChange == nil {
		return
	}
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	d.onChange(d.Snapshot())
}

func (d *Dispatcher) snapshotLocked() Snapshot {
	models := make(map[string]ModelState, len(d.states))
	for k, v := range d.states {
		models[k] = v
	}
	return Snapshot{
		Query:      d.query,
		Generation: d.gen,
		Keys:       d.reg.Keys(),
		Models:     models,
	}
}

// Snapshot returns the current state.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Generation returns the current generation number.
func (d *Dispatcher) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Wait blocks until no model of the current generation is loading, or
// ctx is done. A model that never resolves keeps Wait blocked.
func (d *Dispatcher) Wait(ctx context.Context) (Snapshot, error) {
	for {
		d.mu.Lock()
		snap := d.snapshotLocked()
		ch := d.changed
		d.mu.Unlock()

		if !snap.AnyLoading() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ch:
		}
	}
}

// Search dispatches query immediately and waits for every model to settle.
func (d *Dispatcher) Search(ctx context.Context, query string) (Snapshot, error) {
	d.Dispatch(ctx, query)
	return d.Wait(ctx)
}

// Close stops the debounce timer and cancels in-flight fetches. Later
// calls to SetQuery and Dispatch are ignored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.timerSeq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// Advance the generation so fetches already past their network call
	// are discarded too.
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.states = emptyStates(d.reg)
	d.publishLocked()
	d.baseCancel()
}
