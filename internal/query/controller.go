package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/uchsash/medistore/internal/location"
	"github.com/uchsash/medistore/pkg/logger"
	"github.com/uchsash/medistore/pkg/metrics"
)

// DefaultDebounce is how long search text settles before it is pushed.
const DefaultDebounce = 500 * time.Millisecond

// Fetcher loads one page for a state.
type Fetcher[T any] func(ctx context.Context, st State) (PageResult[T], error)

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Snapshot is what renderers observe. Result is the last successful page and
// survives later failures.
type Snapshot[T any] struct {
	State   State
	Result  *PageResult[T]
	Err     error
	Loading bool
	Seq     uint64
}

type controllerOptions struct {
	debounce  time.Duration
	afterFunc AfterFunc
	logg      *logger.Logger
	metrics   *metrics.ListFetchMetrics
}

// Option configures a Controller.
type Option func(*controllerOptions)

// WithDebounce sets the search debounce; non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(o *controllerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *controllerOptions) {
		if fn != nil {
			o.afterFunc = fn
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(o *controllerOptions) {
		if logg != nil {
			o.logg = logg
		}
	}
}

func WithMetrics(m *metrics.ListFetchMetrics) Option {
	return func(o *controllerOptions) { o.metrics = m }
}

// Controller binds a list's State to a Location. The location is the only
// source of truth: every change to it, local or external, dispatches exactly
// one fetch, and only the most recently dispatched fetch may publish its result.
type Controller[T any] struct {
	schema Schema
	loc    location.Location
	fetch  Fetcher[T]
	opts   controllerOptions

	// pushMu serializes writes to the location.
	pushMu sync.Mutex
	// deliverMu serializes observer callbacks; delivered is the newest Seq handed out.
	deliverMu sync.Mutex
	delivered uint64

	mu         sync.Mutex
	base       context.Context
	started    bool
	stopped    bool
	stopLoc    func()
	text       string
	pending    Timer
	pendingGen uint64
	seq        uint64
	cancel     context.CancelFunc
	state      State
	result     *PageResult[T]
	err        error
	loading    bool
	subs       map[int]func(Snapshot[T])
	nextSubID  int
	inflight   sync.WaitGroup
}

func NewController[T any](schema Schema, loc location.Location, fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := controllerOptions{
		debounce:  DefaultDebounce,
		afterFunc: realAfterFunc,
		logg:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	st := schema.FromValues(loc.Read())
	return &Controller[T]{
		schema: schema,
		loc:    loc,
		fetch:  fetch,
		opts:   o,
		text:   st.SearchText,
		state:  st,
		subs:   map[int]func(Snapshot[T]){},
	}
}

// Start subscribes to the location and dispatches the initial fetch.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.base = ctx
	c.mu.Unlock()

	stop := c.loc.Subscribe(c.onLocationChange)

	c.mu.Lock()
	c.stopLoc = stop
	c.mu.Unlock()

	c.dispatch(c.State())
}

// Stop cancels the pending search push, the location subscription and any
// fetch in flight, then waits for fetch goroutines to return.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.cancelPendingLocked()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	stopLoc := c.stopLoc
	c.stopLoc = nil
	c.mu.Unlock()

	if stopLoc != nil {
		stopLoc()
	}
	c.inflight.Wait()
}

// State is derived from the location on every call.
func (c *Controller[T]) State() State {
	return c.schema.FromValues(c.loc.Read())
}

// Schema returns the schema the controller normalizes against.
func (c *Controller[T]) Schema() Schema {
	return c.schema
}

// SearchText is the local, possibly not yet pushed, search input.
func (c *Controller[T]) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every transition. The returned func unregisters it.
// Observers are called one at a time in dispatch order and must not drive the
// controller from inside fn.
func (c *Controller[T]) Subscribe(fn func(Snapshot[T])) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SetSearchText records text immediately and pushes it, trimmed, once input
// has been quiet for the debounce interval.
func (c *Controller[T]) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.text = text
	c.cancelPendingLocked()
	gen := c.pendingGen
	c.pending = c.opts.afterFunc(c.opts.debounce, func() { c.flushSearch(gen) })
}

// SetFilter pushes a filter; an empty value removes it. Undeclared keys are ignored.
func (c *Controller[T]) SetFilter(key, value string) {
	if !c.schema.HasFilter(key) {
		return
	}
	c.pushImmediate(func(st *State) {
		if v := strings.TrimSpace(value); v != "" {
			st.Filters[key] = v
		} else {
			delete(st.Filters, key)
		}
		st.Page = 1
	})
}

func (c *Controller[T]) SetSort(field string, order SortOrder) {
	c.pushImmediate(func(st *State) {
		st.SortField = field
		st.SortOrder = order
		st.Page = 1
	})
}

// SetPage navigates without touching any other parameter.
func (c *Controller[T]) SetPage(n int) {
	c.pushImmediate(func(st *State) {
		st.Page = max(1, n)
	})
}

// SetPageSize pushes a preset page size; values outside the presets fall back
// to the default.
func (c *Controller[T]) SetPageSize(n int) {
	c.pushImmediate(func(st *State) {
		st.PageSize = n
		st.Page = 1
	})
}

// Refresh re-fetches the current state without touching the location.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	active := c.started && !c.stopped
	c.mu.Unlock()
	if active {
		c.dispatch(c.State())
	}
}

// AfterDelete keeps the view valid after a row was removed: deleting the last
// row of a page past the first goes back one page, anything else re-fetches.
func (c *Controller[T]) AfterDelete(rowsOnPage int) {
	st := c.State()
	if rowsOnPage <= 1 && st.Page > 1 {
		c.SetPage(st.Page - 1)
		return
	}
	c.Refresh()
}

func (c *Controller[T]) pushImmediate(apply func(st *State)) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.cancelPendingLocked()
	c.mu.Unlock()

	st := c.State().Clone()
	apply(&st)
	c.loc.Replace(c.schema.Values(st))
}

// flushSearch pushes the debounced text unless an immediate push or a
// navigation took the slot since the timer was armed.
func (c *Controller[T]) flushSearch(gen uint64) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	if c.stopped || gen != c.pendingGen {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	text := strings.TrimSpace(c.text)
	c.mu.Unlock()

	st := c.State().Clone()
	if st.SearchText == text {
		return
	}
	st.SearchText = text
	st.Page = 1
	c.loc.Replace(c.schema.Values(st))
}

// cancelPendingLocked empties the single debounce slot.
func (c *Controller[T]) cancelPendingLocked() {
	c.pendingGen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller[T]) onLocationChange(v location.Values) {
	st := c.schema.FromValues(v)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.cancelPendingLocked()
	c.text = st.SearchText
	c.mu.Unlock()

	c.dispatch(st)
}

func (c *Controller[T]) dispatch(st State) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.state = st
	c.err = nil
	c.loading = true
	c.inflight.Add(1)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.opts.metrics.IncDispatched(c.schema.Resource)
	c.publish(snap)

	go c.run(ctx, cancel, seq, st)
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, st State) {
	defer c.inflight.Done()
	defer cancel()

	started := time.Now()
	res, err := c.fetch(ctx, st)
	took := time.Since(started)

	c.mu.Lock()
	if seq != c.seq || c.stopped {
		c.mu.Unlock()
		c.opts.metrics.Observe(c.schema.Resource, metrics.OutcomeStale, took)
		return
	}
	c.cancel = nil
	c.loading = false
	if err != nil {
		c.err = err
	} else {
		c.result = &res
	}
	snap := c.snapshotLocked()
	base := c.base
	c.mu.Unlock()

	if err != nil {
		c.opts.metrics.Observe(c.schema.Resource, metrics.OutcomeFailed, took)
		logCtx := c.opts.logg.WithResource(base, c.schema.Resource)
		logCtx = c.opts.logg.WithField(logCtx, "seq", seq)
		c.opts.logg.Error(logCtx, "query.fetch_failed", err)
	} else {
		c.opts.metrics.Observe(c.schema.Resource, metrics.OutcomeApplied, took)
	}
	c.publish(snap)
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		State:   c.state.Clone(),
		Result:  c.result,
		Err:     c.err,
		Loading: c.loading,
		Seq:     c.seq,
	}
}

// publish drops snapshots older than one already delivered, so a fetch that
// lost the race to a newer dispatch never reaches observers last.
func (c *Controller[T]) publish(snap Snapshot[T]) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if snap.Seq < c.delivered {
		return
	}
	c.delivered = snap.Seq

	c.mu.Lock()
	fns := make([]func(Snapshot[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
