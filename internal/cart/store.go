// Package cart keeps the shopper's cart in a shared key-value store and tells
// observers about every change, whether it happened here or in another tab or
// process sharing the same storage.
package cart

import (
	"context"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/uchsash/medistore/pkg/kv"
	"github.com/uchsash/medistore/pkg/logger"
	"github.com/uchsash/medistore/pkg/metrics"
)

// Store is a cart bound to one storage key. A nil backend turns every read
// into an empty cart and every write into a no-op.
type Store struct {
	backend kv.Store
	key     string
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	mu        sync.Mutex
	deliverMu sync.Mutex
	subsMu    sync.Mutex
	subs      map[int]func(Snapshot)
	nextSubID int
	stopWatch func()
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New binds a cart to backend and starts watching for external writes to its key.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logg:    logger.Nop(),
		subs:    map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	if backend != nil {
		s.stopWatch = backend.Watch(s.key, s.onExternalChange)
	}
	return s
}

// Key returns the storage key backing the cart.
func (s *Store) Key() string {
	return s.key
}

// Items returns the current lines.
func (s *Store) Items(ctx context.Context) []Line {
	return s.read(ctx)
}

// Count is the sum of all quantities.
func (s *Store) Count(ctx context.Context) int {
	return countOf(s.read(ctx))
}

// Subtotal is the sum of unit price times quantity, rounded to cents.
func (s *Store) Subtotal(ctx context.Context) decimal.Decimal {
	return subtotalOf(s.read(ctx))
}

// Snapshot reads lines and count in one pass.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	lines := s.read(ctx)
	return Snapshot{Items: lines, Count: countOf(lines)}
}

// Add merges qty into the line for item.ItemID, creating it when absent.
// The resulting quantity never drops below 1.
func (s *Store) Add(ctx context.Context, item Item, qty int) {
	s.mutate(ctx, "add", func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ItemID == item.ItemID {
				lines[i].Quantity = addQuantity(lines[i].Quantity, qty)
				return lines
			}
		}
		return append(lines, item.line(clampQuantity(qty)))
	})
}

// Remove drops the line for itemID if present.
func (s *Store) Remove(ctx context.Context, itemID string) {
	s.mutate(ctx, "remove", func(lines []Line) []Line {
		out := lines[:0]
		for _, l := range lines {
			if l.ItemID != itemID {
				out = append(out, l)
			}
		}
		return out
	})
}

// SetQuantity sets the quantity of an existing line to max(1, floor(qty)).
func (s *Store) SetQuantity(ctx context.Context, itemID string, qty float64) {
	q := 1
	if !math.IsNaN(qty) {
		f := math.Floor(qty)
		switch {
		case f >= MaxQuantity:
			q = MaxQuantity
		case f > 1:
			q = int(f)
		}
	}
	s.mutate(ctx, "set_quantity", func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ItemID == itemID {
				lines[i].Quantity = q
			}
		}
		return lines
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func([]Line) []Line { return []Line{} })
}

// Subscribe registers fn for every change. The returned func unregisters it.
// Deliveries are serialized; fn must not mutate the store.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Close stops watching the backend. The backend itself stays open.
func (s *Store) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
}

func (s *Store) read(ctx context.Context) []Line {
	if s.backend == nil {
		return []Line{}
	}
	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.metrics.IncStorageFailure("read")
		s.logg.Warn(s.logCtx(ctx, err), "cart.read_failed")
		return []Line{}
	}
	if !found {
		return []Line{}
	}
	return decodeLines(raw)
}

func (s *Store) mutate(ctx context.Context, op string, apply func([]Line) []Line) {
	if s.backend == nil {
		return
	}

	s.mu.Lock()
	lines := apply(s.read(ctx))
	raw, err := encodeLines(lines)
	if err == nil {
		err = s.backend.Set(ctx, s.key, raw)
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.IncStorageFailure("write")
		s.logg.Warn(s.logCtx(ctx, err), "cart.write_failed")
		return
	}
	s.metrics.IncMutation(op)
	s.publish(context.WithoutCancel(ctx))
}

func (s *Store) onExternalChange(kv.Change) {
	s.publish(context.Background())
}

// publish re-reads the cart and hands the result to every observer. Deliveries
// never interleave and each one reads after the write that triggered it, so
// the last snapshot an observer receives is the stored cart.
func (s *Store) publish(ctx context.Context) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	if len(fns) == 0 {
		return
	}

	lines := s.read(ctx)
	snap := Snapshot{Items: lines, Count: countOf(lines)}

	for _, fn := range fns {
		items := make([]Line, len(snap.Items))
		copy(items, snap.Items)
		fn(Snapshot{Items: items, Count: snap.Count})
	}
}

func (s *Store) logCtx(ctx context.Context, err error) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"error":    err.Error(),
	})
}
