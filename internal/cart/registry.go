package cart

import (
	"sync"

	"github.com/uchsash/medistore/pkg/kv"
	"github.com/uchsash/medistore/pkg/logger"
	"github.com/uchsash/medistore/pkg/metrics"
)

// Registry hands out one Store per shopper profile over a single backend, so
// every request and event stream for a profile shares the same observers.
type Registry struct {
	backend kv.Store
	baseKey string
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(backend kv.Store, baseKey string, logg *logger.Logger, m *metrics.CartMetrics) *Registry {
	if baseKey == "" {
		baseKey = DefaultKey
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		backend: backend,
		baseKey: baseKey,
		logg:    logg,
		metrics: m,
		stores:  map[string]*Store{},
	}
}

// KeyFor returns the storage key of a profile's cart.
func (r *Registry) KeyFor(profileID string) string {
	if profileID == "" {
		return r.baseKey
	}
	return r.baseKey + ":" + profileID
}

// For returns the profile's cart, creating it on first use.
func (r *Registry) For(profileID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[profileID]; ok {
		return s
	}
	s := New(r.backend, WithKey(r.KeyFor(profileID)), WithLogger(r.logg), WithMetrics(r.metrics))
	r.stores[profileID] = s
	return s
}

// Close stops every cart's watch.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.stores {
		s.Close()
		delete(r.stores, id)
	}
}
