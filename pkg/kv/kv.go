// Package kv models the persistent string key-value store that backs client-side
// state such as the cart. A Store is one handle onto storage that other handles
// (other tabs, other processes) share; Watch reports writes made through those
// other handles, never the handle's own writes.
package kv

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned once a handle has been closed.
var ErrClosed = errors.New("kv store closed")

// Store is one handle onto a shared key-value store.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Watch registers fn for writes to key made by other handles. The returned
	// func unregisters it and is safe to call more than once.
	Watch(key string, fn func(Change)) (cancel func())
	Close() error
}

// Change describes an external write. Observers re-read the key for its value.
type Change struct {
	Key    string
	Origin string
}

// watchers is the per-handle registry every backend embeds.
type watchers struct {
	mu     sync.Mutex
	nextID int
	byKey  map[string]map[int]func(Change)
}

func (w *watchers) add(key string, fn func(Change)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.byKey == nil {
		w.byKey = map[string]map[int]func(Change){}
	}
	if w.byKey[key] == nil {
		w.byKey[key] = map[int]func(Change){}
	}
	w.nextID++
	id := w.nextID
	w.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.byKey[key], id)
			if len(w.byKey[key]) == 0 {
				delete(w.byKey, key)
			}
		})
	}
}

func (w *watchers) keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.byKey))
	for k := range w.byKey {
		out = append(out, k)
	}
	return out
}

func (w *watchers) watching(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byKey[key]) > 0
}

// notify calls the key's observers outside the lock so they may re-enter the store.
func (w *watchers) notify(change Change) {
	w.mu.Lock()
	fns := make([]func(Change), 0, len(w.byKey[change.Key]))
	for _, fn := range w.byKey[change.Key] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func newOrigin() string {
	return uuid.NewString()
}
