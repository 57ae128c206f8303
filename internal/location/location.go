// Package location is the addressable, navigable representation of list state:
// a path plus a flat query string, with replace, push and back/forward history.
package location

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Values is a flat key/value view of a query string.
type Values map[string]string

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Encode renders v as a query string with sorted keys; empty values are dropped.
func (v Values) Encode() string {
	keys := make([]string, 0, len(v))
	for k, val := range v {
		if val != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v[k]))
	}
	return b.String()
}

// FromQuery flattens url.Values; for repeated keys the first value wins.
func FromQuery(q url.Values) Values {
	out := make(Values, len(q))
	for k, vals := range q {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

// Parse reads a raw query string. Malformed pairs are skipped.
func Parse(raw string) Values {
	q, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return FromQuery(q)
}

// Location is what a list controller binds to.
type Location interface {
	Read() Values
	// Replace swaps the current entry without adding history.
	Replace(v Values)
	// Subscribe registers fn for every change of the representation.
	Subscribe(fn func(Values)) (cancel func())
}

// History is an in-memory browser-style location with a back/forward stack.
type History struct {
	path string

	mu      sync.Mutex
	entries []string
	index   int
	subs    map[int]func(Values)
	nextID  int
}

// NewHistory starts at path with the given initial query string.
func NewHistory(path, rawQuery string) *History {
	return &History{
		path:    path,
		entries: []string{Parse(rawQuery).Encode()},
		subs:    map[int]func(Values){},
	}
}

func (h *History) Read() Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Parse(h.entries[h.index])
}

func (h *History) Replace(v Values) {
	h.navigate(v.Encode(), false)
}

// Push adds a new entry and drops any forward history.
func (h *History) Push(v Values) {
	h.navigate(v.Encode(), true)
}

// Back moves one entry back; it reports false at the start of history.
func (h *History) Back() bool {
	return h.step(-1)
}

// Forward moves one entry forward; it reports false at the end of history.
func (h *History) Forward() bool {
	return h.step(1)
}

// Len is the number of history entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// String renders the current entry as path?query.
func (h *History) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if q := h.entries[h.index]; q != "" {
		return h.path + "?" + q
	}
	return h.path
}

func (h *History) Subscribe(fn func(Values)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *History) navigate(encoded string, push bool) {
	h.mu.Lock()
	if h.entries[h.index] == encoded {
		h.mu.Unlock()
		return
	}
	if push {
		h.entries = append(h.entries[:h.index+1], encoded)
		h.index++
	} else {
		h.entries[h.index] = encoded
	}
	h.mu.Unlock()
	h.notify(encoded)
}

func (h *History) step(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	changed := h.entries[next] != h.entries[h.index]
	h.index = next
	encoded := h.entries[next]
	h.mu.Unlock()

	if changed {
		h.notify(encoded)
	}
	return true
}

func (h *History) notify(encoded string) {
	h.mu.Lock()
	fns := make([]func(Values), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(Parse(encoded))
	}
}
