package kv

import (
	"context"
	"sync"
)

// Profile is in-process shared storage, the equivalent of one browser profile's
// local storage. Every handle opened on it sees the same data and is told about
// writes made through the other handles.
type Profile struct {
	mu      sync.RWMutex
	data    map[string]string
	handles map[*Memory]struct{}
}

func NewProfile() *Profile {
	return &Profile{
		data:    map[string]string{},
		handles: map[*Memory]struct{}{},
	}
}

// Open returns a new handle onto the profile.
func (p *Profile) Open() *Memory {
	m := &Memory{profile: p, origin: newOrigin()}
	p.mu.Lock()
	p.handles[m] = struct{}{}
	p.mu.Unlock()
	return m
}

// Raw writes directly into the profile without notifying anyone, mimicking edits
// made outside the application (devtools, another program).
func (p *Profile) Raw(key, value string) {
	p.mu.Lock()
	p.data[key] = value
	p.mu.Unlock()
}

func (p *Profile) others(except *Memory) []*Memory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Memory, 0, len(p.handles))
	for h := range p.handles {
		if h != except {
			out = append(out, h)
		}
	}
	return out
}

// Memory is one handle onto a Profile.
type Memory struct {
	profile *Profile
	origin  string
	watch   watchers

	mu     sync.RWMutex
	closed bool
}

// NewMemory opens a handle on a fresh, private profile.
func NewMemory() *Memory {
	return NewProfile().Open()
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if m.isClosed() {
		return "", false, ErrClosed
	}
	m.profile.mu.RLock()
	defer m.profile.mu.RUnlock()
	v, ok := m.profile.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.profile.mu.Lock()
	m.profile.data[key] = value
	m.profile.mu.Unlock()

	change := Change{Key: key, Origin: m.origin}
	for _, h := range m.profile.others(m) {
		h.watch.notify(change)
	}
	return nil
}

func (m *Memory) Watch(key string, fn func(Change)) func() {
	return m.watch.add(key, fn)
}

// Close detaches the handle from its profile; the data stays.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.profile.mu.Lock()
	delete(m.profile.handles, m)
	m.profile.mu.Unlock()
	return nil
}

func (m *Memory) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
