// Package registry tracks the sessions this process has spawned or
// discovered. It is an explicitly owned, injectable object — never a
// package global — so tests can run independent instances in parallel.
//
// The registry is a cache of the multiplexer's true state. Callers must
// reconcile it against a live session listing before trusting it for a
// destructive action or a not-found decision.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/timvw/pane-wrangler/internal/model"
)

// Registry is a mutex-guarded name→Session map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]model.Session)}
}

// Put inserts or replaces a session under its name.
func (r *Registry) Put(s model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Name] = s
}

// Get returns the session tracked under name.
func (r *Registry) Get(name string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Has reports whether name is tracked.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Delete removes a session and all its cached state, including any
// pending interference warning.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, name)
}

// Names returns all tracked names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns all tracked sessions sorted by name.
func (r *Registry) Snapshot() []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions
}

// Adopt registers a session discovered live in the multiplexer but not
// tracked here (e.g. after this process restarted). The adopted session
// carries no lock association and no backing handle.
func (r *Registry) Adopt(name string, kind model.Kind) model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[name]; ok {
		return existing
	}
	s := model.Session{
		Name:      name,
		CreatedAt: time.Now(),
		Kind:      kind,
	}
	r.sessions[name] = s
	return s
}

// SetWarning caches the detected in-flight human input for a session.
// An empty text clears the cache.
func (r *Registry) SetWarning(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[name]; ok {
		s.PendingWarning = text
		r.sessions[name] = s
	}
}

// Warning returns the cached interference warning for a session.
func (r *Registry) Warning(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[name].PendingWarning
}

// Clear drops all tracked sessions. The multiplexer is untouched; it is
// the source of truth and this cache simply resets.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]model.Session)
}
