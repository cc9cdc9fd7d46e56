package runtime

import (
	"sync"

	"termchat/contract"
	"termchat/errors"
)

// Registry is the single source of truth for who is online: a guarded map
// from username to that connection's delivery sink.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Register binds a username to its sink. A username already bound keeps its
// existing sink and the caller gets ErrAlreadyRegistered: a second
// connection never silently steals an identity.
func (r *Registry) Register(username string, s contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[username]; ok {
		return errors.ErrAlreadyRegistered
	}
	r.sessions[username] = s
	return nil
}

// Unregister removes a binding. It is idempotent: shutdown races mean the
// entry may already be gone, and that is not an error.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, username)
}

func (r *Registry) Lookup(username string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[username]
	return s, ok
}

// Snapshot returns the sinks of every session registered at the instant of
// the call. Iterating the result happens outside the lock, so fanout never
// holds the table across a delivery.
func (r *Registry) Snapshot() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, s := range r.sessions {
		sinks = append(sinks, s)
	}
	return sinks
}
