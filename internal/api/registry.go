package api

import (
	"context"
	"sync"
	"time"

	"github.com/RyanBlaney/affect-fusion/pkg/affect"
)

// SessionFactory builds and starts a session whose calibration is keyed by
// key. An empty key asks for an anonymous session.
type SessionFactory func(ctx context.Context, key string) (*affect.Session, error)

type registryEntry struct {
	session  *affect.Session
	lastUsed time.Time
	// leases counts live streams holding the session; leased entries are
	// never swept.
	leases int
}

// Registry keeps one live session per user so history and calibration
// follow the speaker across requests. Idle sessions are dropped lazily on
// the next lookup.
type Registry struct {
	factory SessionFactory
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

func NewRegistry(factory SessionFactory, idle time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*registryEntry),
	}
}

// Get returns the live session for key, creating it on first use. An empty
// key always yields a fresh anonymous session that is not retained.
func (r *Registry) Get(ctx context.Context, key string) (*affect.Session, error) {
	if key == "" {
		return r.factory(ctx, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.session, nil
}

// Acquire is Get for long-lived holders such as a websocket stream. The
// session stays registered until the matching Release, however long the
// holder stays quiet.
func (r *Registry) Acquire(ctx context.Context, key string) (*affect.Session, error) {
	if key == "" {
		return r.factory(ctx, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	entry.leases++
	return entry.session, nil
}

// Release drops a lease taken by Acquire. The idle clock restarts from now.
func (r *Registry) Release(key string) {
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[key]; ok && entry.leases > 0 {
		entry.leases--
		entry.lastUsed = r.now()
	}
}

// lookup returns the entry for key, creating it on first use. Callers hold
// r.mu.
func (r *Registry) lookup(ctx context.Context, key string) (*registryEntry, error) {
	now := r.now()
	r.sweep(ctx, now)

	if entry, ok := r.sessions[key]; ok {
		entry.lastUsed = now
		return entry, nil
	}

	session, err := r.factory(ctx, key)
	if err != nil {
		return nil, err
	}
	entry := &registryEntry{session: session, lastUsed: now}
	r.sessions[key] = entry
	return entry, nil
}

// Len reports the number of retained sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every retained session.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.sessions {
		_ = entry.session.Stop(ctx)
		delete(r.sessions, key)
	}
}

// sweep drops idle sessions. Callers hold r.mu.
func (r *Registry) sweep(ctx context.Context, now time.Time) {
	if r.idle <= 0 {
		return
	}
	for key, entry := range r.sessions {
		if entry.leases == 0 && now.Sub(entry.lastUsed) > r.idle {
			_ = entry.session.Stop(ctx)
			delete(r.sessions, key)
		}
	}
}
