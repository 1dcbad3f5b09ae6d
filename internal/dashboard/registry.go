package dashboard

import (
	"context"
	"sync"

	"matchdash/internal/domain"
)

// BackendFactory binds a Backend to a session's credentials.
type BackendFactory func(domain.Session) Backend

// Registry keeps one mounted Dashboard per browser session.
type Registry struct {
	newBackend BackendFactory
	opts       Options

	mu     sync.Mutex
	mounts map[string]*Dashboard
}

func NewRegistry(newBackend BackendFactory, opts Options) *Registry {
	return &Registry{
		newBackend: newBackend,
		opts:       opts,
		mounts:     make(map[string]*Dashboard),
	}
}

func (r *Registry) Get(sessionID string) (*Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.mounts[sessionID]
	return d, ok
}

// Ensure returns the dashboard mounted for sessionID, mounting one if there
// is none or if the session's credentials changed. It waits for the initial
// reads until ctx ends.
func (r *Registry) Ensure(ctx context.Context, sessionID string, sess domain.Session) *Dashboard {
	r.mu.Lock()
	d, ok := r.mounts[sessionID]
	if ok && d.Session() == sess {
		r.mu.Unlock()
		_ = d.WaitLoaded(ctx)
		return d
	}
	d = r.swapLocked(sessionID, sess)
	r.mu.Unlock()

	d.Load(ctx)
	return d
}

// Mount replaces any dashboard for sessionID with a freshly loaded one.
func (r *Registry) Mount(ctx context.Context, sessionID string, sess domain.Session) *Dashboard {
	r.mu.Lock()
	d := r.swapLocked(sessionID, sess)
	r.mu.Unlock()

	d.Load(ctx)
	return d
}

func (r *Registry) swapLocked(sessionID string, sess domain.Session) *Dashboard {
	if old, ok := r.mounts[sessionID]; ok {
		old.Close()
	}
	d := New(sess, r.newBackend(sess), r.opts)
	r.mounts[sessionID] = d
	return d
}

func (r *Registry) Unmount(sessionID string) {
	r.mu.Lock()
	d, ok := r.mounts[sessionID]
	delete(r.mounts, sessionID)
	r.mu.Unlock()
	if ok {
		d.Close()
	}
}

// Prune unmounts every dashboard whose session live reports as gone and
// returns how many it removed. live is called without the registry locked.
func (r *Registry) Prune(live func(sessionID string) bool) int {
	r.mu.Lock()
	mounts := make(map[string]*Dashboard, len(r.mounts))
	for id, d := range r.mounts {
		mounts[id] = d
	}
	r.mu.Unlock()

	var dead []*Dashboard
	for id, d := range mounts {
		if live(id) {
			continue
		}
		r.mu.Lock()
		// Skip ids remounted while live ran.
		if r.mounts[id] == d {
			delete(r.mounts, id)
			dead = append(dead, d)
		}
		r.mu.Unlock()
	}
	for _, d := range dead {
		d.Close()
	}
	return len(dead)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mounts)
}

func (r *Registry) Close() {
	r.mu.Lock()
	mounts := r.mounts
	r.mounts = make(map[string]*Dashboard)
	r.mu.Unlock()
	for _, d := range mounts {
		d.Close()
	}
}
