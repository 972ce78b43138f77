// Package channel runs the remote front-ends (gateway, IRC) that feed
// lines into the console alongside the terminal.
package channel

import (
	"context"
	"sort"
	"sync"

	"github.com/soyeahso/gacc/internal/logging"
)

// Frontend is a long-running source of console input.
type Frontend interface {
	ID() string
	// Start blocks until ctx is cancelled or the frontend fails.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Status describes a frontend's runtime state.
type Status struct {
	ID        string `json:"id"`
	Running   bool   `json:"running"`
	Connected bool   `json:"connected,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// Registry starts and stops a set of frontends.
type Registry struct {
	mu        sync.RWMutex
	frontends map[string]Frontend
	errs      map[string]string
	wg        sync.WaitGroup
	log       *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		frontends: make(map[string]Frontend),
		errs:      make(map[string]string),
		log:       log.Sub("frontends"),
	}
}

// Register adds a frontend, replacing any with the same ID.
func (r *Registry) Register(f Frontend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frontends[f.ID()] = f
	r.log.Info().Str("frontend", f.ID()).Msg("frontend registered")
}

// Get returns a frontend by ID.
func (r *Registry) Get(id string) (Frontend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.frontends[id]
	return f, ok
}

// List returns the registered IDs, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.frontends))
	for id := range r.frontends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered frontends.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.frontends)
}

// Status reports every frontend, sorted by ID. Frontends without their
// own Status method are reported from what StartAll observed.
func (r *Registry) Status() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Status, 0, len(r.frontends))
	for id, f := range r.frontends {
		if sf, ok := f.(interface{ Status() Status }); ok {
			out = append(out, sf.Status())
			continue
		}
		st := Status{ID: id, LastError: r.errs[id]}
		st.Running = st.LastError == ""
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StartAll launches every frontend in its own goroutine. Start methods
// block, so StartAll returns immediately; use Wait to join them.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, f := range r.frontends {
		r.log.Info().Str("frontend", id).Msg("starting frontend")
		r.wg.Add(1)
		go func(id string, f Frontend) {
			defer r.wg.Done()
			if err := f.Start(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Str("frontend", id).Msg("frontend exited with error")
				r.mu.Lock()
				r.errs[id] = err.Error()
				r.mu.Unlock()
			}
		}(id, f)
	}
}

// Wait blocks until every started frontend has returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// StopAll stops every frontend.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, f := range r.frontends {
		r.log.Info().Str("frontend", id).Msg("stopping frontend")
		if err := f.Stop(ctx); err != nil {
			r.log.Error().Err(err).Str("frontend", id).Msg("failed to stop frontend")
		}
	}
}
