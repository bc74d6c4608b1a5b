package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// ErrSessionExists is returned by Start when the ID is already live.
var ErrSessionExists = errors.New("session already exists")

// ErrRegistryFull is returned by Start when the session limit is reached.
var ErrRegistryFull = errors.New("session limit reached")

// StartFunc creates the session for id.
type StartFunc func(id string) (*runtime.Session, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry tracks the live sessions of one process.
// Sessions leave the registry on their own once they stop.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*runtime.Session
	locks    map[string]*lockEntry

	limit  int
	logger *slog.Logger
	wg     sync.WaitGroup
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLimit caps the number of live sessions. Zero means unlimited.
func WithLimit(n int) Option {
	return func(r *Registry) {
		r.limit = n
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*runtime.Session),
		locks:    make(map[string]*lockEntry),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (r *Registry) acquire(id string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[id]
	if !exists {
		entry = &lockEntry{}
		r.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (r *Registry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, id)
	}
}

// withLock runs fn while holding the lock for id.
func (r *Registry) withLock(id string, fn func() error) error {
	entry := r.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(id)
	}()
	return fn()
}

// Start creates a session through start and registers it under id.
func (r *Registry) Start(id string, start StartFunc) (*runtime.Session, error) {
	var s *runtime.Session
	err := r.withLock(id, func() error {
		r.mu.Lock()
		_, exists := r.sessions[id]
		full := r.limit > 0 && len(r.sessions) >= r.limit
		r.mu.Unlock()
		if exists {
			return fmt.Errorf("%w: %s", ErrSessionExists, id)
		}
		if full {
			return ErrRegistryFull
		}

		var err error
		s, err = start(id)
		if err != nil {
			return err
		}

		r.mu.Lock()
		r.sessions[id] = s
		r.mu.Unlock()

		r.wg.Add(1)
		go r.watch(id, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("session registered", "session_id", id)
	return s, nil
}

// watch drops s from the registry once it stops.
func (r *Registry) watch(id string, s *runtime.Session) {
	defer r.wg.Done()
	<-s.Done()

	r.mu.Lock()
	if r.sessions[id] == s {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	r.logger.Debug("session unregistered", "session_id", id)
}

// Get returns the live session with id.
func (r *Registry) Get(id string) (*runtime.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close stops the session with id and removes it.
func (r *Registry) Close(id string) error {
	return r.withLock(id, func() error {
		r.mu.Lock()
		s, ok := r.sessions[id]
		delete(r.sessions, id)
		r.mu.Unlock()
		if !ok {
			return domain.ErrSessionNotFound
		}
		return s.Close()
	})
}

// List returns the IDs of all live sessions, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown closes every live session concurrently and waits for the
// registry's watchers to exit, or for ctx to be done.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	live := make([]*runtime.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range live {
		g.Go(s.Close)
	}

	done := make(chan error, 1)
	go func() {
		err := g.Wait()
		r.wg.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
