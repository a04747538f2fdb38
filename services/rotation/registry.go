package rotation

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrPoolNotFound is returned when a pool is not registered
	ErrPoolNotFound = errors.New("credential pool not found")

	// ErrPoolAlreadyRegistered is returned when trying to register a duplicate pool
	ErrPoolAlreadyRegistered = errors.New("credential pool already registered")
)

// Registry holds the process-wide pools by provider name.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*Pool)}
}

// Register adds a pool under its name.
func (r *Registry) Register(pool *Pool) error {
	if pool == nil {
		return errors.New("pool cannot be nil")
	}
	if pool.Name() == "" {
		return errors.New("pool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[pool.Name()]; exists {
		return ErrPoolAlreadyRegistered
	}
	r.pools[pool.Name()] = pool
	return nil
}

// Get retrieves a pool by provider name
func (r *Registry) Get(name string) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[name]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// Status lists every pool sorted by name.
func (r *Registry) Status() []PoolStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PoolStatus, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered pools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}
