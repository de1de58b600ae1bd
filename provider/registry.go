package provider

import (
	"sort"
	"sync"

	apperrors "github.com/kbukum/canvasflow/errors"
)

// Registry holds named factories and the instances built from them.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	instances map[string]T
}

// NewRegistry creates an empty registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		instances: make(map[string]T),
	}
}

// RegisterFactory registers factory under name, replacing any previous one.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create builds a provider from the named factory and caches it.
func (r *Registry[T]) Create(name string, cfg map[string]any) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, apperrors.NotFound("provider factory", name)
	}
	p, err := factory(cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	r.Set(name, p)
	return p, nil
}

// Get returns a cached instance.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[name]
	return p, ok
}

// Set caches an instance under name.
func (r *Registry[T]) Set(name string, p T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[name] = p
}

// Instances returns the cached instances keyed by name.
func (r *Registry[T]) Instances() map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]T, len(r.instances))
	for k, v := range r.instances {
		out[k] = v
	}
	return out
}

// List returns the sorted factory names.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
