package router

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateName is returned when two targets are registered under the same name.
var ErrDuplicateName = errors.New("router: duplicate target name")

// ErrFrozen is returned when registering into a registry that has been frozen.
var ErrFrozen = errors.New("router: registry is frozen")

// Registry resolves navigation targets by name.
// It is filled once during initialization and is read-only after Freeze.
type Registry[T any] struct {
	mu      sync.RWMutex
	targets map[string]T
	frozen  bool
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		targets: make(map[string]T),
	}
}

// Register adds a target under name.
// Registering the same name twice is a configuration error.
func (r *Registry[T]) Register(name string, target T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register %q: %w", name, ErrFrozen)
	}
	if name == "" {
		return fmt.Errorf("router: target name is empty")
	}
	if _, exists := r.targets[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}

	r.targets[name] = target
	return nil
}

// Freeze marks the registry read-only.
func (r *Registry[T]) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup returns the target registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}
