package internal

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Surface is an independent paint layer a popup is drawn on.
type Surface interface {
	SetActive(active bool)
	SetOrder(order int)
	Order() int
}

// SurfaceFactory builds new surfaces when the free pool is empty.
type SurfaceFactory interface {
	// Clone copies an authored template surface.
	Clone(template Surface) (Surface, error)
	// New builds a minimal surface, copying display settings from base.
	New(base Surface) (Surface, error)
}

// ErrNoSurfaceFactory is returned by Allocate when the pool has nothing
// free and no factory to build from.
var ErrNoSurfaceFactory = errors.New("surface pool: no factory configured")

// SurfacePool allocates, recycles and orders popup surfaces.
// A surface is either bound to exactly one key or sitting in the free
// list, never both.
type SurfacePool[K comparable] struct {
	mu        sync.Mutex
	factory   SurfaceFactory
	base      Surface
	template  Surface
	allocated map[K]Surface
	free      []Surface
	created   atomic.Int64
}

// NewSurfacePool creates a pool. base is the screen surface popups are
// ordered above; template, when non-nil, is cloned for new surfaces.
func NewSurfacePool[K comparable](factory SurfaceFactory, base, template Surface) *SurfacePool[K] {
	return &SurfacePool[K]{
		factory:   factory,
		base:      base,
		template:  template,
		allocated: make(map[K]Surface),
		free:      make([]Surface, 0),
	}
}

// Allocate binds a surface to key, reusing a free one when possible.
// Allocating for a key that already holds a surface returns that surface.
func (p *SurfacePool[K]) Allocate(key K) (Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.allocated[key]; ok {
		return s, nil
	}

	var s Surface
	if n := len(p.free); n > 0 {
		s = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		var err error
		s, err = p.build()
		if err != nil {
			return nil, err
		}
		p.created.Inc()
	}

	s.SetOrder(p.baseOrder() + 1)
	s.SetActive(true)
	p.allocated[key] = s
	return s, nil
}

func (p *SurfacePool[K]) build() (Surface, error) {
	if p.factory == nil {
		return nil, ErrNoSurfaceFactory
	}
	if p.template != nil {
		s, err := p.factory.Clone(p.template)
		if err != nil {
			return nil, fmt.Errorf("clone surface template: %w", err)
		}
		return s, nil
	}
	s, err := p.factory.New(p.base)
	if err != nil {
		return nil, fmt.Errorf("build surface: %w", err)
	}
	return s, nil
}

// Recycle moves key's surface back to the free list and deactivates it.
// Returns false if key has no surface on record.
func (p *SurfacePool[K]) Recycle(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.allocated[key]
	if !ok {
		return false
	}
	delete(p.allocated, key)
	s.SetActive(false)
	p.free = append(p.free, s)
	return true
}

// Reorder paints s one above the foreground key's surface, or one above
// the base screen surface when there is no foreground popup.
func (p *SurfacePool[K]) Reorder(s Surface, foreground K, hasForeground bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order := p.baseOrder() + 1
	if hasForeground {
		if fg, ok := p.allocated[foreground]; ok && fg != s {
			order = fg.Order() + 1
		}
	}
	s.SetOrder(order)
}

func (p *SurfacePool[K]) baseOrder() int {
	if p.base == nil {
		return 0
	}
	return p.base.Order()
}

// SurfaceOf returns the surface bound to key.
func (p *SurfacePool[K]) SurfaceOf(key K) (Surface, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.allocated[key]
	return s, ok
}

// Allocated returns the number of surfaces bound to live popups.
func (p *SurfacePool[K]) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allocated)
}

// Free returns the number of inactive, reusable surfaces.
func (p *SurfacePool[K]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Created returns how many surfaces the factory has built so far.
func (p *SurfacePool[K]) Created() int64 {
	return p.created.Load()
}
