package sim

import (
	"sync"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

// Surface is an in-memory paint layer.
type Surface struct {
	ID    int
	Scale float64 // Stand-in for copied display settings

	mu     sync.Mutex
	active bool
	order  int
}

func (s *Surface) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

func (s *Surface) SetOrder(order int) {
	s.mu.Lock()
	s.order = order
	s.mu.Unlock()
}

func (s *Surface) Order() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

func (s *Surface) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SurfaceFactory builds Surfaces, copying Scale from the template or base.
type SurfaceFactory struct {
	mu    sync.Mutex
	built []*Surface
}

func (f *SurfaceFactory) Clone(template uiflow.Surface) (uiflow.Surface, error) {
	return f.make(template), nil
}

func (f *SurfaceFactory) New(base uiflow.Surface) (uiflow.Surface, error) {
	return f.make(base), nil
}

func (f *SurfaceFactory) make(from uiflow.Surface) *Surface {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := &Surface{ID: len(f.built) + 1, Scale: 1}
	if src, ok := from.(*Surface); ok && src != nil {
		s.Scale = src.Scale
	}
	f.built = append(f.built, s)
	return s
}

// Built returns how many surfaces the factory has made.
func (f *SurfaceFactory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}
