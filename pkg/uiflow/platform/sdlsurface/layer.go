package sdlsurface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

// Layer is a render-target texture a popup paints on.
type Layer struct {
	mu      sync.Mutex
	texture *sdl.Texture
	width   int32
	height  int32
	blend   sdl.BlendMode
	alpha   uint8
	order   int
	active  bool
}

func (l *Layer) SetActive(active bool) {
	l.mu.Lock()
	l.active = active
	l.mu.Unlock()
}

func (l *Layer) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Layer) SetOrder(order int) {
	l.mu.Lock()
	l.order = order
	l.mu.Unlock()
}

func (l *Layer) Order() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order
}

// Texture returns the render target views draw into.
func (l *Layer) Texture() *sdl.Texture {
	return l.texture
}

// Size returns the layer's pixel size.
func (l *Layer) Size() (width, height int32) {
	return l.width, l.height
}

func (l *Layer) destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.texture != nil {
		l.texture.Destroy()
		l.texture = nil
	}
	l.active = false
}

// ErrForeignSurface is returned when a factory is handed a surface it
// did not build.
var ErrForeignSurface = errors.New("sdlsurface: not a layer")

// Factory builds popup layers on a Window. It implements uiflow.SurfaceFactory.
type Factory struct {
	win *Window
}

var _ uiflow.SurfaceFactory = (*Factory)(nil)

// Clone builds a layer with the template's size, blend mode and alpha.
func (f *Factory) Clone(template uiflow.Surface) (uiflow.Surface, error) {
	src, ok := template.(*Layer)
	if !ok || src == nil {
		return nil, fmt.Errorf("clone %T: %w", template, ErrForeignSurface)
	}
	l, err := f.win.newLayer(src.width, src.height, src.blend, src.alpha)
	if err != nil {
		return nil, fmt.Errorf("clone layer: %w", err)
	}
	return l, nil
}

// New builds a translucent layer the size of base.
func (f *Factory) New(base uiflow.Surface) (uiflow.Surface, error) {
	src, ok := base.(*Layer)
	if !ok || src == nil {
		return nil, fmt.Errorf("new layer over %T: %w", base, ErrForeignSurface)
	}
	l, err := f.win.newLayer(src.width, src.height, sdl.BLENDMODE_BLEND, 255)
	if err != nil {
		return nil, fmt.Errorf("new layer: %w", err)
	}
	return l, nil
}
