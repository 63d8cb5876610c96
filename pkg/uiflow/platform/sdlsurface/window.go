// Package sdlsurface backs popup surfaces with SDL render-target textures.
//
// A Window owns the base screen layer and every popup layer built by its
// Factory. Compose paints the base layer and then the active popup layers
// in ascending order.
package sdlsurface

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/constants"
)

// Window wraps an SDL window and renderer together with its paint layers.
type Window struct {
	Window   *sdl.Window
	Renderer *sdl.Renderer
	Title    string

	log             *slog.Logger
	hasVSync        bool
	lastPresentTime uint64

	mu     sync.Mutex
	base   *Layer
	layers []*Layer
}

// Open initializes SDL video and creates a window sized to the current
// display. In development mode the size comes from WINDOW_WIDTH and
// WINDOW_HEIGHT instead.
func Open(title string, opts WindowOptions, log *slog.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	width, height := int32(1024), int32(768)
	x, y := int32(0), int32(0)
	if constants.IsDevMode() {
		opts.Mode = ModeWindowed
		x, y = 50, 50
		width = envSize(log, constants.WindowWidthEnvVar, width)
		height = envSize(log, constants.WindowHeightEnvVar, height)
	} else if mode, err := sdl.GetCurrentDisplayMode(0); err == nil {
		width, height = mode.W, mode.H
	} else {
		log.Error("failed to get display mode", "error", err)
	}

	log.Debug("initializing SDL window", "width", width, "height", height)

	window, err := sdl.CreateWindow(title, x, y, width, height, opts.flags())
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC|sdl.RENDERER_TARGETTEXTURE)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	renderer.SetLogicalSize(width, height)

	info, err := renderer.GetInfo()
	vsync := err == nil && info.Flags&sdl.RENDERER_PRESENTVSYNC != 0

	w := &Window{
		Window:   window,
		Renderer: renderer,
		Title:    title,
		log:      log,
		hasVSync: vsync,
	}

	w.base, err = w.newLayer(width, height, sdl.BLENDMODE_NONE, 255)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("create base layer: %w", err)
	}
	w.base.SetOrder(constants.BaseSurfaceOrder)
	w.base.SetActive(true)
	return w, nil
}

func envSize(log *slog.Logger, name string, fallback int32) int32 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		log.Warn("invalid window size; using default", "variable", name, "value", v, "error", err)
		return fallback
	}
	return int32(n)
}

// Base returns the screen layer popups are ordered above.
func (w *Window) Base() *Layer {
	return w.base
}

// Factory returns a surface factory that builds layers on this window.
func (w *Window) Factory() *Factory {
	return &Factory{win: w}
}

func (w *Window) newLayer(width, height int32, blend sdl.BlendMode, alpha uint8) (*Layer, error) {
	tex, err := w.Renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_TARGET, width, height)
	if err != nil {
		return nil, err
	}
	tex.SetBlendMode(blend)
	tex.SetAlphaMod(alpha)

	l := &Layer{
		texture: tex,
		width:   width,
		height:  height,
		blend:   blend,
		alpha:   alpha,
	}

	w.mu.Lock()
	w.layers = append(w.layers, l)
	w.mu.Unlock()
	return l, nil
}

// Compose paints every active layer onto the window and presents it.
func (w *Window) Compose() {
	w.mu.Lock()
	layers := paintOrder(w.layers)
	w.mu.Unlock()

	w.Renderer.SetRenderTarget(nil)
	w.Renderer.SetDrawColor(0, 0, 0, 255)
	w.Renderer.Clear()
	for _, l := range layers {
		w.Renderer.Copy(l.texture, nil, nil)
	}
	w.Present()
}

// paintOrder returns the active layers, lowest order first.
func paintOrder(layers []*Layer) []*Layer {
	out := make([]*Layer, 0, len(layers))
	for _, l := range layers {
		if l.IsActive() {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b *Layer) int {
		return a.Order() - b.Order()
	})
	return out
}

// Present swaps the render buffer and enforces ~60fps frame timing
// when VSync is not available. Use this instead of renderer.Present().
func (w *Window) Present() {
	w.Renderer.Present()
	if !w.hasVSync {
		now := sdl.GetTicks64()
		if elapsed := now - w.lastPresentTime; elapsed < 16 {
			sdl.Delay(uint32(16 - elapsed))
		}
		w.lastPresentTime = sdl.GetTicks64()
	}
}

// Close destroys every layer, the renderer and the window, then quits SDL.
func (w *Window) Close() {
	w.mu.Lock()
	for _, l := range w.layers {
		l.destroy()
	}
	w.layers = nil
	w.mu.Unlock()

	w.Renderer.Destroy()
	w.Window.Destroy()
	sdl.Quit()
}
