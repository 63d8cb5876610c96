package sim

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

type loadState int

const (
	stateIdle loadState = iota
	stateLoading
	stateLoaded
)

// Loader is a uiflow.Loader whose asset builds sim Views.
// A scene Loader hands out one shared View instead of building new ones.
type Loader struct {
	Name      string
	Delay     time.Duration // Time a load takes
	Err       error         // Returned by Load when set
	Scene     bool          // Asset is a single scene-resident View
	ShowDelay time.Duration // Applied to built views
	HideDelay time.Duration // Applied to built views
	ShowErr   error         // Applied to built views

	rec *Recorder

	mu      sync.Mutex
	state   loadState
	ready   chan struct{}
	asset   any
	lastErr error
	loads   int
	unloads int
	views   []*View
}

// NewLoader creates a Loader for views named name.
func NewLoader(name string, rec *Recorder) *Loader {
	return &Loader{Name: name, rec: rec}
}

func (l *Loader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateLoaded
}

func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateLoading
}

func (l *Loader) Load(ctx context.Context) (any, error) {
	l.mu.Lock()
	switch l.state {
	case stateLoaded:
		asset := l.asset
		l.mu.Unlock()
		return asset, nil
	case stateLoading:
		ready := l.ready
		l.mu.Unlock()
		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.asset, l.lastErr
	}

	l.state = stateLoading
	l.ready = make(chan struct{})
	l.loads++
	ready := l.ready
	l.mu.Unlock()

	l.rec.Record("load", l.Name)
	err := sleep(ctx, l.Delay)
	if err == nil {
		err = l.Err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	defer close(ready)

	if err != nil {
		l.state = stateIdle
		l.asset = nil
		l.lastErr = err
		return nil, err
	}

	l.state = stateLoaded
	l.lastErr = nil
	if l.Scene {
		if len(l.views) == 0 {
			l.views = append(l.views, l.build())
		}
		l.asset = l.views[0]
	} else {
		l.asset = &asset{loader: l}
	}
	return l.asset, nil
}

func (l *Loader) Unload() {
	l.mu.Lock()
	l.state = stateIdle
	l.asset = nil
	l.unloads++
	l.mu.Unlock()
	l.rec.Record("unload", l.Name)
}

func (l *Loader) build() *View {
	v := NewView(l.Name, l.rec)
	v.ShowDelay = l.ShowDelay
	v.HideDelay = l.HideDelay
	v.ShowErr = l.ShowErr
	return v
}

// Views returns every view this loader built, oldest first.
func (l *Loader) Views() []*View {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*View, len(l.views))
	copy(out, l.views)
	return out
}

// Last returns the most recently built view, or nil.
func (l *Loader) Last() *View {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.views) == 0 {
		return nil
	}
	return l.views[len(l.views)-1]
}

// Loads returns how many loads actually started.
func (l *Loader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Unloads returns how many times Unload was called.
func (l *Loader) Unloads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unloads
}

type asset struct {
	loader *Loader
}

func (a *asset) NewView() (uiflow.View, error) {
	v := a.loader.build()
	a.loader.mu.Lock()
	a.loader.views = append(a.loader.views, v)
	a.loader.mu.Unlock()
	return v, nil
}
