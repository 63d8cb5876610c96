package sim

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

// View is a scripted screen or popup. Show and RequestHide record a
// "-start" event, wait for their delay, then record completion.
type View struct {
	Name      string
	ShowDelay time.Duration
	HideDelay time.Duration
	ShowErr   error
	HideErr   error

	rec *Recorder

	mu        sync.Mutex
	active    bool
	destroyed bool
	surface   uiflow.Surface
	parent    uiflow.View
	onClose   func(args any)
	back      uiflow.BackBehavior
	lastArgs  any
	shows     int
	hides     int
}

// NewView creates a View recording into rec.
func NewView(name string, rec *Recorder) *View {
	return &View{Name: name, rec: rec}
}

func (v *View) Show(ctx context.Context, args any) error {
	v.rec.Record("show-start", v.Name)
	if err := sleep(ctx, v.ShowDelay); err != nil {
		return err
	}
	if v.ShowErr != nil {
		v.rec.Record("show-failed", v.Name)
		return v.ShowErr
	}

	v.mu.Lock()
	v.shows++
	v.lastArgs = args
	v.mu.Unlock()

	v.rec.Record("show", v.Name)
	return nil
}

func (v *View) RequestHide(ctx context.Context, args any) error {
	v.rec.Record("hide-start", v.Name)
	if err := sleep(ctx, v.HideDelay); err != nil {
		return err
	}
	if v.HideErr != nil {
		v.rec.Record("hide-failed", v.Name)
		return v.HideErr
	}

	v.mu.Lock()
	v.hides++
	v.mu.Unlock()

	v.rec.Record("hide", v.Name)
	return nil
}

func (v *View) GoToBackground(ctx context.Context, args any) error {
	v.rec.Record("background", v.Name)
	return nil
}

func (v *View) Handle() uiflow.Handle {
	return v
}

func (v *View) SetActive(active bool) {
	v.mu.Lock()
	v.active = active
	v.mu.Unlock()
}

func (v *View) Destroy() {
	v.mu.Lock()
	v.destroyed = true
	v.active = false
	v.mu.Unlock()
	v.rec.Record("destroy", v.Name)
}

func (v *View) SetParentScreen(screen uiflow.View) {
	v.mu.Lock()
	v.parent = screen
	v.mu.Unlock()
}

func (v *View) SetCloseRequestHandler(fn func(args any)) {
	v.mu.Lock()
	v.onClose = fn
	v.mu.Unlock()
}

func (v *View) BindSurface(s uiflow.Surface) {
	v.mu.Lock()
	v.surface = s
	v.mu.Unlock()
}

// SetBackBehavior sets the per-instance back override.
func (v *View) SetBackBehavior(b uiflow.BackBehavior) {
	v.mu.Lock()
	v.back = b
	v.mu.Unlock()
}

func (v *View) BackBehavior() (uiflow.BackBehavior, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.back, v.back != uiflow.BackUnset
}

// RequestClose asks the flow to close this popup, as a close button would.
// Returns false if no handler is installed.
func (v *View) RequestClose(args any) bool {
	v.mu.Lock()
	fn := v.onClose
	v.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(args)
	return true
}

func (v *View) IsActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

func (v *View) IsDestroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

func (v *View) Surface() uiflow.Surface {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surface
}

func (v *View) Parent() uiflow.View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.parent
}

func (v *View) LastArgs() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastArgs
}

func (v *View) Shows() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shows
}

func (v *View) Hides() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hides
}
