package uiflow

import (
	"context"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/internal"
)

// Loader loads and unloads the asset behind a target.
// Implementations must be safe for concurrent use: preloading and
// transitions may call Load from different goroutines.
type Loader interface {
	IsLoaded() bool
	IsLoading() bool
	// Load starts loading when idle and blocks until the asset is ready.
	// Calling Load on a loaded or loading asset waits for the same result.
	Load(ctx context.Context) (any, error)
	Unload()
}

// Asset builds view instances. A loaded asset is either an Asset or,
// for scene-resident targets, the View itself.
type Asset interface {
	NewView() (View, error)
}

// Handle is the opaque object behind a view that can be toggled or destroyed.
type Handle interface {
	SetActive(active bool)
	Destroy()
}

// View is a live screen or popup instance.
// Show and RequestHide block until their animation completes.
type View interface {
	Show(ctx context.Context, args any) error
	RequestHide(ctx context.Context, args any) error
	Handle() Handle
}

// Backgrounder is implemented by popups that want to know when another
// popup is stacked over them.
type Backgrounder interface {
	GoToBackground(ctx context.Context, args any) error
}

// ParentSetter is implemented by popups that track the screen below them.
type ParentSetter interface {
	SetParentScreen(screen View)
}

// CloseRequester is implemented by popups that can ask to be closed.
// The flow installs a handler that turns the request into a close command.
type CloseRequester interface {
	SetCloseRequestHandler(fn func(args any))
}

// SurfaceBinder is implemented by popups that draw on a pooled surface.
type SurfaceBinder interface {
	BindSurface(s Surface)
}

// BackOverrider lets a single instance override its target's back behavior.
type BackOverrider interface {
	BackBehavior() (BackBehavior, bool)
}

// Surface is a paint layer a popup is drawn on.
type Surface = internal.Surface

// SurfaceFactory builds popup surfaces when the pool runs dry.
type SurfaceFactory = internal.SurfaceFactory
