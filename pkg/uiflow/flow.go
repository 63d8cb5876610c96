package uiflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/internal"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/router"
)

// Flow owns the current screen, the popup stack and the command queue.
// Create one with New, call Initialize, and navigate through its methods.
// All navigation methods are safe for concurrent use; they block until
// their command has run.
type Flow struct {
	opts Options
	log  *slog.Logger

	queue     *commandQueue
	targets   *router.Registry[Target]
	listeners *listenerRegistry
	surfaces  *internal.SurfacePool[*Popup]

	// Navigation state. Mutated only by the drain loop; the lock exists
	// so property readers on other goroutines see consistent values.
	mu            sync.RWMutex
	history       *router.History[*ScreenTarget]
	stack         *router.PopupStack[*PopupTarget, *Popup]
	currentScreen *ScreenTarget
	currentView   View

	// Scene-resident views, reused across activations. Drain loop only.
	sceneViews map[*TargetOptions]View

	onStart        eventHub[ScreenChange]
	onScreenChange eventHub[ScreenChange]
	onPopupOpen    eventHub[PopupOpen]

	initialized atomic.Bool
	started     atomic.Bool
	preloading  atomic.Bool
	disposed    atomic.Bool
	preloadDone chan struct{}
}

// New creates a Flow. Missing required configuration is reported here.
func New(opts Options) (*Flow, error) {
	log := opts.logger()

	if len(opts.Screens)+len(opts.SceneScreens) == 0 {
		log.Error("flow has no screens configured")
		return nil, fmt.Errorf("new flow: no screens: %w", ErrMissingDependency)
	}
	if len(opts.Popups)+len(opts.ScenePopups) > 0 && opts.SurfaceFactory == nil {
		log.Error("popups configured without a surface factory")
		return nil, fmt.Errorf("new flow: surface factory: %w", ErrMissingDependency)
	}

	f := &Flow{
		opts:        opts,
		log:         log,
		targets:     router.NewRegistry[Target](),
		listeners:   newListenerRegistry(),
		surfaces:    internal.NewSurfacePool[*Popup](opts.SurfaceFactory, opts.BaseSurface, opts.SurfaceTemplate),
		history:     router.NewHistory[*ScreenTarget](),
		stack:       router.NewPopupStack[*PopupTarget, *Popup](),
		sceneViews:  make(map[*TargetOptions]View),
		preloadDone: make(chan struct{}),
	}
	f.queue = newCommandQueue(f.execute, log)
	return f, nil
}

// Initialize builds the name lookup, starts preloading and triggers the
// initial screen. Duplicate names and targets without a loader are
// configuration errors and abort initialization.
func (f *Flow) Initialize(ctx context.Context) error {
	if !f.initialized.CompareAndSwap(false, true) {
		return nil
	}

	if err := f.registerTargets(); err != nil {
		f.initialized.Store(false)
		return err
	}
	f.targets.Freeze()

	f.startPreload()

	if f.opts.InitialScreen != "" {
		res := f.SendTrigger(ctx, f.opts.InitialScreen, WithArgs(f.opts.InitialArgs))
		if !res.OK() {
			return fmt.Errorf("initial screen %q: %s", f.opts.InitialScreen, res)
		}
	}
	return nil
}

func (f *Flow) registerTargets() error {
	var errs []error

	register := func(t Target, inScene bool) {
		opts := t.options()
		if opts.InScene != inScene {
			f.log.Error("target listed with the wrong scene residency",
				"target", opts.Name, "in_scene", opts.InScene, "scene_list", inScene)
			errs = append(errs, fmt.Errorf("target %q: InScene is %t: %w", opts.Name, opts.InScene, ErrSceneMismatch))
			return
		}
		if opts.Loader == nil {
			f.log.Error("target has no loader", "target", opts.Name)
			errs = append(errs, fmt.Errorf("target %q: loader: %w", opts.Name, ErrMissingDependency))
			return
		}
		if err := f.targets.Register(opts.Name, t); err != nil {
			f.log.Error("cannot register target", "target", opts.Name, "error", err)
			if errors.Is(err, router.ErrDuplicateName) {
				err = fmt.Errorf("target %q: %w", opts.Name, ErrDuplicateTarget)
			}
			errs = append(errs, err)
		}
	}

	for _, s := range f.opts.Screens {
		register(s, false)
	}
	for _, p := range f.opts.Popups {
		register(p, false)
	}
	for _, s := range f.opts.SceneScreens {
		register(s, true)
	}
	for _, p := range f.opts.ScenePopups {
		register(p, true)
	}

	return errors.Join(errs...)
}

// startPreload loads every Preload target in the background.
// IsPreloading stays true until all of them have finished.
func (f *Flow) startPreload() {
	var loaders []*TargetOptions
	for _, name := range f.targets.Names() {
		t, _ := f.targets.Lookup(name)
		if opts := t.options(); opts.Preload {
			loaders = append(loaders, opts)
		}
	}

	if len(loaders) == 0 {
		close(f.preloadDone)
		return
	}

	f.preloading.Store(true)
	go func() {
		defer close(f.preloadDone)
		defer f.preloading.Store(false)

		var g errgroup.Group
		for _, opts := range loaders {
			g.Go(func() error {
				if _, err := opts.Loader.Load(context.Background()); err != nil {
					f.log.Warn("preload failed", "target", opts.Name, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
		f.log.Debug("preload finished", "targets", len(loaders))
	}()
}

// Dispose waits for queued navigation to finish, then tears down every
// live view and unloads assets. The Flow rejects commands afterwards.
func (f *Flow) Dispose(ctx context.Context) error {
	if !f.disposed.CompareAndSwap(false, true) {
		return nil
	}

	if err := f.queue.wait(ctx); err != nil {
		return fmt.Errorf("dispose: waiting for navigation: %w", err)
	}
	if f.initialized.Load() {
		select {
		case <-f.preloadDone:
		case <-ctx.Done():
			return fmt.Errorf("dispose: waiting for preload: %w", ctx.Err())
		}
	}

	for f.stackDepth() > 0 {
		rec, _ := f.stackTop()
		f.releasePopup(rec.Instance)
	}

	f.mu.Lock()
	screen, view := f.currentScreen, f.currentView
	f.currentScreen, f.currentView = nil, nil
	f.history.Clear()
	f.mu.Unlock()

	if view != nil {
		f.retire(&screen.TargetOptions, view)
	}
	for _, name := range f.targets.Names() {
		t, _ := f.targets.Lookup(name)
		if l := t.options().Loader; l.IsLoaded() {
			l.Unload()
		}
	}
	f.sceneViews = make(map[*TargetOptions]View)
	return nil
}

// SendTrigger navigates to the screen or popup registered under name.
func (f *Flow) SendTrigger(ctx context.Context, name string, opts ...CommandOption) Result {
	if !f.initialized.Load() {
		f.log.Error("trigger before initialize", "target", name)
		return ResultFailed
	}

	t, ok := f.targets.Lookup(name)
	if !ok {
		f.log.Error("trigger target not found", "target", name)
		return ResultNotFound
	}
	return f.Trigger(ctx, t, opts...)
}

// Trigger navigates to a screen or popup given by its configuration.
func (f *Flow) Trigger(ctx context.Context, target Target, opts ...CommandOption) Result {
	switch t := target.(type) {
	case *ScreenTarget:
		return f.submit(ctx, newCommand(CommandTriggerScreen, t, opts...))
	case *PopupTarget:
		return f.submit(ctx, newCommand(CommandTriggerPopup, t, opts...))
	default:
		f.log.Error("unsupported trigger target", "target", fmt.Sprintf("%T", target))
		return ResultNotFound
	}
}

// MoveBack returns to the previous screen in the history.
// With nothing to go back to, it completes immediately as rejected.
func (f *Flow) MoveBack(ctx context.Context, opts ...CommandOption) Result {
	cmd := newCommand(CommandMoveBack, nil, opts...)

	var refused error
	f.queue.whenIdle(func() {
		_, refused = f.checkMoveBack()
	})
	if refused != nil {
		f.log.Warn("move back refused", "command", cmd.ID, "error", refused)
		cmd.finish(ResultRejected)
		recordCommand(cmd.Kind, ResultRejected, 0)
		return ResultRejected
	}
	return f.submit(ctx, cmd)
}

// CloseForegroundPopup closes whatever popup is on top when the command runs.
func (f *Flow) CloseForegroundPopup(ctx context.Context, opts ...CommandOption) Result {
	return f.submit(ctx, newCommand(CommandClosePopup, nil, opts...))
}

// ClosePopup closes a specific popup. Closing a popup that is no longer
// stacked is a no-op reported as ResultNotFound.
func (f *Flow) ClosePopup(ctx context.Context, popup *Popup, opts ...CommandOption) Result {
	if popup == nil {
		f.log.Error("close popup: nil handle")
		return ResultNotFound
	}
	return f.submit(ctx, newCommand(CommandClosePopup, popup, opts...))
}

func (f *Flow) submit(ctx context.Context, cmd *Command) Result {
	if f.disposed.Load() {
		f.log.Warn("navigation after dispose", "command", cmd.ID, "kind", cmd.Kind.String())
		cmd.finish(ResultRejected)
		return ResultRejected
	}
	return f.queue.submit(ctx, cmd)
}

// execute runs one command on the drain loop.
func (f *Flow) execute(ctx context.Context, cmd *Command) Result {
	start := time.Now()
	f.log.Debug("navigation started", "command", cmd.ID, "kind", cmd.Kind.String(), "target", cmd.subjectName())

	err := f.dispatch(ctx, cmd)
	res := resultFor(err)
	took := time.Since(start)
	recordCommand(cmd.Kind, res, took)

	switch res {
	case ResultCompleted:
		f.log.Debug("navigation finished", "command", cmd.ID, "kind", cmd.Kind.String(), "took", took)
	case ResultRejected:
		f.log.Warn("navigation refused", "command", cmd.ID, "kind", cmd.Kind.String(), "target", cmd.subjectName(), "error", err)
	default:
		f.log.Error("navigation failed", "command", cmd.ID, "kind", cmd.Kind.String(), "target", cmd.subjectName(), "error", err)
	}
	return res
}

func (f *Flow) dispatch(ctx context.Context, cmd *Command) error {
	switch cmd.Kind {
	case CommandTriggerScreen:
		return f.transitScreen(ctx, cmd.Subject.(*ScreenTarget), cmd.Args, false, cmd)
	case CommandTriggerPopup:
		return f.transitPopup(ctx, cmd.Subject.(*PopupTarget), cmd.Args, cmd)
	case CommandMoveBack:
		return f.moveBack(ctx, cmd)
	case CommandClosePopup:
		popup, _ := cmd.Subject.(*Popup)
		if popup == nil {
			rec, ok := f.stackTop()
			if !ok {
				return fmt.Errorf("close foreground popup: %w", ErrPopupNotFound)
			}
			popup = rec.Instance
		}
		return f.closePopup(ctx, popup, cmd.Args, cmd)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

// IsTransiting reports whether a navigation command is executing.
func (f *Flow) IsTransiting() bool {
	return f.queue.isActive()
}

// IsPreloading reports whether preloading started by Initialize is running.
func (f *Flow) IsPreloading() bool {
	return f.preloading.Load()
}

// PendingCommands returns the number of commands queued behind the current one.
func (f *Flow) PendingCommands() int {
	return f.queue.depth()
}

// CurrentScreen returns the active screen target and its view.
func (f *Flow) CurrentScreen() (*ScreenTarget, View) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.currentScreen, f.currentView
}

// CurrentPopup returns the foreground popup, or nil.
func (f *Flow) CurrentPopup() *Popup {
	rec, ok := f.stackTop()
	if !ok {
		return nil
	}
	return rec.Instance
}

// PopupStackDepth returns the number of stacked popups.
func (f *Flow) PopupStackDepth() int {
	return f.stackDepth()
}

// Popups returns the stacked popups, bottom first.
func (f *Flow) Popups() []*Popup {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stack.Instances()
}

// History returns the screen history, oldest first.
func (f *Flow) History() []router.Entry[*ScreenTarget] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.history.Entries()
}

// Lookup resolves a registered target by name.
func (f *Flow) Lookup(name string) (Target, bool) {
	return f.targets.Lookup(name)
}

// Title returns the localized title of a target.
func (f *Flow) Title(t Target) string {
	return f.opts.Localizer.Title(t)
}

// SurfaceStats reports the popup surface pool: bound, free and ever built.
func (f *Flow) SurfaceStats() (allocated, free int, created int64) {
	return f.surfaces.Allocated(), f.surfaces.Free(), f.surfaces.Created()
}

func (f *Flow) stackTop() (router.PopupRecord[*PopupTarget, *Popup], bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stack.Top()
}

func (f *Flow) stackDepth() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stack.Len()
}

// loadTask is an asset load that may run in the background while the
// outgoing view hides.
type loadTask struct {
	done     chan struct{}
	inFlight Loader // set when the load was already loaded or loading
	asset    any
	err      error
}

// startLoad begins loading opts' asset if it is neither loaded nor loading.
// Otherwise the returned task waits on the existing load when joined.
func (f *Flow) startLoad(ctx context.Context, opts *TargetOptions) *loadTask {
	t := &loadTask{done: make(chan struct{})}

	if opts.Loader.IsLoaded() || opts.Loader.IsLoading() {
		close(t.done)
		t.inFlight = opts.Loader
		return t
	}

	go func() {
		defer close(t.done)
		t.asset, t.err = opts.Loader.Load(ctx)
	}()
	return t
}

// join waits for the load to finish.
func (t *loadTask) join(ctx context.Context) (any, error) {
	if t.inFlight != nil {
		return t.inFlight.Load(ctx)
	}
	select {
	case <-t.done:
		return t.asset, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// instantiate creates (or reactivates, for scene-resident targets) a view
// from a loaded asset.
func (f *Flow) instantiate(opts *TargetOptions, asset any) (View, error) {
	if opts.InScene {
		if v, ok := f.sceneViews[opts]; ok {
			v.Handle().SetActive(true)
			return v, nil
		}
	}

	var view View
	switch a := asset.(type) {
	case Asset:
		v, err := a.NewView()
		if err != nil {
			return nil, NewTransitionError("instantiate", opts.Name, err)
		}
		view = v
	case View:
		view = a
	default:
		return nil, NewTransitionError("instantiate", opts.Name, fmt.Errorf("%w: %T", ErrUnsupportedAsset, asset))
	}
	if view == nil {
		return nil, NewTransitionError("instantiate", opts.Name, ErrUnsupportedAsset)
	}

	if opts.InScene {
		f.sceneViews[opts] = view
	}
	view.Handle().SetActive(true)
	return view, nil
}

// retire deactivates a scene-resident view or destroys a dynamic one.
func (f *Flow) retire(opts *TargetOptions, view View) {
	if opts.InScene {
		view.Handle().SetActive(false)
		return
	}
	view.Handle().Destroy()
}

// unloadUnlessRetained releases an asset nobody is using anymore.
func (f *Flow) unloadUnlessRetained(opts *TargetOptions) {
	if opts.RetainAsset || opts.InScene || opts.Preload {
		return
	}
	if f.targetInUse(opts) {
		return
	}
	opts.Loader.Unload()
}

// targetInUse reports whether a live view still depends on opts' asset.
func (f *Flow) targetInUse(opts *TargetOptions) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.currentScreen != nil && &f.currentScreen.TargetOptions == opts {
		return true
	}
	for _, rec := range f.stack.Records() {
		if &rec.Config.TargetOptions == opts && rec.Instance.View() != nil {
			return true
		}
	}
	return false
}
