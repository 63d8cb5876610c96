package uiflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// transitScreen replaces the current screen with target.
//
// Steps, in order: start loading the new asset; dispose of stacked
// popups per the outgoing screen's policy; hide the old screen (awaited
// now under Sequential, started concurrently under Parallel); join the
// load; instantiate; show (jointly awaited with the hide under
// Parallel); commit history; fire callbacks and events.
//
// A failed load or show leaves history and the current screen target
// untouched. The outgoing view has been retired by then, so it is dropped
// and the next transition has nothing to hide.
func (f *Flow) transitScreen(ctx context.Context, target *ScreenTarget, args any, back bool, cmd *Command) error {
	load := f.startLoad(ctx, &target.TargetOptions)

	f.mu.RLock()
	oldTarget, oldView := f.currentScreen, f.currentView
	f.mu.RUnlock()

	if oldTarget != nil {
		f.disposePopups(ctx, oldTarget.OnScreenTransit, args)
	}

	// A scene-resident screen re-shown over itself cannot overlap its own hide.
	parallel := target.Strategy == StrategyParallel && !(oldView != nil && oldTarget == target && target.InScene)

	var g errgroup.Group
	if oldView != nil {
		hide := func() error {
			f.hideScreen(ctx, oldTarget, oldView, target, cmd)
			return nil
		}
		if parallel {
			g.Go(hide)
		} else {
			_ = hide()
		}
	}

	asset, err := load.join(ctx)
	if err != nil {
		_ = g.Wait()
		f.dropCurrentView(oldView)
		return NewTransitionError("load", target.Name, err)
	}

	view, err := f.instantiate(&target.TargetOptions, asset)
	if err != nil {
		_ = g.Wait()
		f.dropCurrentView(oldView)
		return err
	}

	show := func() error {
		if err := view.Show(ctx, args); err != nil {
			return NewTransitionError("show", target.Name, err)
		}
		return nil
	}
	if parallel {
		g.Go(show)
		err = g.Wait()
	} else {
		err = show()
	}
	if err != nil {
		f.retire(&target.TargetOptions, view)
		f.dropCurrentView(oldView)
		return err
	}

	f.commitScreen(target, view, args, back)

	cmd.fireShow(view)
	change := ScreenChange{
		Previous: oldTarget,
		Current:  target,
		View:     view,
		Args:     args,
		Title:    f.Title(target),
		Back:     back,
	}
	f.onScreenChange.emit(change)
	if f.started.CompareAndSwap(false, true) {
		f.onStart.emit(change)
	}
	f.listeners.shown(view)
	return nil
}

// commitScreen makes view current and records the navigation.
// Moving back pops the entry being left; moving forward pushes a new one.
func (f *Flow) commitScreen(target *ScreenTarget, view View, args any, back bool) {
	f.mu.Lock()
	f.currentScreen = target
	f.currentView = view
	if back {
		f.history.Pop()
	} else {
		f.history.Push(target, args)
	}
	popups := f.stack.Instances()
	f.mu.Unlock()

	for _, p := range popups {
		if ps, ok := p.View().(ParentSetter); ok {
			ps.SetParentScreen(view)
		}
	}
}

// dropCurrentView forgets a view hideScreen already retired.
func (f *Flow) dropCurrentView(old View) {
	if old == nil {
		return
	}
	f.mu.Lock()
	if f.currentView == old {
		f.currentView = nil
	}
	f.mu.Unlock()
}

// hideScreen hides the outgoing screen and runs its housekeeping:
// onHide callback, listeners, deactivate or destroy, asset unload.
// Hide failures are logged; the view is retired regardless.
func (f *Flow) hideScreen(ctx context.Context, old *ScreenTarget, view View, next *ScreenTarget, cmd *Command) {
	if err := view.RequestHide(ctx, cmd.Args); err != nil {
		f.log.Error("screen hide failed", "target", old.Name, "error", err)
	}

	cmd.fireHide(view)
	f.listeners.hidden(view)
	f.retire(&old.TargetOptions, view)

	if old != next && !old.RetainAsset && !old.InScene && !old.Preload {
		old.Loader.Unload()
	}
}

// disposePopups applies the outgoing screen's popup policy.
func (f *Flow) disposePopups(ctx context.Context, policy PopupDisposition, args any) {
	switch policy {
	case PreserveAll:
		return
	case HideFirstThenTransit:
		if rec, ok := f.stackTop(); ok {
			if rec.Instance.View() != nil {
				if err := f.hidePopupView(ctx, rec.Instance, args); err != nil {
					f.log.Error("popup hide failed", "popup", rec.Instance.String(), "error", err)
				}
			}
			f.releasePopup(rec.Instance)
		}
		f.destroyAllPopups()
	case DestroyAllThenTransit:
		f.destroyAllPopups()
	default:
		f.log.Warn("unknown popup disposition", "policy", fmt.Sprint(policy))
	}
}

// destroyAllPopups releases every stacked popup bottom-up, without animation.
func (f *Flow) destroyAllPopups() {
	f.mu.RLock()
	popups := f.stack.Instances()
	f.mu.RUnlock()

	for _, p := range popups {
		f.releasePopup(p)
	}
}

// checkMoveBack returns the entry a move back would return to, or why
// moving back is not allowed right now.
func (f *Flow) checkMoveBack() (*ScreenTarget, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	prev := f.history.Previous()
	if prev == nil {
		return nil, fmt.Errorf("%w: history has %d entries", ErrMoveBackNotAllowed, f.history.Len())
	}
	cur := f.history.Peek()
	if !cur.Target.Back.CanMoveBackFromHere() {
		return nil, fmt.Errorf("%w: cannot leave %s", ErrMoveBackNotAllowed, cur.Target.Name)
	}
	if !prev.Target.Back.CanMoveBackToHere() {
		return nil, fmt.Errorf("%w: cannot return to %s", ErrMoveBackNotAllowed, prev.Target.Name)
	}
	return prev.Target, nil
}

func (f *Flow) moveBack(ctx context.Context, cmd *Command) error {
	target, err := f.checkMoveBack()
	if err != nil {
		return err
	}

	args := cmd.Args
	if args == nil {
		f.mu.RLock()
		args = f.history.Previous().Args
		f.mu.RUnlock()
	}
	return f.transitScreen(ctx, target, args, true, cmd)
}
