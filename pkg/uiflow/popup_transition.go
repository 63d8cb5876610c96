package uiflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/internal"
)

// transitPopup opens target over the current screen.
//
// The current screen decides whether popups may open and whether they
// stack. Without stacking the foreground popup is hidden and destroyed
// before the new one shows. With stacking it is sent to the background
// and then, per its own BackgroundBehavior, left alone, hidden, or
// hidden and destroyed, overlapping the new show under Parallel. If the
// new popup then fails to open, a covered popup that hid is shown again.
func (f *Flow) transitPopup(ctx context.Context, target *PopupTarget, args any, cmd *Command) error {
	f.mu.RLock()
	screen, screenView := f.currentScreen, f.currentView
	f.mu.RUnlock()

	if screen == nil {
		return fmt.Errorf("open popup %s: %w", target.Name, ErrNoScreen)
	}
	if !screen.AllowPopups {
		return fmt.Errorf("open popup %s over %s: %w", target.Name, screen.Name, ErrPopupsNotAllowed)
	}

	load := f.startLoad(ctx, &target.TargetOptions)
	parallel := target.Strategy == StrategyParallel

	var (
		g       errgroup.Group
		covered *Popup
	)
	if top, ok := f.stackTop(); ok {
		prev := top.Instance
		if !screen.AllowStackablePopups {
			if prev.View() != nil {
				if err := f.hidePopupView(ctx, prev, args); err != nil {
					f.log.Error("popup hide failed", "popup", prev.String(), "error", err)
				}
			}
			cmd.fireHide(prev.View())
			f.releasePopup(prev)
		} else {
			covered = prev
			f.backgroundPopup(ctx, prev, args)

			var hide func() error
			switch prev.target.GoingBackground {
			case JustHide:
				hide = func() error {
					if err := f.hidePopupView(ctx, prev, args); err != nil {
						f.log.Error("popup hide failed", "popup", prev.String(), "error", err)
					}
					return nil
				}
			case HideAndDestroy:
				hide = func() error {
					if err := f.hidePopupView(ctx, prev, args); err != nil {
						f.log.Error("popup hide failed", "popup", prev.String(), "error", err)
					}
					f.destroyPopupView(prev)
					return nil
				}
			}
			if hide != nil {
				if parallel {
					g.Go(hide)
				} else {
					_ = hide()
				}
			}
		}
	}

	asset, err := load.join(ctx)
	if err != nil {
		_ = g.Wait()
		f.restoreCovered(ctx, covered)
		return NewTransitionError("load", target.Name, err)
	}

	p := newPopup(target, args)
	view, err := f.instantiate(&target.TargetOptions, asset)
	if err != nil {
		_ = g.Wait()
		f.restoreCovered(ctx, covered)
		return err
	}

	// Order the surface before showing so z-order holds while overlapping.
	if err := f.attachPopup(p, view, screenView, true); err != nil {
		_ = g.Wait()
		f.retire(&target.TargetOptions, view)
		f.restoreCovered(ctx, covered)
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
		f.surfaces.Recycle(p)
		f.destroyPopupView(p)
		f.restoreCovered(ctx, covered)
		return err
	}

	f.mu.Lock()
	f.stack.Push(target, p)
	depth := f.stack.Len()
	f.mu.Unlock()

	cmd.fireShow(view)
	f.listeners.shown(view)
	f.onPopupOpen.emit(PopupOpen{Popup: p, Depth: depth, Title: f.Title(target)})
	return nil
}

// restoreCovered shows the popup a failed open had covered, if covering
// it hid it. It stays the foreground popup.
func (f *Flow) restoreCovered(ctx context.Context, p *Popup) {
	if p == nil || !p.target.GoingBackground.reshowsOnReturn() {
		return
	}
	if err := f.reshowPopup(ctx, p); err != nil {
		f.log.Error("popup re-show failed", "popup", p.String(), "error", err)
	}
}

// closePopup removes p from the stack.
//
// The foreground popup is hidden with its own strategy, and the popup
// below it is re-shown if it hid when it was covered. A buried popup is
// disposed in place without animation.
func (f *Flow) closePopup(ctx context.Context, p *Popup, args any, cmd *Command) error {
	f.mu.RLock()
	idx := f.stack.IndexOf(p)
	foreground := f.stack.IsForeground(idx)
	below, hasBelow := f.stack.At(idx - 1)
	f.mu.RUnlock()

	if idx < 0 {
		return fmt.Errorf("close %s: %w", p, ErrPopupNotFound)
	}

	view := p.View()
	if foreground && view != nil {
		hide := func() error {
			if err := f.hidePopupView(ctx, p, args); err != nil {
				f.log.Error("popup hide failed", "popup", p.String(), "error", err)
			}
			return nil
		}

		var reshow func() error
		if hasBelow && below.Config.GoingBackground.reshowsOnReturn() {
			reshow = func() error {
				return f.reshowPopup(ctx, below.Instance)
			}
		}

		var err error
		if p.target.Strategy == StrategyParallel {
			var g errgroup.Group
			g.Go(hide)
			if reshow != nil {
				g.Go(reshow)
			}
			err = g.Wait()
		} else {
			_ = hide()
			if reshow != nil {
				err = reshow()
			}
		}
		if err != nil {
			f.log.Error("popup re-show failed", "popup", below.Instance.String(), "error", err)
		}
	} else if view != nil {
		f.listeners.hidden(view)
	}

	cmd.fireHide(view)
	f.releasePopup(p)
	return nil
}

// attachPopup binds a surface and the parent screen to a new view and
// routes its close requests into the queue.
func (f *Flow) attachPopup(p *Popup, view View, screen View, reorder bool) error {
	surface, err := f.allocateSurface(p)
	if err != nil {
		return NewTransitionError("allocate surface", p.target.Name, err)
	}

	if reorder {
		fg, ok := f.stackTop()
		f.surfaces.Reorder(surface, fg.Instance, ok)
	}
	if sb, ok := view.(SurfaceBinder); ok {
		sb.BindSurface(surface)
	}
	if ps, ok := view.(ParentSetter); ok && screen != nil {
		ps.SetParentScreen(screen)
	}
	if cr, ok := view.(CloseRequester); ok {
		cr.SetCloseRequestHandler(func(args any) {
			internal.Detach(f.log, "popup close request", func() error {
				if res := f.ClosePopup(context.Background(), p, WithArgs(args)); res == ResultFailed {
					return fmt.Errorf("close %s: %s", p, res)
				}
				return nil
			})
		})
	}

	p.setView(view)
	return nil
}

func (f *Flow) allocateSurface(p *Popup) (Surface, error) {
	before := f.surfaces.Created()
	s, err := f.surfaces.Allocate(p)
	if err == nil && f.surfaces.Created() > before {
		recordSurfaceCreated()
	}
	return s, err
}

// reshowPopup shows a popup that hid when it was covered, rebuilding its
// view first if it was destroyed. Its surface is unchanged.
func (f *Flow) reshowPopup(ctx context.Context, p *Popup) error {
	view := p.View()
	if view == nil {
		asset, err := f.startLoad(ctx, &p.target.TargetOptions).join(ctx)
		if err != nil {
			return NewTransitionError("load", p.target.Name, err)
		}
		view, err = f.instantiate(&p.target.TargetOptions, asset)
		if err != nil {
			return err
		}

		f.mu.RLock()
		screen := f.currentView
		f.mu.RUnlock()
		if err := f.attachPopup(p, view, screen, false); err != nil {
			f.retire(&p.target.TargetOptions, view)
			return err
		}
	}

	if err := view.Show(ctx, p.args); err != nil {
		return NewTransitionError("show", p.target.Name, err)
	}
	f.listeners.shown(view)
	return nil
}

// hidePopupView runs a popup's hide animation and notifies listeners.
// The view stays alive.
func (f *Flow) hidePopupView(ctx context.Context, p *Popup, args any) error {
	view := p.View()
	if view == nil {
		return nil
	}
	err := view.RequestHide(ctx, args)
	f.listeners.hidden(view)
	if err != nil {
		return NewTransitionError("hide", p.target.Name, err)
	}
	return nil
}

// backgroundPopup tells a popup another popup is being stacked over it.
func (f *Flow) backgroundPopup(ctx context.Context, p *Popup, args any) {
	view := p.View()
	if view == nil {
		return
	}
	if bg, ok := view.(Backgrounder); ok {
		if err := bg.GoToBackground(ctx, args); err != nil {
			f.log.Error("popup background notification failed", "popup", p.String(), "error", err)
		}
	}
	f.listeners.backgrounded(view)
}

// destroyPopupView retires the popup's view but keeps its stack entry
// and surface.
func (f *Flow) destroyPopupView(p *Popup) {
	view := p.View()
	if view == nil {
		return
	}
	f.retire(&p.target.TargetOptions, view)
	p.setView(nil)
}

// releasePopup disposes of a popup completely: view, surface, stack
// entry and, if nothing else uses it, its asset.
func (f *Flow) releasePopup(p *Popup) {
	f.destroyPopupView(p)
	f.surfaces.Recycle(p)

	f.mu.Lock()
	if i := f.stack.IndexOf(p); i >= 0 {
		f.stack.RemoveAt(i)
	}
	f.mu.Unlock()

	f.unloadUnlessRetained(&p.target.TargetOptions)
}
