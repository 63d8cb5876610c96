package uiflow

import (
	"context"
	"fmt"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/internal"
)

// BackBehaviorFor resolves what a device back press does right now.
//
// The foreground popup is consulted if there is one, otherwise the
// current screen. An instance override (BackOverrider) wins over the
// target's configured behavior, which wins over the flow default.
func (f *Flow) BackBehaviorFor() BackBehavior {
	var (
		view View
		opts *TargetOptions
	)

	if rec, ok := f.stackTop(); ok {
		view, opts = rec.Instance.View(), &rec.Config.TargetOptions
	} else {
		screen, sv := f.CurrentScreen()
		if screen == nil {
			return BackNotAllowed
		}
		view, opts = sv, &screen.TargetOptions
	}

	if o, ok := view.(BackOverrider); ok {
		if b, set := o.BackBehavior(); set && b != BackUnset {
			return b
		}
	}
	if opts.Back.Device != BackUnset {
		return opts.Back.Device
	}
	return f.opts.defaultBack()
}

// HandleBackInput maps a device back press to navigation. It returns
// immediately: the resulting command runs detached and its failures are
// only logged.
func (f *Flow) HandleBackInput() {
	behavior := f.BackBehaviorFor()
	if behavior == BackNotAllowed {
		f.log.Debug("back input ignored")
		return
	}

	internal.Detach(f.log, "back input", func() error {
		ctx := context.Background()

		var res Result
		if behavior == BackClosePopupElseMoveBack && f.PopupStackDepth() > 0 {
			res = f.CloseForegroundPopup(ctx)
		} else {
			res = f.MoveBack(ctx)
		}

		if res == ResultFailed {
			return fmt.Errorf("back input (%s): %s", behavior, res)
		}
		return nil
	})
}
