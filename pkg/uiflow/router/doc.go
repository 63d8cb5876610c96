// Package router provides the navigation containers used by the flow engine.
//
// It holds three pieces of state, none of which know anything about how
// screens are shown or hidden:
//
//   - History: the screens navigated through, last entry = current screen.
//   - PopupStack: popups layered over the current screen, last = foreground.
//   - Registry: name to target lookup, built once at initialization.
//
// # History
//
//	h := router.NewHistory[string]()
//	h.Push("home", nil)
//	h.Push("settings", SettingsArgs{Tab: 2})
//
//	if h.CanGoBack() {
//	    prev := h.Previous() // "home"
//	    _ = prev
//	}
//
// Forward navigation pushes an entry; back navigation pops the last one.
// A back navigation needs at least two entries: the one being left and
// the one being returned to.
//
// # Popup Stack
//
//	s := router.NewPopupStack[string, int]()
//	s.Push("confirm", 1)
//	s.Push("toast", 2)
//
//	i := s.IndexOf(1)  // 0, buried under "toast"
//	s.RemoveAt(i)      // "toast" stays foreground
//
// Config and instance are stored together so both lists always have the
// same length. Removing a buried record never reorders the others.
//
// # Registry
//
//	reg := router.NewRegistry[*Screen]()
//	if err := reg.Register("home", home); err != nil {
//	    // errors.Is(err, router.ErrDuplicateName)
//	}
//	reg.Freeze()
//
// The containers are not safe for concurrent mutation; the flow engine
// only mutates them from its single drain loop. Registry is the exception
// and may be read from any goroutine.
package router
