package uiflow

import "sync"

// ScreenChange describes a committed screen transition.
type ScreenChange struct {
	Previous *ScreenTarget // nil for the first screen
	Current  *ScreenTarget
	View     View
	Args     any
	Title    string // Localized title of Current
	Back     bool   // True when reached by moving back
}

// PopupOpen describes a popup that was shown and pushed on the stack.
type PopupOpen struct {
	Popup *Popup
	Depth int // Stack depth after the push
	Title string
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// eventHub fans an event out to subscribers in subscription order.
type eventHub[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

func (h *eventHub[T]) subscribe(fn func(T)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

func (h *eventHub[T]) emit(ev T) {
	h.mu.Lock()
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// OnStart subscribes to the first screen being shown. Fires once per Flow.
func (f *Flow) OnStart(fn func(ScreenChange)) (unsubscribe func()) {
	return f.onStart.subscribe(fn)
}

// OnScreenChange subscribes to committed screen transitions.
func (f *Flow) OnScreenChange(fn func(ScreenChange)) (unsubscribe func()) {
	return f.onScreenChange.subscribe(fn)
}

// OnPopupOpen subscribes to popups being opened.
func (f *Flow) OnPopupOpen(fn func(PopupOpen)) (unsubscribe func()) {
	return f.onPopupOpen.subscribe(fn)
}
