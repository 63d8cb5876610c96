package uiflow

import (
	"fmt"
	"reflect"
	"sync"
)

// ViewListener observes every view of type V being shown or hidden.
type ViewListener[V View] interface {
	OnShow(view V)
	OnHide(view V)
}

// PopupListener additionally observes popups of type V being covered.
type PopupListener[V View] interface {
	ViewListener[V]
	OnGoingToBackground(view V)
}

type listenerEntry struct {
	key        any
	show       func(View)
	hide       func(View)
	background func(View)
}

// listenerRegistry dispatches view lifecycle notifications by view type.
// A listener bound to an interface type receives every view implementing it.
type listenerRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type][]listenerEntry
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{
		byType: make(map[reflect.Type][]listenerEntry),
	}
}

func (r *listenerRegistry) add(t reflect.Type, e listenerEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = append(r.byType[t], e)
}

func (r *listenerRegistry) remove(t reflect.Type, key any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.byType[t]
	for i, e := range entries {
		if e.key == key {
			r.byType[t] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *listenerRegistry) matching(v View) []listenerEntry {
	if v == nil {
		return nil
	}
	vt := reflect.TypeOf(v)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []listenerEntry
	for t, entries := range r.byType {
		if t == vt || (t.Kind() == reflect.Interface && vt.Implements(t)) {
			out = append(out, entries...)
		}
	}
	return out
}

func (r *listenerRegistry) shown(v View) {
	for _, e := range r.matching(v) {
		e.show(v)
	}
}

func (r *listenerRegistry) hidden(v View) {
	for _, e := range r.matching(v) {
		e.hide(v)
	}
}

func (r *listenerRegistry) backgrounded(v View) {
	for _, e := range r.matching(v) {
		if e.background != nil {
			e.background(v)
		}
	}
}

// Bind registers l for every view of concrete type V (or implementing V,
// when V is an interface). l must be comparable, typically a pointer.
// Listeners run on the navigation goroutine; a listener that navigates
// must not wait for the result.
func Bind[V View](f *Flow, l ViewListener[V]) error {
	if l == nil {
		f.log.Error("cannot bind nil view listener", "view_type", typeOf[V]().String())
		return fmt.Errorf("bind listener: %w", ErrMissingDependency)
	}
	f.listeners.add(typeOf[V](), listenerEntry{
		key:  l,
		show: func(v View) { l.OnShow(v.(V)) },
		hide: func(v View) { l.OnHide(v.(V)) },
	})
	return nil
}

// BindPopup registers a popup-aware listener for views of type V.
func BindPopup[V View](f *Flow, l PopupListener[V]) error {
	if l == nil {
		f.log.Error("cannot bind nil popup listener", "view_type", typeOf[V]().String())
		return fmt.Errorf("bind popup listener: %w", ErrMissingDependency)
	}
	f.listeners.add(typeOf[V](), listenerEntry{
		key:        l,
		show:       func(v View) { l.OnShow(v.(V)) },
		hide:       func(v View) { l.OnHide(v.(V)) },
		background: func(v View) { l.OnGoingToBackground(v.(V)) },
	})
	return nil
}

// Unbind removes a listener previously bound for V.
// Returns false if it was not bound.
func Unbind[V View](f *Flow, l ViewListener[V]) bool {
	return f.listeners.remove(typeOf[V](), l)
}

func typeOf[V any]() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}
