package router

// Entry is a single record in the screen history.
// It stores the target that was shown and the args it was shown with,
// so navigating back can replay the previous screen verbatim.
type Entry[T any] struct {
	Target T
	Args   any
}

// History manages screen navigation history for back navigation.
// The last entry is always the screen that is currently active.
type History[T any] struct {
	entries []Entry[T]
}

// NewHistory creates a new empty history.
func NewHistory[T any]() *History[T] {
	return &History[T]{
		entries: make([]Entry[T], 0),
	}
}

// Push adds a new entry to the history.
// Called when navigating forward to a new screen.
func (h *History[T]) Push(target T, args any) {
	h.entries = append(h.entries, Entry[T]{
		Target: target,
		Args:   args,
	})
}

// Pop removes and returns the last entry.
// Returns nil if the history is empty.
func (h *History[T]) Pop() *Entry[T] {
	if len(h.entries) == 0 {
		return nil
	}
	entry := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return &entry
}

// Peek returns the last entry without removing it.
// Returns nil if the history is empty.
func (h *History[T]) Peek() *Entry[T] {
	if len(h.entries) == 0 {
		return nil
	}
	return &h.entries[len(h.entries)-1]
}

// Previous returns the entry a back navigation would return to.
// Returns nil if there are fewer than two entries.
func (h *History[T]) Previous() *Entry[T] {
	if len(h.entries) < 2 {
		return nil
	}
	return &h.entries[len(h.entries)-2]
}

// CanGoBack returns true if there is a previous entry to return to.
func (h *History[T]) CanGoBack() bool {
	return len(h.entries) >= 2
}

// IsEmpty returns true if the history has no entries.
func (h *History[T]) IsEmpty() bool {
	return len(h.entries) == 0
}

// Len returns the number of entries in the history.
func (h *History[T]) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the history, oldest first.
func (h *History[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear removes all entries from the history.
func (h *History[T]) Clear() {
	h.entries = h.entries[:0]
}
