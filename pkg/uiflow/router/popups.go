package router

// PopupRecord pairs a popup's configuration with its live instance.
// Keeping the pair in one record means the config list and the
// instance list can never drift apart in length.
type PopupRecord[C any, I comparable] struct {
	Config   C
	Instance I
}

// PopupStack holds the popups stacked over the current screen.
// Index 0 is the bottom (oldest visible), the last index is the
// foreground popup, the only one that receives input.
type PopupStack[C any, I comparable] struct {
	records []PopupRecord[C, I]
}

// NewPopupStack creates a new empty popup stack.
func NewPopupStack[C any, I comparable]() *PopupStack[C, I] {
	return &PopupStack[C, I]{
		records: make([]PopupRecord[C, I], 0),
	}
}

// Push places a popup on top of the stack, making it the foreground.
func (s *PopupStack[C, I]) Push(config C, instance I) {
	s.records = append(s.records, PopupRecord[C, I]{
		Config:   config,
		Instance: instance,
	})
}

// Top returns the foreground record.
// Returns false if the stack is empty.
func (s *PopupStack[C, I]) Top() (PopupRecord[C, I], bool) {
	if len(s.records) == 0 {
		var zero PopupRecord[C, I]
		return zero, false
	}
	return s.records[len(s.records)-1], true
}

// At returns the record at index i, counted from the bottom.
func (s *PopupStack[C, I]) At(i int) (PopupRecord[C, I], bool) {
	if i < 0 || i >= len(s.records) {
		var zero PopupRecord[C, I]
		return zero, false
	}
	return s.records[i], true
}

// IndexOf returns the stack index of instance, or -1 if it is not stacked.
func (s *PopupStack[C, I]) IndexOf(instance I) int {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Instance == instance {
			return i
		}
	}
	return -1
}

// IsForeground reports whether index i is the top of the stack.
func (s *PopupStack[C, I]) IsForeground(i int) bool {
	return i >= 0 && i == len(s.records)-1
}

// RemoveAt removes the record at index i.
// Records below and above keep their relative order.
func (s *PopupStack[C, I]) RemoveAt(i int) (PopupRecord[C, I], bool) {
	if i < 0 || i >= len(s.records) {
		var zero PopupRecord[C, I]
		return zero, false
	}
	rec := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	return rec, true
}

// Len returns the number of stacked popups.
func (s *PopupStack[C, I]) Len() int {
	return len(s.records)
}

// IsEmpty returns true if no popup is stacked.
func (s *PopupStack[C, I]) IsEmpty() bool {
	return len(s.records) == 0
}

// Records returns a copy of the stack, bottom first.
func (s *PopupStack[C, I]) Records() []PopupRecord[C, I] {
	out := make([]PopupRecord[C, I], len(s.records))
	copy(out, s.records)
	return out
}

// Instances returns the live instances, bottom first.
func (s *PopupStack[C, I]) Instances() []I {
	out := make([]I, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Instance
	}
	return out
}
