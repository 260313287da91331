package core

// Selection is an ordered multi-select list keyed by record id. Add does not
// guard against duplicates: callers decide whether a record is already in.
type Selection[T Identified] struct {
	items []*T
}

// Add appends records in the order given.
func (s *Selection[T]) Add(records ...*T) {
	for _, r := range records {
		if r == nil {
			continue
		}
		s.items = append(s.items, r)
	}
}

// Remove deletes the first member carrying each id. Absent ids are no-ops.
func (s *Selection[T]) Remove(ids ...int64) {
	s.items = removeIDs(s.items, ids)
}

// Reset empties the selection.
func (s *Selection[T]) Reset() {
	s.items = nil
}

// Len returns the number of members.
func (s *Selection[T]) Len() int {
	return len(s.items)
}

// Items returns the members in selection order. The slice is a copy; the
// records are the live ones.
func (s *Selection[T]) Items() []*T {
	return append([]*T(nil), s.items...)
}

// Contains reports whether a member carries id.
func (s *Selection[T]) Contains(id int64) bool {
	return indexOf(s.items, id) >= 0
}

// live exposes the backing slice to the merge helpers of this package.
func (s *Selection[T]) live() []*T {
	return s.items
}
