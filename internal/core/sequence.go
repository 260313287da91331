package core

// KeyedSequence is an ordered list of records identified by a secondary key.
// Position carries meaning (chronology), so no operation reorders members.
type KeyedSequence[K comparable, T any] struct {
	key   func(*T) K
	items []*T
}

// NewKeyedSequence builds an empty sequence keyed by key.
func NewKeyedSequence[K comparable, T any](key func(*T) K) *KeyedSequence[K, T] {
	return &KeyedSequence[K, T]{key: key}
}

// AddStart prepends records one at a time, so the last record given ends up
// first: [W2,W3] + AddStart(W0,W1) = [W1,W0,W2,W3].
func (s *KeyedSequence[K, T]) AddStart(records ...*T) {
	for _, r := range records {
		if r == nil {
			continue
		}
		s.items = append([]*T{r}, s.items...)
	}
}

// AddEnd appends records in input order.
func (s *KeyedSequence[K, T]) AddEnd(records ...*T) {
	s.items = append(s.items, compact(records)...)
}

// Refresh swaps each held record whose key matches an incoming one, keeping
// its position; unmatched incoming records are ignored. An empty sequence
// adopts the incoming records as a whole instead.
func (s *KeyedSequence[K, T]) Refresh(records ...*T) {
	if len(s.items) == 0 {
		s.items = compact(records)
		return
	}
	for _, r := range compact(records) {
		if i := s.indexOfKey(s.key(r)); i >= 0 {
			s.items[i] = r
		}
	}
}

// Find returns the first record carrying key.
func (s *KeyedSequence[K, T]) Find(key K) (*T, bool) {
	if i := s.indexOfKey(key); i >= 0 {
		return s.items[i], true
	}
	return nil, false
}

// Len returns the number of records.
func (s *KeyedSequence[K, T]) Len() int {
	return len(s.items)
}

// Items returns the records in sequence order; the slice is a copy.
func (s *KeyedSequence[K, T]) Items() []*T {
	return append([]*T(nil), s.items...)
}

// Keys returns the key of every record in sequence order.
func (s *KeyedSequence[K, T]) Keys() []K {
	keys := make([]K, 0, len(s.items))
	for _, r := range s.items {
		keys = append(keys, s.key(r))
	}
	return keys
}

func (s *KeyedSequence[K, T]) indexOfKey(key K) int {
	for i, r := range s.items {
		if s.key(r) == key {
			return i
		}
	}
	return -1
}

func compact[T any](records []*T) []*T {
	out := make([]*T, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
