package ecs

// Store is a generic typed map keyed by ID.
// No reflect, no interface{}.
type Store[T any] struct {
	data map[ID]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[ID]T, 64),
	}
}

func (s *Store[T]) Set(id ID, v T) {
	s.data[id] = v
}

func (s *Store[T]) Get(id ID) (T, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *Store[T]) Remove(id ID) {
	delete(s.data, id)
}

func (s *Store[T]) Has(id ID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Clear drops every entry but keeps the allocated map.
func (s *Store[T]) Clear() {
	clear(s.data)
}
