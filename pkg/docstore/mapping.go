package docstore

// Mapping is an id-keyed set of records that remembers insertion order.
// Replacing an existing key keeps its original position.
type Mapping[T any] struct {
	keys  []string
	items map[string]T
}

func NewMapping[T any]() *Mapping[T] {
	return &Mapping[T]{items: make(map[string]T)}
}

func (m *Mapping[T]) Len() int {
	return len(m.keys)
}

func (m *Mapping[T]) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

func (m *Mapping[T]) Get(key string) (T, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *Mapping[T]) Set(key string, value T) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = value
}

func (m *Mapping[T]) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in order.
func (m *Mapping[T]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the records in order.
func (m *Mapping[T]) Values() []T {
	out := make([]T, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}

// Each visits records in order until fn returns false.
func (m *Mapping[T]) Each(fn func(key string, value T) bool) {
	for _, k := range m.keys {
		if !fn(k, m.items[k]) {
			return
		}
	}
}
