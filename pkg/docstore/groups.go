package docstore

import (
	"context"
)

// Groups stores records in lists keyed by a group id, e.g. responses by
// survey id.
type Groups[T any] struct {
	inner *Collection[[]T]
}

func NewGroups[T any](backend Backend, name string) *Groups[T] {
	return &Groups[T]{inner: NewCollection[[]T](backend, name, Options[[]T]{})}
}

func (g *Groups[T]) Name() string {
	return g.inner.Name()
}

// Append adds record to the end of the group, creating the group if needed.
func (g *Groups[T]) Append(ctx context.Context, group string, record T) error {
	return g.inner.update(ctx, func(m *Mapping[[]T]) (bool, error) {
		list, _ := m.Get(group)
		m.Set(group, append(list, record))
		return true, nil
	})
}

// Group returns the records of one group; unknown groups are empty.
func (g *Groups[T]) Group(ctx context.Context, group string) ([]T, error) {
	list, ok, err := g.inner.Get(ctx, group)
	if err != nil {
		return nil, err
	}
	if !ok || list == nil {
		return []T{}, nil
	}
	return list, nil
}

// Counts returns the number of records per group.
func (g *Groups[T]) Counts(ctx context.Context) (map[string]int, error) {
	m, err := g.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, m.Len())
	m.Each(func(key string, list []T) bool {
		counts[key] = len(list)
		return true
	})
	return counts, nil
}

func (g *Groups[T]) Verify(ctx context.Context) (int, error) {
	return g.inner.Verify(ctx)
}
