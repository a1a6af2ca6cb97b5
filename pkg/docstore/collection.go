package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Options customises how a Collection creates records.
type Options[T any] struct {
	// IDPrefix is prepended to generated ids, e.g. "survey_".
	IDPrefix string
	// Prepare stamps a new record with its id and creation time.
	Prepare func(record *T, id string, now time.Time)
	// NewID overrides id generation.
	NewID func() string
	// Now overrides the clock.
	Now func() time.Time
}

// Collection is a typed view over one backend document.
type Collection[T any] struct {
	name    string
	backend Backend
	opts    Options[T]
}

func NewCollection[T any](backend Backend, name string, opts Options[T]) *Collection[T] {
	if opts.NewID == nil {
		prefix := opts.IDPrefix
		opts.NewID = func() string { return prefix + uuid.NewString() }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Collection[T]{name: name, backend: backend, opts: opts}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns every record. A collection that was never written is empty.
func (c *Collection[T]) Load(ctx context.Context) (*Mapping[T], error) {
	members, err := c.backend.ReadDocument(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decode(members)
}

// Save overwrites the collection with m.
func (c *Collection[T]) Save(ctx context.Context, m *Mapping[T]) error {
	members, err := c.encode(m)
	if err != nil {
		return err
	}
	return c.backend.WriteDocument(ctx, c.name, members)
}

func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var created T
	err := c.update(ctx, func(m *Mapping[T]) (bool, error) {
		id := c.opts.NewID()
		if m.Has(id) {
			return false, fmt.Errorf("docstore: generated id %s already exists in %s", id, c.name)
		}
		if c.opts.Prepare != nil {
			c.opts.Prepare(&record, id, c.opts.Now())
		}
		m.Set(id, record)
		created = record
		return true, nil
	})
	return created, err
}

// Get reports found=false for a missing id; err is reserved for storage failures.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	m, err := c.Load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	record, ok := m.Get(id)
	return record, ok, nil
}

// Update replaces an existing record. It returns ErrNotFound for an unknown id.
func (c *Collection[T]) Update(ctx context.Context, id string, record T) error {
	return c.update(ctx, func(m *Mapping[T]) (bool, error) {
		if !m.Has(id) {
			return false, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
		}
		m.Set(id, record)
		return true, nil
	})
}

// Mutate applies fn to one record inside a single load-modify-save cycle.
func (c *Collection[T]) Mutate(ctx context.Context, id string, fn func(record *T) error) (T, error) {
	var out T
	err := c.update(ctx, func(m *Mapping[T]) (bool, error) {
		record, ok := m.Get(id)
		if !ok {
			return false, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
		}
		if err := fn(&record); err != nil {
			return false, err
		}
		m.Set(id, record)
		out = record
		return true, nil
	})
	return out, err
}

// List returns the records matching every spec, in collection order.
func (c *Collection[T]) List(ctx context.Context, specs ...Specification[T]) ([]T, error) {
	m, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, m.Len())
	m.Each(func(_ string, record T) bool {
		for _, spec := range specs {
			if !spec.IsSatisfiedBy(record) {
				return true
			}
		}
		out = append(out, record)
		return true
	})
	return out, nil
}

// Verify loads the collection and reports whether it is readable.
func (c *Collection[T]) Verify(ctx context.Context) (int, error) {
	m, err := c.Load(ctx)
	if err != nil {
		return 0, err
	}
	return m.Len(), nil
}

// update runs fn between a load and a save, under the backend's collection
// lock. fn returns whether to save.
func (c *Collection[T]) update(ctx context.Context, fn func(m *Mapping[T]) (bool, error)) error {
	return c.backend.UpdateDocument(ctx, c.name, func(members []Member) ([]Member, bool, error) {
		m, err := c.decode(members)
		if err != nil {
			return nil, false, err
		}
		dirty, err := fn(m)
		if err != nil || !dirty {
			return nil, false, err
		}
		out, err := c.encode(m)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	})
}

func (c *Collection[T]) decode(members []Member) (*Mapping[T], error) {
	m := NewMapping[T]()
	for _, member := range members {
		var record T
		if err := json.Unmarshal(member.Value, &record); err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrCorrupt, c.name, member.Key, err)
		}
		m.Set(member.Key, record)
	}
	return m, nil
}

func (c *Collection[T]) encode(m *Mapping[T]) ([]Member, error) {
	members := make([]Member, 0, m.Len())
	var encodeErr error
	m.Each(func(key string, record T) bool {
		raw, err := json.Marshal(record)
		if err != nil {
			encodeErr = fmt.Errorf("encode %s/%s: %w", c.name, key, err)
			return false
		}
		members = append(members, Member{Key: key, Value: raw})
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	return members, nil
}
