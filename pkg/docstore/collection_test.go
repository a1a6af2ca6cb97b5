package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type ownedBy string

func (o ownedBy) IsSatisfiedBy(w widget) bool {
	return w.Owner == string(o)
}

func newWidgets(t *testing.T) (*Collection[widget], *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	seq := 0
	widgets := NewCollection[widget](backend, "widgets", Options[widget]{
		NewID: func() string {
			seq++
			return fmt.Sprintf("w%d", seq)
		},
		Now: func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) },
		Prepare: func(w *widget, id string, now time.Time) {
			w.ID = id
			w.CreatedAt = now
		},
	})
	return widgets, backend
}

func TestCollectionMissingDocumentIsEmpty(t *testing.T) {
	widgets, _ := newWidgets(t)

	m, err := widgets.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	_, found, err := widgets.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCollectionCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	widgets, _ := newWidgets(t)

	created, err := widgets.Create(ctx, widget{Name: "gear", Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "w1", created.ID)
	assert.Equal(t, 2025, created.CreatedAt.Year())

	got, found, err := widgets.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
}

func TestCollectionSaveLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	widgets, backend := newWidgets(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := widgets.Create(ctx, widget{Name: name})
		require.NoError(t, err)
	}

	before, err := os.ReadFile(backend.Path("widgets"))
	require.NoError(t, err)

	m, err := widgets.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, widgets.Save(ctx, m))

	after, err := os.ReadFile(backend.Path("widgets"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	reloaded, err := widgets.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), reloaded.Keys())
	assert.Equal(t, m.Values(), reloaded.Values())
}

func TestCollectionUpdateUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	widgets, _ := newWidgets(t)

	err := widgets.Update(ctx, "ghost", widget{ID: "ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))

	m, err := widgets.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len(), "update must not create records")
}

func TestCollectionUpdateAndMutate(t *testing.T) {
	ctx := context.Background()
	widgets, _ := newWidgets(t)

	created, err := widgets.Create(ctx, widget{Name: "gear"})
	require.NoError(t, err)

	created.Name = "cog"
	require.NoError(t, widgets.Update(ctx, created.ID, created))

	mutated, err := widgets.Mutate(ctx, created.ID, func(w *widget) error {
		w.Owner = "bob"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cog", mutated.Name)
	assert.Equal(t, "bob", mutated.Owner)

	boom := errors.New("boom")
	_, err = widgets.Mutate(ctx, created.ID, func(w *widget) error {
		w.Owner = "mallory"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _, err := widgets.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Owner, "failed mutation must not be saved")
}

func TestCollectionListFilterKeepsOrder(t *testing.T) {
	ctx := context.Background()
	widgets, _ := newWidgets(t)

	owners := []string{"x", "y", "x", "z", "x"}
	for i, owner := range owners {
		_, err := widgets.Create(ctx, widget{Name: fmt.Sprintf("n%d", i), Owner: owner})
		require.NoError(t, err)
	}

	all, err := widgets.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	filtered, err := widgets.List(ctx, ownedBy("x"))
	require.NoError(t, err)

	var expected []widget
	for _, w := range all {
		if w.Owner == "x" {
			expected = append(expected, w)
		}
	}
	assert.Equal(t, expected, filtered)
	assert.Equal(t, []string{"n0", "n2", "n4"}, []string{filtered[0].Name, filtered[1].Name, filtered[2].Name})
}

func TestCollectionCorruptDocumentIsAnError(t *testing.T) {
	ctx := context.Background()
	widgets, backend := newWidgets(t)

	require.NoError(t, os.WriteFile(backend.Path("widgets"), []byte(`{"w1": {"name": `), 0o644))

	_, err := widgets.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = widgets.Create(ctx, widget{Name: "x"})
	assert.ErrorIs(t, err, ErrCorrupt, "writes must not overwrite a corrupt document")

	dest, err := backend.Quarantine(ctx, "widgets")
	require.NoError(t, err)
	assert.FileExists(t, dest)

	m, err := widgets.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestCollectionRecordOfWrongShapeIsCorrupt(t *testing.T) {
	widgets, backend := newWidgets(t)
	require.NoError(t, os.WriteFile(backend.Path("widgets"), []byte(`{"w1": "not an object"}`), 0o644))

	_, err := widgets.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	widgets, backend := newWidgets(t)

	for i := 0; i < 3; i++ {
		_, err := widgets.Create(ctx, widget{Name: "n"})
		require.NoError(t, err)
	}

	leftovers, err := filepath.Glob(filepath.Join(backend.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCollectionConcurrentCreatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	widgets := NewCollection[widget](backend, "widgets", Options[widget]{})

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := widgets.Create(ctx, widget{Name: "n"})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	m, err := widgets.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, m.Len())
}
