package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsAppendAndRead(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	groups := NewGroups[widget](backend, "answers")

	empty, err := groups.Group(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)

	require.NoError(t, groups.Append(ctx, "s1", widget{ID: "r1"}))
	before, err := groups.Group(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, groups.Append(ctx, "s1", widget{ID: "r2", Name: "second"}))
	require.NoError(t, groups.Append(ctx, "s2", widget{ID: "r3"}))

	after, err := groups.Group(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
	assert.Equal(t, widget{ID: "r2", Name: "second"}, after[len(after)-1])

	counts, err := groups.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"s1": 2, "s2": 1}, counts)
}
