package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"enculture-be/internal/config"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	backend, err := OpenBackend(config.DataConfig{Dir: dir, Backend: "file"}, false)
	require.NoError(t, err)
	assert.IsType(t, &docstore.FileBackend{}, backend)

	backend, err = OpenBackend(config.DataConfig{Dir: dir, Backend: "sqlite"}, false)
	require.NoError(t, err)
	assert.IsType(t, &docstore.GormBackend{}, backend)
	assert.FileExists(t, filepath.Join(dir, "enculture.db"))

	_, err = OpenBackend(config.DataConfig{Dir: dir, Backend: "mongo"}, false)
	assert.Error(t, err)
}

func TestVerifyStoreCountsRecords(t *testing.T) {
	ctx := context.Background()
	backend, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	repos := NewRepositories(backend)

	require.NoError(t, repos.Surveys.Create(ctx, &entity.Survey{Name: "Pulse"}))
	require.NoError(t, repos.Responses.Create(ctx, &entity.SurveyResponse{SurveyId: "survey_1"}))

	reports, err := VerifyStore(ctx, repos, backend, false, logger.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	byName := map[string]CollectionReport{}
	for _, r := range reports {
		byName[r.Name] = r
	}
	assert.Equal(t, 1, byName["surveys"].Records)
	assert.Equal(t, 1, byName["survey_responses"].Records)
	assert.Equal(t, 0, byName["chat_threads"].Records)
}

func TestVerifyStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	backend, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	repos := NewRepositories(backend)

	path := backend.Path("surveys")
	require.NoError(t, os.WriteFile(path, []byte(`{"survey_1": `), 0o644))

	_, err = VerifyStore(ctx, repos, backend, false, logger.NewNopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, docstore.ErrCorrupt)
	assert.FileExists(t, path)

	reports, err := VerifyStore(ctx, repos, backend, true, logger.NewNopLogger())
	require.NoError(t, err)
	var quarantined string
	for _, r := range reports {
		if r.Name == "surveys" {
			quarantined = r.Quarantined
		}
	}
	require.NotEmpty(t, quarantined)
	assert.FileExists(t, quarantined)
	assert.NoFileExists(t, path)

	list, err := repos.Surveys.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
