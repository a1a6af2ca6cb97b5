package implementation

import (
	"context"
	"strings"
	"testing"

	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/repository/specification"
	"enculture-be/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) docstore.Backend {
	t.Helper()
	backend, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

func TestSurveyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSurveyRepository(newBackend(t))

	survey := &entity.Survey{Name: "Pulse", CreatedBy: "hr"}
	survey.ApplyDefaults()
	require.NoError(t, repo.Create(ctx, survey))
	assert.True(t, strings.HasPrefix(survey.Id, "survey_"))
	assert.False(t, survey.CreatedAt.IsZero())

	other := &entity.Survey{Name: "Exit", CreatedBy: "ceo"}
	other.ApplyDefaults()
	require.NoError(t, repo.Create(ctx, other))

	found, err := repo.FindByID(ctx, survey.Id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Pulse", found.Name)

	missing, err := repo.FindByID(ctx, "survey_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	mine, err := repo.FindAll(ctx, specification.SurveyCreatedBy{CreatedBy: "hr"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, survey.Id, mine[0].Id)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found.Name = "Pulse v2"
	require.NoError(t, repo.Update(ctx, found))

	err = repo.Update(ctx, &entity.Survey{Id: "survey_nope"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	published, err := repo.Mutate(ctx, survey.Id, func(s *entity.Survey) error {
		s.Status = entity.SurveyStatusPublished
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Pulse v2", published.Name)
	assert.Equal(t, entity.SurveyStatusPublished, published.Status)

	_, err = repo.Mutate(ctx, "survey_nope", func(*entity.Survey) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	n, err := repo.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, SurveysCollection, repo.Name())
}

func TestSurveyResponseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSurveyResponseRepository(newBackend(t))

	first := &entity.SurveyResponse{SurveyId: "survey_1", UserId: "u1", Responses: map[string]any{"q1": "Yes"}}
	require.NoError(t, repo.Create(ctx, first))
	assert.True(t, strings.HasPrefix(first.Id, "response_"))
	assert.False(t, first.SubmittedAt.IsZero())

	require.NoError(t, repo.Create(ctx, &entity.SurveyResponse{SurveyId: "survey_1", UserId: "u2"}))
	require.NoError(t, repo.Create(ctx, &entity.SurveyResponse{SurveyId: "survey_2", UserId: "u1"}))

	responses, err := repo.FindBySurvey(ctx, "survey_1")
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "u1", responses[0].UserId)
	assert.Equal(t, "Yes", responses[0].Responses["q1"])
	assert.NotNil(t, responses[1].Responses)

	none, err := repo.FindBySurvey(ctx, "survey_none")
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := repo.CountBySurvey(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"survey_1": 2, "survey_2": 1}, counts)
}

func TestChatThreadRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewChatThreadRepository(newBackend(t))

	user := "u1"
	thread := &entity.ChatThread{UserId: &user, IsActive: true}
	require.NoError(t, repo.Create(ctx, thread))
	assert.NotEmpty(t, thread.Id)
	assert.NotNil(t, thread.Messages)

	updated, err := repo.Mutate(ctx, thread.Id, func(th *entity.ChatThread) error {
		th.Messages = append(th.Messages, entity.ChatMessage{Id: "m1", Role: entity.RoleUser, Content: "hello"})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Messages, 1)

	hits, err := repo.FindAll(ctx, specification.ThreadActive{}, specification.ThreadMatches{Query: "HELLO"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = repo.Mutate(ctx, "missing", func(*entity.ChatThread) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	found, err := repo.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}
