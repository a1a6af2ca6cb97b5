package implementation

import (
	"context"

	"enculture-be/internal/entity"
	"enculture-be/internal/repository/contract"
	"enculture-be/pkg/docstore"
	"enculture-be/pkg/isotime"

	"github.com/google/uuid"
)

const SurveyResponsesCollection = "survey_responses"

type SurveyResponseRepositoryImpl struct {
	responses *docstore.Groups[entity.SurveyResponse]
}

func NewSurveyResponseRepository(backend docstore.Backend) contract.SurveyResponseRepository {
	return &SurveyResponseRepositoryImpl{
		responses: docstore.NewGroups[entity.SurveyResponse](backend, SurveyResponsesCollection),
	}
}

func (r *SurveyResponseRepositoryImpl) Name() string {
	return r.responses.Name()
}

func (r *SurveyResponseRepositoryImpl) Verify(ctx context.Context) (int, error) {
	return r.responses.Verify(ctx)
}

func (r *SurveyResponseRepositoryImpl) Create(ctx context.Context, response *entity.SurveyResponse) error {
	response.Id = "response_" + uuid.NewString()
	if response.SubmittedAt.IsZero() {
		response.SubmittedAt = isotime.Now()
	}
	if response.Responses == nil {
		response.Responses = map[string]any{}
	}
	return r.responses.Append(ctx, response.SurveyId, *response)
}

func (r *SurveyResponseRepositoryImpl) FindBySurvey(ctx context.Context, surveyId string) ([]*entity.SurveyResponse, error) {
	responses, err := r.responses.Group(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	return ptrs(responses), nil
}

func (r *SurveyResponseRepositoryImpl) CountBySurvey(ctx context.Context) (map[string]int, error) {
	return r.responses.Counts(ctx)
}
