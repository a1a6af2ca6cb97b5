package contract

import (
	"context"

	"enculture-be/internal/entity"
	"enculture-be/internal/repository/specification"
)

// Verifiable is implemented by every document-backed repository; startup
// and datactl use it to check the stored documents.
type Verifiable interface {
	Name() string
	Verify(ctx context.Context) (int, error)
}

type SurveyRepository interface {
	Verifiable
	// Create assigns Id and CreatedAt.
	Create(ctx context.Context, survey *entity.Survey) error
	// FindByID returns nil, nil for an unknown id.
	FindByID(ctx context.Context, id string) (*entity.Survey, error)
	FindAll(ctx context.Context, specs ...specification.SurveySpecification) ([]*entity.Survey, error)
	// Update returns apperror.ErrNotFound for an unknown id.
	Update(ctx context.Context, survey *entity.Survey) error
	Mutate(ctx context.Context, id string, fn func(survey *entity.Survey) error) (*entity.Survey, error)
}

type SurveyResponseRepository interface {
	Verifiable
	// Create assigns Id and SubmittedAt and appends to the survey's group.
	Create(ctx context.Context, response *entity.SurveyResponse) error
	FindBySurvey(ctx context.Context, surveyId string) ([]*entity.SurveyResponse, error)
	CountBySurvey(ctx context.Context) (map[string]int, error)
}
