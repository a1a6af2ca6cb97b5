package implementation

import (
	"context"
	"time"

	"enculture-be/internal/entity"
	"enculture-be/internal/repository/contract"
	"enculture-be/internal/repository/specification"
	"enculture-be/pkg/docstore"
	"enculture-be/pkg/isotime"
)

const SurveysCollection = "surveys"

type SurveyRepositoryImpl struct {
	surveys *docstore.Collection[entity.Survey]
}

func NewSurveyRepository(backend docstore.Backend) contract.SurveyRepository {
	return &SurveyRepositoryImpl{
		surveys: docstore.NewCollection(backend, SurveysCollection, docstore.Options[entity.Survey]{
			IDPrefix: "survey_",
			Prepare: func(s *entity.Survey, id string, now time.Time) {
				s.Id = id
				s.CreatedAt = isotime.New(now)
			},
		}),
	}
}

func (r *SurveyRepositoryImpl) Name() string {
	return r.surveys.Name()
}

func (r *SurveyRepositoryImpl) Verify(ctx context.Context) (int, error) {
	return r.surveys.Verify(ctx)
}

func (r *SurveyRepositoryImpl) Create(ctx context.Context, survey *entity.Survey) error {
	created, err := r.surveys.Create(ctx, *survey)
	if err != nil {
		return err
	}
	*survey = created
	return nil
}

func (r *SurveyRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.Survey, error) {
	survey, found, err := r.surveys.Get(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return &survey, nil
}

func (r *SurveyRepositoryImpl) FindAll(ctx context.Context, specs ...specification.SurveySpecification) ([]*entity.Survey, error) {
	surveys, err := r.surveys.List(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return ptrs(surveys), nil
}

func (r *SurveyRepositoryImpl) Update(ctx context.Context, survey *entity.Survey) error {
	return translate(r.surveys.Update(ctx, survey.Id, *survey))
}

func (r *SurveyRepositoryImpl) Mutate(ctx context.Context, id string, fn func(survey *entity.Survey) error) (*entity.Survey, error) {
	survey, err := r.surveys.Mutate(ctx, id, fn)
	if err != nil {
		return nil, translate(err)
	}
	return &survey, nil
}
