package service

import (
	"context"
	"fmt"
	"strings"

	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/contract"
	"enculture-be/internal/repository/specification"
	"enculture-be/pkg/events"
	"enculture-be/pkg/isotime"
)

type ISurveyService interface {
	Create(ctx context.Context, req *dto.CreateSurveyRequest) (*entity.Survey, error)
	Get(ctx context.Context, id string) (*entity.Survey, error)
	List(ctx context.Context, createdBy string) (*dto.SurveyListResponse, error)
	Update(ctx context.Context, req *dto.UpdateSurveyRequest) (*entity.Survey, error)
	Publish(ctx context.Context, req *dto.PublishSurveyRequest) (*dto.PublishSurveyResponse, error)
	SubmitResponse(ctx context.Context, req *dto.SubmitSurveyResponseRequest) (*dto.SubmitSurveyResponseResponse, error)
	Responses(ctx context.Context, surveyId string) (*dto.SurveyResponsesResponse, error)
	Stats(ctx context.Context, surveyId string) (*dto.SurveyStatsResponse, error)
}

// SurveyNotifier pushes a published survey to its audience and reports how
// many users were reached.
type SurveyNotifier interface {
	NotifySurveyPublished(survey dto.SurveySummary, targets []string) int
}

type surveyService struct {
	surveys   contract.SurveyRepository
	responses contract.SurveyResponseRepository
	notifier  SurveyNotifier
	publisher events.Publisher
	logger    logger.ILogger
}

func NewSurveyService(
	surveys contract.SurveyRepository,
	responses contract.SurveyResponseRepository,
	notifier SurveyNotifier,
	publisher events.Publisher,
	log logger.ILogger,
) ISurveyService {
	return &surveyService{
		surveys:   surveys,
		responses: responses,
		notifier:  notifier,
		publisher: publisher,
		logger:    log,
	}
}

func (s *surveyService) Create(ctx context.Context, req *dto.CreateSurveyRequest) (*entity.Survey, error) {
	survey := surveyFromRequest(req)
	survey.Status = entity.SurveyStatusDraft
	survey.ApplyDefaults()

	if err := s.surveys.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	s.logger.Info("SurveyService", "Survey created", map[string]interface{}{"survey_id": survey.Id, "name": survey.Name})
	return survey, nil
}

func (s *surveyService) Get(ctx context.Context, id string) (*entity.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, apperror.NotFound("survey %s not found", id)
	}
	return survey, nil
}

func (s *surveyService) List(ctx context.Context, createdBy string) (*dto.SurveyListResponse, error) {
	surveys, err := s.surveys.FindAll(ctx, specification.SurveyCreatedBy{CreatedBy: createdBy})
	if err != nil {
		return nil, err
	}
	counts, err := s.responses.CountBySurvey(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SurveyListItem, 0, len(surveys))
	for _, survey := range surveys {
		items = append(items, dto.SurveyListItem{
			Id:            survey.Id,
			Name:          survey.Name,
			Status:        survey.Status,
			CreatedBy:     survey.CreatedBy,
			CreatedAt:     survey.CreatedAt,
			QuestionCount: len(survey.Questions),
			ResponseCount: counts[survey.Id],
		})
	}
	return &dto.SurveyListResponse{Surveys: items}, nil
}

// Update replaces the editable content of a survey. Identity, status and
// timestamps are kept. Completed surveys are frozen.
func (s *surveyService) Update(ctx context.Context, req *dto.UpdateSurveyRequest) (*entity.Survey, error) {
	updated, err := s.surveys.Mutate(ctx, req.Id, func(survey *entity.Survey) error {
		if survey.Status == entity.SurveyStatusCompleted {
			return apperror.Conflict("survey %s is completed", survey.Id)
		}
		next := surveyFromRequest(&req.CreateSurveyRequest)
		next.Id = survey.Id
		next.Status = survey.Status
		next.CreatedAt = survey.CreatedAt
		next.PublishedAt = survey.PublishedAt
		next.ApplyDefaults()
		*survey = *next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Publish marks the survey published, records the audience and notifies
// every connected member of it. Publishing again re-notifies.
func (s *surveyService) Publish(ctx context.Context, req *dto.PublishSurveyRequest) (*dto.PublishSurveyResponse, error) {
	targets := req.TargetAudience
	if targets == nil {
		targets = []string{}
	}

	survey, err := s.surveys.Mutate(ctx, req.SurveyId, func(survey *entity.Survey) error {
		if survey.Status == entity.SurveyStatusCompleted {
			return apperror.Conflict("survey %s is completed", survey.Id)
		}
		survey.Status = entity.SurveyStatusPublished
		survey.PublishedAt = isotime.Ptr(isotime.Now().Time)
		survey.Configuration.TargetAudience = targets
		return nil
	})
	if err != nil {
		return nil, err
	}

	sent := 0
	if s.notifier != nil {
		sent = s.notifier.NotifySurveyPublished(SummarizeSurvey(survey), targets)
	}
	s.logger.Info("SurveyService", "Survey published", map[string]interface{}{
		"survey_id":          survey.Id,
		"target_audience":    len(targets),
		"notifications_sent": sent,
	})

	publishEvent(ctx, s.publisher, s.logger, EventSurveyPublished, SurveyPublishedPayload{
		SurveyId:          survey.Id,
		SurveyName:        survey.Name,
		TargetAudience:    targets,
		NotificationsSent: sent,
	})

	return &dto.PublishSurveyResponse{
		Success:             true,
		SurveyId:            survey.Id,
		NotificationsSent:   sent,
		TargetAudienceCount: len(targets),
	}, nil
}

func (s *surveyService) SubmitResponse(ctx context.Context, req *dto.SubmitSurveyResponseRequest) (*dto.SubmitSurveyResponseResponse, error) {
	survey, err := s.Get(ctx, req.SurveyId)
	if err != nil {
		return nil, err
	}
	if missing := missingMandatory(survey, req.Responses); len(missing) > 0 {
		return nil, apperror.InvalidInput("missing answers for mandatory questions: %s", strings.Join(missing, ", "))
	}

	response := &entity.SurveyResponse{
		SurveyId:  survey.Id,
		UserId:    req.UserId,
		UserName:  req.UserName,
		Responses: req.Responses,
	}
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	s.logger.Info("SurveyService", "Survey response received", map[string]interface{}{
		"survey_id":   survey.Id,
		"response_id": response.Id,
		"user_id":     req.UserId,
	})

	completedByName := req.UserName
	if completedByName == "" {
		completedByName = req.UserId
	}
	publishEvent(ctx, s.publisher, s.logger, EventSurveyCompleted, SurveyCompletedPayload{
		SurveyId:        survey.Id,
		SurveyName:      survey.Name,
		ResponseId:      response.Id,
		CompletedBy:     req.UserId,
		CompletedByName: completedByName,
		CreatedBy:       survey.CreatedBy,
	})

	return &dto.SubmitSurveyResponseResponse{
		Success:    true,
		ResponseId: response.Id,
		SurveyId:   survey.Id,
	}, nil
}

func (s *surveyService) Responses(ctx context.Context, surveyId string) (*dto.SurveyResponsesResponse, error) {
	if _, err := s.Get(ctx, surveyId); err != nil {
		return nil, err
	}
	responses, err := s.responses.FindBySurvey(ctx, surveyId)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SurveyResponseItem, 0, len(responses))
	for _, r := range responses {
		items = append(items, dto.SurveyResponseItem{
			Id:          r.Id,
			UserId:      r.UserId,
			UserName:    r.UserName,
			Responses:   r.Responses,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return &dto.SurveyResponsesResponse{
		SurveyId:      surveyId,
		ResponseCount: len(items),
		Responses:     items,
	}, nil
}

func (s *surveyService) Stats(ctx context.Context, surveyId string) (*dto.SurveyStatsResponse, error) {
	survey, err := s.Get(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.FindBySurvey(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	return &dto.SurveyStatsResponse{
		SurveyId:       survey.Id,
		SurveyName:     survey.Name,
		TotalResponses: len(responses),
		CreatedBy:      survey.CreatedBy,
		CreatedAt:      survey.CreatedAt,
		Status:         survey.Status,
		QuestionCount:  len(survey.Questions),
	}, nil
}

// SummarizeSurvey builds the payload respondents receive on publish.
func SummarizeSurvey(survey *entity.Survey) dto.SurveySummary {
	questions := make([]dto.SurveySummaryQuestion, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, dto.SurveySummaryQuestion{
			Id:           q.Id,
			Question:     q.Question,
			ResponseType: q.ResponseType,
			Options:      options,
			Mandatory:    q.IsMandatory(),
		})
	}
	return dto.SurveySummary{
		Id:        survey.Id,
		Name:      survey.Name,
		Context:   survey.Context,
		Questions: questions,
		Branding: dto.SurveySummaryBranding{
			PrimaryColor:    survey.Branding.PrimaryColor,
			BackgroundColor: survey.Branding.BackgroundColor,
			FontFamily:      survey.Branding.FontFamily,
		},
		Configuration: dto.SurveySummaryConfig{
			Anonymous: survey.Configuration.IsAnonymous(),
			Deadline:  survey.Configuration.Deadline,
		},
	}
}

func surveyFromRequest(req *dto.CreateSurveyRequest) *entity.Survey {
	return &entity.Survey{
		Name:            req.Name,
		Context:         req.Context,
		DesiredOutcomes: req.DesiredOutcomes,
		Classifiers:     req.Classifiers,
		Metrics:         req.Metrics,
		Questions:       req.Questions,
		Configuration:   req.Configuration,
		Branding:        req.Branding,
		CreatedBy:       req.CreatedBy,
	}
}

// missingMandatory lists the ids of mandatory questions without an answer.
func missingMandatory(survey *entity.Survey, answers map[string]any) []string {
	var missing []string
	for _, q := range survey.Questions {
		if !q.IsMandatory() || q.Id == "" {
			continue
		}
		v, ok := answers[q.Id]
		if !ok || v == nil {
			missing = append(missing, q.Id)
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, q.Id)
		}
	}
	return missing
}
