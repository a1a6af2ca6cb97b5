package dto

import (
	"enculture-be/internal/entity"
	"enculture-be/pkg/isotime"
)

type CreateSurveyRequest struct {
	Name            string                     `json:"name" validate:"required"`
	Context         string                     `json:"context"`
	DesiredOutcomes []string                   `json:"desired_outcomes"`
	Classifiers     []map[string]any           `json:"classifiers"`
	Metrics         []map[string]any           `json:"metrics"`
	Questions       []entity.SurveyQuestion    `json:"questions" validate:"dive"`
	Configuration   entity.SurveyConfiguration `json:"configuration"`
	Branding        entity.SurveyBranding      `json:"branding"`
	CreatedBy       string                     `json:"created_by" validate:"required"`
}

type UpdateSurveyRequest struct {
	Id string `json:"-"`
	CreateSurveyRequest
}

type PublishSurveyRequest struct {
	SurveyId       string   `json:"survey_id" validate:"required"`
	TargetAudience []string `json:"target_audience"`
}

type PublishSurveyResponse struct {
	Success             bool   `json:"success"`
	SurveyId            string `json:"survey_id"`
	NotificationsSent   int    `json:"notifications_sent"`
	TargetAudienceCount int    `json:"target_audience_count"`
}

type SurveyListItem struct {
	Id            string       `json:"id"`
	Name          string       `json:"name"`
	Status        string       `json:"status"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     isotime.Time `json:"created_at"`
	QuestionCount int          `json:"question_count"`
	ResponseCount int          `json:"response_count"`
}

type SurveyListResponse struct {
	Surveys []SurveyListItem `json:"surveys"`
}

type SubmitSurveyResponseRequest struct {
	SurveyId  string         `json:"survey_id" validate:"required"`
	UserId    string         `json:"user_id" validate:"required"`
	UserName  string         `json:"user_name"`
	Responses map[string]any `json:"responses" validate:"required"`
}

type SubmitSurveyResponseResponse struct {
	Success    bool   `json:"success"`
	ResponseId string `json:"response_id"`
	SurveyId   string `json:"survey_id"`
}

type SurveyResponseItem struct {
	Id          string         `json:"id"`
	UserId      string         `json:"user_id"`
	UserName    string         `json:"user_name,omitempty"`
	Responses   map[string]any `json:"responses"`
	SubmittedAt isotime.Time   `json:"submitted_at"`
}

type SurveyResponsesResponse struct {
	SurveyId      string               `json:"survey_id"`
	ResponseCount int                  `json:"response_count"`
	Responses     []SurveyResponseItem `json:"responses"`
}

type SurveyStatsResponse struct {
	SurveyId       string       `json:"survey_id"`
	SurveyName     string       `json:"survey_name"`
	TotalResponses int          `json:"total_responses"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      isotime.Time `json:"created_at"`
	Status         string       `json:"status"`
	QuestionCount  int          `json:"question_count"`
}
