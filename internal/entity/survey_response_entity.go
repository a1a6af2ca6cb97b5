package entity

import "enculture-be/pkg/isotime"

// SurveyResponse is one submission. Responses map question id to answer.
type SurveyResponse struct {
	Id          string         `json:"id"`
	SurveyId    string         `json:"survey_id"`
	UserId      string         `json:"user_id"`
	UserName    string         `json:"user_name,omitempty"`
	Responses   map[string]any `json:"responses"`
	SubmittedAt isotime.Time   `json:"submitted_at"`
}
