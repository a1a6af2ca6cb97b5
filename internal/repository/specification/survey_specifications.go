package specification

import "enculture-be/internal/entity"

// SurveyCreatedBy matches surveys of one creator. An empty value matches all.
type SurveyCreatedBy struct {
	CreatedBy string
}

func (s SurveyCreatedBy) IsSatisfiedBy(survey entity.Survey) bool {
	return s.CreatedBy == "" || survey.CreatedBy == s.CreatedBy
}

type SurveyByStatus struct {
	Status string
}

func (s SurveyByStatus) IsSatisfiedBy(survey entity.Survey) bool {
	return survey.Status == s.Status
}
