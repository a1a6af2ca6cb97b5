package entity

import (
	"enculture-be/pkg/isotime"
)

const (
	SurveyStatusDraft     = "draft"
	SurveyStatusPublished = "published"
	SurveyStatusCompleted = "completed"
)

type Survey struct {
	Id              string              `json:"id"`
	Name            string              `json:"name"`
	Context         string              `json:"context"`
	DesiredOutcomes []string            `json:"desired_outcomes"`
	Classifiers     []map[string]any    `json:"classifiers"`
	Metrics         []map[string]any    `json:"metrics"`
	Questions       []SurveyQuestion    `json:"questions"`
	Configuration   SurveyConfiguration `json:"configuration"`
	Branding        SurveyBranding      `json:"branding"`
	Status          string              `json:"status"`
	CreatedBy       string              `json:"created_by"`
	CreatedAt       isotime.Time        `json:"created_at"`
	PublishedAt     *isotime.Time       `json:"published_at"`
}

type SurveyQuestion struct {
	Id           string            `json:"id"`
	Question     string            `json:"question"`
	ResponseType string            `json:"response_type"`
	Options      []string          `json:"options"`
	Mandatory    *bool             `json:"mandatory,omitempty"`
	Metrics      []string          `json:"metrics"`
	Classifiers  map[string]string `json:"classifiers"`
}

// IsMandatory treats a missing flag as mandatory.
func (q SurveyQuestion) IsMandatory() bool {
	return q.Mandatory == nil || *q.Mandatory
}

type SurveyConfiguration struct {
	BackgroundImage *string       `json:"background_image"`
	Languages       []string      `json:"languages"`
	TargetAudience  []string      `json:"target_audience"`
	ReleaseDate     *isotime.Time `json:"release_date"`
	Deadline        *isotime.Time `json:"deadline"`
	Anonymous       *bool         `json:"anonymous,omitempty"`
}

func (c SurveyConfiguration) IsAnonymous() bool {
	return c.Anonymous == nil || *c.Anonymous
}

type SurveyBranding struct {
	PrimaryColor    string `json:"primary_color"`
	BackgroundColor string `json:"background_color"`
	FontFamily      string `json:"font_family"`
}

// ApplyDefaults fills every unset field with the values a freshly created
// survey carries.
func (s *Survey) ApplyDefaults() {
	if s.DesiredOutcomes == nil {
		s.DesiredOutcomes = []string{}
	}
	if s.Classifiers == nil {
		s.Classifiers = []map[string]any{}
	}
	if s.Metrics == nil {
		s.Metrics = []map[string]any{}
	}
	if s.Questions == nil {
		s.Questions = []SurveyQuestion{}
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.Mandatory == nil {
			q.Mandatory = boolPtr(true)
		}
		if q.Metrics == nil {
			q.Metrics = []string{}
		}
		if q.Classifiers == nil {
			q.Classifiers = map[string]string{}
		}
	}

	cfg := &s.Configuration
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"English"}
	}
	if cfg.TargetAudience == nil {
		cfg.TargetAudience = []string{}
	}
	if cfg.Anonymous == nil {
		cfg.Anonymous = boolPtr(true)
	}

	if s.Branding.PrimaryColor == "" {
		s.Branding.PrimaryColor = "#8B5CF6"
	}
	if s.Branding.BackgroundColor == "" {
		s.Branding.BackgroundColor = "#FAFBFF"
	}
	if s.Branding.FontFamily == "" {
		s.Branding.FontFamily = "Inter"
	}
	if s.Status == "" {
		s.Status = SurveyStatusDraft
	}
}

func boolPtr(b bool) *bool {
	return &b
}
