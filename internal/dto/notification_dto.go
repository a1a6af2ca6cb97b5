package dto

import "enculture-be/pkg/isotime"

const (
	MessageTypeConnectionEstablished = "connection_established"
	MessageTypeSurveyNotification    = "survey_notification"
	MessageTypeSurveyCompleted       = "survey_completed"
	MessageTypeChatMessage           = "chat_message"
	MessageTypeThreadTitleUpdated    = "thread_title_updated"
	MessageTypeSystemBroadcast       = "system_broadcast"
)

type ConnectionEstablishedMessage struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp isotime.Time `json:"timestamp"`
}

// SurveySummary is the part of a survey respondents need to answer it.
type SurveySummary struct {
	Id            string                  `json:"id"`
	Name          string                  `json:"name"`
	Context       string                  `json:"context"`
	Questions     []SurveySummaryQuestion `json:"questions"`
	Branding      SurveySummaryBranding   `json:"branding"`
	Configuration SurveySummaryConfig     `json:"configuration"`
}

type SurveySummaryQuestion struct {
	Id           string   `json:"id"`
	Question     string   `json:"question"`
	ResponseType string   `json:"response_type"`
	Options      []string `json:"options"`
	Mandatory    bool     `json:"mandatory"`
}

type SurveySummaryBranding struct {
	PrimaryColor    string `json:"primary_color"`
	BackgroundColor string `json:"background_color"`
	FontFamily      string `json:"font_family"`
}

type SurveySummaryConfig struct {
	Anonymous bool          `json:"anonymous"`
	Deadline  *isotime.Time `json:"deadline"`
}

type SurveyNotificationMessage struct {
	Type      string        `json:"type"`
	Survey    SurveySummary `json:"survey"`
	Message   string        `json:"message"`
	Timestamp isotime.Time  `json:"timestamp"`
}

type SurveyCompletedMessage struct {
	Type            string       `json:"type"`
	SurveyId        string       `json:"survey_id"`
	SurveyName      string       `json:"survey_name"`
	CompletedBy     string       `json:"completed_by"`
	CompletedByName string       `json:"completed_by_name"`
	CreatedBy       string       `json:"created_by"`
	Message         string       `json:"message"`
	Timestamp       isotime.Time `json:"timestamp"`
}

type ChatMessageNotification struct {
	Type      string              `json:"type"`
	ThreadId  string              `json:"thread_id"`
	Message   ChatMessageResponse `json:"message"`
	Timestamp isotime.Time        `json:"timestamp"`
}

type ThreadTitleUpdatedMessage struct {
	Type      string       `json:"type"`
	ThreadId  string       `json:"thread_id"`
	Title     string       `json:"title"`
	Timestamp isotime.Time `json:"timestamp"`
}

type SystemBroadcastMessage struct {
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Timestamp isotime.Time `json:"timestamp"`
}

type BroadcastRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type BroadcastResponse struct {
	Success   bool `json:"success"`
	Delivered int  `json:"delivered"`
}

type ConnectionStatusResponse struct {
	ConnectedUsers   []string `json:"connected_users"`
	TotalConnections int      `json:"total_connections"`
	Status           string   `json:"status"`
}
