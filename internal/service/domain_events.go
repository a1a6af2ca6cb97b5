package service

import (
	"context"

	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/events"
)

// Event types published by the services.
const (
	EventSurveyPublished    = "survey_published"
	EventSurveyCompleted    = "survey_completed"
	EventChatMessage        = "chat_message"
	EventChatExchange       = "chat_exchange"
	EventThreadTitleUpdated = "thread_title_updated"
)

type SurveyPublishedPayload struct {
	SurveyId          string   `json:"survey_id"`
	SurveyName        string   `json:"survey_name"`
	TargetAudience    []string `json:"target_audience"`
	NotificationsSent int      `json:"notifications_sent"`
}

type SurveyCompletedPayload struct {
	SurveyId        string `json:"survey_id"`
	SurveyName      string `json:"survey_name"`
	ResponseId      string `json:"response_id"`
	CompletedBy     string `json:"completed_by"`
	CompletedByName string `json:"completed_by_name"`
	CreatedBy       string `json:"created_by"`
}

type ChatMessagePayload struct {
	ThreadId  string `json:"thread_id"`
	UserId    string `json:"user_id"`
	MessageId string `json:"message_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatExchangePayload is one user prompt and the assistant's answer.
type ChatExchangePayload struct {
	ThreadId     string `json:"thread_id"`
	UserId       string `json:"user_id"`
	FirstMessage string `json:"first_message"`
	AiResponse   string `json:"ai_response"`
}

type ThreadTitleUpdatedPayload struct {
	ThreadId string `json:"thread_id"`
	UserId   string `json:"user_id"`
	Title    string `json:"title"`
}

// publishEvent is fire-and-forget: a failed publish is logged and the
// request that caused it still succeeds.
func publishEvent(ctx context.Context, publisher events.Publisher, log logger.ILogger, eventType string, payload any) {
	if publisher == nil {
		return
	}
	event, err := events.New(eventType, payload)
	if err == nil {
		err = publisher.Publish(ctx, event)
	}
	if err != nil {
		log.Warn("Events", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
