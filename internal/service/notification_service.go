package service

import (
	"context"
	"fmt"

	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/events"
	"enculture-be/pkg/isotime"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	SendToUser(userID string, message any) bool
	Broadcast(message any) int
}

const notificationConsumer = "notification-service"

// NotificationService turns domain events into real-time messages.
type NotificationService struct {
	subscriber events.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub events.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	if err := s.subscriber.Subscribe(events.SubjectPrefix+">", notificationConsumer, s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
	return nil
}

func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case EventSurveyCompleted:
		var p SurveyCompletedPayload
		if err := events.Decode(event, &p); err != nil {
			return s.malformed(event, err)
		}
		if p.CreatedBy == "" {
			return nil
		}
		name := p.CompletedByName
		if name == "" {
			name = p.CompletedBy
		}
		s.deliver(p.CreatedBy, dto.SurveyCompletedMessage{
			Type:            dto.MessageTypeSurveyCompleted,
			SurveyId:        p.SurveyId,
			SurveyName:      p.SurveyName,
			CompletedBy:     p.CompletedBy,
			CompletedByName: name,
			CreatedBy:       p.CreatedBy,
			Message:         fmt.Sprintf("%s completed your survey: %s", name, p.SurveyName),
			Timestamp:       isotime.New(event.Timestamp()),
		})

	case EventChatMessage:
		var p ChatMessagePayload
		if err := events.Decode(event, &p); err != nil {
			return s.malformed(event, err)
		}
		if p.UserId == "" {
			return nil
		}
		ts, err := isotime.Parse(p.Timestamp)
		if err != nil {
			ts = isotime.New(event.Timestamp())
		}
		s.deliver(p.UserId, dto.ChatMessageNotification{
			Type:     dto.MessageTypeChatMessage,
			ThreadId: p.ThreadId,
			Message: dto.ChatMessageResponse{
				Id:        p.MessageId,
				Role:      p.Role,
				Content:   p.Content,
				Timestamp: ts,
			},
			Timestamp: isotime.New(event.Timestamp()),
		})

	case EventThreadTitleUpdated:
		var p ThreadTitleUpdatedPayload
		if err := events.Decode(event, &p); err != nil {
			return s.malformed(event, err)
		}
		if p.UserId == "" {
			return nil
		}
		s.deliver(p.UserId, dto.ThreadTitleUpdatedMessage{
			Type:      dto.MessageTypeThreadTitleUpdated,
			ThreadId:  p.ThreadId,
			Title:     p.Title,
			Timestamp: isotime.New(event.Timestamp()),
		})

	default:
		s.logger.Debug("NotificationService", "No notification for event", map[string]interface{}{"type": event.EventType()})
	}
	return nil
}

// BroadcastSystem pushes an announcement to every connected user.
func (s *NotificationService) BroadcastSystem(title, message string) int {
	sent := s.delivery.Broadcast(dto.SystemBroadcastMessage{
		Type:      dto.MessageTypeSystemBroadcast,
		Title:     title,
		Message:   message,
		Timestamp: isotime.Now(),
	})
	s.logger.Info("NotificationService", "System broadcast sent", map[string]interface{}{"delivered": sent})
	return sent
}

func (s *NotificationService) deliver(userID string, message any) {
	if !s.delivery.SendToUser(userID, message) {
		s.logger.Debug("NotificationService", "User not connected locally", map[string]interface{}{"user_id": userID})
	}
}

// malformed payloads are dropped; redelivery would not fix them.
func (s *NotificationService) malformed(event events.Event, err error) error {
	s.logger.Warn("NotificationService", "Dropping malformed event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	return nil
}
