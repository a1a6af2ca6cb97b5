package service

import (
	"context"
	"errors"
	"fmt"

	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/events"
)

const titleWorkerConsumer = "title-worker"

type ITitleWorker interface {
	Start() error
}

// titleWorker names threads that still carry the default title once their
// first exchange is known.
type titleWorker struct {
	subscriber events.Subscriber
	chats      IChatThreadService
	logger     logger.ILogger
}

func NewTitleWorker(sub events.Subscriber, chats IChatThreadService, log logger.ILogger) ITitleWorker {
	return &titleWorker{
		subscriber: sub,
		chats:      chats,
		logger:     log,
	}
}

func (w *titleWorker) Start() error {
	if err := w.subscriber.Subscribe(events.Subject(EventChatExchange), titleWorkerConsumer, w.processMessage); err != nil {
		return fmt.Errorf("subscribe title worker: %w", err)
	}
	w.logger.Info("TitleWorker", "Title worker started", nil)
	return nil
}

func (w *titleWorker) processMessage(ctx context.Context, event events.Event) error {
	var payload ChatExchangePayload
	if err := events.Decode(event, &payload); err != nil || payload.ThreadId == "" {
		w.logger.Warn("TitleWorker", "Dropping malformed exchange event", nil)
		return nil
	}

	thread, err := w.chats.Get(ctx, payload.ThreadId)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		// retriable
		return err
	}
	if thread.Title != nil && *thread.Title != entity.DefaultThreadTitle {
		return nil
	}

	title, err := w.chats.GenerateTitle(ctx, &dto.GenerateTitleRequest{
		FirstMessage: payload.FirstMessage,
		AiResponse:   payload.AiResponse,
	})
	if err != nil {
		return err
	}
	if title == entity.DefaultThreadTitle {
		return nil
	}
	if err := w.chats.UpdateTitle(ctx, thread.Id, title); err != nil {
		return err
	}
	w.logger.Info("TitleWorker", "Thread titled", map[string]interface{}{"thread_id": thread.Id, "title": title})
	return nil
}
