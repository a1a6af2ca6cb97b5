package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"enculture-be/internal/constant"
	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/contract"
	"enculture-be/internal/repository/specification"
	"enculture-be/pkg/events"
	"enculture-be/pkg/isotime"
	"enculture-be/pkg/llm"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultThreadPageSize = 50
	defaultRecentLimit    = 10
	defaultSearchLimit    = 20
	maxTitleLength        = 50
	titleContextLength    = 200
)

type IChatThreadService interface {
	Create(ctx context.Context, req *dto.CreateChatThreadRequest) (*entity.ChatThread, error)
	Get(ctx context.Context, id string) (*entity.ChatThread, error)
	List(ctx context.Context, userId string, limit, offset int) (*dto.ChatThreadsListResponse, error)
	Recent(ctx context.Context, userId string, limit int) ([]dto.ChatThreadResponse, error)
	AddMessage(ctx context.Context, threadId string, req *dto.AddMessageRequest) (*entity.ChatMessage, error)
	UpdateTitle(ctx context.Context, threadId string, title string) error
	Delete(ctx context.Context, threadId string) error
	Search(ctx context.Context, userId string, req *dto.SearchChatsRequest) ([]dto.ChatThreadResponse, error)
	GenerateTitle(ctx context.Context, req *dto.GenerateTitleRequest) (string, error)
}

type chatThreadService struct {
	threads   contract.ChatThreadRepository
	provider  llm.LLMProvider
	publisher events.Publisher
	logger    logger.ILogger
	timeout   time.Duration
	now       func() time.Time
}

func NewChatThreadService(
	threads contract.ChatThreadRepository,
	provider llm.LLMProvider,
	publisher events.Publisher,
	log logger.ILogger,
	aiTimeout time.Duration,
) IChatThreadService {
	if aiTimeout <= 0 {
		aiTimeout = 60 * time.Second
	}
	return &chatThreadService{
		threads:   threads,
		provider:  provider,
		publisher: publisher,
		logger:    log,
		timeout:   aiTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatThreadService) Create(ctx context.Context, req *dto.CreateChatThreadRequest) (*entity.ChatThread, error) {
	title := entity.DefaultThreadTitle
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}
	now := isotime.New(s.now())
	thread := &entity.ChatThread{
		Title:     &title,
		UserId:    req.UserId,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []entity.ChatMessage{},
		IsActive:  true,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

func (s *chatThreadService) Get(ctx context.Context, id string) (*entity.ChatThread, error) {
	thread, err := s.threads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperror.NotFound("chat thread %s not found", id)
	}
	return thread, nil
}

func (s *chatThreadService) List(ctx context.Context, userId string, limit, offset int) (*dto.ChatThreadsListResponse, error) {
	if limit <= 0 {
		limit = defaultThreadPageSize
	}
	if offset < 0 {
		offset = 0
	}
	threads, err := s.activeThreads(ctx, userId)
	if err != nil {
		return nil, err
	}

	page := []*entity.ChatThread{}
	if offset < len(threads) {
		end := offset + limit
		if end > len(threads) {
			end = len(threads)
		}
		page = threads[offset:end]
	}
	return &dto.ChatThreadsListResponse{
		Threads: toThreadResponses(page),
		Total:   len(threads),
	}, nil
}

func (s *chatThreadService) Recent(ctx context.Context, userId string, limit int) ([]dto.ChatThreadResponse, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	threads, err := s.activeThreads(ctx, userId)
	if err != nil {
		return nil, err
	}
	if len(threads) > limit {
		threads = threads[:limit]
	}
	return toThreadResponses(threads), nil
}

func (s *chatThreadService) AddMessage(ctx context.Context, threadId string, req *dto.AddMessageRequest) (*entity.ChatMessage, error) {
	var message entity.ChatMessage
	thread, err := s.threads.Mutate(ctx, threadId, func(t *entity.ChatThread) error {
		s.touch(t)
		message = entity.ChatMessage{
			Id:        uuid.NewString(),
			Role:      req.Role,
			Content:   req.Content,
			Timestamp: t.UpdatedAt,
		}
		t.Messages = append(t.Messages, message)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, EventChatMessage, ChatMessagePayload{
		ThreadId:  thread.Id,
		UserId:    thread.Owner(),
		MessageId: message.Id,
		Role:      message.Role,
		Content:   message.Content,
		Timestamp: message.Timestamp.String(),
	})
	return &message, nil
}

func (s *chatThreadService) UpdateTitle(ctx context.Context, threadId string, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.InvalidInput("title must not be empty")
	}
	thread, err := s.threads.Mutate(ctx, threadId, func(t *entity.ChatThread) error {
		t.Title = &title
		s.touch(t)
		return nil
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.publisher, s.logger, EventThreadTitleUpdated, ThreadTitleUpdatedPayload{
		ThreadId: thread.Id,
		UserId:   thread.Owner(),
		Title:    title,
	})
	return nil
}

// Delete is a soft delete; the thread stays readable by id.
func (s *chatThreadService) Delete(ctx context.Context, threadId string) error {
	_, err := s.threads.Mutate(ctx, threadId, func(t *entity.ChatThread) error {
		t.IsActive = false
		s.touch(t)
		return nil
	})
	return err
}

func (s *chatThreadService) Search(ctx context.Context, userId string, req *dto.SearchChatsRequest) ([]dto.ChatThreadResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return []dto.ChatThreadResponse{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	threads, err := s.threads.FindAll(ctx,
		specification.ThreadActive{},
		specification.ThreadOwnedBy{UserId: userId},
		specification.ThreadMatches{Query: req.Query},
	)
	if err != nil {
		return nil, err
	}
	sortByUpdatedDesc(threads)
	if len(threads) > limit {
		threads = threads[:limit]
	}
	return toThreadResponses(threads), nil
}

// GenerateTitle asks the model for a short title and falls back to the first
// words of the user's message when the model is unavailable.
func (s *chatThreadService) GenerateTitle(ctx context.Context, req *dto.GenerateTitleRequest) (string, error) {
	if s.provider == nil {
		return FallbackTitle(req.FirstMessage), nil
	}

	aiResponse := req.AiResponse
	if runes := []rune(aiResponse); len(runes) > titleContextLength {
		aiResponse = string(runes[:titleContextLength])
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.ThreadTitlePromptV1},
		{Role: llm.RoleUser, Content: fmt.Sprintf("User: %s\n\nAI: %s...", req.FirstMessage, aiResponse)},
	}, llm.WithTemperature(0.3), llm.WithMaxTokens(20))
	if err != nil {
		s.logger.Warn("ChatThreadService", "Title generation failed, using fallback", map[string]interface{}{"error": err.Error()})
		return FallbackTitle(req.FirstMessage), nil
	}

	title := CleanTitle(reply)
	if title == "" {
		return FallbackTitle(req.FirstMessage), nil
	}
	return title, nil
}

// CleanTitle strips quotes and caps the length at 50 characters.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if nl := strings.IndexByte(title, '\n'); nl >= 0 {
		title = strings.TrimSpace(title[:nl])
	}
	title = strings.Trim(title, `"'`)
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength-3]) + "..."
	}
	return title
}

// FallbackTitle title-cases the first three words of a message.
func FallbackTitle(firstMessage string) string {
	words := strings.Fields(firstMessage)
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return entity.DefaultThreadTitle
	}
	return CleanTitle(cases.Title(language.English).String(strings.Join(words, " ")))
}

func (s *chatThreadService) activeThreads(ctx context.Context, userId string) ([]*entity.ChatThread, error) {
	threads, err := s.threads.FindAll(ctx, specification.ThreadActive{}, specification.ThreadOwnedBy{UserId: userId})
	if err != nil {
		return nil, err
	}
	sortByUpdatedDesc(threads)
	return threads, nil
}

// touch bumps UpdatedAt so it is strictly after its previous value even when
// the clock has not advanced.
func (s *chatThreadService) touch(t *entity.ChatThread) {
	next := s.now()
	if !next.After(t.UpdatedAt.Time) {
		next = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = isotime.New(next)
}

func sortByUpdatedDesc(threads []*entity.ChatThread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt.Time)
	})
}

func toThreadResponses(threads []*entity.ChatThread) []dto.ChatThreadResponse {
	out := make([]dto.ChatThreadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, dto.NewChatThreadResponse(*t))
	}
	return out
}
