package dto

import (
	"enculture-be/internal/entity"
	"enculture-be/pkg/isotime"
)

type CreateChatThreadRequest struct {
	Title  *string `json:"title"`
	UserId *string `json:"user_id"`
}

type AddMessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type AddMessageResponse struct {
	Message   string `json:"message"`
	MessageId string `json:"message_id"`
}

type UpdateChatTitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type SearchChatsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit" validate:"gte=0"`
}

type GenerateTitleRequest struct {
	FirstMessage string `json:"first_message" validate:"required"`
	AiResponse   string `json:"ai_response"`
}

type GenerateTitleResponse struct {
	Title string `json:"title"`
}

type ChatThreadResponse struct {
	Id           string       `json:"id"`
	Title        *string      `json:"title"`
	CreatedAt    isotime.Time `json:"created_at"`
	UpdatedAt    isotime.Time `json:"updated_at"`
	MessageCount int          `json:"message_count"`
	IsActive     bool         `json:"is_active"`
}

type ChatThreadsListResponse struct {
	Threads []ChatThreadResponse `json:"threads"`
	Total   int                  `json:"total"`
}

type ChatMessageResponse struct {
	Id        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Timestamp isotime.Time `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewChatThreadResponse(t entity.ChatThread) ChatThreadResponse {
	return ChatThreadResponse{
		Id:           t.Id,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		MessageCount: len(t.Messages),
		IsActive:     t.IsActive,
	}
}

func NewChatMessageResponse(m entity.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{Id: m.Id, Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
}
