package entity

import "enculture-be/pkg/isotime"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	DefaultThreadTitle = "New Chat"
)

type ChatMessage struct {
	Id        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Timestamp isotime.Time `json:"timestamp"`
}

type ChatThread struct {
	Id        string        `json:"id"`
	Title     *string       `json:"title"`
	UserId    *string       `json:"user_id"`
	CreatedAt isotime.Time  `json:"created_at"`
	UpdatedAt isotime.Time  `json:"updated_at"`
	Messages  []ChatMessage `json:"messages"`
	IsActive  bool          `json:"is_active"`
}

func (t ChatThread) TitleOrEmpty() string {
	if t.Title == nil {
		return ""
	}
	return *t.Title
}

func (t ChatThread) Owner() string {
	if t.UserId == nil {
		return ""
	}
	return *t.UserId
}
