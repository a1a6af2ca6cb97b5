package contract

import (
	"context"

	"enculture-be/internal/entity"
	"enculture-be/internal/repository/specification"
)

type ChatThreadRepository interface {
	Verifiable
	// Create assigns Id. Timestamps are the caller's.
	Create(ctx context.Context, thread *entity.ChatThread) error
	FindByID(ctx context.Context, id string) (*entity.ChatThread, error)
	// FindAll returns matching threads in storage order.
	FindAll(ctx context.Context, specs ...specification.ChatThreadSpecification) ([]*entity.ChatThread, error)
	// Mutate returns apperror.ErrNotFound for an unknown id.
	Mutate(ctx context.Context, id string, fn func(thread *entity.ChatThread) error) (*entity.ChatThread, error)
}
