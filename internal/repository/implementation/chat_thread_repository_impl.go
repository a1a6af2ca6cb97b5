package implementation

import (
	"context"
	"time"

	"enculture-be/internal/entity"
	"enculture-be/internal/repository/contract"
	"enculture-be/internal/repository/specification"
	"enculture-be/pkg/docstore"
)

const ChatThreadsCollection = "chat_threads"

type ChatThreadRepositoryImpl struct {
	threads *docstore.Collection[entity.ChatThread]
}

func NewChatThreadRepository(backend docstore.Backend) contract.ChatThreadRepository {
	return &ChatThreadRepositoryImpl{
		threads: docstore.NewCollection(backend, ChatThreadsCollection, docstore.Options[entity.ChatThread]{
			Prepare: func(t *entity.ChatThread, id string, _ time.Time) {
				t.Id = id
				if t.Messages == nil {
					t.Messages = []entity.ChatMessage{}
				}
			},
		}),
	}
}

func (r *ChatThreadRepositoryImpl) Name() string {
	return r.threads.Name()
}

func (r *ChatThreadRepositoryImpl) Verify(ctx context.Context) (int, error) {
	return r.threads.Verify(ctx)
}

func (r *ChatThreadRepositoryImpl) Create(ctx context.Context, thread *entity.ChatThread) error {
	created, err := r.threads.Create(ctx, *thread)
	if err != nil {
		return err
	}
	*thread = created
	return nil
}

func (r *ChatThreadRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.ChatThread, error) {
	thread, found, err := r.threads.Get(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return &thread, nil
}

func (r *ChatThreadRepositoryImpl) FindAll(ctx context.Context, specs ...specification.ChatThreadSpecification) ([]*entity.ChatThread, error) {
	threads, err := r.threads.List(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return ptrs(threads), nil
}

func (r *ChatThreadRepositoryImpl) Mutate(ctx context.Context, id string, fn func(thread *entity.ChatThread) error) (*entity.ChatThread, error) {
	thread, err := r.threads.Mutate(ctx, id, fn)
	if err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}
