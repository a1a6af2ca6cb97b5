package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/repository/implementation"
	"enculture-be/pkg/events"
	"enculture-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	svc       *chatThreadService
	publisher *recordingPublisher
	clock     time.Time
}

func newChatFixture(t *testing.T, provider llm.LLMProvider) *chatFixture {
	f := &chatFixture{
		publisher: &recordingPublisher{},
		clock:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	svc := NewChatThreadService(
		implementation.NewChatThreadRepository(newBackend(t)),
		provider,
		f.publisher,
		nopLogger,
		time.Second,
	).(*chatThreadService)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func (f *chatFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func strPtr(s string) *string { return &s }

func TestChatCreateDefaults(t *testing.T) {
	f := newChatFixture(t, nil)

	thread, err := f.svc.Create(context.Background(), &dto.CreateChatThreadRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, thread.Id)
	assert.Equal(t, entity.DefaultThreadTitle, thread.TitleOrEmpty())
	assert.True(t, thread.IsActive)
	assert.Empty(t, thread.Messages)
	assert.True(t, thread.CreatedAt.Equal(thread.UpdatedAt.Time))

	named, err := f.svc.Create(context.Background(), &dto.CreateChatThreadRequest{Title: strPtr("  Engagement  ")})
	require.NoError(t, err)
	assert.Equal(t, "Engagement", named.TitleOrEmpty())
}

func TestChatTitleUpdateStrictlyBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)
	thread, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{UserId: strPtr("u1")})
	require.NoError(t, err)

	// the clock does not move between create and update
	require.NoError(t, f.svc.UpdateTitle(ctx, thread.Id, "Team Morale"))

	updated, err := f.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	assert.Equal(t, "Team Morale", updated.TitleOrEmpty())
	assert.True(t, updated.UpdatedAt.After(thread.UpdatedAt.Time))

	require.NoError(t, f.svc.UpdateTitle(ctx, thread.Id, "Team Morale 2"))
	again, err := f.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt.Time))

	titled := f.publisher.ofType(EventThreadTitleUpdated)
	require.Len(t, titled, 2)
	var payload ThreadTitleUpdatedPayload
	require.NoError(t, events.Decode(titled[0], &payload))
	assert.Equal(t, "u1", payload.UserId)

	assert.ErrorIs(t, f.svc.UpdateTitle(ctx, "missing", "x"), apperror.ErrNotFound)
	assert.ErrorIs(t, f.svc.UpdateTitle(ctx, thread.Id, "  "), apperror.ErrInvalidInput)
}

func TestChatAddMessage(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)
	thread, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{UserId: strPtr("u1")})
	require.NoError(t, err)

	f.advance(time.Second)
	msg, err := f.svc.AddMessage(ctx, thread.Id, &dto.AddMessageRequest{Role: entity.RoleUser, Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Id)

	stored, err := f.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "hello", stored.Messages[0].Content)
	assert.True(t, stored.UpdatedAt.Equal(f.clock))

	require.Len(t, f.publisher.ofType(EventChatMessage), 1)

	_, err = f.svc.AddMessage(ctx, "missing", &dto.AddMessageRequest{Role: entity.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChatSoftDelete(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)
	thread, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, thread.Id))

	list, err := f.svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.Empty(t, list.Threads)

	// still readable by id
	stored, err := f.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.UpdatedAt.After(thread.UpdatedAt.Time))

	assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), apperror.ErrNotFound)
}

func TestChatListOrderingAndPagination(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		f.advance(time.Minute)
		th, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{Title: strPtr(title), UserId: strPtr("u1")})
		require.NoError(t, err)
		ids = append(ids, th.Id)
	}
	other, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{Title: strPtr("other"), UserId: strPtr("u2")})
	require.NoError(t, err)

	// touching the oldest moves it to the front
	f.advance(time.Minute)
	_, err = f.svc.AddMessage(ctx, ids[0], &dto.AddMessageRequest{Role: entity.RoleUser, Content: "bump"})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Threads, 2)
	assert.Equal(t, ids[0], page.Threads[0].Id)
	assert.Equal(t, ids[2], page.Threads[1].Id)
	assert.Equal(t, 1, page.Threads[0].MessageCount)

	rest, err := f.svc.List(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest.Threads, 1)
	assert.Equal(t, ids[1], rest.Threads[0].Id)

	beyond, err := f.svc.List(ctx, "u1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Threads)
	assert.NotNil(t, beyond.Threads)

	all, err := f.svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)

	recent, err := f.svc.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[0], recent[0].Id)
	assert.NotEqual(t, other.Id, recent[0].Id)
}

func TestChatSearch(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)

	titled, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{Title: strPtr("Onboarding Review")})
	require.NoError(t, err)
	f.advance(time.Minute)
	byContent, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{})
	require.NoError(t, err)
	_, err = f.svc.AddMessage(ctx, byContent.Id, &dto.AddMessageRequest{Role: entity.RoleUser, Content: "our ONBOARDING is slow"})
	require.NoError(t, err)
	deleted, err := f.svc.Create(ctx, &dto.CreateChatThreadRequest{Title: strPtr("onboarding old")})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, deleted.Id))

	hits, err := f.svc.Search(ctx, "", &dto.SearchChatsRequest{Query: "onboarding"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, byContent.Id, hits[0].Id)
	assert.Equal(t, titled.Id, hits[1].Id)

	limited, err := f.svc.Search(ctx, "", &dto.SearchChatsRequest{Query: "onboarding", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	empty, err := f.svc.Search(ctx, "", &dto.SearchChatsRequest{Query: "   "})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGenerateTitle(t *testing.T) {
	ctx := context.Background()

	f := newChatFixture(t, &fakeProvider{reply: "\"Team Engagement Analysis\"\n"})
	title, err := f.svc.GenerateTitle(ctx, &dto.GenerateTitleRequest{FirstMessage: "how engaged is my team", AiResponse: strings.Repeat("a", 500)})
	require.NoError(t, err)
	assert.Equal(t, "Team Engagement Analysis", title)

	failing := newChatFixture(t, &fakeProvider{err: errProviderDown})
	title, err = failing.svc.GenerateTitle(ctx, &dto.GenerateTitleRequest{FirstMessage: "how engaged is my team"})
	require.NoError(t, err)
	assert.Equal(t, "How Engaged Is", title)

	noProvider := newChatFixture(t, nil)
	title, err = noProvider.svc.GenerateTitle(ctx, &dto.GenerateTitleRequest{FirstMessage: "   "})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultThreadTitle, title)
}

func TestGenerateTitleCutsReplyOnRuneBoundary(t *testing.T) {
	provider := &fakeProvider{reply: "Feedback Culture"}
	f := newChatFixture(t, provider)

	// 199 ASCII bytes followed by multi-byte runes
	reply := strings.Repeat("a", 199) + strings.Repeat("é", 10)
	_, err := f.svc.GenerateTitle(context.Background(), &dto.GenerateTitleRequest{FirstMessage: "feedback", AiResponse: reply})
	require.NoError(t, err)

	require.Len(t, provider.history, 2)
	prompt := provider.history[1].Content
	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "AI: "+strings.Repeat("a", 199)+"é...")
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Culture Survey Creation"`, "Culture Survey Creation"},
		{"'Quoted'", "Quoted"},
		{"  spaced  ", "spaced"},
		{strings.Repeat("x", 60), strings.Repeat("x", 47) + "..."},
		{strings.Repeat("y", 50), strings.Repeat("y", 50)},
	}
	for _, tt := range tests {
		got := CleanTitle(tt.in)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len([]rune(got)), 50)
	}
}
