package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/repository/memory"
	"enculture-be/pkg/events"
	"enculture-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistant(t *testing.T, provider *fakeProvider) (IAssistantService, *chatFixture) {
	chats := newChatFixture(t, nil)
	var p llm.LLMProvider
	if provider != nil {
		p = provider
	}
	svc := NewAssistantService(p, "fake", chats.svc, memory.NewReplyCache(time.Minute), chats.publisher, nopLogger, time.Second)
	return svc, chats
}

func collect(t *testing.T, run func(emit func(string) error) error) []string {
	t.Helper()
	var chunks []string
	require.NoError(t, run(func(c string) error {
		chunks = append(chunks, c)
		return nil
	}))
	return chunks
}

func TestCompleteBuildsInstructions(t *testing.T) {
	provider := &fakeProvider{reply: "Culture is strong."}
	svc, _ := newAssistant(t, provider)

	persona := "CEO"
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: "m1"},
		{Role: llm.RoleAssistant, Content: "m2"},
		{Role: llm.RoleUser, Content: "m3"},
		{Role: llm.RoleAssistant, Content: "m4"},
		{Role: llm.RoleUser, Content: "m5"},
		{Role: llm.RoleAssistant, Content: "m6"},
		{Role: llm.RoleUser, Content: "latest question"},
	}
	resp, err := svc.Complete(context.Background(), &dto.ChatRequest{Messages: messages, Persona: &persona})
	require.NoError(t, err)
	assert.Equal(t, "Culture is strong.", resp.Response)
	assert.Equal(t, &persona, resp.Persona)

	require.Len(t, provider.history, 2)
	system := provider.history[0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "Current user persona: CEO.")
	assert.Contains(t, system.Content, "Conversation context:\nAssistant: m2\n")
	assert.NotContains(t, system.Content, "m1", "only the last five earlier messages are context")
	assert.Contains(t, system.Content, "Assistant: m6\n")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "latest question"}, provider.history[1])
}

func TestCompleteWithoutUserMessageUsesDefault(t *testing.T) {
	provider := &fakeProvider{reply: "hi"}
	svc, _ := newAssistant(t, provider)

	_, err := svc.Complete(context.Background(), &dto.ChatRequest{Messages: []llm.Message{{Role: llm.RoleAssistant, Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, defaultUserInput, provider.history[1].Content)
}

func TestCompleteFailureApologizes(t *testing.T) {
	svc, _ := newAssistant(t, &fakeProvider{err: errProviderDown})
	resp, err := svc.Complete(context.Background(), &dto.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, apologyReply, resp.Response)

	noModel, _ := newAssistant(t, nil)
	resp, err = noModel.Complete(context.Background(), &dto.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, apologyReply, resp.Response)
}

func TestStreamChunksOfFiveWords(t *testing.T) {
	svc, _ := newAssistant(t, &fakeProvider{reply: "one two three four five six seven"})
	chunks := collect(t, func(emit func(string) error) error {
		return svc.Stream(context.Background(), &dto.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}}}, emit)
	})
	assert.Equal(t, []string{"one two three four five ", "six seven "}, chunks)
}

func TestEmitChunksStopsOnError(t *testing.T) {
	stop := errors.New("client gone")
	calls := 0
	err := emitChunks(strings.Repeat("w ", 12), func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	assert.NoError(t, emitChunks("", func(string) error {
		t.Fatal("nothing to emit")
		return nil
	}))
}

func TestStreamWithThreadPersistsExchange(t *testing.T) {
	ctx := context.Background()
	svc, chats := newAssistant(t, &fakeProvider{reply: "Try weekly one-on-ones."})

	thread, err := chats.svc.Create(ctx, &dto.CreateChatThreadRequest{UserId: strPtr("u1")})
	require.NoError(t, err)

	chunks := collect(t, func(emit func(string) error) error {
		return svc.StreamWithThread(ctx, &dto.StreamWithThreadRequest{ThreadId: thread.Id, Prompt: "How do I improve morale?"}, emit)
	})
	assert.Equal(t, "Try weekly one-on-ones. ", strings.Join(chunks, ""))

	stored, err := chats.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, entity.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, entity.RoleAssistant, stored.Messages[1].Role)
	assert.Equal(t, "Try weekly one-on-ones.", stored.Messages[1].Content)

	exchanges := chats.publisher.ofType(EventChatExchange)
	require.Len(t, exchanges, 1)
	var payload ChatExchangePayload
	require.NoError(t, events.Decode(exchanges[0], &payload))
	assert.Equal(t, "How do I improve morale?", payload.FirstMessage)
	assert.Equal(t, "u1", payload.UserId)
}

func TestStreamWithThreadStoresReplyWhenClientLeaves(t *testing.T) {
	ctx := context.Background()
	svc, chats := newAssistant(t, &fakeProvider{reply: "a b c d e f g h i j k"})
	thread, err := chats.svc.Create(ctx, &dto.CreateChatThreadRequest{Title: strPtr("Named")})
	require.NoError(t, err)

	gone := errors.New("gone")
	err = svc.StreamWithThread(ctx, &dto.StreamWithThreadRequest{ThreadId: thread.Id, Prompt: "q"}, func(string) error { return gone })
	assert.ErrorIs(t, err, gone)

	stored, err := chats.svc.Get(ctx, thread.Id)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 2)
	assert.Empty(t, chats.publisher.ofType(EventChatExchange), "named threads are not retitled")
}

func TestGenerateSurveyParsesFencedJSON(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n[{\"question\":\"Do you feel heard?\",\"type\":\"rating\",\"options\":[\"1\",\"5\"],\"required\":true}]\n```"}
	svc, _ := newAssistant(t, provider)

	req := &dto.SurveyGenerationRequest{Context: "remote teams", NumQuestions: 1}
	resp, err := svc.GenerateSurvey(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalQuestions)
	assert.Equal(t, "Do you feel heard?", resp.Questions[0].Question)
	assert.Contains(t, provider.history[1].Content, "multiple_choice, rating, text")

	_, err = svc.GenerateSurvey(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount(), "second call is served from cache")
}

func TestGenerateSurveyFailureIsEmpty(t *testing.T) {
	svc, _ := newAssistant(t, &fakeProvider{reply: "not json"})
	resp, err := svc.GenerateSurvey(context.Background(), &dto.SurveyGenerationRequest{Context: "x"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Questions)
	assert.Equal(t, 0, resp.TotalQuestions)
}

func TestBuilderFallbacks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAssistant(t, &fakeProvider{err: errProviderDown})

	names, err := svc.EnhanceSurveyName(ctx, &dto.EnhanceSurveyNameRequest{Name: "Pulse"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pulse", "Pulse Pulse Check", "Pulse Culture Survey"}, names.Suggestions)

	enhanced, err := svc.EnhanceSurveyContext(ctx, &dto.EnhanceSurveyContextRequest{Context: "keep me"})
	require.NoError(t, err)
	assert.Equal(t, "keep me", enhanced.EnhancedContext)

	classifiers, err := svc.GenerateClassifiers(ctx, &dto.GenerateClassifiersRequest{Context: "x"})
	require.NoError(t, err)
	require.NotEmpty(t, classifiers.Classifiers)
	assert.Equal(t, "Department", classifiers.Classifiers[0].Name)

	formula, err := svc.GenerateFormula(ctx, &dto.GenerateFormulaRequest{MetricName: "Engagement", Classifiers: []string{"Tenure"}})
	require.NoError(t, err)
	assert.Equal(t, "AVG(Response_Score) BY Tenure", formula.Formula)

	formula, err = svc.GenerateFormula(ctx, &dto.GenerateFormulaRequest{MetricName: "Engagement"})
	require.NoError(t, err)
	assert.Equal(t, "AVG(Response_Score) BY Department", formula.Formula)
}

func TestBuilderUsesModelAnswers(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{reply: `{"formula":"SUM(Score)/COUNT(*)","explanation":"mean"}`}
	svc, _ := newAssistant(t, provider)

	formula, err := svc.GenerateFormula(ctx, &dto.GenerateFormulaRequest{MetricName: "Trust"})
	require.NoError(t, err)
	assert.Equal(t, "SUM(Score)/COUNT(*)", formula.Formula)

	provider.reply = `[{"name":"Team","values":["A","B"]}]`
	classifiers, err := svc.GenerateClassifiers(ctx, &dto.GenerateClassifiersRequest{Context: "x"})
	require.NoError(t, err)
	assert.Equal(t, []dto.Classifier{{Name: "Team", Values: []string{"A", "B"}}}, classifiers.Classifiers)

	provider.reply = "  A clearer context.  "
	enhanced, err := svc.EnhanceSurveyContext(ctx, &dto.EnhanceSurveyContextRequest{Context: "x"})
	require.NoError(t, err)
	assert.Equal(t, "A clearer context.", enhanced.EnhancedContext)
}

func TestAssistantHealth(t *testing.T) {
	healthy, _ := newAssistant(t, &fakeProvider{reply: "ok"})
	resp := healthy.Health(context.Background())
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "active", resp.Connection)
	assert.Equal(t, "fake", resp.Provider)

	down, _ := newAssistant(t, &fakeProvider{err: errProviderDown})
	resp = down.Health(context.Background())
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "provider down", resp.Error)
}
