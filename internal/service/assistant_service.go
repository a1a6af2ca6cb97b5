package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"enculture-be/internal/constant"
	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/memory"
	"enculture-be/pkg/events"
	"enculture-be/pkg/llm"
)

const (
	apologyReply     = "I apologize, but I encountered an error while processing your request. Please try again."
	defaultUserInput = "Hello, how can you help with culture intelligence?"
	streamChunkWords = 5
	contextWindow    = 5
)

var defaultQuestionTypes = []string{"multiple_choice", "rating", "text"}

type IAssistantService interface {
	Complete(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	// Stream emits the reply in chunks of a few words.
	Stream(ctx context.Context, req *dto.ChatRequest, emit func(chunk string) error) error
	// StreamWithThread answers a prompt inside a stored thread and persists
	// both sides of the exchange.
	StreamWithThread(ctx context.Context, req *dto.StreamWithThreadRequest, emit func(chunk string) error) error
	GenerateSurvey(ctx context.Context, req *dto.SurveyGenerationRequest) (*dto.SurveyGenerationResponse, error)
	EnhanceSurveyName(ctx context.Context, req *dto.EnhanceSurveyNameRequest) (*dto.EnhanceSurveyNameResponse, error)
	EnhanceSurveyContext(ctx context.Context, req *dto.EnhanceSurveyContextRequest) (*dto.EnhanceSurveyContextResponse, error)
	GenerateClassifiers(ctx context.Context, req *dto.GenerateClassifiersRequest) (*dto.GenerateClassifiersResponse, error)
	GenerateFormula(ctx context.Context, req *dto.GenerateFormulaRequest) (*dto.GenerateFormulaResponse, error)
	Health(ctx context.Context) *dto.AssistantHealthResponse
}

type assistantService struct {
	provider     llm.LLMProvider
	providerName string
	chats        IChatThreadService
	cache        *memory.ReplyCache
	publisher    events.Publisher
	logger       logger.ILogger
	timeout      time.Duration
}

func NewAssistantService(
	provider llm.LLMProvider,
	providerName string,
	chats IChatThreadService,
	cache *memory.ReplyCache,
	publisher events.Publisher,
	log logger.ILogger,
	timeout time.Duration,
) IAssistantService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &assistantService{
		provider:     provider,
		providerName: providerName,
		chats:        chats,
		cache:        cache,
		publisher:    publisher,
		logger:       log,
		timeout:      timeout,
	}
}

func (s *assistantService) Complete(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	reply := s.converse(ctx, req.Messages, req.Persona)
	return &dto.ChatResponse{
		Response: reply,
		Persona:  req.Persona,
	}, nil
}

func (s *assistantService) Stream(ctx context.Context, req *dto.ChatRequest, emit func(chunk string) error) error {
	return emitChunks(s.converse(ctx, req.Messages, req.Persona), emit)
}

func (s *assistantService) StreamWithThread(ctx context.Context, req *dto.StreamWithThreadRequest, emit func(chunk string) error) error {
	thread, err := s.chats.Get(ctx, req.ThreadId)
	if err != nil {
		return err
	}
	if _, err := s.chats.AddMessage(ctx, thread.Id, &dto.AddMessageRequest{Role: entity.RoleUser, Content: req.Prompt}); err != nil {
		return err
	}

	history := make([]llm.Message, 0, len(thread.Messages)+1)
	for _, m := range thread.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: req.Prompt})

	reply := s.converse(ctx, history, req.Persona)
	emitErr := emitChunks(reply, emit)

	// the exchange is stored even when the client went away mid-stream
	storeCtx := context.WithoutCancel(ctx)
	if _, err := s.chats.AddMessage(storeCtx, thread.Id, &dto.AddMessageRequest{Role: entity.RoleAssistant, Content: reply}); err != nil {
		return err
	}

	if thread.Title == nil || *thread.Title == entity.DefaultThreadTitle {
		publishEvent(storeCtx, s.publisher, s.logger, EventChatExchange, ChatExchangePayload{
			ThreadId:     thread.Id,
			UserId:       thread.Owner(),
			FirstMessage: firstUserMessage(thread, req.Prompt),
			AiResponse:   reply,
		})
	}
	return emitErr
}

func (s *assistantService) GenerateSurvey(ctx context.Context, req *dto.SurveyGenerationRequest) (*dto.SurveyGenerationResponse, error) {
	numQuestions := req.NumQuestions
	if numQuestions <= 0 {
		numQuestions = 5
	}
	types := req.QuestionTypes
	if len(types) == 0 {
		types = defaultQuestionTypes
	}

	prompt := fmt.Sprintf(`Generate %d survey questions for a culture intelligence survey with the following context: %s

Question types to include: %s

Return a JSON array where each question has:
- question: The question text
- type: Question type (multiple_choice, rating, text, etc.)
- options: Array of options (for multiple choice/rating)
- required: Boolean indicating if required

Focus on questions that will provide actionable culture insights.`, numQuestions, req.Context, strings.Join(types, ", "))
	if req.Persona != nil && *req.Persona != "" {
		prompt += fmt.Sprintf("\n\nThe survey targets this persona: %s.", *req.Persona)
	}

	key := memory.Key("generate-survey", req.Context, fmt.Sprint(numQuestions), strings.Join(types, ","), deref(req.Persona))
	questions, ok := memory.Lookup[[]dto.GeneratedQuestion](s.cache, key)
	if !ok {
		questions = []dto.GeneratedQuestion{}
		if err := s.askJSON(ctx, constant.SurveyDesignPromptV1, prompt, &questions); err != nil {
			s.logger.Warn("AssistantService", "Survey generation failed", map[string]interface{}{"error": err.Error()})
			questions = []dto.GeneratedQuestion{}
		} else {
			s.remember(key, questions)
		}
	}

	return &dto.SurveyGenerationResponse{
		Questions:      questions,
		Context:        req.Context,
		TotalQuestions: len(questions),
	}, nil
}

func (s *assistantService) EnhanceSurveyName(ctx context.Context, req *dto.EnhanceSurveyNameRequest) (*dto.EnhanceSurveyNameResponse, error) {
	key := memory.Key("enhance-name", req.Name, req.Context)
	if cached, ok := memory.Lookup[[]string](s.cache, key); ok {
		return &dto.EnhanceSurveyNameResponse{Suggestions: cached}, nil
	}

	prompt := fmt.Sprintf(`Suggest 3 improved names for a culture survey.
Current name: %s
Survey context: %s

Return a JSON array of 3 strings, each under 60 characters.`, req.Name, req.Context)

	var suggestions []string
	if err := s.askJSON(ctx, constant.CulturePromptV1, prompt, &suggestions); err != nil || len(suggestions) == 0 {
		s.logWarn("Survey name enhancement failed", err)
		return &dto.EnhanceSurveyNameResponse{Suggestions: fallbackNames(req.Name)}, nil
	}
	s.remember(key, suggestions)
	return &dto.EnhanceSurveyNameResponse{Suggestions: suggestions}, nil
}

func (s *assistantService) EnhanceSurveyContext(ctx context.Context, req *dto.EnhanceSurveyContextRequest) (*dto.EnhanceSurveyContextResponse, error) {
	key := memory.Key("enhance-context", req.Name, req.Context)
	if cached, ok := memory.Lookup[string](s.cache, key); ok {
		return &dto.EnhanceSurveyContextResponse{EnhancedContext: cached}, nil
	}

	prompt := fmt.Sprintf(`Rewrite the context of the culture survey "%s" so it is clear, specific and motivating for respondents. Keep it under 120 words and return only the rewritten text.

Context: %s`, req.Name, req.Context)

	reply, err := s.ask(ctx, constant.CulturePromptV1, prompt)
	enhanced := strings.TrimSpace(reply)
	if err != nil || enhanced == "" {
		s.logWarn("Survey context enhancement failed", err)
		return &dto.EnhanceSurveyContextResponse{EnhancedContext: req.Context}, nil
	}
	s.remember(key, enhanced)
	return &dto.EnhanceSurveyContextResponse{EnhancedContext: enhanced}, nil
}

func (s *assistantService) GenerateClassifiers(ctx context.Context, req *dto.GenerateClassifiersRequest) (*dto.GenerateClassifiersResponse, error) {
	key := memory.Key("classifiers", req.Name, req.Context)
	if cached, ok := memory.Lookup[[]dto.Classifier](s.cache, key); ok {
		return &dto.GenerateClassifiersResponse{Classifiers: cached}, nil
	}

	prompt := fmt.Sprintf(`Propose demographic classifiers for segmenting the results of the culture survey "%s".
Survey context: %s

Return a JSON array of 3 to 5 objects with "name" (string) and "values" (array of strings).`, req.Name, req.Context)

	var classifiers []dto.Classifier
	if err := s.askJSON(ctx, constant.CulturePromptV1, prompt, &classifiers); err != nil || len(classifiers) == 0 {
		s.logWarn("Classifier generation failed", err)
		return &dto.GenerateClassifiersResponse{Classifiers: fallbackClassifiers()}, nil
	}
	s.remember(key, classifiers)
	return &dto.GenerateClassifiersResponse{Classifiers: classifiers}, nil
}

func (s *assistantService) GenerateFormula(ctx context.Context, req *dto.GenerateFormulaRequest) (*dto.GenerateFormulaResponse, error) {
	key := memory.Key("formula", req.MetricName, req.MetricDescription, strings.Join(req.Classifiers, ","))
	if cached, ok := memory.Lookup[dto.GenerateFormulaResponse](s.cache, key); ok {
		return &cached, nil
	}

	prompt := fmt.Sprintf(`Write a formula that computes the culture metric "%s" from survey responses.
Description: %s
Available classifiers: %s

Return a JSON object with "formula" and "explanation" strings.`, req.MetricName, req.MetricDescription, strings.Join(req.Classifiers, ", "))

	var out dto.GenerateFormulaResponse
	if err := s.askJSON(ctx, constant.CulturePromptV1, prompt, &out); err != nil || out.Formula == "" {
		s.logWarn("Formula generation failed", err)
		fallback := fallbackFormula(req)
		return &fallback, nil
	}
	s.remember(key, out)
	return &out, nil
}

func (s *assistantService) Health(ctx context.Context) *dto.AssistantHealthResponse {
	resp := &dto.AssistantHealthResponse{
		Status:     "healthy",
		Service:    "chat-service",
		Provider:   s.providerName,
		Connection: "active",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	reply, err := s.ask(ctx, "", "Health check")
	if err != nil {
		resp.Status = "unhealthy"
		resp.Connection = "inactive"
		resp.Error = err.Error()
	} else if strings.TrimSpace(reply) == "" {
		resp.Connection = "inactive"
	}
	return resp
}

// converse answers the last user message with the earlier ones as context.
// Provider failures become an apology.
func (s *assistantService) converse(ctx context.Context, messages []llm.Message, persona *string) string {
	input, instructions := buildConversation(messages, persona)
	reply, err := s.ask(ctx, instructions, input)
	if err != nil {
		s.logger.Warn("AssistantService", "Chat completion failed", map[string]interface{}{"error": err.Error()})
		return apologyReply
	}
	return reply
}

func (s *assistantService) ask(ctx context.Context, instructions, input string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no language model configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history := make([]llm.Message, 0, 2)
	if instructions != "" {
		history = append(history, llm.Message{Role: llm.RoleSystem, Content: instructions})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: input})
	return s.provider.Chat(ctx, history)
}

func (s *assistantService) askJSON(ctx context.Context, instructions, input string, out any) error {
	reply, err := s.ask(ctx, instructions, input)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(reply, out)
}

func (s *assistantService) remember(key string, value any) {
	if s.cache != nil {
		s.cache.Save(key, value)
	}
}

func (s *assistantService) logWarn(message string, err error) {
	details := map[string]interface{}{}
	if err != nil {
		details["error"] = err.Error()
	}
	s.logger.Warn("AssistantService", message+", using fallback", details)
}

func buildConversation(messages []llm.Message, persona *string) (input, instructions string) {
	input = defaultUserInput
	earlier := messages
	if n := len(messages); n > 0 && messages[n-1].Role == llm.RoleUser {
		input = messages[n-1].Content
		earlier = messages[:n-1]
	}

	var b strings.Builder
	b.WriteString(constant.CulturePromptV1)
	if persona != nil && *persona != "" {
		fmt.Fprintf(&b, "\n\nCurrent user persona: %s. Tailor your response appropriately for this role.", *persona)
	}
	if len(earlier) > 0 {
		if len(earlier) > contextWindow {
			earlier = earlier[len(earlier)-contextWindow:]
		}
		b.WriteString("\n\nConversation context:\n")
		for _, m := range earlier {
			role := m.Role
			if role == "" {
				role = llm.RoleUser
			}
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(role[:1])+role[1:], m.Content)
		}
	}
	return input, b.String()
}

// emitChunks splits text into groups of five words, each followed by a space.
func emitChunks(text string, emit func(chunk string) error) error {
	words := strings.Fields(text)
	var chunk strings.Builder
	for i, w := range words {
		chunk.WriteString(w)
		chunk.WriteByte(' ')
		if (i+1)%streamChunkWords == 0 || i == len(words)-1 {
			if err := emit(chunk.String()); err != nil {
				return err
			}
			chunk.Reset()
		}
	}
	return nil
}

func firstUserMessage(thread *entity.ChatThread, fallback string) string {
	for _, m := range thread.Messages {
		if m.Role == entity.RoleUser {
			return m.Content
		}
	}
	return fallback
}

func fallbackNames(name string) []string {
	name = strings.TrimSpace(name)
	return []string{
		name,
		name + " Pulse Check",
		name + " Culture Survey",
	}
}

func fallbackClassifiers() []dto.Classifier {
	return []dto.Classifier{
		{Name: "Department", Values: []string{"Engineering", "Sales", "Marketing", "HR", "Operations"}},
		{Name: "Tenure", Values: []string{"Less than 1 year", "1-3 years", "3-5 years", "5+ years"}},
		{Name: "Location", Values: []string{"Remote", "Office", "Hybrid"}},
	}
}

func fallbackFormula(req *dto.GenerateFormulaRequest) dto.GenerateFormulaResponse {
	by := "Department"
	if len(req.Classifiers) > 0 && strings.TrimSpace(req.Classifiers[0]) != "" {
		by = strings.TrimSpace(req.Classifiers[0])
	}
	return dto.GenerateFormulaResponse{
		Formula:     fmt.Sprintf("AVG(Response_Score) BY %s", by),
		Explanation: fmt.Sprintf("Average response score for %s, grouped by %s.", req.MetricName, by),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
