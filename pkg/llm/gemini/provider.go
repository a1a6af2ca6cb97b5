package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"enculture-be/pkg/llm"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

var _ llm.LLMProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	return &GeminiProvider{client: cl, modelName: modelName}, nil
}

// Close releases the underlying gRPC client.
func (g *GeminiProvider) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: g.modelName, Temperature: 0.7}, opts...)
	system, past, last, err := toContents(history)
	if err != nil {
		return "", err
	}

	m := g.client.GenerativeModel(options.Model)
	m.SetTemperature(float32(options.Temperature))
	if options.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(options.MaxTokens))
	}
	m.SystemInstruction = system

	cs := m.StartChat()
	cs.History = past

	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return replyText(resp)
}

// toContents maps history onto Gemini's chat shape: system messages become
// the system instruction, every turn but the last becomes chat history and
// the last turn is the message to send.
func toContents(history []llm.Message) (system *genai.Content, past []*genai.Content, last genai.Text, err error) {
	instructions, turns := llm.SplitSystem(history)
	if len(turns) == 0 {
		return nil, nil, "", errors.New("gemini: no user message")
	}
	if instructions != "" {
		system = &genai.Content{Parts: []genai.Part{genai.Text(instructions)}}
	}
	for _, turn := range turns[:len(turns)-1] {
		past = append(past, &genai.Content{
			Role:  geminiRole(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return system, past, genai.Text(turns[len(turns)-1].Content), nil
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func geminiRole(role string) string {
	if role == llm.RoleAssistant {
		return "model"
	}
	return "user"
}
