package factory

import (
	"context"
	"fmt"

	"enculture-be/pkg/llm"
	"enculture-be/pkg/llm/gemini"
	"enculture-be/pkg/llm/ollama"
	"enculture-be/pkg/llm/openai"
)

type Config struct {
	Provider      string // "openai", "gemini" or "ollama"
	Model         string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	OllamaBaseURL string
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.GeminiKey, cfg.Model)
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		return ollama.NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
