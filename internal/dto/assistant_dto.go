package dto

import "enculture-be/pkg/llm"

type ChatRequest struct {
	Messages []llm.Message `json:"messages" validate:"required,min=1"`
	Persona  *string       `json:"persona"`
	UseTools *bool         `json:"use_tools"`
}

type ChatResponse struct {
	Response string         `json:"response"`
	Persona  *string        `json:"persona"`
	Usage    map[string]any `json:"usage,omitempty"`
}

type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SurveyGenerationRequest struct {
	Context       string   `json:"context" validate:"required"`
	NumQuestions  int      `json:"num_questions" validate:"gte=0,lte=50"`
	QuestionTypes []string `json:"question_types"`
	Persona       *string  `json:"persona"`
}

type GeneratedQuestion struct {
	Question   string   `json:"question"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	Required   bool     `json:"required"`
	Classifier *string  `json:"classifier,omitempty"`
	Metrics    []string `json:"metrics,omitempty"`
}

type SurveyGenerationResponse struct {
	Questions      []GeneratedQuestion `json:"questions"`
	Context        string              `json:"context"`
	TotalQuestions int                 `json:"total_questions"`
}

type EnhanceSurveyNameRequest struct {
	Name    string `json:"name" validate:"required"`
	Context string `json:"context"`
}

type EnhanceSurveyNameResponse struct {
	Suggestions []string `json:"suggestions"`
}

type EnhanceSurveyContextRequest struct {
	Name    string `json:"name"`
	Context string `json:"context" validate:"required"`
}

type EnhanceSurveyContextResponse struct {
	EnhancedContext string `json:"enhanced_context"`
}

type GenerateClassifiersRequest struct {
	Name    string `json:"name"`
	Context string `json:"context" validate:"required"`
}

type Classifier struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type GenerateClassifiersResponse struct {
	Classifiers []Classifier `json:"classifiers"`
}

type GenerateFormulaRequest struct {
	MetricName        string   `json:"metric_name" validate:"required"`
	MetricDescription string   `json:"metric_description"`
	Classifiers       []string `json:"classifiers"`
}

type GenerateFormulaResponse struct {
	Formula     string `json:"formula"`
	Explanation string `json:"explanation"`
}

type StreamWithThreadRequest struct {
	ThreadId string  `query:"thread_id" validate:"required"`
	Prompt   string  `query:"prompt" validate:"required"`
	Persona  *string `query:"persona"`
}

type AssistantHealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Provider   string `json:"provider"`
	Connection string `json:"connection"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
}
