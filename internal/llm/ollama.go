package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider calls a local Ollama server's chat endpoint.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		// Local models can be slow to load on first use.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string       `json:"model"`
	Messages []ollamaTurn `json:"messages"`
	Stream   bool         `json:"stream"`
	Format   string       `json:"format,omitempty"`
	Options  struct {
		Temperature float64 `json:"temperature,omitempty"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaChatReply struct {
	Message         ollamaTurn `json:"message"`
	Model           string     `json:"model"`
	DoneReason      string     `json:"done_reason"`
	PromptEvalCount int        `json:"prompt_eval_count"`
	EvalCount       int        `json:"eval_count"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	chat := ollamaChatRequest{Model: firstNonEmpty(req.Model, p.model)}
	if req.System != "" {
		chat.Messages = append(chat.Messages, ollamaTurn{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, ollamaTurn{Role: "user", Content: req.Prompt})
	chat.Options.Temperature = req.Temperature
	chat.Options.NumPredict = req.maxTokens()
	if req.JSONMode {
		chat.Format = "json"
	}

	var reply ollamaChatReply
	if err := postJSON(ctx, p.client, p.Name(), p.baseURL+"/api/chat", nil, chat, &reply, ollamaErrorMessage); err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:      reply.Message.Content,
		InputTokens:  reply.PromptEvalCount,
		OutputTokens: reply.EvalCount,
		Model:        reply.Model,
		FinishReason: reply.DoneReason,
	}, nil
}

func ollamaErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}
