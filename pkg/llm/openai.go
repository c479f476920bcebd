package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parley-hq/parley/pkg/types"
	"github.com/rs/zerolog/log"
)

const defaultRequestTimeout = 45 * time.Second

// OpenAIClient speaks the OpenAI-compatible /chat/completions API. It works
// against OpenAI itself as well as local servers (ollama, vllm) that expose
// the same surface.
type OpenAIClient struct {
	httpClient *http.Client
	apiBase    string
	apiKey     string
	model      string
}

// NewOpenAIClient creates a client from config.
func NewOpenAIClient(cfg types.LLMConfig) *OpenAIClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimSuffix(cfg.APIBase, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Name returns the provider name for logging.
func (c *OpenAIClient) Name() string {
	return "openai"
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends a completion request - implements Provider.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body := chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion API error %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("completion response contained no choices")
	}

	log.Debug().
		Str("model", decoded.Model).
		Dur("latency", time.Since(start)).
		Msg("completion request finished")

	return &ChatResponse{
		Content: decoded.Choices[0].Message.Content,
		Model:   decoded.Model,
	}, nil
}
