package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/types"
)

const defaultRequestTimeout = 120 * time.Second

// Client talks to a running gateway over its HTTP API. It is what the CLI
// uses for one-shot questions and interactive sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway HTTP client. baseURL is e.g. http://localhost:1994
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

// TurnError carries a pipeline failure reported by the gateway.
type TurnError struct {
	Kind    string
	Message string
}

func (e *TurnError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Message
}

type sessionPayload struct {
	ID    string                   `json:"id"`
	Turns []types.ConversationTurn `json:"turns"`
}

// CreateSession starts a conversation and returns its id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var payload sessionPayload
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

// SendMessage submits one user turn and returns the pipeline's result.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (*services.TurnResult, error) {
	body := map[string]string{"text": text}
	var result services.TurnResult
	path := fmt.Sprintf("/api/v1/sessions/%s/messages", sessionID)
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetSession clears a session's conversation history.
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/reset", sessionID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// DeleteSession tears a session down.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/api/v1/sessions/%s", sessionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Schema returns the table schema the gateway exposes for SQL questions.
func (c *Client) Schema(ctx context.Context) (*types.SchemaContext, error) {
	var schema types.SchemaContext
	if err := c.do(ctx, http.MethodGet, "/api/v1/schema", nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// RefreshSchema drops the gateway's cached schema and returns the freshly
// introspected one.
func (c *Client) RefreshSchema(ctx context.Context) (*types.SchemaContext, error) {
	var schema types.SchemaContext
	if err := c.do(ctx, http.MethodPost, "/api/v1/schema/refresh", nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// History returns the most recent query audit rows.
func (c *Client) History(ctx context.Context) ([]types.QueryRecord, error) {
	var records []types.QueryRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/schema/history", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Health reports whether the gateway is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("unexpected gateway response (status %d)", resp.StatusCode)
	}
	if !envelope.Success {
		return &TurnError{Kind: envelope.Kind, Message: envelope.Error}
	}

	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
