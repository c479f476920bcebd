package synthesis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-hq/parley/pkg/llm"
	"github.com/parley-hq/parley/pkg/types"
)

func newTestSynthesizer(provider llm.Provider) *Synthesizer {
	return NewSynthesizer(provider, types.LLMConfig{Temperature: 0.1, MaxTokens: 512}, types.PipelineConfig{MaxMailResults: 50})
}

func TestSynthesizeMail(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{
		`{"sender": "alice@example.com", "subject": "offsite"}`,
	}}
	s := newTestSynthesizer(provider)

	query, err := s.Synthesize(context.Background(), "emails from alice about the offsite", types.IntentMail, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, types.QueryKindMailFilter, query.Kind)
	assert.Equal(t, "alice@example.com", query.Mail.Sender)
	assert.Equal(t, 1, provider.Calls())

	// The planner call is JSON mode with the system prompt first.
	req := provider.Requests[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, "system", req.Messages[0].Role)
}

func TestSynthesizeSQL(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{
		`{"sql": "SELECT count(*) FROM orders"}`,
	}}
	s := newTestSynthesizer(provider)

	schema := &types.SchemaContext{Tables: []types.TableSchema{
		{Name: "orders", Columns: []string{"id", "total"}},
	}}

	query, err := s.Synthesize(context.Background(), "how many orders", types.IntentDatabase, schema, nil)
	assert.NoError(t, err)
	assert.Equal(t, types.QueryKindSQLStatement, query.Kind)
	assert.Equal(t, "SELECT count(*) FROM orders", query.SQL.Text)

	// Schema is embedded in the system prompt.
	assert.Contains(t, provider.Requests[0].Messages[0].Content, "orders")
}

func TestSynthesizeRepromptsOnceOnMalformedOutput(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{
		"Sure! Here's your query:",
		`{"sql": "SELECT 1"}`,
	}}
	s := newTestSynthesizer(provider)

	query, err := s.Synthesize(context.Background(), "count rows", types.IntentDatabase, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT 1", query.SQL.Text)
	assert.Equal(t, 2, provider.Calls())

	// The retry carries the bad output back plus stricter instructions.
	retry := provider.Requests[1]
	lastTwo := retry.Messages[len(retry.Messages)-2:]
	assert.Equal(t, "assistant", lastTwo[0].Role)
	assert.Equal(t, "Sure! Here's your query:", lastTwo[0].Content)
	assert.Equal(t, "user", lastTwo[1].Role)
}

func TestSynthesizeMalformedTwiceFails(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{
		"not json",
		"still not json",
	}}
	s := newTestSynthesizer(provider)

	_, err := s.Synthesize(context.Background(), "count rows", types.IntentDatabase, nil, nil)
	assert.Error(t, err)

	var malformed *types.ErrSynthesisMalformed
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, types.ErrorKindSynthesisMalformed, types.ErrorKind(err))
	assert.Equal(t, 2, provider.Calls())
}

func TestSynthesizeProviderErrorIsSynthesisFailed(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	provider := &llm.ScriptedProvider{Err: cause}
	s := newTestSynthesizer(provider)

	_, err := s.Synthesize(context.Background(), "count rows", types.IntentDatabase, nil, nil)
	assert.Error(t, err)

	var failed *types.ErrSynthesisFailed
	assert.True(t, errors.As(err, &failed))
	assert.ErrorIs(t, err, cause)
}

func TestSynthesizeCanceledContext(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{`{"sql": "SELECT 1"}`}}
	s := newTestSynthesizer(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Synthesize(ctx, "count rows", types.IntentDatabase, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, types.ErrorKindSynthesisFailed, types.ErrorKind(err))
}

func TestSynthesizeIncludesConversationTurns(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{`{"sql": "SELECT 1"}`}}
	s := newTestSynthesizer(provider)

	turns := []types.ConversationTurn{
		{Role: types.TurnRoleUser, Text: "how many orders"},
		{Role: types.TurnRoleAssistant, Text: "The query returned 1 rows."},
	}

	_, err := s.Synthesize(context.Background(), "and last month?", types.IntentDatabase, nil, turns)
	assert.NoError(t, err)

	messages := provider.Requests[0].Messages
	assert.Len(t, messages, 4) // system + 2 turns + current
	assert.Equal(t, "how many orders", messages[1].Content)
	assert.Equal(t, "and last month?", messages[3].Content)
}

func TestSummarize(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{"You have 42 orders."}}
	s := newTestSynthesizer(provider)

	result := &types.NormalizedResult{
		Columns: []string{"count"},
		Rows:    []map[string]string{{"count": "42"}},
	}

	answer, err := s.Summarize(context.Background(), "how many orders", "SELECT count(*) FROM orders", nil, result)
	assert.NoError(t, err)
	assert.Equal(t, "You have 42 orders.", answer)

	// The result rows are part of the prompt context.
	assert.Contains(t, provider.Requests[0].Messages[0].Content, "count=42")
}

func TestFallbackChat(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{"Hello!"}}
	s := newTestSynthesizer(provider)

	answer, err := s.FallbackChat(context.Background(), "hi there", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Hello!", answer)
	assert.False(t, provider.Requests[0].JSONMode)
}

func TestRenderResultCapsRows(t *testing.T) {
	result := &types.NormalizedResult{Columns: []string{"n"}}
	for i := 0; i < 40; i++ {
		result.Rows = append(result.Rows, map[string]string{"n": fmt.Sprintf("%d", i)})
	}

	rendered := renderResult(result)
	assert.Contains(t, rendered, "15 more rows")
}
