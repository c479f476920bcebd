// Package synthesis turns a classified prompt into a structured query by
// calling the completion service and strictly decoding its output.
package synthesis

import (
	"context"
	"fmt"
	"time"

	"github.com/parley-hq/parley/pkg/llm"
	"github.com/parley-hq/parley/pkg/types"
	"github.com/rs/zerolog/log"
)

// Synthesizer drives the LLM collaborator. One instance is shared across
// sessions; it holds no per-conversation state.
type Synthesizer struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
	defaultMax  int // default mail maxResults when the model omits it
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(provider llm.Provider, llmCfg types.LLMConfig, pipelineCfg types.PipelineConfig) *Synthesizer {
	defaultMax := pipelineCfg.MaxMailResults
	if defaultMax <= 0 {
		defaultMax = 50
	}
	return &Synthesizer{
		provider:    provider,
		temperature: llmCfg.Temperature,
		maxTokens:   llmCfg.MaxTokens,
		defaultMax:  defaultMax,
	}
}

// Synthesize produces a SynthesizedQuery for the given intent. On external
// service failure it returns ErrSynthesisFailed. Malformed model output is
// re-prompted exactly once with stricter formatting instructions before
// ErrSynthesisMalformed is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, intent types.Intent, schema *types.SchemaContext, turns []types.ConversationTurn) (*types.SynthesizedQuery, error) {
	var system string
	switch intent {
	case types.IntentMail:
		system = mailPlannerSystem + "\n\n" + currentDateHint()
	case types.IntentDatabase:
		system = fmt.Sprintf(sqlPlannerSystem, renderSchema(schema))
	default:
		return nil, fmt.Errorf("cannot synthesize for intent %q", intent)
	}

	messages := s.buildMessages(system, text, turns)

	output, err := s.complete(ctx, messages)
	if err != nil {
		return nil, &types.ErrSynthesisFailed{Cause: err}
	}

	query, parseErr := s.parse(output, intent)
	if parseErr == nil {
		return query, nil
	}

	log.Debug().
		Err(parseErr).
		Str("intent", string(intent)).
		Msg("model output unparseable, re-prompting once")

	// One bounded re-prompt with stricter formatting instructions.
	messages = append(messages,
		llm.Message{Role: "assistant", Content: output},
		llm.Message{Role: "user", Content: strictReprompt},
	)
	output, err = s.complete(ctx, messages)
	if err != nil {
		return nil, &types.ErrSynthesisFailed{Cause: err}
	}

	query, parseErr = s.parse(output, intent)
	if parseErr != nil {
		return nil, &types.ErrSynthesisMalformed{Output: output}
	}
	return query, nil
}

// Summarize renders a prose answer from a question, the executed SQL, and
// its result.
func (s *Synthesizer) Summarize(ctx context.Context, question, sqlText string, schema *types.SchemaContext, result *types.NormalizedResult) (string, error) {
	system := fmt.Sprintf(answerSystem, renderSchema(schema), sqlText, renderResult(result))
	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: question},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", &types.ErrSynthesisFailed{Cause: err}
	}
	return resp.Content, nil
}

// FallbackChat answers a prompt with plain general knowledge. Used only
// when the classifier cannot resolve an intent and fallback is enabled.
func (s *Synthesizer) FallbackChat(ctx context.Context, text string, turns []types.ConversationTurn) (string, error) {
	messages := s.buildMessages(fallbackSystem, text, turns)
	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", &types.ErrSynthesisFailed{Cause: err}
	}
	return resp.Content, nil
}

func (s *Synthesizer) buildMessages(system, text string, turns []types.ConversationTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: text})
	return messages
}

func (s *Synthesizer) complete(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *Synthesizer) parse(output string, intent types.Intent) (*types.SynthesizedQuery, error) {
	switch intent {
	case types.IntentMail:
		filter, err := parseMailFilter(output, s.defaultMax)
		if err != nil {
			return nil, err
		}
		return &types.SynthesizedQuery{Kind: types.QueryKindMailFilter, Mail: filter}, nil
	case types.IntentDatabase:
		stmt, err := parseSQLStatement(output)
		if err != nil {
			return nil, err
		}
		return &types.SynthesizedQuery{Kind: types.QueryKindSQLStatement, SQL: stmt}, nil
	}
	return nil, fmt.Errorf("unsupported intent %q", intent)
}

// currentDateHint anchors relative phrases like "last week". The hint is
// only passed to the model, never stored.
func currentDateHint() string {
	now := time.Now().UTC()
	return fmt.Sprintf("Current date (UTC): %s", now.Format("2006-01-02"))
}

func renderResult(result *types.NormalizedResult) string {
	if result == nil || len(result.Rows) == 0 {
		return "(no rows)"
	}
	// Compact row rendering keeps the prompt bounded.
	const maxRows = 25
	rows := result.Rows
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	out := ""
	for _, row := range rows {
		line := ""
		for _, col := range result.Columns {
			if line != "" {
				line += ", "
			}
			line += fmt.Sprintf("%s=%s", col, row[col])
		}
		out += line + "\n"
	}
	if len(result.Rows) > maxRows {
		out += fmt.Sprintf("... (%d more rows)\n", len(result.Rows)-maxRows)
	}
	return out
}
