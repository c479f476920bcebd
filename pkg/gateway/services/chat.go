// Package services holds the gateway-side orchestration: the chat service
// runs the classify → synthesize → validate → dispatch pipeline for each
// user turn.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/parley-hq/parley/pkg/dispatch"
	"github.com/parley-hq/parley/pkg/intent"
	"github.com/parley-hq/parley/pkg/session"
	"github.com/parley-hq/parley/pkg/synthesis"
	"github.com/parley-hq/parley/pkg/types"
	"github.com/parley-hq/parley/pkg/validate"
)

// SchemaProvider supplies the accessible table schema for prompts and
// validation. Nil when no database is configured.
type SchemaProvider interface {
	Schema(ctx context.Context) (*types.SchemaContext, error)
}

// HistoryRecorder persists query audit rows. Nil when history is disabled.
type HistoryRecorder interface {
	RecordQuery(ctx context.Context, record *types.QueryRecord) error
}

// TurnResult is what a successful pipeline run hands back to the UI.
type TurnResult struct {
	Intent types.Intent            `json:"intent"`
	Query  *types.SynthesizedQuery `json:"query"`
	Result *types.NormalizedResult `json:"result,omitempty"`
	Answer string                  `json:"answer,omitempty"`
}

// ChatService wires the pipeline components together. One instance serves
// all sessions; per-conversation state lives in the Session values.
type ChatService struct {
	classifier  *intent.Classifier
	synthesizer *synthesis.Synthesizer
	dispatcher  *dispatch.Dispatcher
	schemas     SchemaProvider
	history     HistoryRecorder
	config      types.PipelineConfig
}

// NewChatService creates the chat service. schemas and history may be nil.
func NewChatService(
	classifier *intent.Classifier,
	synthesizer *synthesis.Synthesizer,
	dispatcher *dispatch.Dispatcher,
	schemas SchemaProvider,
	history HistoryRecorder,
	config types.PipelineConfig,
) *ChatService {
	return &ChatService{
		classifier:  classifier,
		synthesizer: synthesizer,
		dispatcher:  dispatcher,
		schemas:     schemas,
		history:     history,
		config:      config,
	}
}

// HandleTurn runs one user submission through the full pipeline. On any
// failure the turn is not appended to the session, so a retry starts from
// the same context. Success appends both the user turn and the assistant's
// answer.
func (s *ChatService) HandleTurn(ctx context.Context, sess *session.Session, text string) (*TurnResult, error) {
	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	turns := sess.Turns()

	resolved := s.classifier.Classify(text, turns)
	if resolved == types.IntentUnknown {
		return s.handleUnknown(ctx, sess, text, turns)
	}

	schema, err := s.loadSchema(ctx, resolved)
	if err != nil {
		return nil, &types.ErrDispatchFailed{Cause: err}
	}

	query, err := s.synthesizer.Synthesize(ctx, text, resolved, schema, turns)
	if err != nil {
		return nil, err
	}

	validator := validate.NewValidator(s.config, schema)
	if vr := validator.Validate(query); !vr.Accepted {
		log.Info().Str("reason", vr.Reason).Str("intent", string(resolved)).Msg("query rejected")
		return nil, &types.ErrValidationRejected{Reason: vr.Reason}
	}

	start := time.Now()
	result, err := s.dispatcher.Dispatch(ctx, query)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	answer := s.renderAnswer(ctx, text, resolved, query, schema, result)

	sess.Append(types.TurnRoleUser, text)
	sess.Append(types.TurnRoleAssistant, answer)

	s.recordHistory(sess.ID, query, result, duration)

	return &TurnResult{
		Intent: resolved,
		Query:  query,
		Result: result,
		Answer: answer,
	}, nil
}

// handleUnknown resolves an unclassifiable prompt: a plain-chat answer
// when fallback is enabled, otherwise a clarification error for the UI.
func (s *ChatService) handleUnknown(ctx context.Context, sess *session.Session, text string, turns []types.ConversationTurn) (*TurnResult, error) {
	if !s.config.FallbackChat {
		return nil, &types.ErrClassificationAmbiguous{Text: text}
	}

	answer, err := s.synthesizer.FallbackChat(ctx, text, turns)
	if err != nil {
		return nil, err
	}

	sess.Append(types.TurnRoleUser, text)
	sess.Append(types.TurnRoleAssistant, answer)

	return &TurnResult{Intent: types.IntentUnknown, Answer: answer}, nil
}

func (s *ChatService) loadSchema(ctx context.Context, resolved types.Intent) (*types.SchemaContext, error) {
	if resolved != types.IntentDatabase {
		return nil, nil
	}
	if s.schemas == nil {
		return nil, fmt.Errorf("no database collaborator configured")
	}
	return s.schemas.Schema(ctx)
}

// renderAnswer produces the assistant text for a successful dispatch. The
// prose summarization call is best effort: on failure the plain count
// answer is used so the turn still succeeds.
func (s *ChatService) renderAnswer(ctx context.Context, text string, resolved types.Intent, query *types.SynthesizedQuery, schema *types.SchemaContext, result *types.NormalizedResult) string {
	if resolved == types.IntentDatabase && s.config.Summarize {
		summary, err := s.synthesizer.Summarize(ctx, text, query.SQL.Text, schema, result)
		if err == nil {
			return summary
		}
		log.Warn().Err(err).Msg("answer summarization failed, using plain answer")
	}

	switch resolved {
	case types.IntentMail:
		if len(result.Rows) == 0 {
			return "No messages matched."
		}
		return fmt.Sprintf("Found %d matching messages.", len(result.Rows))
	default:
		if len(result.Rows) == 0 {
			return "The query returned no rows."
		}
		return fmt.Sprintf("The query returned %d rows.", len(result.Rows))
	}
}

// recordHistory writes the audit row outside the turn's context so a slow
// insert cannot fail the turn.
func (s *ChatService) recordHistory(sessionID string, query *types.SynthesizedQuery, result *types.NormalizedResult, duration time.Duration) {
	if s.history == nil {
		return
	}

	record := &types.QueryRecord{
		SessionId:  sessionID,
		Kind:       query.Kind,
		RowCount:   len(result.Rows),
		DurationMs: duration.Milliseconds(),
	}
	switch query.Kind {
	case types.QueryKindSQLStatement:
		record.QueryText = query.SQL.Text
	case types.QueryKindMailFilter:
		record.QueryText = describeMailFilter(query.Mail)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.RecordQuery(ctx, record); err != nil {
		log.Warn().Err(err).Msg("failed to record query history")
	}
}

func describeMailFilter(f *types.MailFilter) string {
	out := ""
	if f.Sender != "" {
		out += "sender=" + f.Sender + " "
	}
	if f.Subject != "" {
		out += "subject=" + f.Subject + " "
	}
	if f.After != nil {
		out += "after=" + f.After.Format("2006-01-02") + " "
	}
	if f.Before != nil {
		out += "before=" + f.Before.Format("2006-01-02") + " "
	}
	return fmt.Sprintf("%smax=%d", out, f.MaxResults)
}
