package types

import (
	"time"
)

// Intent classifies what a user prompt targets.
type Intent string

const (
	IntentMail     Intent = "mail"
	IntentDatabase Intent = "database"
	IntentUnknown  Intent = "unknown"
)

// TurnRole identifies who authored a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one entry in a session's append-only turn log.
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryKind tags the variant held by a SynthesizedQuery.
type QueryKind string

const (
	QueryKindMailFilter   QueryKind = "mail_filter"
	QueryKindSQLStatement QueryKind = "sql_statement"
)

// MailFilter is the structured mail-search payload produced by synthesis.
// Zero values mean "not constrained". After/Before bound the date range.
type MailFilter struct {
	Sender     string     `json:"sender,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	MaxResults int        `json:"max_results"`
}

// IsEmpty returns true when no search field is set.
func (f *MailFilter) IsEmpty() bool {
	return f.Sender == "" && f.Subject == "" && f.After == nil && f.Before == nil
}

// SQLStatement is the SQL payload produced by synthesis.
type SQLStatement struct {
	Text             string `json:"text"`
	DeclaredReadOnly bool   `json:"declared_read_only"`
}

// SynthesizedQuery is the tagged union handed from synthesis to validation
// to dispatch. Exactly one payload field is set, matching Kind. It is
// consumed once and never persisted.
type SynthesizedQuery struct {
	Kind QueryKind     `json:"kind"`
	Mail *MailFilter   `json:"mail,omitempty"`
	SQL  *SQLStatement `json:"sql,omitempty"`
}

// ValidationResult is the ephemeral outcome of validating a query.
type ValidationResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// NormalizedResult is the uniform tabular shape returned by dispatch for
// both mail and DB queries. Column order is preserved; rows are ordered as
// returned by the collaborator.
type NormalizedResult struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// MessageSummary is one mail message as returned by the mail collaborator.
type MessageSummary struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
}

// TableSchema describes one accessible table, used for prompt context and
// the validator's table allowlist.
type TableSchema struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// SchemaContext is the full set of accessible tables.
type SchemaContext struct {
	Tables []TableSchema `json:"tables"`
}

// TableNames returns the allowlist of table names.
func (s *SchemaContext) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// QueryRecord is one row of the optional query-history audit table.
type QueryRecord struct {
	Id         uint      `json:"id"`
	ExternalId string    `json:"external_id"`
	SessionId  string    `json:"session_id"`
	Kind       QueryKind `json:"kind"`
	QueryText  string    `json:"query_text"`
	RowCount   int       `json:"row_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
