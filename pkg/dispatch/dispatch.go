// Package dispatch routes validated queries to the mail or database
// collaborator and maps their results into the uniform tabular shape the
// UI renders.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/parley-hq/parley/pkg/types"
	"github.com/rs/zerolog/log"
)

// MailCollaborator is the pre-authenticated mail search client. Auth and
// session setup happen outside the pipeline.
type MailCollaborator interface {
	Search(ctx context.Context, filter types.MailFilter) ([]types.MessageSummary, error)
}

// DatabaseCollaborator executes read-only SQL. Implementations must run
// statements under a read-only transaction and close it on every exit path.
type DatabaseCollaborator interface {
	QueryReadOnly(ctx context.Context, sqlText string) (columns []string, rows [][]string, err error)
}

// mailColumns is the fixed column order for mail results.
var mailColumns = []string{"sender", "subject", "date", "snippet"}

// Dispatcher executes validated queries. It owns no retries; collaborator
// clients keep their own defaults.
type Dispatcher struct {
	mail MailCollaborator
	db   DatabaseCollaborator
}

// NewDispatcher creates a dispatcher. Either collaborator may be nil when
// the deployment has no such backend; dispatching to a missing one fails.
func NewDispatcher(mail MailCollaborator, db DatabaseCollaborator) *Dispatcher {
	return &Dispatcher{mail: mail, db: db}
}

// Dispatch executes a query that has passed validation. Exactly one
// collaborator call is made. An empty result set is not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, query *types.SynthesizedQuery) (*types.NormalizedResult, error) {
	switch query.Kind {
	case types.QueryKindMailFilter:
		return d.dispatchMail(ctx, query.Mail)
	case types.QueryKindSQLStatement:
		return d.dispatchSQL(ctx, query.SQL)
	}
	return nil, &types.ErrDispatchFailed{Cause: fmt.Errorf("unknown query kind %q", query.Kind)}
}

func (d *Dispatcher) dispatchMail(ctx context.Context, filter *types.MailFilter) (*types.NormalizedResult, error) {
	if d.mail == nil {
		return nil, &types.ErrDispatchFailed{Cause: fmt.Errorf("no mail collaborator configured")}
	}

	messages, err := d.mail.Search(ctx, *filter)
	if err != nil {
		return nil, &types.ErrDispatchFailed{Cause: err}
	}

	result := &types.NormalizedResult{
		Columns: mailColumns,
		Rows:    make([]map[string]string, 0, len(messages)),
	}
	for _, msg := range messages {
		result.Rows = append(result.Rows, map[string]string{
			"sender":  msg.Sender,
			"subject": msg.Subject,
			"date":    msg.Date.Format(time.RFC3339),
			"snippet": msg.Snippet,
		})
	}

	log.Debug().Int("messages", len(messages)).Msg("mail dispatch finished")
	return result, nil
}

func (d *Dispatcher) dispatchSQL(ctx context.Context, stmt *types.SQLStatement) (*types.NormalizedResult, error) {
	if d.db == nil {
		return nil, &types.ErrDispatchFailed{Cause: fmt.Errorf("no database collaborator configured")}
	}

	columns, rows, err := d.db.QueryReadOnly(ctx, stmt.Text)
	if err != nil {
		return nil, &types.ErrDispatchFailed{Cause: err}
	}

	result := &types.NormalizedResult{
		Columns: columns,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		mapped := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				mapped[col] = row[i]
			}
		}
		result.Rows = append(result.Rows, mapped)
	}

	log.Debug().Int("rows", len(rows)).Msg("sql dispatch finished")
	return result, nil
}
