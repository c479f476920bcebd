package repository

import (
	"context"
	"fmt"

	"github.com/parley-hq/parley/pkg/types"
)

// Query-history audit methods on PostgresBackend. This is operational
// audit of executed queries, not conversation persistence: sessions stay
// process-local.

// RecordQuery inserts one audit row for an executed query.
func (b *PostgresBackend) RecordQuery(ctx context.Context, record *types.QueryRecord) error {
	query := `
		INSERT INTO query_history (session_id, kind, query_text, row_count, duration_ms)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, external_id, created_at
	`

	err := b.db.QueryRowContext(ctx, query,
		record.SessionId,
		record.Kind,
		record.QueryText,
		record.RowCount,
		record.DurationMs,
	).Scan(&record.Id, &record.ExternalId, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}

	return nil
}

// ListQueryHistory returns the most recent audit rows, newest first.
func (b *PostgresBackend) ListQueryHistory(ctx context.Context, limit int) ([]*types.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, external_id, session_id, kind, query_text, row_count, duration_ms, created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := b.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query history: %w", err)
	}
	defer rows.Close()

	var records []*types.QueryRecord
	for rows.Next() {
		r := &types.QueryRecord{}
		if err := rows.Scan(&r.Id, &r.ExternalId, &r.SessionId, &r.Kind, &r.QueryText, &r.RowCount, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
