package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upQueryHistory, downQueryHistory)
}

func upQueryHistory(tx *sql.Tx) error {
	stmts := []string{
		// Audit log of executed queries. Not a conversation store: sessions
		// remain process-local.
		`CREATE TABLE query_history (
			id SERIAL PRIMARY KEY,
			external_id UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
			session_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			query_text TEXT NOT NULL,
			row_count INT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX idx_query_history_session ON query_history(session_id)`,
		`CREATE INDEX idx_query_history_created ON query_history(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func downQueryHistory(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS query_history`)
	return err
}
