package repository

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/parley-hq/parley/pkg/types"
)

const schemaCacheSize = 8

// SchemaIntrospector reads table/column metadata out of information_schema
// and caches it. The schema feeds both prompt context and the validator's
// table allowlist.
type SchemaIntrospector struct {
	backend *PostgresBackend
	cache   *lru.Cache[string, *types.SchemaContext]
}

// NewSchemaIntrospector creates an introspector over a backend.
func NewSchemaIntrospector(backend *PostgresBackend) (*SchemaIntrospector, error) {
	cache, err := lru.New[string, *types.SchemaContext](schemaCacheSize)
	if err != nil {
		return nil, err
	}
	return &SchemaIntrospector{backend: backend, cache: cache}, nil
}

// Schema returns the accessible tables of the public schema. Results are
// cached per database; Invalidate drops the entry after DDL changes.
func (s *SchemaIntrospector) Schema(ctx context.Context) (*types.SchemaContext, error) {
	key := s.backend.config.Database
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position
	`

	rows, err := s.backend.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	defer rows.Close()

	schema := &types.SchemaContext{}
	var current *types.TableSchema
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, err
		}
		if current == nil || current.Name != table {
			schema.Tables = append(schema.Tables, types.TableSchema{Name: table})
			current = &schema.Tables[len(schema.Tables)-1]
		}
		current.Columns = append(current.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug().Int("tables", len(schema.Tables)).Str("database", key).Msg("schema introspected")

	s.cache.Add(key, schema)
	return schema, nil
}

// Invalidate drops the cached schema for the current database.
func (s *SchemaIntrospector) Invalidate() {
	s.cache.Remove(s.backend.config.Database)
}
