package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-hq/parley/pkg/types"
)

func testSchema() *types.SchemaContext {
	return &types.SchemaContext{
		Tables: []types.TableSchema{
			{Name: "customers", Columns: []string{"id", "name", "email"}},
			{Name: "orders", Columns: []string{"id", "customer_id", "total", "created_at"}},
		},
	}
}

func sqlQuery(text string) *types.SynthesizedQuery {
	return &types.SynthesizedQuery{
		Kind: types.QueryKindSQLStatement,
		SQL:  &types.SQLStatement{Text: text, DeclaredReadOnly: true},
	}
}

func TestValidateSQLAccepted(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	cases := []string{
		"SELECT * FROM customers",
		"select name, email from customers where email like '%@example.com'",
		"SELECT c.name, SUM(o.total) FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.name",
		"SELECT count(*) FROM public.orders",
		"SELECT * FROM (SELECT id FROM orders) sub",
		"SELECT c.name, o.total FROM customers c, orders o WHERE o.customer_id = c.id",
	}
	for _, text := range cases {
		vr := v.Validate(sqlQuery(text))
		assert.True(t, vr.Accepted, "expected accept: %s (reason: %s)", text, vr.Reason)
	}
}

func TestValidateSQLRejectsEveryMutatingKeyword(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	for _, kw := range DefaultMutatingKeywords {
		text := fmt.Sprintf("SELECT * FROM customers; %s something", kw)
		vr := v.Validate(sqlQuery(text))
		assert.False(t, vr.Accepted, "keyword %q should be rejected", kw)
		assert.Contains(t, vr.Reason, kw)
	}
}

func TestValidateSQLKeywordCaseInsensitive(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	vr := v.Validate(sqlQuery("DELETE FROM customers"))
	assert.False(t, vr.Accepted)

	vr = v.Validate(sqlQuery("Delete From customers"))
	assert.False(t, vr.Accepted)
}

func TestValidateSQLKeywordAsSubstringAllowed(t *testing.T) {
	// "created_at" contains "create", "updated_at" contains "update".
	// Only whole tokens are mutating.
	v := NewValidator(types.PipelineConfig{}, testSchema())

	vr := v.Validate(sqlQuery("SELECT created_at FROM orders"))
	assert.True(t, vr.Accepted, vr.Reason)
}

func TestValidateSQLNotDeclaredReadOnly(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	query := &types.SynthesizedQuery{
		Kind: types.QueryKindSQLStatement,
		SQL:  &types.SQLStatement{Text: "SELECT * FROM customers"},
	}
	vr := v.Validate(query)
	assert.False(t, vr.Accepted)
	assert.Contains(t, vr.Reason, "read-only")
}

func TestValidateSQLEmpty(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	vr := v.Validate(sqlQuery("   "))
	assert.False(t, vr.Accepted)
}

func TestValidateSQLUnknownTable(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	vr := v.Validate(sqlQuery("SELECT * FROM secrets"))
	assert.False(t, vr.Accepted)
	assert.Contains(t, vr.Reason, "secrets")
}

func TestValidateSQLCommaListOffSchemaTable(t *testing.T) {
	// Every item in a comma-separated FROM list is checked, not just the
	// first one after the keyword.
	v := NewValidator(types.PipelineConfig{}, testSchema())

	cases := []string{
		"SELECT * FROM customers, secrets",
		"SELECT * FROM customers c, secrets s",
		"SELECT * FROM customers, orders, secrets",
		"SELECT * FROM secrets, customers",
	}
	for _, text := range cases {
		vr := v.Validate(sqlQuery(text))
		assert.False(t, vr.Accepted, "expected reject: %s", text)
		assert.Contains(t, vr.Reason, "secrets")
	}
}

func TestValidateSQLSchemaQualifiedTable(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, testSchema())

	vr := v.Validate(sqlQuery("SELECT * FROM public.customers"))
	assert.True(t, vr.Accepted, vr.Reason)
}

func TestValidateSQLCustomKeywords(t *testing.T) {
	cfg := types.PipelineConfig{MutatingKeywords: []string{"merge"}}
	v := NewValidator(cfg, testSchema())

	vr := v.Validate(sqlQuery("MERGE INTO customers"))
	assert.False(t, vr.Accepted)

	// Custom list replaces the defaults entirely.
	vr = v.Validate(sqlQuery("DELETE FROM customers"))
	assert.True(t, vr.Accepted, vr.Reason)
}

func TestValidateMailClampsMaxResults(t *testing.T) {
	v := NewValidator(types.PipelineConfig{MaxMailResults: 25}, nil)

	filter := &types.MailFilter{Sender: "alice@example.com", MaxResults: 500}
	query := &types.SynthesizedQuery{Kind: types.QueryKindMailFilter, Mail: filter}

	vr := v.Validate(query)
	assert.True(t, vr.Accepted)
	assert.Equal(t, 25, filter.MaxResults)
}

func TestValidateMailDefaultsMissingMaxResults(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, nil)

	filter := &types.MailFilter{Subject: "invoices"}
	query := &types.SynthesizedQuery{Kind: types.QueryKindMailFilter, Mail: filter}

	vr := v.Validate(query)
	assert.True(t, vr.Accepted)
	assert.Equal(t, defaultMaxMailResults, filter.MaxResults)
}

func TestValidateMailEmptyFilter(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, nil)

	query := &types.SynthesizedQuery{
		Kind: types.QueryKindMailFilter,
		Mail: &types.MailFilter{MaxResults: 10},
	}
	vr := v.Validate(query)
	assert.False(t, vr.Accepted)
}

func TestValidateUnknownKind(t *testing.T) {
	v := NewValidator(types.PipelineConfig{}, nil)

	vr := v.Validate(&types.SynthesizedQuery{Kind: "something"})
	assert.False(t, vr.Accepted)
}

func TestSQLTokens(t *testing.T) {
	tokens := sqlTokens("SELECT c.name FROM public.customers c WHERE c.id = 5")
	assert.Contains(t, tokens, "customers")
	assert.Contains(t, tokens, "from")
	assert.Contains(t, tokens, "name")
	assert.NotContains(t, tokens, "public.customers")
}

func TestSQLTokensKeepsCommas(t *testing.T) {
	tokens := sqlTokens("SELECT a, b FROM customers, orders")
	assert.Equal(t, []string{"select", "a", ",", "b", "from", "customers", ",", "orders"}, tokens)
}
