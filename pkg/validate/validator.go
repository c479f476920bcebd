// Package validate is the single safety boundary between free-text-derived
// queries and execution. Nothing reaches a collaborator without passing
// through it.
package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/parley-hq/parley/pkg/types"
)

// DefaultMutatingKeywords are rejected as whole tokens, case-insensitive,
// anywhere in a statement.
var DefaultMutatingKeywords = []string{
	"insert", "update", "delete", "drop", "alter",
	"truncate", "create", "grant", "revoke",
}

const defaultMaxMailResults = 50

// Validator checks synthesized queries against the safety/shape contract.
type Validator struct {
	mutatingKeywords map[string]bool
	allowedTables    map[string]bool
	maxMailResults   int
}

// NewValidator creates a validator from pipeline config and the accessible
// schema. An empty keyword list in config selects the defaults; an empty
// schema disables the table allowlist check (no tables are accessible, so
// every SQL statement is rejected by the reference check instead).
func NewValidator(cfg types.PipelineConfig, schema *types.SchemaContext) *Validator {
	keywords := cfg.MutatingKeywords
	if len(keywords) == 0 {
		keywords = DefaultMutatingKeywords
	}

	v := &Validator{
		mutatingKeywords: make(map[string]bool, len(keywords)),
		allowedTables:    map[string]bool{},
		maxMailResults:   cfg.MaxMailResults,
	}
	if v.maxMailResults <= 0 {
		v.maxMailResults = defaultMaxMailResults
	}

	for _, kw := range keywords {
		v.mutatingKeywords[strings.ToLower(kw)] = true
	}
	if schema != nil {
		for _, t := range schema.Tables {
			v.allowedTables[strings.ToLower(t.Name)] = true
		}
	}

	return v
}

// Validate checks a query. For mail filters the MaxResults cap is applied
// in place (clamp policy): the query is mutated before acceptance so no
// caller can dispatch an uncapped fetch.
func (v *Validator) Validate(query *types.SynthesizedQuery) types.ValidationResult {
	switch query.Kind {
	case types.QueryKindSQLStatement:
		return v.validateSQL(query.SQL)
	case types.QueryKindMailFilter:
		return v.validateMail(query.Mail)
	}
	return types.ValidationResult{Accepted: false, Reason: fmt.Sprintf("unknown query kind %q", query.Kind)}
}

func (v *Validator) validateSQL(stmt *types.SQLStatement) types.ValidationResult {
	if stmt == nil || strings.TrimSpace(stmt.Text) == "" {
		return types.ValidationResult{Accepted: false, Reason: "empty sql statement"}
	}
	if !stmt.DeclaredReadOnly {
		return types.ValidationResult{Accepted: false, Reason: "statement not declared read-only"}
	}

	tokens := sqlTokens(stmt.Text)
	for _, token := range tokens {
		if v.mutatingKeywords[token] {
			return types.ValidationResult{
				Accepted: false,
				Reason:   fmt.Sprintf("statement contains mutating keyword %q", token),
			}
		}
	}

	if reason := v.checkTableReferences(tokens); reason != "" {
		return types.ValidationResult{Accepted: false, Reason: reason}
	}

	return types.ValidationResult{Accepted: true}
}

func (v *Validator) validateMail(filter *types.MailFilter) types.ValidationResult {
	if filter == nil || filter.IsEmpty() {
		return types.ValidationResult{Accepted: false, Reason: "mail filter has no search fields"}
	}

	// Clamp, never reject: an over-limit request still runs, bounded.
	if filter.MaxResults <= 0 || filter.MaxResults > v.maxMailResults {
		filter.MaxResults = v.maxMailResults
	}

	return types.ValidationResult{Accepted: true}
}

// clauseKeywords terminate a FROM/JOIN item list.
var clauseKeywords = map[string]bool{
	"select": true, "where": true, "group": true, "order": true,
	"having": true, "limit": true, "offset": true, "union": true,
	"intersect": true, "except": true, "on": true, "using": true,
	"join": true, "inner": true, "left": true, "right": true,
	"full": true, "cross": true, "outer": true, "natural": true,
}

// checkTableReferences verifies every FROM/JOIN target is on the schema
// allowlist. The scan consumes the whole item list, so comma-separated
// sources ("FROM a, b") are each checked; the first token of an item is
// the table, trailing tokens before the next comma are aliases.
// Token-based rather than a full SQL parse: the collaborator's read-only
// transaction is the backstop for anything this misses.
func (v *Validator) checkTableReferences(tokens []string) string {
	for i, token := range tokens {
		if token != "from" && token != "join" {
			continue
		}
		expectTable := true
		for j := i + 1; j < len(tokens); j++ {
			tok := tokens[j]
			if tok == "," {
				expectTable = true
				continue
			}
			// Subselects produce "from (select ..." - the inner FROM is
			// checked on its own pass through the outer loop.
			if clauseKeywords[tok] {
				break
			}
			if expectTable && !v.allowedTables[tok] {
				return fmt.Sprintf("statement references table %q outside the accessible schema", tok)
			}
			expectTable = false
		}
	}
	return ""
}

// sqlTokens lowercases and splits a statement into identifier-ish tokens.
// Punctuation separates tokens, except commas, which survive as their own
// "," token so clause scans can see list boundaries. Dotted names keep
// their final segment so schema-qualified "public.users" matches the
// allowlist entry "users".
func sqlTokens(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		f := strings.Trim(current.String(), ".")
		current.Reset()
		if f == "" {
			return
		}
		if idx := strings.LastIndex(f, "."); idx >= 0 {
			f = f[idx+1:]
		}
		tokens = append(tokens, f)
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '.':
			current.WriteRune(r)
		case r == ',':
			flush()
			tokens = append(tokens, ",")
		default:
			flush()
		}
	}
	flush()
	return tokens
}
