package synthesis

import (
	"fmt"
	"strings"

	"github.com/parley-hq/parley/pkg/types"
)

const mailPlannerSystem = `You are a query planner for an email search system. Given a user's natural language question about their email, extract structured search parameters as JSON.

Available search fields:
- "sender": sender email address or partial match (e.g., "alice@example.com" or "alice")
- "subject": keywords to match in the subject line
- "after": start date in YYYY-MM-DD format
- "before": end date in YYYY-MM-DD format
- "max_results": maximum number of messages to return

Respond with ONLY a JSON object. Omit fields that are not relevant. Examples:

User: "What did Alice send me about the budget?"
{"sender": "alice", "subject": "budget"}

User: "Show me emails from finance about invoices last week"
{"sender": "finance", "subject": "invoice", "after": "2025-06-24"}

User: "The 5 most recent messages from bob@example.com"
{"sender": "bob@example.com", "max_results": 5}`

const sqlPlannerSystem = `You are a data analyst interacting with a user who is asking questions about a company database.
Based on the table schema below, write a SQL query that would answer the user's question. Take the conversation history into account.

<SCHEMA>
%s
</SCHEMA>

Only read from the tables listed in the schema. Never write INSERT, UPDATE, DELETE, DROP, or ALTER statements.

Respond with ONLY a JSON object of the form {"sql": "<query>"}. Do not wrap it in backticks or any other text.

For example:
Question: which 3 artists have the most tracks?
{"sql": "SELECT artist_id, COUNT(*) AS track_count FROM track GROUP BY artist_id ORDER BY track_count DESC LIMIT 3"}
Question: name 10 artists
{"sql": "SELECT name FROM artist LIMIT 10"}`

// strictReprompt is appended for the single bounded retry after malformed
// output.
const strictReprompt = `Your previous response could not be parsed. Respond with ONLY a single valid JSON object and nothing else: no prose, no backticks, no explanations.`

const answerSystem = `You are a data analyst. Based on the table schema, the user's question, the SQL query that was run, and its result, write a clear and concise natural language answer.

<SCHEMA>
%s
</SCHEMA>

SQL Query: <SQL>%s</SQL>
SQL Result: %s`

const fallbackSystem = `You are a knowledgeable assistant. The user asked a question that could not be routed to their email or database. Provide a helpful general answer based on your knowledge, or ask what data they would like to query.`

// renderSchema formats the schema context for embedding in a prompt.
func renderSchema(schema *types.SchemaContext) string {
	if schema == nil || len(schema.Tables) == 0 {
		return "(no tables available)"
	}
	var b strings.Builder
	for _, t := range schema.Tables {
		fmt.Fprintf(&b, "%s(%s)\n", t.Name, strings.Join(t.Columns, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
