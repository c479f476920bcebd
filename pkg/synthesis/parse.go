package synthesis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/parley-hq/parley/pkg/types"
)

var (
	codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\n?(.*?)\n?```$")
	sqlLabelRegex  = regexp.MustCompile(`(?i)^(sql( query)?:?\s*)`)
)

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// CleanSQL strips "SQL:" / "SQL Query:" labels and code fences that models
// tend to wrap around statements.
func CleanSQL(s string) string {
	s = stripCodeFence(s)
	s = sqlLabelRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// mailPayload mirrors the JSON shape the mail planner prompt asks for.
type mailPayload struct {
	Sender     string `json:"sender"`
	Subject    string `json:"subject"`
	After      string `json:"after"`
	Before     string `json:"before"`
	MaxResults int    `json:"max_results"`
}

// sqlPayload mirrors the JSON shape the SQL planner prompt asks for.
type sqlPayload struct {
	SQL string `json:"sql"`
}

// parseMailFilter decodes model output into a MailFilter. It fails closed:
// anything that does not decode as the expected JSON object is an error.
func parseMailFilter(output string, defaultMax int) (*types.MailFilter, error) {
	cleaned := stripCodeFence(output)

	var payload mailPayload
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("mail payload decode: %w", err)
	}

	filter := &types.MailFilter{
		Sender:     strings.TrimSpace(payload.Sender),
		Subject:    strings.TrimSpace(payload.Subject),
		MaxResults: payload.MaxResults,
	}

	var err error
	if filter.After, err = parseDate(payload.After); err != nil {
		return nil, err
	}
	if filter.Before, err = parseDate(payload.Before); err != nil {
		return nil, err
	}

	if filter.MaxResults <= 0 {
		filter.MaxResults = defaultMax
	}

	return filter, nil
}

// parseSQLStatement decodes model output into a SQLStatement. The statement
// text itself is cleaned of label/fence noise but otherwise untouched;
// safety checks belong to the validator.
func parseSQLStatement(output string) (*types.SQLStatement, error) {
	cleaned := stripCodeFence(output)

	var payload sqlPayload
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("sql payload decode: %w", err)
	}

	text := CleanSQL(payload.SQL)
	if text == "" {
		return nil, fmt.Errorf("sql payload contained no statement")
	}

	return &types.SQLStatement{
		Text:             text,
		DeclaredReadOnly: true,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}
