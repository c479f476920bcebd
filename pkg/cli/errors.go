package cli

import (
	"errors"
	"strings"

	"github.com/parley-hq/parley/pkg/gateway"
	"github.com/parley-hq/parley/pkg/types"
)

// kindMessages maps pipeline error kinds to human-readable messages
var kindMessages = map[string]string{
	types.ErrorKindClassificationAmbiguous: "Couldn't tell whether you mean your email or your database",
	types.ErrorKindSynthesisFailed:         "The language model is unreachable or timed out",
	types.ErrorKindSynthesisMalformed:      "The language model returned something that isn't a usable query",
	types.ErrorKindValidationRejected:      "The generated query was rejected before execution",
	types.ErrorKindDispatchFailed:          "Running the query against the data source failed",
}

// kindSuggestions provides helpful suggestions for specific error kinds
var kindSuggestions = map[string][]string{
	types.ErrorKindClassificationAmbiguous: {
		"Mention a table name, or words like 'email' or 'inbox'",
		"Example: " + CodeStyle.Render(`parley ask "emails from alice about invoices"`),
	},
	types.ErrorKindSynthesisFailed: {
		"Check that the configured LLM endpoint is running",
		"Try again in a few moments",
	},
	types.ErrorKindValidationRejected: {
		"Only read-only questions are allowed",
		"Rephrase as a question about existing data",
	},
	types.ErrorKindDispatchFailed: {
		"Check that the gateway's data sources are configured",
		"Verify the gateway address: " + CodeStyle.Render("--gateway <addr>"),
	},
}

// FormatError converts an error to a human-readable message. Pipeline
// errors reported by the gateway carry a kind and get a friendly rendering.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var turnErr *gateway.TurnError
	if errors.As(err, &turnErr) {
		if msg, ok := kindMessages[turnErr.Kind]; ok {
			if turnErr.Message != "" && !strings.EqualFold(msg, turnErr.Message) {
				return msg + " (" + turnErr.Message + ")"
			}
			return msg
		}
		return turnErr.Message
	}

	return err.Error()
}

// SuggestionsFor returns follow-up hints for a failed request, if any
func SuggestionsFor(err error) []string {
	var turnErr *gateway.TurnError
	if errors.As(err, &turnErr) {
		return kindSuggestions[turnErr.Kind]
	}
	return nil
}
