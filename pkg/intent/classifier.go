// Package intent decides whether a prompt targets mail search or a
// database query. Classification is deterministic keyword scoring - no
// network calls, no side effects - so it can never fail a turn on its own.
package intent

import (
	"strings"
	"unicode"

	"github.com/parley-hq/parley/pkg/types"
)

// mailKeywords signal mail intent. Weights let strong signals (the word
// "email") outvote generic ones.
var mailKeywords = map[string]int{
	"email":      3,
	"emails":     3,
	"mail":       3,
	"inbox":      3,
	"unread":     2,
	"sender":     2,
	"subject":    2,
	"attachment": 2,
	"message":    1,
	"messages":   1,
	"sent":       1,
	"received":   1,
	"reply":      1,
	"thread":     1,
}

// databaseKeywords signal database intent.
var databaseKeywords = map[string]int{
	"sql":       3,
	"table":     3,
	"tables":    3,
	"database":  3,
	"query":     2,
	"rows":      2,
	"records":   2,
	"columns":   2,
	"count":     1,
	"average":   1,
	"total":     1,
	"sum":       1,
	"top":       1,
	"list":      1,
	"customers": 1,
	"orders":    1,
	"sales":     1,
	"revenue":   1,
	"invoices":  1,
	"products":  1,
}

// Classifier scores prompts against keyword tables. Extra schema-derived
// terms (table names) can be registered so prompts naming a known table
// resolve to database intent.
type Classifier struct {
	schemaTerms map[string]int
}

// NewClassifier creates a classifier.
func NewClassifier() *Classifier {
	return &Classifier{schemaTerms: map[string]int{}}
}

// RegisterSchemaTerms adds table names from the accessible schema as
// database-intent signals.
func (c *Classifier) RegisterSchemaTerms(names []string) {
	for _, name := range names {
		c.schemaTerms[strings.ToLower(name)] = 3
	}
}

// Classify resolves the intent of text. When the text itself carries no
// signal, prior user turns are scanned newest-first so follow-up questions
// ("and last month?") inherit the conversation's subject.
func (c *Classifier) Classify(text string, turns []types.ConversationTurn) types.Intent {
	if intent := c.scoreText(text); intent != types.IntentUnknown {
		return intent
	}

	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != types.TurnRoleUser {
			continue
		}
		if intent := c.scoreText(turns[i].Text); intent != types.IntentUnknown {
			return intent
		}
	}

	return types.IntentUnknown
}

func (c *Classifier) scoreText(text string) types.Intent {
	mailScore, dbScore := 0, 0
	for _, token := range tokenize(text) {
		if w, ok := mailKeywords[token]; ok {
			mailScore += w
		}
		if w, ok := databaseKeywords[token]; ok {
			dbScore += w
		}
		if w, ok := c.schemaTerms[token]; ok {
			dbScore += w
		}
	}

	switch {
	case mailScore == 0 && dbScore == 0:
		return types.IntentUnknown
	case mailScore == dbScore:
		return types.IntentUnknown
	case mailScore > dbScore:
		return types.IntentMail
	default:
		return types.IntentDatabase
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
