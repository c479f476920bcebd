package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-hq/parley/pkg/gateway"
	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/types"
)

var askShowQuery bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question",
	Long:  `Ask a single question against a running gateway and print the answer.`,
	Example: `  parley ask "emails from alice about the offsite"
  parley ask "how many orders shipped last month"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askShowQuery, "show-query", "q", false, "Print the synthesized query before the results")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) error {
	client := gateway.NewClient(gatewayHTTPAddr)
	ctx := context.Background()

	sessionID, err := client.CreateSession(ctx)
	if err != nil {
		PrintError(err)
		return nil
	}
	defer client.DeleteSession(context.Background(), sessionID)

	result, err := client.SendMessage(ctx, sessionID, question)
	if err != nil {
		PrintError(err)
		if suggestions := SuggestionsFor(err); len(suggestions) > 0 {
			PrintSuggestions("Suggestions:", suggestions)
		}
		return nil
	}

	if PrintJSON(result) {
		return nil
	}

	printTurnResult(result)
	return nil
}

// printTurnResult renders a successful turn: an optional query echo, the
// prose answer, and the normalized result table.
func printTurnResult(result *services.TurnResult) {
	if askShowQuery && result.Query != nil {
		printQuery(result.Query)
	}

	if result.Answer != "" {
		fmt.Printf("  %s\n", result.Answer)
	}

	if result.Result != nil && len(result.Result.Rows) > 0 {
		PrintNewline()
		printResultTable(result.Result)
	}
}

func printQuery(query *types.SynthesizedQuery) {
	switch query.Kind {
	case types.QueryKindSQLStatement:
		PrintKeyValue("sql", CodeStyle.Render(query.SQL.Text))
	case types.QueryKindMailFilter:
		f := query.Mail
		if f.Sender != "" {
			PrintKeyValue("sender", f.Sender)
		}
		if f.Subject != "" {
			PrintKeyValue("subject", f.Subject)
		}
		if f.After != nil {
			PrintKeyValue("after", f.After.Format("2006-01-02"))
		}
		if f.Before != nil {
			PrintKeyValue("before", f.Before.Format("2006-01-02"))
		}
		PrintKeyValue("max", fmt.Sprintf("%d", f.MaxResults))
	}
	PrintNewline()
}

func printResultTable(result *types.NormalizedResult) {
	table := NewTable(result.Columns...)
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cells[i] = row[col]
		}
		table.AddRow(cells...)
	}
	table.Print()
}
