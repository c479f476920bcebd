package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-hq/parley/pkg/gateway"
)

var refreshSchema bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the queryable tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSchema()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent queries",
	Long:  `Show the most recent queries from the gateway's audit log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory()
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&refreshSchema, "refresh", false, "Drop the gateway's schema cache and re-introspect")
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(historyCmd)
}

func showSchema() error {
	client := gateway.NewClient(gatewayHTTPAddr)

	fetch := client.Schema
	if refreshSchema {
		fetch = client.RefreshSchema
	}

	schema, err := fetch(context.Background())
	if err != nil {
		PrintError(err)
		return nil
	}

	if PrintJSON(schema) {
		return nil
	}

	if len(schema.Tables) == 0 {
		PrintWarning("No tables available")
		PrintHint("Configure a postgres database in the gateway config")
		return nil
	}

	for _, table := range schema.Tables {
		PrintKeyValue(table.Name, DimStyle.Render(strings.Join(table.Columns, ", ")))
	}
	return nil
}

func showHistory() error {
	client := gateway.NewClient(gatewayHTTPAddr)

	records, err := client.History(context.Background())
	if err != nil {
		PrintError(err)
		return nil
	}

	if PrintJSON(records) {
		return nil
	}

	if len(records) == 0 {
		PrintWarning("No queries recorded")
		return nil
	}

	table := NewTable("WHEN", "KIND", "QUERY", "ROWS", "MS")
	for _, r := range records {
		table.AddRow(
			r.CreatedAt.Format("2006-01-02 15:04"),
			string(r.Kind),
			truncate(r.QueryText, 60),
			fmt.Sprintf("%d", r.RowCount),
			fmt.Sprintf("%d", r.DurationMs),
		)
	}
	table.Print()
	return nil
}

// truncate shortens s to at most max runes. Slicing by runes keeps
// multi-byte characters in query text intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
