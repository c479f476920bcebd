package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-hq/parley/pkg/gateway"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive conversation against a running gateway.

Follow-up questions inherit context from earlier turns. Type 'reset' to
clear the conversation or 'exit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat() error {
	client := gateway.NewClient(gatewayHTTPAddr)
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		PrintErrorMsg("Gateway unreachable at " + gatewayHTTPAddr)
		PrintHint("Start one with 'parley serve' or pass --gateway <addr>")
		return nil
	}

	sessionID, err := client.CreateSession(ctx)
	if err != nil {
		PrintError(err)
		return nil
	}
	defer client.DeleteSession(context.Background(), sessionID)

	PrintInfo("Connected. Ask about your email or your database. 'exit' to quit.")
	PrintNewline()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s ", PromptStyle.Render(SymbolPrompt))
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())

		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			if err := client.ResetSession(ctx, sessionID); err != nil {
				PrintError(err)
				continue
			}
			PrintSuccess("Conversation cleared")
			continue
		}

		result, err := client.SendMessage(ctx, sessionID, text)
		if err != nil {
			PrintError(err)
			continue
		}

		printTurnResult(result)
		PrintNewline()
	}

	return scanner.Err()
}
