package cli

import (
	"github.com/spf13/cobra"

	"github.com/parley-hq/parley/pkg/gateway"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway",
	Long:  `Run the gateway server in the foreground until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gateway.NewGateway()
		if err != nil {
			return err
		}
		PrintInfo("Gateway listening at " + gw.HTTPAddr())
		PrintHint("Point the CLI at it with --gateway " + gw.HTTPAddr())
		return gw.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
