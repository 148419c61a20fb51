package main

import (
	"os"

	"github.com/spf13/cobra"

	"lotuspay/internal/interfaces/cli/migrate"
	"lotuspay/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lotuspay",
		Short: "LotusPay - VNPay payment settlement service",
		Long:  `LotusPay handles VNPay redirect payments for shop orders: signed payment URLs, return and IPN callbacks, and race-safe order settlement.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
