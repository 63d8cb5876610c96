package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/uiflow/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowctl",
		Short: "Inspect and exercise uiflow navigation definitions",
		Long: `flowctl validates TOML flow definitions and drives them through
scripted navigation with simulated views, printing the screen history
and popup stack after every step.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.CheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
