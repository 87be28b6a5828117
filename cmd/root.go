// Package cmd provides CLI commands for the causalgen application.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "causalgen",
	Short: "Causalgen - synthetic data from causal process models",
	Long: `Causalgen generates synthetic time series from declared causal models:
structural processes with interventions, categorical dynamic networks, and
linear vector autoregressions.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx; cancellation stops
// replicate fan-out between runs.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
