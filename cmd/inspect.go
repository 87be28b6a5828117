// Package cmd provides CLI commands for the causalgen application.
// This file implements the inspect command for summarizing scenarios.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/spf13/cobra"
)

// =============================================================================
// Inspect Command Flags
// =============================================================================

var (
	inspectScenario string
	inspectTauMax   int
)

// =============================================================================
// Inspect Command
// =============================================================================

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a scenario's causal structure",
	Long: `Summarize the causal structure a scenario declares: node count, lag
bounds, parent and child sets, and the dense arrow-mark array.

Examples:
  causalgen inspect --scenario chain.yaml
  causalgen inspect --scenario chain.yaml --tau-max 4`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectScenario, "scenario", "s", "", "Path to the YAML scenario (required)")
	inspectCmd.Flags().IntVar(&inspectTauMax, "tau-max", -1, "Mark-array lag depth (default largest declared lag)")
	_ = inspectCmd.MarkFlagRequired("scenario")
}

// =============================================================================
// Inspect Execution
// =============================================================================

// runInspect executes the inspect command.
func runInspect(cmd *cobra.Command, _ []string) error {
	sc, err := loadScenario(inspectScenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	w := cmd.OutOrStdout()
	n := sc.links.NumNodes()
	minLag, maxLag := sc.links.LagBounds()

	fmt.Fprintf(w, "kind: %s\n", sc.kind)
	fmt.Fprintf(w, "nodes: %d\n", n)
	fmt.Fprintf(w, "lag bounds: min %d max %d\n", minLag, maxLag)

	parents := sc.links.ParentSets(false)
	children := sc.links.ChildSets()
	fmt.Fprintf(w, "\nparents:\n")
	for j := 0; j < n; j++ {
		fmt.Fprintf(w, "  node %d: %s\n", j, formatRefs(parents[j]))
	}
	fmt.Fprintf(w, "\nchildren:\n")
	for j := 0; j < n; j++ {
		fmt.Fprintf(w, "  node %d: %s\n", j, formatRefs(children[j]))
	}

	marks, err := sc.links.GraphMarks(inspectTauMax)
	if err != nil {
		return err
	}
	printMarks(w, marks, n)
	return nil
}

// =============================================================================
// Output Formatting
// =============================================================================

func formatRefs(refs []causal.Ref) string {
	if len(refs) == 0 {
		return "none"
	}
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = fmt.Sprintf("(%d, %d)", ref.Node, ref.Lag)
	}
	return strings.Join(parts, " ")
}

// printMarks renders one n-by-n plane per lag, empty cells as dots.
func printMarks(w io.Writer, marks [][][]string, n int) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "\ngraph marks:\n")
	for lag := 0; lag < len(marks[0][0]); lag++ {
		fmt.Fprintf(w, "  lag %d:\n", lag)
		for i := 0; i < n; i++ {
			cells := make([]string, n)
			for j := 0; j < n; j++ {
				cell := marks[i][j][lag]
				if cell == "" {
					cell = "."
				}
				cells[j] = fmt.Sprintf("%-3s", cell)
			}
			fmt.Fprintf(w, "    %s\n", strings.Join(cells, " "))
		}
	}
}
