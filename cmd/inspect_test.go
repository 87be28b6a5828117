// Package cmd provides CLI commands for the causalgen application.
// This file contains tests for the inspect command.
package cmd

import (
	"bytes"
	"testing"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Inspect Command Tests
// =============================================================================

func TestInspectCmd_Definition(t *testing.T) {
	assert.NotNil(t, inspectCmd)
	assert.Equal(t, "inspect", inspectCmd.Use)
	assert.NotNil(t, inspectCmd.Flags().Lookup("scenario"))
	assert.NotNil(t, inspectCmd.Flags().Lookup("tau-max"))
}

func TestInspectCmd_SummarizesStructure(t *testing.T) {
	scenario := writeScenario(t, structuralScenario)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"inspect", "--scenario", scenario, "--tau-max", "-1"})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "kind: structural")
	assert.Contains(t, out, "nodes: 2")
	assert.Contains(t, out, "lag bounds: min 1 max 1")
	assert.Contains(t, out, "node 1: (0, -1)")
	assert.Contains(t, out, "lag 1:")
	assert.Contains(t, out, "-->")
}

func TestInspectCmd_TauMaxPadsPlanes(t *testing.T) {
	scenario := writeScenario(t, structuralScenario)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"inspect", "--scenario", scenario, "--tau-max", "3"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "lag 3:")
}

func TestInspectCmd_TauMaxBelowLargestLag(t *testing.T) {
	scenario := writeScenario(t, structuralScenario)

	rootCmd.SetArgs([]string{"inspect", "--scenario", scenario, "--tau-max", "0"})
	err := rootCmd.Execute()

	require.ErrorIs(t, err, causal.ErrTauMaxTooSmall)
}

func TestFormatRefs(t *testing.T) {
	assert.Equal(t, "none", formatRefs(nil))
	assert.Equal(t, "(0, -1) (2, 0)", formatRefs([]causal.Ref{
		{Node: 0, Lag: -1},
		{Node: 2, Lag: 0},
	}))
}
