// Package cmd provides CLI commands for the causalgen application.
// This file contains tests for the generate command.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Generate Command Tests
// =============================================================================

func TestGenerateCmd_Definition(t *testing.T) {
	t.Run("command is defined", func(t *testing.T) {
		assert.NotNil(t, generateCmd)
		assert.Equal(t, "generate", generateCmd.Use)
	})

	t.Run("command has flags", func(t *testing.T) {
		flags := generateCmd.Flags()
		assert.NotNil(t, flags.Lookup("scenario"))
		assert.NotNil(t, flags.Lookup("out"))
		assert.NotNil(t, flags.Lookup("replicates"))
		assert.NotNil(t, flags.Lookup("workers"))
	})
}

func TestRunScenario_StructuralRecords(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, structuralScenario))
	require.NoError(t, err)

	records, err := runScenario(sc, sc.seed, slog.Default(), "test-run")
	require.NoError(t, err)

	require.Len(t, records, 41)
	assert.Equal(t, []string{"node_0", "node_1"}, records[0])
	for _, record := range records[1:] {
		assert.Len(t, record, 2)
	}
}

func TestRunScenario_HardInterventionInRecords(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, structuralScenario))
	require.NoError(t, err)

	records, err := runScenario(sc, sc.seed, slog.Default(), "test-run")
	require.NoError(t, err)

	// node 0 is pinned at 2 by the scenario's hard intervention
	for _, record := range records[1:] {
		assert.Equal(t, "2", record[0])
	}
}

func TestRunScenario_DiscreteRecords(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, discreteScenario))
	require.NoError(t, err)

	records, err := runScenario(sc, sc.seed, slog.Default(), "test-run")
	require.NoError(t, err)

	require.Len(t, records, 31)
	for _, record := range records[1:] {
		assert.Contains(t, []string{"0", "1", "2"}, record[0])
		assert.Contains(t, []string{"0", "1"}, record[1])
	}
}

func TestRunScenario_StrengthRecords(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, strengthScenario))
	require.NoError(t, err)

	records, err := runScenario(sc, sc.seed, slog.Default(), "test-run")
	require.NoError(t, err)

	require.Len(t, records, 26)
}

func TestRunScenario_VarRecords(t *testing.T) {
	sc, err := loadScenario(writeScenario(t, varScenario))
	require.NoError(t, err)

	records, err := runScenario(sc, sc.seed, slog.Default(), "test-run")
	require.NoError(t, err)

	// the VAR keeps every generated row
	require.Len(t, records, 21)
}

func TestGenerateCmd_WritesCSVFile(t *testing.T) {
	scenario := writeScenario(t, structuralScenario)
	out := filepath.Join(t.TempDir(), "out.csv")

	rootCmd.SetArgs([]string{"generate", "--scenario", scenario, "--out", out, "--replicates", "1"})
	require.NoError(t, rootCmd.Execute())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 41)
	assert.Equal(t, "node_0,node_1", lines[0])
}

func TestGenerateCmd_ReplicatesWriteNumberedFiles(t *testing.T) {
	scenario := writeScenario(t, discreteScenario)
	out := filepath.Join(t.TempDir(), "runs.csv")

	rootCmd.SetArgs([]string{
		"generate", "--scenario", scenario, "--out", out,
		"--replicates", "3", "--workers", "2",
	})
	require.NoError(t, rootCmd.Execute())

	for rep := 0; rep < 3; rep++ {
		_, err := os.Stat(replicatePath(out, rep))
		assert.NoError(t, err, "replicate %d", rep)
	}
}

func TestGenerateCmd_ReplicatesRequireOut(t *testing.T) {
	scenario := writeScenario(t, discreteScenario)

	rootCmd.SetArgs([]string{
		"generate", "--scenario", scenario, "--out", "",
		"--replicates", "2", "--workers", "1",
	})
	err := rootCmd.Execute()

	require.ErrorIs(t, err, errReplicatesNeedOut)
}

func TestReplicatePath(t *testing.T) {
	assert.Equal(t, "out_000.csv", replicatePath("out.csv", 0))
	assert.Equal(t, "out_012.csv", replicatePath("out.csv", 12))
	assert.Equal(t, "runs/data_002.csv", replicatePath("runs/data.csv", 2))
	assert.Equal(t, "plain_001", replicatePath("plain", 1))
}
