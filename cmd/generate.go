// Package cmd provides CLI commands for the causalgen application.
// This file implements the generate command for producing samples.
package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adalundhe/causalgen/core/batch"
	"github.com/adalundhe/causalgen/core/dbn"
	"github.com/adalundhe/causalgen/core/structural"
	"github.com/adalundhe/causalgen/core/varsim"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var errReplicatesNeedOut = errors.New("more than one replicate requires --out")

// =============================================================================
// Generate Command Flags
// =============================================================================

var (
	generateScenario   string
	generateOut        string
	generateReplicates int
	generateWorkers    int
)

// =============================================================================
// Generate Command
// =============================================================================

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate samples from a scenario",
	Long: `Generate synthetic samples from a YAML scenario declaration.

Samples are written as CSV with one column per node. With more than one
replicate, each replicate runs under a seed offset from the scenario seed
and lands in its own numbered file.

Examples:
  causalgen generate --scenario chain.yaml
  causalgen generate --scenario chain.yaml --out chain.csv
  causalgen generate --scenario chain.yaml --out chain.csv --replicates 20 --workers 4`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateScenario, "scenario", "s", "", "Path to the YAML scenario (required)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output CSV path (default stdout)")
	generateCmd.Flags().IntVarP(&generateReplicates, "replicates", "r", 1, "Number of seed-offset replicates")
	generateCmd.Flags().IntVarP(&generateWorkers, "workers", "w", 0, "Concurrent replicate workers (default NumCPU)")
	_ = generateCmd.MarkFlagRequired("scenario")
}

// =============================================================================
// Generate Execution
// =============================================================================

// runGenerate executes the generate command.
func runGenerate(cmd *cobra.Command, _ []string) error {
	sc, err := loadScenario(generateScenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	log := slog.Default()
	runID := uuid.NewString()

	if generateReplicates > 1 {
		return runReplicates(cmd, sc, log, runID)
	}

	records, err := runScenario(sc, sc.seed, log, runID)
	if err != nil {
		return err
	}
	return writeRecords(cmd, generateOut, records)
}

// runReplicates fans seed-offset replicates out over the batch runner,
// one numbered output file per replicate.
func runReplicates(cmd *cobra.Command, sc *scenario, log *slog.Logger, runID string) error {
	if generateOut == "" {
		return errReplicatesNeedOut
	}

	runner := batch.New(batch.Config{Workers: generateWorkers, Logger: log})
	err := runner.Run(cmd.Context(), generateReplicates, sc.seed, func(rep int, seed uint64) error {
		records, err := runScenario(sc, seed, log, runID)
		if err != nil {
			return err
		}
		f, err := os.Create(replicatePath(generateOut, rep))
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		return writeCSV(f, records)
	})
	if err != nil {
		return err
	}

	stats := runner.Stats()
	log.Info("replicates complete",
		slog.String("run_id", runID),
		slog.Int64("completed", stats.Completed),
		slog.Int64("failed", stats.Failed))
	return nil
}

// runScenario dispatches one seeded run on the scenario kind and returns
// the CSV records, header included.
func runScenario(sc *scenario, seed uint64, log *slog.Logger, runID string) ([][]string, error) {
	switch sc.kind {
	case KindStructural:
		res, err := structural.Simulate(sc.links, structural.Config{
			Steps:         sc.steps,
			Interventions: sc.interventions,
			Seed:          seed,
			Logger:        log,
		})
		if err != nil {
			return nil, err
		}
		rows, cols := res.Data.Dims()
		log.Info("generated sample",
			slog.String("run_id", runID),
			slog.String("kind", sc.kind),
			slog.Int("rows", rows),
			slog.Int("nodes", cols),
			slog.Bool("nonstationary", res.Nonstationary))
		return denseRecords(res.Data), nil

	case KindVar:
		res, err := varsim.Simulate(sc.links, varsim.Config{
			Steps:  sc.steps,
			Mode:   sc.noiseMode,
			Seed:   seed,
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		rows, cols := res.Data.Dims()
		log.Info("generated sample",
			slog.String("run_id", runID),
			slog.String("kind", sc.kind),
			slog.Int("rows", rows),
			slog.Int("nodes", cols),
			slog.String("noise_mode", sc.noiseMode.String()))
		return denseRecords(res.Data), nil

	case KindDiscrete:
		data, err := dbn.Simulate(sc.links, dbn.Config{
			Categories: sc.categories,
			Steps:      sc.steps,
			Seed:       seed,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		log.Info("generated sample",
			slog.String("run_id", runID),
			slog.String("kind", sc.kind),
			slog.Int("rows", len(data)),
			slog.Int("nodes", sc.links.NumNodes()))
		return intRecords(data, sc.links.NumNodes()), nil

	case KindStrength:
		data, err := dbn.SimulateStrength(sc.links, dbn.StrengthConfig{
			Categories: sc.categories,
			Steps:      sc.steps,
			Alphabet:   sc.alphabet,
			TableSeed:  seed,
			SampleSeed: seed + 1,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		log.Info("generated sample",
			slog.String("run_id", runID),
			slog.String("kind", sc.kind),
			slog.Int("rows", len(data)),
			slog.Int("nodes", sc.links.NumNodes()),
			slog.Int("alphabet", sc.alphabet))
		return intRecords(data, sc.links.NumNodes()), nil

	default:
		return nil, fmt.Errorf("%q: %w", sc.kind, errUnknownKind)
	}
}

// =============================================================================
// Output
// =============================================================================

func writeRecords(cmd *cobra.Command, path string, records [][]string) error {
	if path == "" {
		return writeCSV(cmd.OutOrStdout(), records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return writeCSV(f, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	return csv.NewWriter(w).WriteAll(records)
}

func denseRecords(data *mat.Dense) [][]string {
	rows, cols := data.Dims()
	records := make([][]string, 0, rows+1)
	records = append(records, headerRecord(cols))
	for i := 0; i < rows; i++ {
		record := make([]string, cols)
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(data.At(i, j), 'g', -1, 64)
		}
		records = append(records, record)
	}
	return records
}

func intRecords(data [][]int, cols int) [][]string {
	records := make([][]string, 0, len(data)+1)
	records = append(records, headerRecord(cols))
	for _, row := range data {
		record := make([]string, cols)
		for j, v := range row {
			record[j] = strconv.Itoa(v)
		}
		records = append(records, record)
	}
	return records
}

func headerRecord(cols int) []string {
	header := make([]string, cols)
	for j := range header {
		header[j] = fmt.Sprintf("node_%d", j)
	}
	return header
}

// replicatePath numbers the output path before its extension, so out.csv
// becomes out_000.csv for replicate zero.
func replicatePath(path string, rep int) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%03d%s", base, rep, ext)
}
