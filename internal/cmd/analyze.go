package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/config"
	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/figures"
	"github.com/meredith/turnwise/internal/filelock"
	"github.com/meredith/turnwise/internal/history"
	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/outcome"
	"github.com/meredith/turnwise/internal/report"
	"github.com/meredith/turnwise/internal/source"
)

// NewAnalyzeCommand creates and returns the analyze subcommand
func NewAnalyzeCommand() *cobra.Command {
	var inputDir string
	var outputDir string
	var noFigures bool
	var noHistory bool
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis pipeline",
		Long: `Run every analysis stage over the input directory: aggregate the
distribution table, build per-model transition matrices, render figures,
write the Markdown/HTML report, and archive the run in the history
database.

Examples:
  turnwise analyze
  turnwise analyze --input results/ --output analysis/ --no-figures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if inputDir == "" {
				inputDir = cfg.InputDir
			}
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			log := logger.NewConsoleLogger(cmd.OutOrStdout(), logLevel)
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), log, cfg, inputDir, outputDir, noFigures, noHistory)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to scan (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for all outputs (default from config)")
	cmd.Flags().BoolVar(&noFigures, "no-figures", false, "Skip SVG rendering")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip archiving the run")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log verbosity (trace|debug|info|warn|error)")

	return cmd
}

// runAnalyze is the shared pipeline behind analyze and watch.
func runAnalyze(ctx context.Context, out io.Writer, log logger.Logger, cfg *config.Config, inputDir, outputDir string, noFigures, noHistory bool) error {
	started := time.Now()

	files, err := source.Scan(inputDir)
	if err != nil {
		return err
	}
	result := source.Load(files)
	if !surfaceLoadWarnings(out, log, inputDir, result) {
		return nil
	}

	merged := result.Merged()
	matrices := outcome.BuildAllTransitions(merged)

	if len(result.Rows) > 0 {
		if err := report.ExportToFile(result.Rows, filepath.Join(outputDir, "tables.csv"), "csv"); err != nil {
			return fmt.Errorf("write tables: %w", err)
		}
	}
	if len(matrices) > 0 {
		if err := report.WriteTransitionFiles(outputDir, matrices); err != nil {
			return fmt.Errorf("write transition files: %w", err)
		}
	}
	if !noFigures {
		if len(matrices) > 0 {
			if err := figures.WriteHeatmapFiles(outputDir, matrices); err != nil {
				return fmt.Errorf("write heatmaps: %w", err)
			}
		}
		if totals := outcome.ModelTotals(result.Rows); len(totals) > 0 {
			if err := figures.WriteBarChart(filepath.Join(outputDir, "proportions.svg"), totals); err != nil {
				return fmt.Errorf("write bar chart: %w", err)
			}
		}
	}
	if err := report.WriteReportFiles(
		filepath.Join(outputDir, "report.md"),
		filepath.Join(outputDir, "report.html"),
		result.Rows, matrices); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	sequenceCount := 0
	for _, model := range merged.Models() {
		sequenceCount += len(merged[model])
	}
	transitionCount := 0
	for _, m := range matrices {
		transitionCount += m.Total()
	}

	log.LogInfo(fmt.Sprintf("analyzed %d files: %d rows, %d sequences, %d transitions",
		len(files), len(result.Rows), sequenceCount, transitionCount))

	if !noHistory && cfg.History.Enabled {
		if err := archiveRun(ctx, cfg, history.Run{
			InputDir:        inputDir,
			StartedAt:       started,
			FinishedAt:      time.Now(),
			SourceFiles:     len(files),
			SkippedFiles:    len(result.Skipped),
			SequenceCount:   sequenceCount,
			TransitionCount: transitionCount,
		}, result.Rows, matrices); err != nil {
			// History failures never fail the analysis itself.
			log.LogWarn(fmt.Sprintf("run not archived: %v", err))
		}
	}

	display.FormatRows(out, result.Rows, display.UseColor(out))
	return nil
}

func archiveRun(ctx context.Context, cfg *config.Config, run history.Run, rows []outcome.DistributionRow, matrices map[string]outcome.TransitionMatrix) error {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}

	// One archiver at a time per database.
	lock := filelock.NewFileLock(dbPath + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.RecordRun(ctx, run, rows, matrices); err != nil {
		return err
	}
	_, err = store.Prune(ctx, cfg.History.Retention)
	return err
}
