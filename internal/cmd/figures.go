package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/figures"
	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/outcome"
	"github.com/meredith/turnwise/internal/report"
	"github.com/meredith/turnwise/internal/source"
)

// NewFiguresCommand creates and returns the figures subcommand
func NewFiguresCommand() *cobra.Command {
	var inputDir string
	var outputDir string
	var tablesPath string
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Render the label-proportion bar chart",
		Long: `Render the grouped bar chart of per-model label proportions as SVG.
Rows come from an existing tables CSV when --tables is given, otherwise
the input directory is aggregated first.

Examples:
  turnwise figures --tables analysis/tables.csv
  turnwise figures --input results/ --output analysis/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFigures(cmd.OutOrStdout(), inputDir, outputDir, tablesPath, configPath, logLevel)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to scan (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the SVG (default from config)")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "Existing tables CSV to chart instead of rescanning")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log verbosity (trace|debug|info|warn|error)")

	return cmd
}

func runFigures(out io.Writer, inputDir, outputDir, tablesPath, configPath, logLevel string) error {
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
	log := logger.NewConsoleLogger(out, logLevel)

	var rows []outcome.DistributionRow
	if tablesPath != "" {
		rows, err = report.ReadRows(tablesPath)
		if err != nil {
			return fmt.Errorf("read tables: %w", err)
		}
	} else {
		result, err := source.LoadDir(inputDir)
		if err != nil {
			return err
		}
		if !surfaceLoadWarnings(out, log, inputDir, result) {
			return nil
		}
		rows = result.Rows
	}

	totals := outcome.ModelTotals(rows)
	if len(totals) == 0 {
		log.LogWarn("no distribution rows to chart")
		return nil
	}

	path := filepath.Join(outputDir, "proportions.svg")
	if err := figures.WriteBarChart(path, totals); err != nil {
		return fmt.Errorf("write bar chart: %w", err)
	}
	log.LogInfo(fmt.Sprintf("wrote proportions chart for %d models to %s", len(totals), path))
	return nil
}
