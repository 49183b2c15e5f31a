package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/figures"
	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/outcome"
	"github.com/meredith/turnwise/internal/report"
	"github.com/meredith/turnwise/internal/source"
)

// NewTransitionsCommand creates and returns the transitions subcommand
func NewTransitionsCommand() *cobra.Command {
	var inputDir string
	var outputDir string
	var noFigures bool
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Build per-model turn-to-turn transition matrices",
		Long: `Reconstruct multi-turn sequences from the sequence-level result files,
count consecutive label pairs per model, and write count and probability
matrices as CSV plus a combined JSON document and heatmap SVGs.

Examples:
  turnwise transitions --input results/ --output analysis/
  turnwise transitions --input results/ --no-figures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransitions(cmd.OutOrStdout(), inputDir, outputDir, noFigures, configPath, logLevel)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to scan (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for matrix files (default from config)")
	cmd.Flags().BoolVar(&noFigures, "no-figures", false, "Skip heatmap SVG rendering")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log verbosity (trace|debug|info|warn|error)")

	return cmd
}

func runTransitions(out io.Writer, inputDir, outputDir string, noFigures bool, configPath, logLevel string) error {
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

	result, err := source.LoadDir(inputDir)
	if err != nil {
		return err
	}
	if !surfaceLoadWarnings(out, log, inputDir, result) {
		return nil
	}

	merged := result.Merged()
	if len(merged) == 0 {
		log.LogWarn("no sequence files found, nothing to transition")
		return nil
	}

	matrices := outcome.BuildAllTransitions(merged)
	if err := report.WriteTransitionFiles(outputDir, matrices); err != nil {
		return fmt.Errorf("write transition files: %w", err)
	}
	if !noFigures {
		if err := figures.WriteHeatmapFiles(outputDir, matrices); err != nil {
			return fmt.Errorf("write heatmaps: %w", err)
		}
	}
	log.LogInfo(fmt.Sprintf("wrote transition matrices for %d models to %s", len(matrices), outputDir))

	colorize := display.UseColor(out)
	for _, model := range merged.Models() {
		display.FormatMatrix(out, model, matrices[model], colorize)
	}
	return nil
}
