package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/report"
	"github.com/meredith/turnwise/internal/source"
)

// NewTablesCommand creates and returns the tables subcommand
func NewTablesCommand() *cobra.Command {
	var inputDir string
	var outputDir string
	var format string
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Aggregate *_stats.json summaries into a distribution table",
		Long: `Scan the input directory for *_stats.json summary records, aggregate
per-model label counts and percentages, and write the distribution table.

Examples:
  turnwise tables --input results/ --output analysis/
  turnwise tables --input results/ --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd.OutOrStdout(), inputDir, outputDir, format, configPath, logLevel)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to scan (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the tables file (default from config)")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format (csv|json|markdown)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log verbosity (trace|debug|info|warn|error)")

	return cmd
}

func runTables(out io.Writer, inputDir, outputDir, format, configPath, logLevel string) error {
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
	if len(result.Rows) == 0 {
		log.LogWarn("no summary files found, nothing to tabulate")
		return nil
	}

	ext := format
	if ext == "markdown" {
		ext = "md"
	}
	path := filepath.Join(outputDir, "tables."+ext)
	if err := report.ExportToFile(result.Rows, path, format); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	log.LogInfo(fmt.Sprintf("wrote %d distribution rows to %s", len(result.Rows), path))

	display.FormatRows(out, result.Rows, display.UseColor(out))
	return nil
}
