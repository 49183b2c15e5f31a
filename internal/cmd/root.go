// Package cmd wires the turnwise command tree: analysis commands over
// harness result directories plus the run-history queries.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/config"
	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/source"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for turnwise
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turnwise",
		Short: "Conversation-outcome transition and distribution analysis",
		Long: `Turnwise ingests per-conversation classification records produced by an
evaluation harness, reconstructs multi-turn sequences, and derives label
distribution tables and turn-by-turn transition probability matrices.

Results are written as CSV tables, Markdown/HTML reports, and SVG figures.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewTablesCommand())
	cmd.AddCommand(NewTransitionsCommand())
	cmd.AddCommand(NewFiguresCommand())
	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfig resolves the effective configuration: an explicit --config path
// when given, otherwise .turnwise/config.yaml in the working directory, with
// flag values layered on top by the callers.
func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// surfaceLoadWarnings reports skipped files and empty input to the user.
// Neither is fatal; the return value says whether any usable data loaded.
func surfaceLoadWarnings(out io.Writer, log logger.Logger, inputDir string, result *source.Result) bool {
	if len(result.Skipped) > 0 {
		files := make([]string, 0, len(result.Skipped))
		for _, skip := range result.Skipped {
			files = append(files, skip.Path)
			log.LogDebug(fmt.Sprintf("skipped %s: %v", skip.Path, skip.Reason))
		}
		display.WarnSkippedFiles(files).Display(out)
	}
	if result.Empty() {
		display.WarnEmptyInput(inputDir).Display(out)
		return false
	}
	return true
}
