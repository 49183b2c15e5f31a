package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/logger"
	"github.com/meredith/turnwise/internal/source"
)

// NewWatchCommand creates and returns the watch subcommand
func NewWatchCommand() *cobra.Command {
	var inputDir string
	var outputDir string
	var noFigures bool
	var noHistory bool
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis pipeline when result files change",
		Long: `Watch the input directory and re-run the full analysis whenever a result
file is created or rewritten. Rapid write bursts are debounced so each
settled file triggers one run. Stop with Ctrl-C.

Examples:
  turnwise watch
  turnwise watch --input results/ --output analysis/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, inputDir, outputDir, noFigures, noHistory, configPath, logLevel)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to watch (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for all outputs (default from config)")
	cmd.Flags().BoolVar(&noFigures, "no-figures", false, "Skip SVG rendering")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip archiving runs")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log verbosity (trace|debug|info|warn|error)")

	return cmd
}

func runWatch(cmd *cobra.Command, inputDir, outputDir string, noFigures, noHistory bool, configPath, logLevel string) error {
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
	out := cmd.OutOrStdout()
	log := logger.NewConsoleLogger(out, logLevel)

	watcher, err := source.NewWatcher(inputDir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", inputDir, err)
	}
	defer watcher.Close()
	watcher.SetDebounce(cfg.WatchDebounce)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Analyze whatever is already there before waiting for changes.
	if err := runAnalyze(ctx, out, log, cfg, inputDir, outputDir, noFigures, noHistory); err != nil {
		log.LogError(fmt.Sprintf("initial analysis failed: %v", err))
	}
	log.LogInfo(fmt.Sprintf("watching %s (debounce %s)", watcher.Dir(), cfg.WatchDebounce))

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("watch stopped")
			return nil
		case event := <-watcher.Events():
			log.LogInfo(fmt.Sprintf("change detected: %s", event.Path))
			if err := runAnalyze(ctx, out, log, cfg, inputDir, outputDir, noFigures, noHistory); err != nil {
				log.LogError(fmt.Sprintf("analysis failed: %v", err))
			}
		case err := <-watcher.Errors():
			log.LogWarn(fmt.Sprintf("watch error: %v", err))
		}
	}
}
