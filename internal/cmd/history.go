package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/config"
	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/history"
	"github.com/meredith/turnwise/internal/report"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query archived analysis runs",
		Long: `Query the SQLite run archive: list past runs, show one run's tables and
matrices, export a run's rows, or prune old runs.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryExportCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func openHistoryStore(configPath string) (*history.Store, *config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newHistoryListCommand() *cobra.Command {
	var limit int
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openHistoryStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func printRuns(out io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived runs.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tINPUT\tFILES\tSKIPPED\tSEQUENCES\tTRANSITIONS\tROWS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.InputDir,
			run.SourceFiles, run.SkippedFiles, run.SequenceCount, run.TransitionCount, run.RowCount)
	}
	w.Flush()
}

func newHistoryShowCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's distribution rows and transition matrices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openHistoryStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, rows, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			matrices, err := store.GetTransitions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "  input:       %s\n", run.InputDir)
			fmt.Fprintf(out, "  started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  files:       %d (%d skipped)\n", run.SourceFiles, run.SkippedFiles)
			fmt.Fprintf(out, "  sequences:   %d\n", run.SequenceCount)
			fmt.Fprintf(out, "  transitions: %d\n\n", run.TransitionCount)

			colorize := display.UseColor(out)
			display.FormatRows(out, rows, colorize)
			models := make([]string, 0, len(matrices))
			for model := range matrices {
				models = append(models, model)
			}
			sort.Strings(models)
			for _, model := range models {
				display.FormatMatrix(out, model, matrices[model], colorize)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func newHistoryExportCommand() *cobra.Command {
	var outputDir string
	var format string
	var configPath string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export one run's tables and matrices to files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openHistoryStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			_, rows, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			matrices, err := store.GetTransitions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ext := format
			if ext == "markdown" {
				ext = "md"
			}
			path := filepath.Join(outputDir, "tables."+ext)
			if err := report.ExportToFile(rows, path, format); err != nil {
				return err
			}
			if len(matrices) > 0 {
				if err := report.WriteTransitionFiles(outputDir, matrices); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run %s to %s\n", args[0], outputDir)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for exported files (default from config)")
	cmd.Flags().StringVar(&format, "format", "csv", "Tables format (csv|json|markdown)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func newHistoryPruneCommand() *cobra.Command {
	var keep int
	var configPath string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs, keeping the newest",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openHistoryStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if keep <= 0 {
				keep = cfg.History.Retention
			}
			pruned, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d runs, kept newest %d\n", pruned, keep)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Runs to keep (default history.retention from config)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}
