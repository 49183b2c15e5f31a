package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meredith/turnwise/internal/display"
	"github.com/meredith/turnwise/internal/outcome"
	"github.com/meredith/turnwise/internal/source"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	var inputDir string
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check result files without writing any output",
		Long: `Scan the input directory and report, per file, whether it decodes and
what it contains. Nothing is written; malformed files are listed with
their errors.

Examples:
  turnwise validate --input results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), inputDir, configPath)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Results directory to scan (default from config)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")

	return cmd
}

func runValidate(out io.Writer, inputDir, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if inputDir == "" {
		inputDir = cfg.InputDir
	}

	files, err := source.Scan(inputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		display.WarnEmptyInput(inputDir).Display(out)
		return nil
	}

	bad := 0
	for _, file := range files {
		if err := validateFile(out, file); err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", file.Path, err)
			bad++
		}
	}

	fmt.Fprintf(out, "\n%d files checked, %d with problems\n", len(files), bad)
	if bad > 0 {
		return fmt.Errorf("%d invalid result files", bad)
	}
	return nil
}

func validateFile(out io.Writer, file source.File) error {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return err
	}

	switch file.Kind {
	case source.KindSequences:
		coll, err := outcome.DecodeCollection(data, file.Name)
		if err != nil {
			return err
		}
		models := outcome.Reconstruct(coll)
		kept := 0
		sequences := 0
		for _, model := range models.Models() {
			sequences += len(models[model])
			for _, seq := range models[model] {
				kept += len(seq)
			}
		}
		dropped := coll.Records() - kept
		fmt.Fprintf(out, "✓ %s: %s shape, %d models, %d sequences, %d turns",
			file.Path, coll.Shape, len(models), sequences, kept)
		if dropped > 0 {
			fmt.Fprintf(out, " (%d unrecognized turns dropped)", dropped)
		}
		fmt.Fprintln(out)

	case source.KindSummary:
		rows, err := outcome.AggregateSummary(data, file.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: summary, %d distribution rows\n", file.Path, len(rows))
	}
	return nil
}
