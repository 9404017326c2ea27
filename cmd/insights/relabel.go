package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	apperrors "retail-insights/internal/errors"
	"retail-insights/internal/observability"
	"retail-insights/internal/relabel"
)

func newRelabelCmd() *cobra.Command {
	var (
		flagInput  string
		flagOutput string
		flagSeed   int64
	)

	cmd := &cobra.Command{
		Use:   "relabel",
		Short: "Rewrite the dataset with synthetic item labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := observability.NewLogger(cfg.Logger)
			slog.SetDefault(logger)

			input := flagInput
			if input == "" {
				input = cfg.Input.CSVFile
			}
			if flagOutput == "" {
				return apperrors.Config("relabel requires --output")
			}

			summary, err := relabel.File(input, flagOutput, relabel.Options{Seed: flagSeed})
			if err != nil {
				return err
			}

			logger.Info("relabel complete",
				"input", input,
				"output", flagOutput,
				"rows", summary.Rows,
				"unique_labels", summary.UniqueLabels,
				"seed", flagSeed)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagInput, "input", "", "input CSV (defaults to the configured input)")
	cmd.Flags().StringVar(&flagOutput, "output", "", "output CSV path (required)")
	cmd.Flags().Int64Var(&flagSeed, "seed", 1, "deterministic shuffle seed")

	return cmd
}
