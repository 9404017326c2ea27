package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"retail-insights/internal/analytics"
	"retail-insights/internal/cohort"
	"retail-insights/internal/config"
	apperrors "retail-insights/internal/errors"
	"retail-insights/internal/loader"
	"retail-insights/internal/observability"
	"retail-insights/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		flagInput  string
		flagOutDir string
		flagTopN   int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute all aggregates and render the chart files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flagInput != "" {
				cfg.Input.CSVFile = flagInput
			}
			if flagOutDir != "" {
				cfg.Output.Dir = flagOutDir
			}
			if flagTopN > 0 {
				cfg.Charts.TopN = flagTopN
			}

			logger := observability.NewLogger(cfg.Logger)
			slog.SetDefault(logger)

			runCtx := observability.WithRunID(cmd.Context(), observability.NewRunID())
			logger.Info("starting analysis",
				"run_id", observability.RunID(runCtx),
				"input", cfg.Input.CSVFile,
				"out_dir", cfg.Output.Dir)

			loadCtx, span := observability.StartSpan(runCtx, "load")
			records, err := loader.New(cfg.Loader, logger).Load(loadCtx, cfg.Input.CSVFile)
			if err != nil {
				span.SetError(err)
				span.FinishAndLog(loadCtx, logger)
				return err
			}
			span.FinishAndLog(loadCtx, logger)

			aggCtx, span := observability.StartSpan(runCtx, "aggregate")
			service := analytics.New(logger)
			service.SetData(records)
			matrix := cohort.BuildMatrix(records)
			span.FinishAndLog(aggCtx, logger)

			logger.Info("aggregates ready", "stats", service.Stats(), "cohorts", len(matrix.Rows))

			renderCtx, span := observability.StartSpan(runCtx, "render")
			renderer := report.NewRenderer(cfg.Charts, cfg.Output.Dir, logger)
			if err := renderer.RenderAll(service, matrix); err != nil {
				span.SetError(err)
				span.FinishAndLog(renderCtx, logger)
				return err
			}
			span.FinishAndLog(renderCtx, logger)

			logger.Info("analysis complete", "run_id", observability.RunID(runCtx))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagInput, "input", "", "input transactions CSV (overrides config)")
	cmd.Flags().StringVar(&flagOutDir, "out-dir", "", "output directory for chart files (overrides config)")
	cmd.Flags().IntVar(&flagTopN, "top-n", 0, "size of top/bottom-N lists (overrides config)")

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, apperrors.ConfigWrap(err, "load configuration")
	}
	if flagLogLevel != "" {
		cfg.Logger.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logger.Format = flagLogFormat
	}
	return cfg, nil
}
