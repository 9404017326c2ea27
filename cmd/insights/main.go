package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "retail-insights/internal/errors"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Descriptive statistics and charts over a retail transactions dataset",
	Long: `insights reads a retail transactions CSV, computes descriptive
statistics and a cohort retention matrix, and renders them as a set of
standalone HTML charts. A second subcommand rewrites the dataset with
synthetic item labels.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (json, text)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newRelabelCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}
}
