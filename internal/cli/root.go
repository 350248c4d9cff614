// Package cli wires the metrics-etl commands with cobra.
package cli

import (
	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/spf13/cobra"
)

// envPrefix prefixes the environment variables that back every flag, e.g.
// METRICS_ETL_DRY_RUN for --dry-run.
const envPrefix = "METRICS_ETL"

type GlobalOptions struct {
	LogFile     string
	LogLevel    string
	SecretsFile string
	Backend     string
}

func NewRootCmd() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "metrics-etl",
		Short: "metrics-etl - periodic healthcare utilization metric pipelines",
		Long: `metrics-etl computes analytics metrics from the latest dated extracts in a
data lake and writes each metric table back as CSV next to the source partition.
Each run reads its source and sink locations from a JSON pipeline configuration
kept in the same store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := SetFlagsFromEnv(cmd.Flags(), envPrefix); err != nil {
				return err
			}
			return logger.InitLogger(opts.LogFile, opts.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.SecretsFile, "secrets-file", "", "Read secrets from this dotenv file instead of the environment")
	rootCmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "Storage backend: s3, gridfs or file (default from STORAGE_BACKEND)")

	rootCmd.AddCommand(NewRunCmd(opts), NewListCmd(), NewLatestCmd(opts))

	return rootCmd
}
