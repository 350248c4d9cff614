package cli

import (
	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/spf13/cobra"
)

type RunOptions struct {
	*GlobalOptions
	Metric          string
	ConfigContainer string
	ConfigPath      string
	ConfigFile      string
	DryRun          bool
	PublishDriver   string
	PublishTable    string
	Pushgateway     string
}

func NewRunCmd(global *GlobalOptions) *cobra.Command {
	opts := &RunOptions{GlobalOptions: global}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute one metric from the latest extracts and write it to the sink",
		Example: `  metrics-etl run --metric gp_it_standards_month_prop
  metrics-etl run --metric ndc_repeat_prescriptions_offline_month_count --dry-run`,
		RunE: func(c *cobra.Command, args []string) error {
			return runMetric(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Metric, "metric", "m", "", "Metric to compute (see 'metrics-etl list')")
	cmd.Flags().StringVar(&opts.ConfigContainer, "config-container", config.DefaultConfigContainer, "Container holding the pipeline configurations")
	cmd.Flags().StringVar(&opts.ConfigPath, "config-path", config.DefaultConfigPath, "Folder of the pipeline configurations")
	cmd.Flags().StringVar(&opts.ConfigFile, "config-file", "", "Pipeline configuration file (default: the metric's own)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Compute and validate the metric without writing it")
	cmd.Flags().StringVar(&opts.PublishDriver, "publish-driver", "", "Also publish to a reporting database: sqlserver, mysql, sqlite or postgres (DSN from PUBLISH_DSN)")
	cmd.Flags().StringVar(&opts.PublishTable, "publish-table", "", "Reporting table name (default from PUBLISH_TABLE, then metric_values)")
	cmd.Flags().StringVar(&opts.Pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for run telemetry (default from PUSHGATEWAY_URL)")

	cmd.MarkFlagRequired("metric")

	return cmd
}
