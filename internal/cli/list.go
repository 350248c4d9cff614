package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/BartekS5/metrics-etl/internal/metric"
	"github.com/spf13/cobra"
)

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the metrics that can be run",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METRIC\tCONFIG\tDESCRIPTION")
			for _, name := range metric.Names() {
				r, err := metric.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name(), r.ConfigFile(), r.Description())
			}
			return w.Flush()
		},
	}
}
