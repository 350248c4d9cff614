package cli

import (
	"github.com/spf13/cobra"
)

type LatestOptions struct {
	*GlobalOptions
	Container string
	Prefix    string
}

func NewLatestCmd(global *GlobalOptions) *cobra.Command {
	opts := &LatestOptions{GlobalOptions: global}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent dated folder under a prefix",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runLatest(c, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Container, "container", "c", "", "Container (bucket) to look in")
	cmd.Flags().StringVarP(&opts.Prefix, "prefix", "p", "", "Folder whose dated subfolders are compared")
	cmd.MarkFlagRequired("container")
	cmd.MarkFlagRequired("prefix")

	return cmd
}
