package commands

import (
	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/usage"
)

// NewStatsCmd creates the stats command
func NewStatsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return usage.WriteReport(o.Logger.Console(), o.Stats.Snapshot())
		},
	}
}

// NewResetStatsCmd creates the reset-stats command
func NewResetStatsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stats",
		Short: "Clear usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Stats.Reset()
			o.Logger.Success("Usage statistics reset")
			return nil
		},
	}
}
