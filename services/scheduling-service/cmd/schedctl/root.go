package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Offline saturation and conflict checks over a scheduling snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSaturationCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newDurationCmd())

	return root
}
