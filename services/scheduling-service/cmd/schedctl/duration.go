package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
)

func newDurationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duration TEXT...",
		Short: "Parse duration strings such as 2h30min",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, text := range args {
				minutes, err := duration.Parse(text)
				if err != nil {
					return fmt.Errorf("%q: %w", text, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", text, minutes, duration.Format(minutes))
			}
			return nil
		},
	}
}
