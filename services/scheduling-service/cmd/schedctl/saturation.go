package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

func newSaturationCmd() *cobra.Command {
	var (
		file     string
		step     time.Duration
		fallback time.Duration
	)

	c := &cobra.Command{
		Use:   "saturation",
		Short: "Print the windows in which every working technician is booked",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(file)
			if err != nil {
				return err
			}
			engine := availability.NewEngine(snap.loc, fallback)

			var windows []model.TimeWindow
			if step > 0 {
				windows, err = engine.SaturatedSlots(snap.Reservations, snap.Technicians, step)
			} else {
				windows, err = engine.SaturatedWindows(snap.Reservations, snap.Technicians)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(windows) == 0 {
				fmt.Fprintln(out, "no saturated windows")
				return nil
			}
			for _, w := range windows {
				fmt.Fprintf(out, "%s  %s\n", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
			}
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "snapshot.yaml", "snapshot YAML file")
	c.Flags().DurationVar(&step, "step", 0, "use a fixed slot grid of this size instead of the sweep")
	c.Flags().DurationVar(&fallback, "fallback", 0, "duration for reservations whose duration cannot be parsed")
	return c
}
