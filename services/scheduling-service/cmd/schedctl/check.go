package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
)

func newCheckCmd() *cobra.Command {
	var (
		file          string
		reservationID string
		technicianID  string
	)

	c := &cobra.Command{
		Use:   "check",
		Short: "Decide whether a technician can take a reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(file)
			if err != nil {
				return err
			}
			tech, ok := snap.technician(technicianID)
			if !ok {
				return fmt.Errorf("technician %q not in snapshot", technicianID)
			}
			r, ok := snap.reservation(reservationID)
			if !ok {
				return fmt.Errorf("reservation %q not in snapshot", reservationID)
			}

			existing, err := snap.assignmentsOf(availability.NewEngine(snap.loc, 0), tech.ID)
			if err != nil {
				return err
			}
			decision, err := conflict.NewDetector(snap.loc).Check(tech, r, existing)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !decision.OK() {
				fmt.Fprintf(out, "REJECTED %s\n", decision.Reason)
				return decision.Err()
			}
			fmt.Fprintf(out, "OK %s %s-%s\n", tech.ID,
				decision.Window.Start.In(snap.loc).Format(time.RFC3339),
				decision.Window.End.In(snap.loc).Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "snapshot.yaml", "snapshot YAML file")
	c.Flags().StringVar(&reservationID, "reservation", "", "reservation id")
	c.Flags().StringVar(&technicianID, "technician", "", "technician id")
	_ = c.MarkFlagRequired("reservation")
	_ = c.MarkFlagRequired("technician")
	return c
}
