package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-maintenance/internal/prediction"
)

var recalculateCmd = &cobra.Command{
	Use:   "recalculate <vehicle-id>...",
	Short: "Recalculate maintenance predictions for one or more vehicles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  recalculate,
}

func init() {
	rootCmd.AddCommand(recalculateCmd)
}

func recalculate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	failed := 0
	for _, id := range args {
		rep := a.Engine.Run(ctx, id)
		prediction.LogReport(a.Log, rep)
		printReport(cmd.OutOrStdout(), rep)
		if o := rep.Outcome(); o == prediction.OutcomeNotFound || o == prediction.OutcomeFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d vehicles could not be recalculated", failed, len(args))
	}
	return nil
}

func printReport(w io.Writer, rep *prediction.Report) {
	fmt.Fprintf(w, "vehicle %s: %s\n", rep.VehicleID, rep.Outcome())
	if rep.Err != nil {
		fmt.Fprintf(w, "  %v\n", rep.Err)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TYPE\tDUE KM\tREMAINING\tDUE DATE\tCONFIDENCE\tSTATUS")
	for _, res := range rep.Results {
		if res.Prediction == nil {
			fmt.Fprintf(tw, "  %s\t-\t-\t-\t-\t%v\n", res.MaintenanceType, res.Err)
			continue
		}
		p := res.Prediction
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%s\t%.1f\t%s\n",
			res.MaintenanceType, p.PredictedMileage, res.RemainingKm,
			p.PredictedDate.Format("2006-01-02"), p.ConfidenceLevel, p.NotificationStatus)
	}
	_ = tw.Flush()
}
