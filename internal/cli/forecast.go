package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

func newForecastCmd(open storeOpener) *cobra.Command {
	var from, to, bucket string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print available and needed hours per bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := capacity.ValidateQuery(from, to, bucket); err != nil {
				return err
			}
			store, closeStore, err := open()
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := store.LoadSnapshot(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			result, err := capacity.Forecast(snap.Rules, snap.Staff, snap.Assignments, from, to, bucket)
			if err != nil {
				return err
			}
			return printForecast(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&bucket, "bucket", string(capacity.DefaultBucket), "Bucket size: day, week, month")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printForecast(w io.Writer, result models.ForecastResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tavailable\tneeded\tbalance\t\n", result.Bucket)
	for _, p := range result.Points {
		mark := ""
		if p.Overloaded() {
			mark = " !"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f%s\t\n", p.BucketStart, p.Available, p.Needed, p.Available-p.Needed, mark)
	}
	return tw.Flush()
}
