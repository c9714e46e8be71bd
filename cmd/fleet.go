package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List vehicles with their booked hours in the accepted plan",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	svc, err := offline(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	acc, err := svc.Plans.Accepted(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VEHICLE\tDEPOT\tBOOKED_H")
	for _, v := range svc.Fleet {
		fmt.Fprintf(w, "%s\t%s\t%.1f\n", v.ID, v.Depot, acc.Stats.BookedHours[v.ID])
	}
	return w.Flush()
}
