package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/plan"
	"github.com/kilianp07/fleetmaint/pkg/export"
	"github.com/kilianp07/fleetmaint/pkg/intent"
)

var (
	planID       string
	inputPath    string
	outputFormat string
	slotVehicle  string
	slotHours    float64
	slotOpen     int
	slotClose    int
)

var clashesCmd = &cobra.Command{
	Use:   "clashes",
	Short: "List maintenance and ops overlaps of a plan",
	RunE:  runClashes,
}

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Run the policy pass and print the preview",
	Long:  "Reads a policy document (JSON, comments allowed) from --input and prints the resulting preview.",
	RunE:  runPropose,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a mutation batch and print the preview",
	RunE:  runApply,
}

var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Find the earliest free slot for a vehicle",
	RunE:  runSlot,
}

func init() {
	for _, c := range []*cobra.Command{clashesCmd, proposeCmd, applyCmd, slotCmd} {
		c.Flags().StringVar(&planID, "plan", plan.CurrentID, "plan id to work on")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{proposeCmd, applyCmd} {
		c.Flags().StringVarP(&inputPath, "input", "i", "", "request document, - for stdin")
		c.Flags().StringVarP(&outputFormat, "output", "o", "plan", "output: plan, json rows or csv rows")
	}
	slotCmd.Flags().StringVar(&slotVehicle, "vehicle", "", "vehicle id")
	slotCmd.Flags().Float64Var(&slotHours, "hours", 0, "hours needed (default from horizon config)")
	slotCmd.Flags().IntVar(&slotOpen, "open", 0, "business window start hour")
	slotCmd.Flags().IntVar(&slotClose, "close", 0, "business window end hour")
	_ = slotCmd.MarkFlagRequired("vehicle")
}

func runClashes(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	svc, err := offline(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	clashes, err := svc.Plans.Clashes(ctx, planID)
	if err != nil {
		return err
	}
	if clashes == nil {
		clashes = []model.Clash{}
	}
	return printJSON(cmd, clashes)
}

func runPropose(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	raw, err := readInput(cmd, inputPath)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}
	policy, err := intent.DecodePolicy(raw)
	if err != nil {
		return err
	}
	svc, err := offline(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	snap, err := svc.Plans.Propose(ctx, planID, policy)
	if err != nil {
		return err
	}
	return writePlan(cmd, snap, snap)
}

func runApply(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	raw, err := readInput(cmd, inputPath)
	if err != nil {
		return fmt.Errorf("read mutations: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("apply: --input required")
	}
	batch, err := intent.DecodeBatch(raw)
	if err != nil {
		return err
	}
	svc, err := offline(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	res, err := svc.Plans.Apply(ctx, planID, batch.Mutations, batch.Policy)
	if err != nil {
		return err
	}
	return writePlan(cmd, res.Snapshot, res)
}

func runSlot(cmd *cobra.Command, _ []string) error {
	ctx := contextOf(cmd)
	var bh *model.BusinessHours
	if slotOpen != 0 || slotClose != 0 {
		bh = &model.BusinessHours{Open: slotOpen, Close: slotClose}
	}
	svc, err := offline(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	slot, err := svc.Plans.Slot(ctx, planID, slotVehicle, slotHours, bh)
	if err != nil {
		return err
	}
	return printJSON(cmd, slot)
}

func writePlan(cmd *cobra.Command, snap model.Snapshot, full any) error {
	switch outputFormat {
	case "plan":
		return printJSON(cmd, full)
	case "json", "csv":
		return export.Write(cmd.OutOrStdout(), snap, outputFormat)
	default:
		return fmt.Errorf("unknown output %q", outputFormat)
	}
}
