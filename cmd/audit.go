package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetmaint/config"
	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/infra/audit"
)

var (
	auditPlan    string
	auditVehicle string
	auditKind    string
	auditSince   string
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the plan event journal",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditPlan, "plan", "", "only records for this plan id")
	auditCmd.Flags().StringVar(&auditVehicle, "vehicle", "", "only records touching this vehicle")
	auditCmd.Flags().StringVar(&auditKind, "kind", "", "proposed, mutated, accepted or discarded")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "RFC3339 lower bound")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Audit.Enabled {
		return errors.New("audit journal is disabled")
	}
	q := audit.Query{PlanID: auditPlan, VehicleID: auditVehicle, Kind: events.Kind(auditKind)}
	if auditSince != "" {
		if q.Start, err = time.Parse(time.RFC3339, auditSince); err != nil {
			return fmt.Errorf("--since: %w", err)
		}
	}
	j, err := audit.NewRotatingJournal(cfg.Audit)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	recs, err := j.Query(contextOf(cmd), q)
	if err != nil {
		return err
	}
	if auditJSON {
		if recs == nil {
			recs = []audit.Record{}
		}
		return printJSON(cmd, recs)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tPLAN\tVERSION\tMOVED\tCLASHES\tVEHICLES")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n", r.Timestamp.Format(time.RFC3339), r.Kind, r.PlanID,
			r.Version, r.Moved, r.Clashes, strings.Join(r.Vehicles, ","))
	}
	return w.Flush()
}
