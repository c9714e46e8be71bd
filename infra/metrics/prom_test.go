package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/core/model"
)

func TestPromSinkRecordsPlanActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordProposal(coremetrics.ProposalEvent{Source: coremetrics.SourcePolicy, Moved: 3, Duration: 2 * time.Millisecond}); err != nil {
		t.Fatalf("record proposal: %v", err)
	}
	if err := sink.RecordMutations(coremetrics.MutationEvent{Applied: 2, Skipped: 1}); err != nil {
		t.Fatalf("record mutations: %v", err)
	}
	if err := sink.RecordAccept(coremetrics.AcceptEvent{Version: 4, Stats: model.Stats{
		BookedHours:       map[string]float64{"V001": 6, "V002": 2},
		StdDevBookedHours: 2.8,
	}}); err != nil {
		t.Fatalf("record accept: %v", err)
	}
	if err := sink.RecordClashes(coremetrics.ClashEvent{Status: model.PlanAccepted, Count: 2}); err != nil {
		t.Fatalf("record clashes: %v", err)
	}

	expected := `
# HELP plan_proposals_total Total number of plan previews produced
# TYPE plan_proposals_total counter
plan_proposals_total{source="policy"} 1
# HELP plan_moved_items_total Work orders and ops tasks moved by previews
# TYPE plan_moved_items_total counter
plan_moved_items_total{source="policy"} 3
# HELP plan_mutations_total Mutations processed, by outcome
# TYPE plan_mutations_total counter
plan_mutations_total{outcome="applied"} 2
plan_mutations_total{outcome="forwarded"} 0
plan_mutations_total{outcome="skipped"} 1
# HELP plan_vehicle_booked_hours Hours booked per vehicle in the accepted plan
# TYPE plan_vehicle_booked_hours gauge
plan_vehicle_booked_hours{vehicle_id="V001"} 6
plan_vehicle_booked_hours{vehicle_id="V002"} 2
# HELP plan_accepted_version Version of the accepted plan
# TYPE plan_accepted_version gauge
plan_accepted_version 4
# HELP plan_clashes Maintenance and ops overlaps in the latest plan of each status
# TYPE plan_clashes gauge
plan_clashes{status="accepted"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"plan_proposals_total", "plan_moved_items_total", "plan_mutations_total",
		"plan_vehicle_booked_hours", "plan_accepted_version", "plan_clashes"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if got := testutil.ToFloat64(sink.spread); got != 2.8 {
		t.Fatalf("unexpected stddev gauge %v", got)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = a.RecordProposal(coremetrics.ProposalEvent{Source: coremetrics.SourceMutations})
	_ = b.RecordProposal(coremetrics.ProposalEvent{Source: coremetrics.SourceMutations})
	if got := testutil.ToFloat64(a.proposals.WithLabelValues("mutations")); got != 2 {
		t.Fatalf("expected shared counter at 2, got %v", got)
	}
}
