package model

import "testing"

func TestTechnicianHasSkills(t *testing.T) {
	tech := Technician{ID: "T1", Skills: []string{"brakes", "hvac"}}
	if !tech.HasSkills([]string{"brakes"}) {
		t.Fatalf("expected brakes skill")
	}
	if !tech.HasSkills(nil) {
		t.Fatalf("no requirement should always match")
	}
	if tech.HasSkills([]string{"brakes", "electrical"}) {
		t.Fatalf("missing electrical skill should not match")
	}
}

func TestParsePriority(t *testing.T) {
	if p, ok := ParsePriority(" critical "); !ok || p != PriorityCritical {
		t.Fatalf("got %q %v", p, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Fatalf("unknown priority accepted")
	}
}

func TestStatusActive(t *testing.T) {
	if !StatusScheduled.Active() || !StatusInProgress.Active() {
		t.Fatalf("scheduled and in-progress are active")
	}
	if StatusOpen.Active() || StatusClosed.Active() {
		t.Fatalf("open and closed are not active")
	}
}

func TestWorkOrderCloneIsDeep(t *testing.T) {
	w := WorkOrder{ID: "WO-001", RequiredSkills: []string{"brakes"}}
	c := w.Clone()
	c.RequiredSkills[0] = "tires"
	if w.RequiredSkills[0] != "brakes" {
		t.Fatalf("clone shares skills slice")
	}
	if CloneWorkOrders(nil) != nil || CloneOpsTasks(nil) != nil {
		t.Fatalf("nil slices should stay nil")
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := Snapshot{
		WorkOrders: []WorkOrder{{ID: "WO-001", Start: "2025-08-22T09:00:00"}},
		OpsTasks:   []OpsTask{{ID: "OPS-1"}},
		Rationale:  []string{"a"},
		Stats:      Stats{BookedHours: map[string]float64{"V001": 2}},
	}
	c := s.Clone()
	c.WorkOrders[0].Start = ""
	c.OpsTasks[0].ID = "OPS-2"
	c.Rationale[0] = "b"
	c.Stats.BookedHours["V001"] = 5
	if s.WorkOrders[0].Start == "" || s.OpsTasks[0].ID != "OPS-1" || s.Rationale[0] != "a" || s.Stats.BookedHours["V001"] != 2 {
		t.Fatalf("clone leaked writes into original: %#v", s)
	}
}

func TestPolicyScopedAndHours(t *testing.T) {
	if (Policy{}).Scoped() {
		t.Fatalf("empty policy is not scoped")
	}
	if !(Policy{DepotScope: []string{"north"}}).Scoped() {
		t.Fatalf("depot scope should count")
	}
	bh := BusinessHours{Open: 8, Close: 17}
	if !bh.Valid() || bh.Span() != 9 {
		t.Fatalf("bad business hours %+v", bh)
	}
	if (BusinessHours{Open: 17, Close: 8}).Valid() || (BusinessHours{Open: 0, Close: 25}).Valid() {
		t.Fatalf("invalid windows accepted")
	}
}
