package mutation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/scheduler"
)

func newTestApplier(t *testing.T) *Applier {
	t.Helper()
	e, err := scheduler.NewEngine(scheduler.HorizonConfig{Timezone: "UTC"},
		scheduler.WithClock(func() time.Time { return time.Date(2025, 8, 18, 7, 0, 0, 0, time.UTC) }))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewApplier(e, nil)
}

func basePlan() ([]model.WorkOrder, []model.OpsTask) {
	wos := []model.WorkOrder{
		{ID: "WO-001", VehicleID: "V001", Title: "Oil change", Status: model.StatusScheduled, Start: "2025-08-19T09:00:00", End: "2025-08-19T11:00:00", Hours: 2},
		{ID: "WO-005", VehicleID: "V002", Title: "Brake repair", Status: model.StatusScheduled, Start: "2025-08-20T13:00:00", End: "2025-08-20T16:00:00", Hours: 3},
		{ID: "WO-012", VehicleID: "V003", Title: "Tyre check", Status: model.StatusOpen, Hours: 1.5},
	}
	ops := []model.OpsTask{
		{ID: "OPS-3", VehicleID: "V001", Title: "Route A", Start: "2025-08-19T12:00:00", End: "2025-08-19T14:00:00", Hours: 2},
		{ID: "OPS-12", VehicleID: "V002", Title: "Route B", Start: "2025-08-21T08:00:00", End: "2025-08-21T10:00:00", Hours: 2},
	}
	return wos, ops
}

func byID(t *testing.T, wos []model.WorkOrder, id string) model.WorkOrder {
	t.Helper()
	for _, w := range wos {
		if w.ID == id {
			return w
		}
	}
	t.Fatalf("work order %s missing", id)
	return model.WorkOrder{}
}

func TestMoveWorkOrderKeepsDuration(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{MoveWorkOrder{ID: "WO-005", Start: "2025-08-23T09:00:00"}}, model.Policy{})

	got := byID(t, res.WorkOrders, "WO-005")
	assert.Equal(t, "2025-08-23T09:00:00", got.Start)
	assert.Equal(t, "2025-08-23T12:00:00", got.End)
	assert.Equal(t, model.StatusScheduled, got.Status)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, "2025-08-20T13:00:00", byID(t, wos, "WO-005").Start)
}

func TestMoveWorkOrderVariants(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		MoveWorkOrder{ID: "WO-001", End: "2025-08-19T18:00:00"},
		MoveWorkOrder{ID: "WO-012", Start: "2024-08-22T10:00", Hours: Float(4)},
		MoveWorkOrder{ID: "WO-005", Start: "2025-08-22T07:00:00Z", End: "2025-08-22T09:30:00Z"},
	}, model.Policy{})
	require.Equal(t, 3, res.Applied, res.Notes)

	end := byID(t, res.WorkOrders, "WO-001")
	assert.Equal(t, "2025-08-19T16:00:00", end.Start)

	// Open work orders become scheduled; the year snaps to the horizon.
	open := byID(t, res.WorkOrders, "WO-012")
	assert.Equal(t, "2025-08-22T10:00:00", open.Start)
	assert.Equal(t, "2025-08-22T14:00:00", open.End)
	assert.Equal(t, model.StatusScheduled, open.Status)
	assert.Equal(t, 4.0, open.Hours)

	both := byID(t, res.WorkOrders, "WO-005")
	assert.Equal(t, "2025-08-22T07:00:00", both.Start)
	assert.Equal(t, 2.5, both.Hours)
}

func TestMoveWorkOrderErrors(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		MoveWorkOrder{ID: "WO-999", Start: "2025-08-19T09:00:00"},
		MoveWorkOrder{ID: "WO-001"},
		MoveWorkOrder{ID: "WO-001", Start: "tomorrow morning"},
		MoveWorkOrder{ID: "WO-001", Start: "2025-08-19T12:00:00", End: "2025-08-19T10:00:00"},
		CancelWorkOrder{ID: "WO-005"},
	}, model.Policy{})
	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Notes, 5)
	assert.Contains(t, res.Notes[0], "not found")
	assert.Contains(t, res.Notes[1], "start or end required")
	assert.Contains(t, res.Notes[2], "invalid timestamp")
	assert.Contains(t, res.Notes[3], "end must be after start")
	assert.Equal(t, wos[0], byID(t, res.WorkOrders, "WO-001"))
}

func TestCancelWorkOrderIsIdempotent(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	once := a.Apply(wos, ops, []Mutation{CancelWorkOrder{ID: "WO-001"}}, model.Policy{})
	twice := a.Apply(once.WorkOrders, once.OpsTasks, []Mutation{CancelWorkOrder{ID: "WO-001"}}, model.Policy{})
	assert.Equal(t, once.WorkOrders, twice.WorkOrders)

	got := byID(t, twice.WorkOrders, "WO-001")
	assert.Equal(t, model.StatusClosed, got.Status)
	assert.Empty(t, got.Start)
	assert.Empty(t, got.End)
}

func TestAddWorkOrder(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		AddWorkOrder{VehicleID: "V004", Title: "Inspect pantograph"},
		AddWorkOrder{VehicleID: "V001", Title: "Replace wiper", Priority: model.PriorityHigh, Hours: Float(1), Start: "2025-08-21T10:00:00"},
		AddWorkOrder{Title: "no vehicle"},
	}, model.Policy{})
	require.Len(t, res.WorkOrders, 5)
	assert.Equal(t, 1, res.Skipped)

	first := res.WorkOrders[3]
	assert.Equal(t, "WO-013", first.ID)
	assert.Equal(t, model.StatusOpen, first.Status)
	assert.Equal(t, model.TypeInspection, first.Type)
	assert.Equal(t, model.PriorityMedium, first.Priority)
	assert.Equal(t, 2.0, first.Hours)
	assert.Empty(t, first.Start)

	second := res.WorkOrders[4]
	assert.Equal(t, "WO-014", second.ID)
	assert.Equal(t, model.TypeCorrective, second.Type)
	assert.Equal(t, model.PriorityHigh, second.Priority)
	assert.Equal(t, model.StatusScheduled, second.Status)
	assert.Equal(t, "2025-08-21T11:00:00", second.End)
}

func TestMoveOpsResolvesLooseIDs(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		MoveOps{ID: "ops-3", Start: "2025-08-19T20:00:00"},
		MoveOps{ID: "12", End: "2025-08-21T23:00:00"},
	}, model.Policy{})
	require.Equal(t, 2, res.Applied, res.Notes)
	assert.Equal(t, "2025-08-19T20:00:00", res.OpsTasks[0].Start)
	assert.Equal(t, "2025-08-19T22:00:00", res.OpsTasks[0].End)
	assert.Equal(t, "2025-08-21T21:00:00", res.OpsTasks[1].Start)
}

func TestCancelOpsNotFound(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{CancelOps{ID: "OPS-7"}}, model.Policy{})
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "not found")
	assert.Equal(t, wos, res.WorkOrders)
	assert.Equal(t, ops, res.OpsTasks)
}

func TestCancelOpsRemovesTask(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{CancelOps{ID: "OPS-003"}}, model.Policy{})
	require.Len(t, res.OpsTasks, 1)
	assert.Equal(t, "OPS-12", res.OpsTasks[0].ID)
	assert.Len(t, ops, 2)
}

func TestLaterMutationsSeeEarlierOnes(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		AddWorkOrder{VehicleID: "V002", Title: "Service"},
		MoveWorkOrder{ID: "WO-013", Start: "2025-08-22T08:00:00"},
		CancelWorkOrder{ID: "WO-013"},
	}, model.Policy{})
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, model.StatusClosed, byID(t, res.WorkOrders, "WO-013").Status)
}

func TestScheduleWorkOrder(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		ScheduleWorkOrder{ID: "WO-012"},
		ScheduleWorkOrder{ID: "WO-001", Hours: Float(12)},
	}, model.Policy{BusinessHours: &model.BusinessHours{Open: 8, Close: 17}})
	require.Equal(t, 2, res.Applied, res.Notes)

	got := byID(t, res.WorkOrders, "WO-012")
	assert.Equal(t, "2025-08-18T08:00:00", got.Start)
	assert.Equal(t, "2025-08-18T09:30:00", got.End)
	assert.Equal(t, model.StatusScheduled, got.Status)

	assert.Contains(t, res.Notes[1], "default slot")
	assert.Equal(t, "2025-08-18T09:00:00", byID(t, res.WorkOrders, "WO-001").Start)
}

func TestResourceEdits(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	edit := ResourceEdit{Resource: ResourceTechnician, ID: "T-2", Field: "skills", Value: "hv"}
	res := a.Apply(wos, ops, []Mutation{
		ResourceEdit{Resource: ResourceWorkOrder, ID: "WO-001", Field: FieldTechnicianID, Value: "T-7"},
		edit,
	}, model.Policy{})
	assert.Equal(t, "T-7", byID(t, res.WorkOrders, "WO-001").TechnicianID)
	assert.Equal(t, []ResourceEdit{edit}, res.Forwarded)
	assert.Equal(t, 2, res.Applied)
}

func TestInvalidMutationEchoesPayload(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{Invalid{Raw: `{"type":"teleport"}`}, nil}, model.Policy{})
	assert.Equal(t, 2, res.Skipped)
	assert.Contains(t, res.Notes[0], `{"type":"teleport"}`)
	assert.Equal(t, wos, res.WorkOrders)
}

func TestTimestampsRoundTrip(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	first := a.Apply(wos, ops, []Mutation{MoveWorkOrder{ID: "WO-001", Start: "2025-08-21 14:30"}}, model.Policy{})
	emitted := byID(t, first.WorkOrders, "WO-001").Start
	second := a.Apply(first.WorkOrders, first.OpsTasks, []Mutation{MoveWorkOrder{ID: "WO-001", Start: emitted}}, model.Policy{})
	assert.Equal(t, emitted, byID(t, second.WorkOrders, "WO-001").Start)
	assert.Equal(t, byID(t, first.WorkOrders, "WO-001"), byID(t, second.WorkOrders, "WO-001"))
}

func TestNormalizeRewritesZonedTimestamps(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	wos[0].Start = "2025-08-19T09:00:00Z"
	ops[1].End = "garbage"
	res := a.Apply(wos, ops, nil, model.Policy{})
	assert.Equal(t, "2025-08-19T09:00:00", res.WorkOrders[0].Start)
	assert.Equal(t, "garbage", res.OpsTasks[1].End)
	require.Len(t, res.Notes, 1)
	assert.True(t, strings.HasPrefix(res.Notes[0], "Left ops OPS-12"))
}

func TestMoveShortSpanWidenedToMinimum(t *testing.T) {
	a := newTestApplier(t)
	wos, ops := basePlan()
	res := a.Apply(wos, ops, []Mutation{
		MoveWorkOrder{ID: "WO-005", Start: "2025-08-23T09:00:00", End: "2025-08-23T09:06:00"},
		MoveOps{ID: "OPS-3", Start: "2025-08-19T20:00:00", End: "2025-08-19T20:05:00"},
	}, model.Policy{})
	require.Equal(t, 2, res.Applied, res.Notes)

	w := byID(t, res.WorkOrders, "WO-005")
	assert.Equal(t, "2025-08-23T09:00:00", w.Start)
	assert.Equal(t, "2025-08-23T09:15:00", w.End)
	assert.InDelta(t, 0.25, w.Hours, 1e-9)

	var o model.OpsTask
	for _, x := range res.OpsTasks {
		if x.ID == "OPS-3" {
			o = x
		}
	}
	assert.Equal(t, "2025-08-19T20:15:00", o.End)
	assert.InDelta(t, 0.25, o.Hours, 1e-9)
}
