package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/mutation"
)

func TestDecodeMutationsAliases(t *testing.T) {
	data := `[
  // tag spelled four different ways
  {"type": "moveWorkOrder", "workOrderId": "WO-005", "start": "2025-08-23T09:00:00"},
  {"op": "cancel", "id": "WO-001"},
  {"kind": "move_ops", "opsId": 7, "end": "2025-08-20T23:00:00", "duration": "2h"},
  {"action": "CancelOps", "id": "OPS-3"},
  {"type": "schedule", "id": "WO-012", "hours": 1.5},
]`
	muts, err := DecodeMutations([]byte(data))
	require.NoError(t, err)
	require.Len(t, muts, 5)

	assert.Equal(t, mutation.MoveWorkOrder{ID: "WO-005", Start: "2025-08-23T09:00:00"}, muts[0])
	assert.Equal(t, mutation.CancelWorkOrder{ID: "WO-001"}, muts[1])
	assert.Equal(t, mutation.MoveOps{ID: "7", End: "2025-08-20T23:00:00", Hours: mutation.Float(2)}, muts[2])
	assert.Equal(t, mutation.CancelOps{ID: "OPS-3"}, muts[3])
	assert.Equal(t, mutation.ScheduleWorkOrder{ID: "WO-012", Hours: mutation.Float(1.5)}, muts[4])
}

func TestDecodeAddWorkOrder(t *testing.T) {
	data := `{"op": "add", "type": "inspection", "vehicle_id": "V003", "title": "Check lift",
	          "priority": "high", "required_skills": "hvac, electrical", "start": "2025-08-21 10:00"}`
	muts, err := DecodeMutations([]byte(data))
	require.NoError(t, err)
	require.Len(t, muts, 1)
	assert.Equal(t, mutation.AddWorkOrder{
		VehicleID:      "V003",
		Title:          "Check lift",
		Type:           model.TypeInspection,
		Priority:       model.PriorityHigh,
		RequiredSkills: []string{"hvac", "electrical"},
		Start:          "2025-08-21 10:00",
	}, muts[0])
}

func TestDecodeResourceEdit(t *testing.T) {
	data := `[{"type": "edit", "resource": "Work Order", "id": "WO-001", "field": "technician", "value": "T-04"},
	          {"type": "resource_edit", "resource": "technician", "id": "T-02", "field": "shift", "value": "night"}]`
	muts, err := DecodeMutations([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, mutation.ResourceEdit{Resource: mutation.ResourceWorkOrder, ID: "WO-001", Field: mutation.FieldTechnicianID, Value: "T-04"}, muts[0])
	assert.Equal(t, mutation.ResourceEdit{Resource: mutation.ResourceTechnician, ID: "T-02", Field: "shift", Value: "night"}, muts[1])
}

func TestDecodeInvalidEntries(t *testing.T) {
	data := `[{"type": "teleport", "id": "WO-1"}, {"type": "move"}, 42, {"op": "add", "vehicle": "V1", "priority": "urgent"}]`
	muts, err := DecodeMutations([]byte(data))
	require.NoError(t, err)
	require.Len(t, muts, 4)
	for i, m := range muts {
		inv, ok := m.(mutation.Invalid)
		if !ok {
			t.Fatalf("entry %d decoded as %T, want Invalid", i, m)
		}
		assert.NotEmpty(t, inv.Raw)
	}
	assert.Equal(t, `{"type":"teleport","id":"WO-1"}`, muts[0].(mutation.Invalid).Raw)
	assert.Contains(t, muts[1].(mutation.Invalid).Reason, "missing id")
	assert.Contains(t, muts[3].(mutation.Invalid).Reason, "priority")
}

func TestDecodeMutationsRejectsGarbage(t *testing.T) {
	_, err := DecodeMutations([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeBatchWithPolicy(t *testing.T) {
	data := `{"mutations": [{"type": "cancel", "id": "WO-2"}], "policy": {"businessHours": "07:00-19:00", "for_vehicle": "V001"}}`
	b, err := DecodeBatch([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []mutation.Mutation{mutation.CancelWorkOrder{ID: "WO-2"}}, b.Mutations)
	assert.Equal(t, &model.BusinessHours{Open: 7, Close: 19}, b.Policy.BusinessHours)
	assert.Equal(t, "V001", b.Policy.ForVehicle)
}

func TestDecodePolicy(t *testing.T) {
	p, err := DecodePolicy([]byte(`{"business_hours": [8, 17], "opsShiftDays": 1, "avoidOpsOverlap": "true", "depots": "north"}`))
	require.NoError(t, err)
	assert.Equal(t, model.Policy{
		BusinessHours:   &model.BusinessHours{Open: 8, Close: 17},
		OpsShiftDays:    intPtr(1),
		AvoidOpsOverlap: true,
		DepotScope:      []string{"north"},
	}, p)

	p, err = DecodePolicy([]byte(`{"businessHours": {"open": 6, "close": 14}}`))
	require.NoError(t, err)
	assert.Equal(t, 6, p.BusinessHours.Open)

	empty, err := DecodePolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, model.Policy{}, empty)
}

func TestDecodePolicyErrors(t *testing.T) {
	for _, in := range []string{
		`{"business_hours": [17, 8]}`,
		`{"business_hours": "morning"}`,
		`{"business_hours": [8]}`,
		`{"ops_shift_days": 1.5}`,
		`{"avoid_ops_overlap": "sometimes"}`,
		`[1, 2]`,
	} {
		if _, err := DecodePolicy([]byte(in)); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func intPtr(v int) *int { return &v }

func TestDecodeSlotRequest(t *testing.T) {
	req, err := DecodeSlotRequest([]byte(`{"vehicleId": "V003", "hours": "3h", "businessHours": "07:00-19:00", /* note */}`))
	require.NoError(t, err)
	assert.Equal(t, "V003", req.VehicleID)
	assert.Equal(t, 3.0, req.Hours)
	require.NotNil(t, req.BusinessHours)
	assert.Equal(t, model.BusinessHours{Open: 7, Close: 19}, *req.BusinessHours)

	req, err = DecodeSlotRequest([]byte(`{"vehicle": "V001"}`))
	require.NoError(t, err)
	assert.Zero(t, req.Hours)
	assert.Nil(t, req.BusinessHours)

	_, err = DecodeSlotRequest([]byte(`{"hours": 2}`))
	assert.Error(t, err)
}
