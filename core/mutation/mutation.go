package mutation

import "github.com/kilianp07/fleetmaint/core/model"

// Kind names a mutation variant.
type Kind string

const (
	KindMoveWorkOrder     Kind = "move_work_order"
	KindCancelWorkOrder   Kind = "cancel_work_order"
	KindAddWorkOrder      Kind = "add_work_order"
	KindScheduleWorkOrder Kind = "schedule_work_order"
	KindMoveOps           Kind = "move_ops"
	KindCancelOps         Kind = "cancel_ops"
	KindResourceEdit      Kind = "resource_edit"
	KindInvalid           Kind = "invalid"
)

// Mutation is one discrete plan edit. The set of implementations is closed.
type Mutation interface {
	Kind() Kind
	mutation()
}

// MoveWorkOrder reschedules a work order. At least one of Start and End must
// be set; the other is derived from Hours or the existing duration.
type MoveWorkOrder struct {
	ID    string   `json:"id"`
	Start string   `json:"start,omitempty"`
	End   string   `json:"end,omitempty"`
	Hours *float64 `json:"hours,omitempty"`
}

// CancelWorkOrder closes a work order and clears its times.
type CancelWorkOrder struct {
	ID string `json:"id"`
}

// AddWorkOrder creates a work order. Without Start it is left Open.
type AddWorkOrder struct {
	VehicleID      string              `json:"vehicle_id"`
	Title          string              `json:"title"`
	Type           model.WorkOrderType `json:"type,omitempty"`
	Priority       model.Priority      `json:"priority,omitempty"`
	Hours          *float64            `json:"hours,omitempty"`
	RequiredSkills []string            `json:"required_skills,omitempty"`
	Start          string              `json:"start,omitempty"`
}

// ScheduleWorkOrder places a work order in the earliest free slot of its vehicle.
type ScheduleWorkOrder struct {
	ID    string   `json:"id"`
	Hours *float64 `json:"hours,omitempty"`
}

// MoveOps reschedules an ops task.
type MoveOps struct {
	ID    string   `json:"id"`
	Start string   `json:"start,omitempty"`
	End   string   `json:"end,omitempty"`
	Hours *float64 `json:"hours,omitempty"`
}

// CancelOps drops an ops commitment from the plan.
type CancelOps struct {
	ID string `json:"id"`
}

// ResourceEdit changes a field on a record the engine does not own, such as
// a technician or a vehicle. Only work order technician assignments are
// applied; everything else is returned to the caller.
type ResourceEdit struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// Invalid carries a payload that matched no known mutation.
type Invalid struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason,omitempty"`
}

// Resources and fields understood by ResourceEdit.
const (
	ResourceWorkOrder  = "work_order"
	ResourceTechnician = "technician"
	ResourceVehicle    = "vehicle"
	FieldTechnicianID  = "technician_id"
)

func (MoveWorkOrder) Kind() Kind     { return KindMoveWorkOrder }
func (CancelWorkOrder) Kind() Kind   { return KindCancelWorkOrder }
func (AddWorkOrder) Kind() Kind      { return KindAddWorkOrder }
func (ScheduleWorkOrder) Kind() Kind { return KindScheduleWorkOrder }
func (MoveOps) Kind() Kind           { return KindMoveOps }
func (CancelOps) Kind() Kind         { return KindCancelOps }
func (ResourceEdit) Kind() Kind      { return KindResourceEdit }
func (Invalid) Kind() Kind           { return KindInvalid }

func (MoveWorkOrder) mutation()     {}
func (CancelWorkOrder) mutation()   {}
func (AddWorkOrder) mutation()      {}
func (ScheduleWorkOrder) mutation() {}
func (MoveOps) mutation()           {}
func (CancelOps) mutation()         {}
func (ResourceEdit) mutation()      {}
func (Invalid) mutation()           {}

// Float returns a pointer to v, for optional hour fields.
func Float(v float64) *float64 { return &v }
