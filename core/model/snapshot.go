package model

import "time"

// PlanStatus is the lifecycle state of a Snapshot.
type PlanStatus string

const (
	PlanPreview    PlanStatus = "preview"
	PlanAccepted   PlanStatus = "accepted"
	PlanSuperseded PlanStatus = "superseded"
)

// Stats summarises vehicle load in a plan.
type Stats struct {
	BookedHours       map[string]float64 `json:"booked_hours,omitempty"`
	MeanBookedHours   float64            `json:"mean_booked_hours"`
	StdDevBookedHours float64            `json:"stddev_booked_hours"`
	MaxBookedHours    float64            `json:"max_booked_hours"`
	Clashes           int                `json:"clashes"`
}

// Snapshot is a versioned plan state. Snapshots are treated as immutable:
// every operation producing a new plan works on a Clone.
//
// Moved, Scheduled and Unscheduled hold true totals; the id lists may be
// capped for transport.
type Snapshot struct {
	ID             string      `json:"id"`
	Version        int         `json:"version"`
	BaseID         string      `json:"base_id,omitempty"`
	Status         PlanStatus  `json:"status"`
	When           time.Time   `json:"when"`
	WorkOrders     []WorkOrder `json:"workorders"`
	OpsTasks       []OpsTask   `json:"ops_tasks"`
	Rationale      []string    `json:"rationale,omitempty"`
	Notes          []string    `json:"notes,omitempty"`
	Moved          int         `json:"moved"`
	Scheduled      int         `json:"scheduled"`
	Unscheduled    int         `json:"unscheduled"`
	MovedIDs       []string    `json:"moved_ids,omitempty"`
	ScheduledIDs   []string    `json:"scheduled_ids,omitempty"`
	UnscheduledIDs []string    `json:"unscheduled_ids,omitempty"`
	Stats          Stats       `json:"stats"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.WorkOrders = CloneWorkOrders(s.WorkOrders)
	out.OpsTasks = CloneOpsTasks(s.OpsTasks)
	out.Rationale = cloneStrings(s.Rationale)
	out.Notes = cloneStrings(s.Notes)
	out.MovedIDs = cloneStrings(s.MovedIDs)
	out.ScheduledIDs = cloneStrings(s.ScheduledIDs)
	out.UnscheduledIDs = cloneStrings(s.UnscheduledIDs)
	if s.Stats.BookedHours != nil {
		out.Stats.BookedHours = make(map[string]float64, len(s.Stats.BookedHours))
		for k, v := range s.Stats.BookedHours {
			out.Stats.BookedHours[k] = v
		}
	}
	return out
}

// Clash is a time overlap between an active work order and an ops task of
// the same vehicle.
type Clash struct {
	VehicleID    string  `json:"vehicle_id"`
	WorkOrderID  string  `json:"workorder_id"`
	OpsID        string  `json:"ops_id"`
	OverlapHours float64 `json:"overlap_hours"`
}

// Slot is a proposed booking. Infeasible marks the default slot returned when
// no gap was found; it may double-book the vehicle.
type Slot struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Infeasible bool   `json:"infeasible,omitempty"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
