package model

import "strings"

// WorkOrderType classifies maintenance work.
type WorkOrderType string

const (
	TypePreventive WorkOrderType = "Preventive"
	TypeCorrective WorkOrderType = "Corrective"
	TypeInspection WorkOrderType = "Inspection"
	TypeOther      WorkOrderType = "Other"
)

// Priority of a work order.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// ParsePriority matches s case-insensitively. ok is false for unknown values.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a work order.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "InProgress"
	StatusClosed     Status = "Closed"
)

// Active reports whether the status occupies time on the vehicle.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// WorkOrder is a maintenance task tied to a vehicle. Open work orders carry
// no Start/End; Scheduled and InProgress ones carry both.
type WorkOrder struct {
	ID             string        `json:"id" yaml:"id"`
	VehicleID      string        `json:"vehicle_id" yaml:"vehicle_id"`
	Title          string        `json:"title" yaml:"title"`
	Type           WorkOrderType `json:"type" yaml:"type"`
	Priority       Priority      `json:"priority" yaml:"priority"`
	Status         Status        `json:"status" yaml:"status"`
	Start          string        `json:"start,omitempty" yaml:"start,omitempty"`
	End            string        `json:"end,omitempty" yaml:"end,omitempty"`
	Hours          float64       `json:"hours" yaml:"hours"`
	RequiredSkills []string      `json:"required_skills,omitempty" yaml:"required_skills,omitempty"`
	TechnicianID   string        `json:"technician_id,omitempty" yaml:"technician_id,omitempty"`
}

// Clone returns a deep copy.
func (w WorkOrder) Clone() WorkOrder {
	if w.RequiredSkills != nil {
		w.RequiredSkills = append([]string(nil), w.RequiredSkills...)
	}
	return w
}

// Unscheduled reports whether the work order has no slot on the calendar.
func (w WorkOrder) Unscheduled() bool {
	return w.Status == StatusOpen || w.Start == ""
}

// OpsTask is an operational commitment of a vehicle (transport, rental...).
type OpsTask struct {
	ID        string  `json:"id" yaml:"id"`
	VehicleID string  `json:"vehicle_id" yaml:"vehicle_id"`
	Title     string  `json:"title" yaml:"title"`
	Start     string  `json:"start" yaml:"start"`
	End       string  `json:"end" yaml:"end"`
	Hours     float64 `json:"hours" yaml:"hours"`
}

// CloneWorkOrders deep-copies a slice of work orders.
func CloneWorkOrders(in []WorkOrder) []WorkOrder {
	if in == nil {
		return nil
	}
	out := make([]WorkOrder, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

// CloneOpsTasks copies a slice of ops tasks.
func CloneOpsTasks(in []OpsTask) []OpsTask {
	if in == nil {
		return nil
	}
	return append([]OpsTask(nil), in...)
}
