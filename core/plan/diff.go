package plan

import (
	"slices"
	"sort"

	"github.com/kilianp07/fleetmaint/core/model"
)

// Item names the record kind a Change refers to.
type Item string

const (
	ItemWorkOrder Item = "workorder"
	ItemOps       Item = "ops"
)

// ChangeKind classifies a Change.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "moved"
	ChangeUpdated ChangeKind = "updated"
)

// Change is one per-item difference between two snapshots. A moved item may
// also list other changed fields.
type Change struct {
	Item      Item       `json:"item"`
	ID        string     `json:"id"`
	VehicleID string     `json:"vehicle_id"`
	Change    ChangeKind `json:"change"`
	FromStart string     `json:"from_start,omitempty"`
	FromEnd   string     `json:"from_end,omitempty"`
	ToStart   string     `json:"to_start,omitempty"`
	ToEnd     string     `json:"to_end,omitempty"`
	Fields    []string   `json:"fields,omitempty"`
}

// Diff compares two snapshots item by item. Results are sorted by item kind
// then id.
func Diff(from, to model.Snapshot) []Change {
	var out []Change

	prevWO := make(map[string]model.WorkOrder, len(from.WorkOrders))
	for _, w := range from.WorkOrders {
		prevWO[w.ID] = w
	}
	for _, w := range to.WorkOrders {
		p, ok := prevWO[w.ID]
		if !ok {
			out = append(out, Change{Item: ItemWorkOrder, ID: w.ID, VehicleID: w.VehicleID, Change: ChangeAdded, ToStart: w.Start, ToEnd: w.End})
			continue
		}
		delete(prevWO, w.ID)
		if c, ok := workOrderChange(p, w); ok {
			out = append(out, c)
		}
	}
	for _, w := range prevWO {
		out = append(out, Change{Item: ItemWorkOrder, ID: w.ID, VehicleID: w.VehicleID, Change: ChangeRemoved, FromStart: w.Start, FromEnd: w.End})
	}

	prevOps := make(map[string]model.OpsTask, len(from.OpsTasks))
	for _, o := range from.OpsTasks {
		prevOps[o.ID] = o
	}
	for _, o := range to.OpsTasks {
		p, ok := prevOps[o.ID]
		if !ok {
			out = append(out, Change{Item: ItemOps, ID: o.ID, VehicleID: o.VehicleID, Change: ChangeAdded, ToStart: o.Start, ToEnd: o.End})
			continue
		}
		delete(prevOps, o.ID)
		if p.Start != o.Start || p.End != o.End {
			out = append(out, Change{Item: ItemOps, ID: o.ID, VehicleID: o.VehicleID, Change: ChangeMoved,
				FromStart: p.Start, FromEnd: p.End, ToStart: o.Start, ToEnd: o.End})
		}
	}
	for _, o := range prevOps {
		out = append(out, Change{Item: ItemOps, ID: o.ID, VehicleID: o.VehicleID, Change: ChangeRemoved, FromStart: o.Start, FromEnd: o.End})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Item != out[j].Item {
			return out[i].Item == ItemWorkOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func workOrderChange(p, w model.WorkOrder) (Change, bool) {
	var fields []string
	if p.Status != w.Status {
		fields = append(fields, "status")
	}
	if p.Hours != w.Hours {
		fields = append(fields, "hours")
	}
	if p.TechnicianID != w.TechnicianID {
		fields = append(fields, "technician_id")
	}
	if p.Priority != w.Priority {
		fields = append(fields, "priority")
	}
	if p.Title != w.Title {
		fields = append(fields, "title")
	}
	if !slices.Equal(p.RequiredSkills, w.RequiredSkills) {
		fields = append(fields, "required_skills")
	}
	c := Change{Item: ItemWorkOrder, ID: w.ID, VehicleID: w.VehicleID, Fields: fields}
	switch {
	case p.Start != w.Start || p.End != w.End:
		c.Change = ChangeMoved
		c.FromStart, c.FromEnd, c.ToStart, c.ToEnd = p.Start, p.End, w.Start, w.End
	case len(fields) > 0:
		c.Change = ChangeUpdated
	default:
		return Change{}, false
	}
	return c, true
}
