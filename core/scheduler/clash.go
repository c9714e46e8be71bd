package scheduler

import (
	"cmp"
	"slices"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/model"
)

// clashEpsilonHours ignores intersections that only touch at a boundary.
const clashEpsilonHours = 0.01

// ComputeClashes lists overlaps between active work orders and ops tasks of
// the same vehicle. Inputs are only read.
func (e *Engine) ComputeClashes(workOrders []model.WorkOrder, opsTasks []model.OpsTask) []model.Clash {
	opsByVehicle := make(map[string][]model.OpsTask)
	for _, o := range opsTasks {
		opsByVehicle[o.VehicleID] = append(opsByVehicle[o.VehicleID], o)
	}
	var out []model.Clash
	for _, w := range workOrders {
		if !w.Status.Active() {
			continue
		}
		ws, ok := e.cal.Span(w.Start, w.End)
		if !ok {
			continue
		}
		for _, o := range opsByVehicle[w.VehicleID] {
			span, ok := e.cal.Span(o.Start, o.End)
			if !ok {
				continue
			}
			h := interval.OverlapHours(ws.Start, ws.End, span.Start, span.End)
			if h <= clashEpsilonHours {
				continue
			}
			out = append(out, model.Clash{
				VehicleID:    w.VehicleID,
				WorkOrderID:  w.ID,
				OpsID:        o.ID,
				OverlapHours: interval.Round1(h),
			})
		}
	}
	slices.SortStableFunc(out, func(a, b model.Clash) int {
		return cmp.Or(
			cmp.Compare(a.VehicleID, b.VehicleID),
			cmp.Compare(a.WorkOrderID, b.WorkOrderID),
			cmp.Compare(a.OpsID, b.OpsID),
		)
	})
	return out
}
