package scheduler

import (
	"slices"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/model"
)

// FindEarliestSlot scans the horizon day by day for the first gap of
// hoursNeeded inside the business window that avoids every ops task and
// non-closed work order of the vehicle. ok is false when no day fits.
func (e *Engine) FindEarliestSlot(vehicleID string, hoursNeeded float64, workOrders []model.WorkOrder, opsTasks []model.OpsTask, bh *model.BusinessHours) (model.Slot, bool) {
	hoursNeeded = max(hoursNeeded, interval.MinDurationHours)
	hours := e.businessHours(bh)
	booked := e.bookings(vehicleID, workOrders, opsTasks)

	for day := 0; day < e.cal.Days(); day++ {
		win := interval.ClampToBusinessWindow(e.cal.Day(day), hours.Open, hours.Close)
		if win.Hours() < hoursNeeded {
			continue
		}
		var today []interval.Window
		for _, b := range booked {
			if interval.Overlaps(b.Start, b.End, win.Start, win.End) {
				today = append(today, b)
			}
		}
		slices.SortFunc(today, func(a, b interval.Window) int { return a.Start.Compare(b.Start) })

		cursor := win.Start
		for _, b := range today {
			if end := interval.AddHours(cursor, hoursNeeded); !end.After(b.Start) {
				return model.Slot{Start: e.cal.Format(cursor), End: e.cal.Format(end)}, true
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if end := interval.AddHours(cursor, hoursNeeded); !end.After(win.End) {
			return model.Slot{Start: e.cal.Format(cursor), End: e.cal.Format(end)}, true
		}
	}
	return model.Slot{}, false
}

// FindSlotOrFallback behaves like FindEarliestSlot but never fails: when
// nothing fits it returns the configured default slot marked Infeasible.
func (e *Engine) FindSlotOrFallback(vehicleID string, hoursNeeded float64, workOrders []model.WorkOrder, opsTasks []model.OpsTask, bh *model.BusinessHours) model.Slot {
	if slot, ok := e.FindEarliestSlot(vehicleID, hoursNeeded, workOrders, opsTasks, bh); ok {
		return slot
	}
	start := e.cal.At(e.cfg.FallbackDay, e.cfg.FallbackAt())
	end := interval.AddHours(start, max(hoursNeeded, interval.MinDurationHours))
	e.log.Warnf("no slot of %.2fh for %s in horizon, using default slot", hoursNeeded, vehicleID)
	return model.Slot{Start: e.cal.Format(start), End: e.cal.Format(end), Infeasible: true}
}

func (e *Engine) bookings(vehicleID string, workOrders []model.WorkOrder, opsTasks []model.OpsTask) []interval.Window {
	var out []interval.Window
	for _, o := range opsTasks {
		if o.VehicleID != vehicleID {
			continue
		}
		if span, ok := e.cal.Span(o.Start, o.End); ok {
			out = append(out, span)
		}
	}
	for _, w := range workOrders {
		if w.VehicleID != vehicleID || w.Status == model.StatusClosed {
			continue
		}
		if span, ok := e.cal.Span(w.Start, w.End); ok {
			out = append(out, span)
		}
	}
	return out
}
