package scheduler

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/model"
)

// Summarize builds an unstamped snapshot of the plan (wos, ops). Items whose
// start or end differ from their counterpart in the base plan are reported
// as moved; new, removed and closed items are not.
func (e *Engine) Summarize(wos []model.WorkOrder, ops []model.OpsTask, baseWOs []model.WorkOrder, baseOps []model.OpsTask) model.Snapshot {
	snap := model.Snapshot{
		WorkOrders: model.CloneWorkOrders(wos),
		OpsTasks:   model.CloneOpsTasks(ops),
	}

	type times struct{ start, end string }
	prevWO := make(map[string]times, len(baseWOs))
	for _, w := range baseWOs {
		prevWO[w.ID] = times{w.Start, w.End}
	}
	prevOps := make(map[string]times, len(baseOps))
	for _, o := range baseOps {
		prevOps[o.ID] = times{o.Start, o.End}
	}

	var moved, scheduled, unscheduled []string
	for _, w := range wos {
		if w.Unscheduled() {
			unscheduled = append(unscheduled, w.ID)
		} else {
			scheduled = append(scheduled, w.ID)
		}
		if p, ok := prevWO[w.ID]; ok && w.Status != model.StatusClosed && (p.start != w.Start || p.end != w.End) {
			moved = append(moved, w.ID)
		}
	}
	for _, o := range ops {
		if p, ok := prevOps[o.ID]; ok && (p.start != o.Start || p.end != o.End) {
			moved = append(moved, o.ID)
		}
	}

	limit := e.cfg.MaxReportedIDs
	snap.Moved, snap.MovedIDs = len(moved), capIDs(moved, limit)
	snap.Scheduled, snap.ScheduledIDs = len(scheduled), capIDs(scheduled, limit)
	snap.Unscheduled, snap.UnscheduledIDs = len(unscheduled), capIDs(unscheduled, limit)
	snap.Stats = e.stats(wos, ops)
	return snap
}

// stats computes per-vehicle booked hours (active maintenance plus ops) and
// their distribution across the fleet.
func (e *Engine) stats(wos []model.WorkOrder, ops []model.OpsTask) model.Stats {
	booked := make(map[string]float64)
	for _, w := range wos {
		if !w.Status.Active() {
			continue
		}
		if span, ok := e.cal.Span(w.Start, w.End); ok {
			booked[w.VehicleID] += span.Hours()
		}
	}
	for _, o := range ops {
		if span, ok := e.cal.Span(o.Start, o.End); ok {
			booked[o.VehicleID] += span.Hours()
		}
	}
	st := model.Stats{Clashes: len(e.ComputeClashes(wos, ops))}
	if len(booked) == 0 {
		return st
	}
	ids := make([]string, 0, len(booked))
	for id := range booked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values := make([]float64, len(ids))
	st.BookedHours = make(map[string]float64, len(ids))
	for i, id := range ids {
		values[i] = booked[id]
		st.BookedHours[id] = interval.Round1(booked[id])
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = 0
	}
	st.MeanBookedHours = interval.Round1(mean)
	st.StdDevBookedHours = interval.Round1(std)
	st.MaxBookedHours = interval.Round1(floats.Max(values))
	return st
}

func capIDs(ids []string, limit int) []string {
	if limit > 0 && len(ids) > limit {
		return append([]string(nil), ids[:limit]...)
	}
	return ids
}
