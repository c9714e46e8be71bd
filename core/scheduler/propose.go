package scheduler

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/model"
)

// ProposeSchedule applies policy to clones of the inputs and returns a
// preview snapshot. Steps run in a fixed order: ops shift, ops de-overlap,
// business-hour clamp of maintenance, summary.
func (e *Engine) ProposeSchedule(workOrders []model.WorkOrder, opsTasks []model.OpsTask, policy model.Policy) model.Snapshot {
	wos := model.CloneWorkOrders(workOrders)
	ops := model.CloneOpsTasks(opsTasks)
	sc := e.resolveScope(policy)

	var rationale []string
	if sc != nil {
		ids := make([]string, 0, len(sc))
		for id := range sc {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		rationale = append(rationale, fmt.Sprintf("Scoped to %d vehicle(s): %s.", len(ids), strings.Join(ids, ", ")))
	}

	if policy.OpsShiftDays != nil || policy.AvoidOpsOverlap {
		res := e.transformOps(ops, policy, sc)
		if policy.OpsShiftDays != nil {
			rationale = append(rationale, fmt.Sprintf("Shifted ops to night within ±%d day(s); %d task(s) re-anchored.", max(0, *policy.OpsShiftDays), res.shifted))
		}
		if policy.AvoidOpsOverlap {
			rationale = append(rationale, fmt.Sprintf("Removed ops overlaps per vehicle; %d fix(es).", res.fixes))
		}
	}

	if policy.BusinessHours != nil {
		bh := e.businessHours(policy.BusinessHours)
		n := e.clampMaintenance(wos, bh, sc)
		rationale = append(rationale, fmt.Sprintf("Clamped maintenance into business hours %02d:00-%02d:00; %d work order(s) adjusted.", bh.Open, bh.Close, n))
	}

	snap := e.Summarize(wos, ops, workOrders, opsTasks)
	snap.Status = model.PlanPreview
	snap.When = e.now()
	snap.Rationale = rationale
	e.log.Debugw("policy pass complete", map[string]any{
		"moved":       snap.Moved,
		"scheduled":   snap.Scheduled,
		"unscheduled": snap.Unscheduled,
	})
	return snap
}

type opsOutcome struct {
	shifted int
	fixes   int
}

// transformOps runs the per-vehicle ops steps. Vehicles are independent, so
// they are spread over the configured number of workers; each worker only
// writes the elements of its own vehicle.
func (e *Engine) transformOps(ops []model.OpsTask, policy model.Policy, sc scope) opsOutcome {
	byVehicle := make(map[string][]*model.OpsTask)
	var vehicles []string
	for i := range ops {
		id := ops[i].VehicleID
		if !sc.has(id) {
			continue
		}
		if _, seen := byVehicle[id]; !seen {
			vehicles = append(vehicles, id)
		}
		byVehicle[id] = append(byVehicle[id], &ops[i])
	}
	sort.Strings(vehicles)

	results := make([]opsOutcome, len(vehicles))
	workers := min(max(e.cfg.Workers, 1), max(len(vehicles), 1))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.planVehicleOps(byVehicle[vehicles[i]], policy)
			}
		}()
	}
	for i := range vehicles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var total opsOutcome
	for _, r := range results {
		total.shifted += r.shifted
		total.fixes += r.fixes
	}
	return total
}

func (e *Engine) planVehicleOps(tasks []*model.OpsTask, policy model.Policy) opsOutcome {
	var out opsOutcome
	if policy.OpsShiftDays != nil {
		limit := max(0, *policy.OpsShiftDays)
		for _, t := range tasks {
			if e.shiftToNight(t, limit) {
				out.shifted++
			}
		}
	}
	if policy.AvoidOpsOverlap {
		out.fixes = e.removeOverlaps(tasks)
	}
	return out
}

// shiftToNight re-anchors t at the night hour, drifting at most limit days
// from its original calendar day. Tasks already in the night window stay put.
func (e *Engine) shiftToNight(t *model.OpsTask, limit int) bool {
	span, ok := e.cal.Span(t.Start, t.End)
	if !ok {
		return false
	}
	if e.inNightWindow(span.Start) {
		return false
	}
	dur := roundedHours(span.Hours())
	y, m, d := span.Start.Date()
	loc := span.Start.Location()
	preferred := time.Date(y, m, d, e.cfg.NightHour, 0, 0, 0, loc)
	delta := interval.DayDelta(span.Start, preferred)
	delta = max(-limit, min(limit, delta))
	start := time.Date(y, m, d+delta, e.cfg.NightHour, 0, 0, 0, loc)
	t.Start = e.cal.Format(start)
	t.End = e.cal.Format(interval.AddHours(start, dur))
	t.Hours = dur
	return true
}

func (e *Engine) inNightWindow(t time.Time) bool {
	h := t.Hour()
	if e.cfg.NightHour > e.cfg.MorningHour {
		return h >= e.cfg.NightHour || h < e.cfg.MorningHour
	}
	return h >= e.cfg.NightHour && h < e.cfg.MorningHour
}

// removeOverlaps walks tasks in start order and pushes every task starting
// before the previous end to that end. It returns the number of shifts.
func (e *Engine) removeOverlaps(tasks []*model.OpsTask) int {
	type entry struct {
		task *model.OpsTask
		span interval.Window
	}
	entries := make([]entry, 0, len(tasks))
	for _, t := range tasks {
		if span, ok := e.cal.Span(t.Start, t.End); ok {
			entries = append(entries, entry{task: t, span: span})
		}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Or(a.span.Start.Compare(b.span.Start), cmp.Compare(a.task.ID, b.task.ID))
	})

	fixes := 0
	var lastEnd time.Time
	for i, en := range entries {
		end := en.span.End
		if i > 0 && en.span.Start.Before(lastEnd) {
			dur := roundedHours(en.span.Hours())
			end = interval.AddHours(lastEnd, dur)
			en.task.Start = e.cal.Format(lastEnd)
			en.task.End = e.cal.Format(end)
			en.task.Hours = dur
			fixes++
		}
		if i == 0 || end.After(lastEnd) {
			lastEnd = end
		}
	}
	return fixes
}

// clampMaintenance pulls same-day active work orders inside the business
// window without growing their duration. It returns the number adjusted.
func (e *Engine) clampMaintenance(wos []model.WorkOrder, bh model.BusinessHours, sc scope) int {
	n := 0
	for i := range wos {
		w := &wos[i]
		if !sc.has(w.VehicleID) || !w.Status.Active() {
			continue
		}
		span, ok := e.cal.Span(w.Start, w.End)
		if !ok || !interval.SameDay(span.Start, span.End) {
			continue
		}
		win := interval.ClampToBusinessWindow(span.Start, bh.Open, bh.Close)
		if win.Contains(span.Start, span.End) {
			continue
		}
		dur := math.Min(span.Hours(), win.Hours())
		start := span.Start
		if start.Before(win.Start) {
			start = win.Start
		}
		end := interval.AddHours(start, dur)
		if end.After(win.End) {
			end = win.End
			start = interval.AddHours(end, -dur)
		}
		w.Start = e.cal.Format(start)
		w.End = e.cal.Format(end)
		w.Hours = dur
		n++
	}
	return n
}

func roundedHours(h float64) float64 {
	return math.Max(1, math.Round(h))
}
