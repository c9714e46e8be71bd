package mutation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/scheduler"
)

var (
	errMissingTimes   = errors.New("start or end required")
	errEndBeforeStart = errors.New("end must be after start")
)

// Result is the outcome of one batch. WorkOrders and OpsTasks are new slices;
// the inputs are never modified.
type Result struct {
	WorkOrders []model.WorkOrder
	OpsTasks   []model.OpsTask
	Notes      []string
	Applied    int
	Skipped    int
	Forwarded  []ResourceEdit
}

// Applier runs mutation batches against a plan. Batches are order dependent
// and run on a single goroutine.
type Applier struct {
	engine *scheduler.Engine
	cal    interval.Calendar
	log    logger.Logger
}

// NewApplier builds an Applier on the engine's horizon.
func NewApplier(engine *scheduler.Engine, log logger.Logger) *Applier {
	return &Applier{engine: engine, cal: engine.Calendar(), log: logger.OrNop(log)}
}

type batch struct {
	*Applier
	policy model.Policy
	res    Result
}

// Apply processes mutations in order. Each one observes the effects of the
// previous ones; failures become notes and never abort the batch.
func (a *Applier) Apply(workOrders []model.WorkOrder, opsTasks []model.OpsTask, mutations []Mutation, policy model.Policy) Result {
	b := &batch{
		Applier: a,
		policy:  policy,
		res: Result{
			WorkOrders: model.CloneWorkOrders(workOrders),
			OpsTasks:   model.CloneOpsTasks(opsTasks),
		},
	}
	for _, m := range mutations {
		var note string
		var err error
		switch m := m.(type) {
		case MoveWorkOrder:
			note, err = b.moveWorkOrder(m)
		case CancelWorkOrder:
			note, err = b.cancelWorkOrder(m)
		case AddWorkOrder:
			note, err = b.addWorkOrder(m)
		case ScheduleWorkOrder:
			note, err = b.scheduleWorkOrder(m)
		case MoveOps:
			note, err = b.moveOps(m)
		case CancelOps:
			note, err = b.cancelOps(m)
		case ResourceEdit:
			note, err = b.resourceEdit(m)
		case Invalid:
			err = fmt.Errorf("unrecognized mutation %s", m.Raw)
			if m.Reason != "" {
				err = fmt.Errorf("unrecognized mutation (%s): %s", m.Reason, m.Raw)
			}
		case nil:
			err = errors.New("empty mutation")
		default:
			err = fmt.Errorf("unsupported mutation kind %q", m.Kind())
		}
		if err != nil {
			b.res.Skipped++
			b.res.Notes = append(b.res.Notes, "Skipped: "+err.Error()+".")
			a.log.Debugf("mutation skipped: %v", err)
			continue
		}
		b.res.Applied++
		if note != "" {
			b.res.Notes = append(b.res.Notes, note)
		}
	}
	b.normalize()
	return b.res
}

func (b *batch) findWorkOrder(id string) (int, error) {
	for i := range b.res.WorkOrders {
		if b.res.WorkOrders[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("work order %s not found", id)
}

func (b *batch) moveWorkOrder(m MoveWorkOrder) (string, error) {
	i, err := b.findWorkOrder(m.ID)
	if err != nil {
		return "", fmt.Errorf("move: %w", err)
	}
	w := &b.res.WorkOrders[i]
	start, end, dur, err := b.resolveTimes(m.Start, m.End, m.Hours, w.Start, w.End, w.Hours)
	if err != nil {
		return "", fmt.Errorf("move %s: %w", w.ID, err)
	}
	w.Start, w.End, w.Hours = b.cal.Format(start), b.cal.Format(end), dur
	w.Status = model.StatusScheduled
	return fmt.Sprintf("Moved %s to %s-%s.", w.ID, w.Start, w.End), nil
}

func (b *batch) cancelWorkOrder(m CancelWorkOrder) (string, error) {
	i, err := b.findWorkOrder(m.ID)
	if err != nil {
		return "", fmt.Errorf("cancel: %w", err)
	}
	w := &b.res.WorkOrders[i]
	w.Status = model.StatusClosed
	w.Start, w.End = "", ""
	return fmt.Sprintf("Cancelled %s.", w.ID), nil
}

func (b *batch) addWorkOrder(m AddWorkOrder) (string, error) {
	if strings.TrimSpace(m.VehicleID) == "" {
		return "", errors.New("add: vehicle id required")
	}
	w := model.WorkOrder{
		ID:             b.nextWorkOrderID(),
		VehicleID:      m.VehicleID,
		Title:          strings.TrimSpace(m.Title),
		Type:           m.Type,
		Priority:       m.Priority,
		Status:         model.StatusOpen,
		Hours:          b.engine.Config().DefaultTaskHours,
		RequiredSkills: append([]string(nil), m.RequiredSkills...),
	}
	if w.Title == "" {
		w.Title = "Maintenance"
	}
	if w.Priority == "" {
		w.Priority = model.PriorityMedium
	}
	if w.Type == "" {
		w.Type = inferType(w.Title)
	}
	if m.Hours != nil && *m.Hours > 0 {
		w.Hours = max(*m.Hours, interval.MinDurationHours)
	}
	if m.Start != "" {
		start, err := b.parse(m.Start)
		if err != nil {
			return "", fmt.Errorf("add: %w", err)
		}
		w.Start = b.cal.Format(start)
		w.End = b.cal.Format(interval.AddHours(start, w.Hours))
		w.Status = model.StatusScheduled
	}
	b.res.WorkOrders = append(b.res.WorkOrders, w)
	if w.Status == model.StatusOpen {
		return fmt.Sprintf("Added %s on %s (unscheduled).", w.ID, w.VehicleID), nil
	}
	return fmt.Sprintf("Added %s on %s at %s-%s.", w.ID, w.VehicleID, w.Start, w.End), nil
}

func (b *batch) scheduleWorkOrder(m ScheduleWorkOrder) (string, error) {
	i, err := b.findWorkOrder(m.ID)
	if err != nil {
		return "", fmt.Errorf("schedule: %w", err)
	}
	w := &b.res.WorkOrders[i]
	if w.Status == model.StatusClosed {
		return "", fmt.Errorf("schedule: work order %s is closed", w.ID)
	}
	hours := w.Hours
	if m.Hours != nil && *m.Hours > 0 {
		hours = *m.Hours
	}
	if hours <= 0 {
		hours = b.engine.Config().DefaultTaskHours
	}
	others := make([]model.WorkOrder, 0, len(b.res.WorkOrders)-1)
	others = append(others, b.res.WorkOrders[:i]...)
	others = append(others, b.res.WorkOrders[i+1:]...)
	slot := b.engine.FindSlotOrFallback(w.VehicleID, hours, others, b.res.OpsTasks, b.policy.BusinessHours)

	w.Start, w.End = slot.Start, slot.End
	w.Hours = max(hours, interval.MinDurationHours)
	w.Status = model.StatusScheduled
	if slot.Infeasible {
		return fmt.Sprintf("Scheduled %s at default slot %s-%s; no free %.2fh window on %s, check for double booking.", w.ID, w.Start, w.End, hours, w.VehicleID), nil
	}
	return fmt.Sprintf("Scheduled %s at %s-%s.", w.ID, w.Start, w.End), nil
}

func (b *batch) moveOps(m MoveOps) (string, error) {
	i, err := resolveOps(b.res.OpsTasks, m.ID)
	if err != nil {
		return "", fmt.Errorf("move ops: %w", err)
	}
	o := &b.res.OpsTasks[i]
	start, end, dur, err := b.resolveTimes(m.Start, m.End, m.Hours, o.Start, o.End, o.Hours)
	if err != nil {
		return "", fmt.Errorf("move ops %s: %w", o.ID, err)
	}
	o.Start, o.End, o.Hours = b.cal.Format(start), b.cal.Format(end), dur
	return fmt.Sprintf("Moved ops %s to %s-%s.", o.ID, o.Start, o.End), nil
}

func (b *batch) cancelOps(m CancelOps) (string, error) {
	i, err := resolveOps(b.res.OpsTasks, m.ID)
	if err != nil {
		return "", fmt.Errorf("cancel ops: %w", err)
	}
	id := b.res.OpsTasks[i].ID
	b.res.OpsTasks = append(b.res.OpsTasks[:i], b.res.OpsTasks[i+1:]...)
	return fmt.Sprintf("Cancelled ops %s.", id), nil
}

func (b *batch) resourceEdit(m ResourceEdit) (string, error) {
	if m.Resource == "" || m.ID == "" || m.Field == "" {
		return "", errors.New("resource edit: resource, id and field required")
	}
	if m.Resource == ResourceWorkOrder && m.Field == FieldTechnicianID {
		i, err := b.findWorkOrder(m.ID)
		if err != nil {
			return "", fmt.Errorf("assign technician: %w", err)
		}
		b.res.WorkOrders[i].TechnicianID = m.Value
		return fmt.Sprintf("Assigned technician %s to %s.", m.Value, m.ID), nil
	}
	b.res.Forwarded = append(b.res.Forwarded, m)
	return fmt.Sprintf("Forwarded %s %s edit (%s=%s).", m.Resource, m.ID, m.Field, m.Value), nil
}

// resolveTimes computes the new span of a record. The missing side is
// derived from hours, then the current hours, then the current span.
func (b *batch) resolveTimes(startIn, endIn string, hours *float64, curStart, curEnd string, curHours float64) (time.Time, time.Time, float64, error) {
	if startIn == "" && endIn == "" {
		return time.Time{}, time.Time{}, 0, errMissingTimes
	}
	var start, end time.Time
	var err error
	if startIn != "" {
		if start, err = b.parse(startIn); err != nil {
			return time.Time{}, time.Time{}, 0, err
		}
	}
	if endIn != "" {
		if end, err = b.parse(endIn); err != nil {
			return time.Time{}, time.Time{}, 0, err
		}
	}
	if startIn != "" && endIn != "" {
		if !end.After(start) {
			return time.Time{}, time.Time{}, 0, errEndBeforeStart
		}
		// Spans under the minimum are widened so hours always match end-start.
		if end.Sub(start).Hours() < interval.MinDurationHours {
			end = interval.AddHours(start, interval.MinDurationHours)
		}
		return start, end, interval.DurationHours(start, end), nil
	}

	dur := curHours
	if hours != nil && *hours > 0 {
		dur = *hours
	} else if dur <= 0 {
		dur = b.cal.DurationHours(curStart, curEnd, b.engine.Config().DefaultTaskHours)
	}
	dur = max(dur, interval.MinDurationHours)
	if startIn != "" {
		return start, interval.AddHours(start, dur), dur, nil
	}
	return interval.AddHours(end, -dur), end, dur, nil
}

func (b *batch) parse(s string) (time.Time, error) {
	t, err := b.cal.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return b.cal.SnapYear(t), nil
}

// normalize rewrites every timestamp to local wall-clock form.
func (b *batch) normalize() {
	fix := func(kind, id string, v *string) {
		if *v == "" {
			return
		}
		out, err := b.cal.Normalize(*v)
		if err != nil {
			b.res.Notes = append(b.res.Notes, fmt.Sprintf("Left %s %s timestamp %q as is: %v.", kind, id, *v, err))
			return
		}
		*v = out
	}
	for i := range b.res.WorkOrders {
		w := &b.res.WorkOrders[i]
		fix("work order", w.ID, &w.Start)
		fix("work order", w.ID, &w.End)
	}
	for i := range b.res.OpsTasks {
		o := &b.res.OpsTasks[i]
		fix("ops", o.ID, &o.Start)
		fix("ops", o.ID, &o.End)
	}
}

func (b *batch) nextWorkOrderID() string {
	highest := 0
	for _, w := range b.res.WorkOrders {
		rest, ok := strings.CutPrefix(strings.ToUpper(w.ID), "WO-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("WO-%03d", highest+1)
}

// resolveOps finds an ops task by exact id, then case-insensitively, then by
// numeric suffix ("7", "ops7" and "OPS-007" all match "OPS-7").
func resolveOps(tasks []model.OpsTask, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, errors.New("ops id required")
	}
	for i := range tasks {
		if tasks[i].ID == ref {
			return i, nil
		}
	}
	for i := range tasks {
		if strings.EqualFold(tasks[i].ID, ref) {
			return i, nil
		}
	}
	if n, ok := numericSuffix(ref); ok {
		found := -1
		for i := range tasks {
			if m, ok := numericSuffix(tasks[i].ID); ok && m == n {
				if found >= 0 {
					return -1, fmt.Errorf("ops task %s is ambiguous", ref)
				}
				found = i
			}
		}
		if found >= 0 {
			return found, nil
		}
	}
	return -1, fmt.Errorf("ops task %s not found", ref)
}

func numericSuffix(s string) (int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[i:])
	return n, err == nil
}

func inferType(title string) model.WorkOrderType {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "inspect"):
		return model.TypeInspection
	case strings.Contains(t, "repair"), strings.Contains(t, "fix"), strings.Contains(t, "replace"):
		return model.TypeCorrective
	case strings.Contains(t, "service"), strings.Contains(t, "oil"), strings.Contains(t, "preventive"):
		return model.TypePreventive
	}
	return model.TypeOther
}
