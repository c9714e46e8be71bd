package intent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/mutation"
)

var kindAliases = map[string]mutation.Kind{
	"moveworkorder": mutation.KindMoveWorkOrder,
	"movewo":        mutation.KindMoveWorkOrder,
	"move":          mutation.KindMoveWorkOrder,
	"reschedule":    mutation.KindMoveWorkOrder,

	"cancelworkorder": mutation.KindCancelWorkOrder,
	"cancelwo":        mutation.KindCancelWorkOrder,
	"cancel":          mutation.KindCancelWorkOrder,

	"addworkorder":    mutation.KindAddWorkOrder,
	"addwo":           mutation.KindAddWorkOrder,
	"add":             mutation.KindAddWorkOrder,
	"create":          mutation.KindAddWorkOrder,
	"createworkorder": mutation.KindAddWorkOrder,

	"scheduleworkorder": mutation.KindScheduleWorkOrder,
	"schedulewo":        mutation.KindScheduleWorkOrder,
	"schedule":          mutation.KindScheduleWorkOrder,
	"autoschedule":      mutation.KindScheduleWorkOrder,

	"moveops":     mutation.KindMoveOps,
	"moveopstask": mutation.KindMoveOps,
	"moveop":      mutation.KindMoveOps,

	"cancelops":     mutation.KindCancelOps,
	"cancelopstask": mutation.KindCancelOps,
	"cancelop":      mutation.KindCancelOps,

	"resourceedit": mutation.KindResourceEdit,
	"editresource": mutation.KindResourceEdit,
	"edit":         mutation.KindResourceEdit,
	"update":       mutation.KindResourceEdit,
}

// Keys that may carry the mutation tag, in lookup order.
var tagKeys = []string{"type", "op", "kind", "action"}

var (
	idKeys     = []string{"id", "workorderid", "woid", "opsid", "opstaskid", "taskid"}
	startKeys  = []string{"start", "starttime", "newstart", "from"}
	endKeys    = []string{"end", "endtime", "newend", "to"}
	hoursKeys  = []string{"hours", "duration", "durationhours"}
	woTypeKeys = []string{"workordertype", "wotype", "category"}
)

func decodeOne(raw json.RawMessage) mutation.Mutation {
	invalid := func(reason string) mutation.Mutation {
		return mutation.Invalid{Raw: compact(raw), Reason: reason}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return invalid("not an object")
	}
	f := fields(canonical(obj))

	kind, tagKey, ok := resolveKind(f)
	if !ok {
		return invalid(errNoKind.Error())
	}
	m, err := build(kind, tagKey, f)
	if err != nil {
		return invalid(err.Error())
	}
	return m
}

func resolveKind(f fields) (mutation.Kind, string, bool) {
	for _, key := range tagKeys {
		s, err := f.str(key)
		if err != nil || s == "" {
			continue
		}
		if k, ok := kindAliases[normKey(s)]; ok {
			return k, key, true
		}
	}
	return "", "", false
}

func build(kind mutation.Kind, tagKey string, f fields) (mutation.Mutation, error) {
	id, err := f.str(idKeys...)
	if err != nil {
		return nil, err
	}
	start, err := f.str(startKeys...)
	if err != nil {
		return nil, err
	}
	end, err := f.str(endKeys...)
	if err != nil {
		return nil, err
	}
	hours, err := f.num(hoursKeys...)
	if err != nil {
		return nil, err
	}
	needID := func() error {
		if id == "" {
			return fmt.Errorf("%s: missing id", kind)
		}
		return nil
	}

	switch kind {
	case mutation.KindMoveWorkOrder:
		if err := needID(); err != nil {
			return nil, err
		}
		return mutation.MoveWorkOrder{ID: id, Start: start, End: end, Hours: hours}, nil
	case mutation.KindCancelWorkOrder:
		if err := needID(); err != nil {
			return nil, err
		}
		return mutation.CancelWorkOrder{ID: id}, nil
	case mutation.KindScheduleWorkOrder:
		if err := needID(); err != nil {
			return nil, err
		}
		return mutation.ScheduleWorkOrder{ID: id, Hours: hours}, nil
	case mutation.KindMoveOps:
		if err := needID(); err != nil {
			return nil, err
		}
		return mutation.MoveOps{ID: id, Start: start, End: end, Hours: hours}, nil
	case mutation.KindCancelOps:
		if err := needID(); err != nil {
			return nil, err
		}
		return mutation.CancelOps{ID: id}, nil
	case mutation.KindAddWorkOrder:
		return buildAdd(tagKey, f, start, hours)
	case mutation.KindResourceEdit:
		return buildEdit(f, id)
	}
	return nil, errNoKind
}

func buildAdd(tagKey string, f fields, start string, hours *float64) (mutation.Mutation, error) {
	vehicle, err := f.str("vehicleid", "vehicle")
	if err != nil {
		return nil, err
	}
	if vehicle == "" {
		return nil, fmt.Errorf("%s: missing vehicle id", mutation.KindAddWorkOrder)
	}
	title, err := f.str("title", "name", "description")
	if err != nil {
		return nil, err
	}
	skills, err := f.list("requiredskills", "skills")
	if err != nil {
		return nil, err
	}
	add := mutation.AddWorkOrder{VehicleID: vehicle, Title: title, Hours: hours, RequiredSkills: skills, Start: start}

	if p, err := f.str("priority"); err != nil {
		return nil, err
	} else if p != "" {
		prio, ok := model.ParsePriority(p)
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", p)
		}
		add.Priority = prio
	}

	keys := woTypeKeys
	if tagKey != "type" {
		keys = append(append([]string(nil), woTypeKeys...), "type")
	}
	if t, err := f.str(keys...); err != nil {
		return nil, err
	} else if t != "" {
		wt, ok := parseWorkOrderType(t)
		if !ok {
			return nil, fmt.Errorf("unknown work order type %q", t)
		}
		add.Type = wt
	}
	return add, nil
}

func buildEdit(f fields, id string) (mutation.Mutation, error) {
	resource, err := f.str("resource", "entity", "target")
	if err != nil {
		return nil, err
	}
	field, err := f.str("field", "attribute")
	if err != nil {
		return nil, err
	}
	value, err := f.str("value", "newvalue")
	if err != nil {
		return nil, err
	}
	if id == "" {
		if id, err = f.str("resourceid", "technicianid"); err != nil {
			return nil, err
		}
	}
	edit := mutation.ResourceEdit{
		Resource: resourceName(resource),
		ID:       id,
		Field:    fieldName(field),
		Value:    value,
	}
	if edit.Resource == "" || edit.ID == "" || edit.Field == "" {
		return nil, fmt.Errorf("%s: resource, id and field required", mutation.KindResourceEdit)
	}
	return edit, nil
}

func resourceName(s string) string {
	switch normKey(s) {
	case "workorder", "wo", "workorders":
		return mutation.ResourceWorkOrder
	case "technician", "tech", "technicians":
		return mutation.ResourceTechnician
	case "vehicle", "vehicles":
		return mutation.ResourceVehicle
	}
	return s
}

func fieldName(s string) string {
	switch normKey(s) {
	case "technician", "technicianid", "tech", "assignee":
		return mutation.FieldTechnicianID
	}
	return s
}

func parseWorkOrderType(s string) (model.WorkOrderType, bool) {
	for _, t := range []model.WorkOrderType{model.TypePreventive, model.TypeCorrective, model.TypeInspection, model.TypeOther} {
		if normKey(string(t)) == normKey(s) {
			return t, true
		}
	}
	return "", false
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
