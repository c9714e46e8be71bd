package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/fleetmaint/core/model"
)

func decodePolicy(raw json.RawMessage) (model.Policy, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	f := fields(canonical(obj))

	var p model.Policy
	var err error
	if bh, ok := f.lookup("businesshours", "businesswindow", "workinghours"); ok {
		if p.BusinessHours, err = decodeBusinessHours(bh); err != nil {
			return model.Policy{}, err
		}
	}
	if p.OpsShiftDays, err = f.integer("opsshiftdays", "shiftopsdays", "opsshift"); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if p.AvoidOpsOverlap, err = f.boolean("avoidopsoverlap", "noopsoverlap", "deoverlapops"); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if p.ForVehicle, err = f.str("forvehicle", "vehicleid", "vehicle"); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if p.VehicleScope, err = f.list("vehiclescope", "vehicles"); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if p.DepotScope, err = f.list("depotscope", "depots", "depot"); err != nil {
		return model.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	return p, nil
}

// decodeBusinessHours accepts {"open":8,"close":17}, [8,17] or "08:00-17:00".
func decodeBusinessHours(raw json.RawMessage) (*model.BusinessHours, error) {
	var bh model.BusinessHours
	var pair []int
	var text string
	var obj map[string]json.RawMessage
	switch {
	case json.Unmarshal(raw, &pair) == nil:
		if len(pair) != 2 {
			return nil, fmt.Errorf("business hours: expected [open, close], got %d values", len(pair))
		}
		bh = model.BusinessHours{Open: pair[0], Close: pair[1]}
	case json.Unmarshal(raw, &text) == nil:
		from, to, ok := strings.Cut(text, "-")
		if !ok {
			return nil, fmt.Errorf("business hours: cannot read %q", text)
		}
		var err error
		if bh.Open, err = parseHour(from); err != nil {
			return nil, err
		}
		if bh.Close, err = parseHour(to); err != nil {
			return nil, err
		}
	case json.Unmarshal(raw, &obj) == nil:
		f := fields(canonical(obj))
		o, err := f.integer("open", "start", "from")
		if err != nil {
			return nil, fmt.Errorf("business hours: %w", err)
		}
		c, err := f.integer("close", "end", "to")
		if err != nil {
			return nil, fmt.Errorf("business hours: %w", err)
		}
		if o == nil || c == nil {
			return nil, fmt.Errorf("business hours: open and close required")
		}
		bh = model.BusinessHours{Open: *o, Close: *c}
	default:
		return nil, fmt.Errorf("business hours: unsupported value %s", compact(raw))
	}
	if !bh.Valid() {
		return nil, fmt.Errorf("business hours: invalid window [%d,%d]", bh.Open, bh.Close)
	}
	return &bh, nil
}

func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if h, m, ok := strings.Cut(s, ":"); ok {
		if strings.Trim(m, "0") != "" {
			return 0, fmt.Errorf("business hours: %q is not on the hour", s)
		}
		s = h
	}
	h, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(s), "h"))
	if err != nil {
		return 0, fmt.Errorf("business hours: %q is not an hour", s)
	}
	return h, nil
}
