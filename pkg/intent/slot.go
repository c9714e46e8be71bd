package intent

import (
	"encoding/json"
	"fmt"

	"github.com/kilianp07/fleetmaint/core/model"
)

// SlotRequest asks for the earliest free slot of a vehicle.
type SlotRequest struct {
	VehicleID     string
	Hours         float64
	BusinessHours *model.BusinessHours
}

// DecodeSlotRequest reads {"vehicle_id": ..., "hours": ..., "business_hours": ...}.
// Hours and business hours are optional.
func DecodeSlotRequest(data []byte) (SlotRequest, error) {
	std, err := standardize(data)
	if err != nil {
		return SlotRequest{}, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(std, &obj); err != nil {
		return SlotRequest{}, fmt.Errorf("decode slot request: %w", err)
	}
	f := fields(canonical(obj))

	var req SlotRequest
	if req.VehicleID, err = f.str("vehicleid", "vehicle", "id"); err != nil {
		return SlotRequest{}, fmt.Errorf("decode slot request: %w", err)
	}
	if req.VehicleID == "" {
		return SlotRequest{}, fmt.Errorf("decode slot request: vehicle_id required")
	}
	hours, err := f.num("hours", "hoursneeded", "duration")
	if err != nil {
		return SlotRequest{}, fmt.Errorf("decode slot request: %w", err)
	}
	if hours != nil {
		req.Hours = *hours
	}
	if bh, ok := f.lookup("businesshours", "businesswindow", "workinghours"); ok {
		if req.BusinessHours, err = decodeBusinessHours(bh); err != nil {
			return SlotRequest{}, err
		}
	}
	return req, nil
}
