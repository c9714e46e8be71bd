package model

// BusinessHours is an hour-of-day window [Open, Close).
type BusinessHours struct {
	Open  int `json:"open" yaml:"open"`
	Close int `json:"close" yaml:"close"`
}

// Valid reports whether 0 <= Open < Close <= 24.
func (b BusinessHours) Valid() bool {
	return b.Open >= 0 && b.Open < b.Close && b.Close <= 24
}

// Span returns the window length in hours.
func (b BusinessHours) Span() float64 { return float64(b.Close - b.Open) }

// Policy describes the transformations requested from the policy pass.
// Unset fields disable the corresponding step.
type Policy struct {
	BusinessHours   *BusinessHours `json:"business_hours,omitempty" yaml:"business_hours,omitempty"`
	OpsShiftDays    *int           `json:"ops_shift_days,omitempty" yaml:"ops_shift_days,omitempty"`
	AvoidOpsOverlap bool           `json:"avoid_ops_overlap,omitempty" yaml:"avoid_ops_overlap,omitempty"`
	ForVehicle      string         `json:"for_vehicle,omitempty" yaml:"for_vehicle,omitempty"`
	VehicleScope    []string       `json:"vehicle_scope,omitempty" yaml:"vehicle_scope,omitempty"`
	DepotScope      []string       `json:"depot_scope,omitempty" yaml:"depot_scope,omitempty"`
}

// Scoped reports whether the policy restricts itself to a subset of the fleet.
func (p Policy) Scoped() bool {
	return p.ForVehicle != "" || len(p.VehicleScope) > 0 || len(p.DepotScope) > 0
}
