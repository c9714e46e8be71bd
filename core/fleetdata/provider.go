// Package fleetdata supplies the vehicles, technicians, work orders and ops
// tasks a plan is bootstrapped from.
package fleetdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/fleetmaint/core/model"
)

// ErrNotInitialized is returned by accessors called before Init.
var ErrNotInitialized = errors.New("fleet data provider not initialized")

// Provider exposes a fleet dataset. Init must succeed before any accessor is
// used; accessors return copies the caller may modify.
type Provider interface {
	Init(ctx context.Context) error
	Vehicles() ([]model.Vehicle, error)
	Technicians() ([]model.Technician, error)
	WorkOrders() ([]model.WorkOrder, error)
	OpsTasks() ([]model.OpsTask, error)
}

// Dataset is the serialized form of a fleet.
type Dataset struct {
	Vehicles    []model.Vehicle    `json:"vehicles" yaml:"vehicles"`
	Technicians []model.Technician `json:"technicians" yaml:"technicians"`
	WorkOrders  []model.WorkOrder  `json:"work_orders" yaml:"work_orders"`
	OpsTasks    []model.OpsTask    `json:"ops_tasks" yaml:"ops_tasks"`
}

// Validate checks id uniqueness and that every record points at a known vehicle.
func (d Dataset) Validate() error {
	vehicles := make(map[string]bool, len(d.Vehicles))
	for _, v := range d.Vehicles {
		if v.ID == "" {
			return errors.New("vehicle without id")
		}
		if vehicles[v.ID] {
			return fmt.Errorf("duplicate vehicle %s", v.ID)
		}
		vehicles[v.ID] = true
	}
	seen := map[string]bool{}
	for _, t := range d.Technicians {
		if t.ID == "" || seen[t.ID] {
			return fmt.Errorf("missing or duplicate technician id %q", t.ID)
		}
		seen[t.ID] = true
	}
	for _, w := range d.WorkOrders {
		if w.ID == "" || seen[w.ID] {
			return fmt.Errorf("missing or duplicate work order id %q", w.ID)
		}
		seen[w.ID] = true
		if !vehicles[w.VehicleID] {
			return fmt.Errorf("work order %s: unknown vehicle %q", w.ID, w.VehicleID)
		}
	}
	for _, o := range d.OpsTasks {
		if o.ID == "" || seen[o.ID] {
			return fmt.Errorf("missing or duplicate ops task id %q", o.ID)
		}
		seen[o.ID] = true
		if !vehicles[o.VehicleID] {
			return fmt.Errorf("ops task %s: unknown vehicle %q", o.ID, o.VehicleID)
		}
	}
	return nil
}

// holder guards a loaded dataset for the provider implementations.
type holder struct {
	mu    sync.RWMutex
	ready bool
	data  Dataset
}

func (h *holder) set(d Dataset) {
	h.mu.Lock()
	h.data = d
	h.ready = true
	h.mu.Unlock()
}

func (h *holder) get() (Dataset, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.ready {
		return Dataset{}, ErrNotInitialized
	}
	return h.data, nil
}

func (h *holder) Vehicles() ([]model.Vehicle, error) {
	d, err := h.get()
	if err != nil {
		return nil, err
	}
	return append([]model.Vehicle(nil), d.Vehicles...), nil
}

func (h *holder) Technicians() ([]model.Technician, error) {
	d, err := h.get()
	if err != nil {
		return nil, err
	}
	out := make([]model.Technician, len(d.Technicians))
	for i, t := range d.Technicians {
		t.Skills = append([]string(nil), t.Skills...)
		out[i] = t
	}
	return out, nil
}

func (h *holder) WorkOrders() ([]model.WorkOrder, error) {
	d, err := h.get()
	if err != nil {
		return nil, err
	}
	return model.CloneWorkOrders(d.WorkOrders), nil
}

func (h *holder) OpsTasks() ([]model.OpsTask, error) {
	d, err := h.get()
	if err != nil {
		return nil, err
	}
	return model.CloneOpsTasks(d.OpsTasks), nil
}

// Load initializes p and returns its whole dataset.
func Load(ctx context.Context, p Provider) (Dataset, error) {
	if err := p.Init(ctx); err != nil {
		return Dataset{}, err
	}
	var d Dataset
	var err error
	if d.Vehicles, err = p.Vehicles(); err != nil {
		return Dataset{}, err
	}
	if d.Technicians, err = p.Technicians(); err != nil {
		return Dataset{}, err
	}
	if d.WorkOrders, err = p.WorkOrders(); err != nil {
		return Dataset{}, err
	}
	if d.OpsTasks, err = p.OpsTasks(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}
