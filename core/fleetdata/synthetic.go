package fleetdata

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
	"github.com/kilianp07/fleetmaint/core/model"
)

// SyntheticConfig sizes a generated fleet.
type SyntheticConfig struct {
	Seed                 int64    `json:"seed" yaml:"seed"`
	Vehicles             int      `json:"vehicles" yaml:"vehicles"`
	Technicians          int      `json:"technicians" yaml:"technicians"`
	WorkOrdersPerVehicle int      `json:"work_orders_per_vehicle" yaml:"work_orders_per_vehicle"`
	OpsPerVehicle        int      `json:"ops_per_vehicle" yaml:"ops_per_vehicle"`
	Depots               []string `json:"depots" yaml:"depots"`
}

// SetDefaults fills zero values.
func (c *SyntheticConfig) SetDefaults() {
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Vehicles == 0 {
		c.Vehicles = 8
	}
	if c.Technicians == 0 {
		c.Technicians = 5
	}
	if c.WorkOrdersPerVehicle == 0 {
		c.WorkOrdersPerVehicle = 3
	}
	if c.OpsPerVehicle == 0 {
		c.OpsPerVehicle = 4
	}
	if len(c.Depots) == 0 {
		c.Depots = []string{"north", "south"}
	}
}

var skills = []string{"electrical", "brakes", "hvac", "body", "diagnostics"}

var templates = []struct {
	title string
	kind  model.WorkOrderType
	skill string
}{
	{"Oil service", model.TypePreventive, "diagnostics"},
	{"Brake pad replacement", model.TypeCorrective, "brakes"},
	{"Annual inspection", model.TypeInspection, "diagnostics"},
	{"HVAC filter service", model.TypePreventive, "hvac"},
	{"Door sensor repair", model.TypeCorrective, "electrical"},
	{"Body panel check", model.TypeOther, "body"},
}

var routes = []string{"Airport shuttle", "Depot transfer", "School run", "Night freight", "Charter"}

// SyntheticProvider generates a deterministic fleet from a seed. Each Init
// regenerates the same dataset.
type SyntheticProvider struct {
	holder
	cfg SyntheticConfig
	cal interval.Calendar
	log logger.Logger
}

// NewSyntheticProvider builds a generator over cal's horizon.
func NewSyntheticProvider(cfg SyntheticConfig, cal interval.Calendar, log logger.Logger) *SyntheticProvider {
	cfg.SetDefaults()
	return &SyntheticProvider{cfg: cfg, cal: cal, log: logger.OrNop(log)}
}

func (p *SyntheticProvider) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := p.generate(rand.New(rand.NewSource(p.cfg.Seed)))
	if err := d.Validate(); err != nil {
		return fmt.Errorf("synthetic dataset: %w", err)
	}
	p.set(d)
	p.log.Debugf("generated synthetic fleet seed=%d vehicles=%d", p.cfg.Seed, len(d.Vehicles))
	return nil
}

func (p *SyntheticProvider) generate(rng *rand.Rand) Dataset {
	var d Dataset
	for i := 1; i <= p.cfg.Vehicles; i++ {
		d.Vehicles = append(d.Vehicles, model.Vehicle{
			ID:    fmt.Sprintf("V%03d", i),
			Name:  fmt.Sprintf("Bus %d", 100+i),
			Depot: p.cfg.Depots[(i-1)%len(p.cfg.Depots)],
			Model: []string{"e-Citaro", "Urbino 12", "Lion's City"}[rng.Intn(3)],
		})
	}
	for i := 1; i <= p.cfg.Technicians; i++ {
		first := rng.Intn(len(skills))
		d.Technicians = append(d.Technicians, model.Technician{
			ID:     fmt.Sprintf("T-%02d", i),
			Name:   fmt.Sprintf("Technician %d", i),
			Depot:  p.cfg.Depots[(i-1)%len(p.cfg.Depots)],
			Skills: []string{skills[first], skills[(first+1+rng.Intn(len(skills)-1))%len(skills)]},
		})
	}

	woSeq, opsSeq := 0, 0
	days := p.cal.Days()
	for _, v := range d.Vehicles {
		for j := 0; j < p.cfg.WorkOrdersPerVehicle; j++ {
			woSeq++
			tpl := templates[rng.Intn(len(templates))]
			hours := float64(1 + rng.Intn(4))
			w := model.WorkOrder{
				ID:             fmt.Sprintf("WO-%03d", woSeq),
				VehicleID:      v.ID,
				Title:          tpl.title,
				Type:           tpl.kind,
				Priority:       []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical}[rng.Intn(4)],
				Status:         model.StatusOpen,
				Hours:          hours,
				RequiredSkills: []string{tpl.skill},
			}
			// A third stay unscheduled; some scheduled ones start outside business hours.
			if rng.Intn(3) > 0 {
				start := p.cal.At(rng.Intn(days), 5+rng.Intn(14))
				w.Status = model.StatusScheduled
				w.Start = p.cal.Format(start)
				w.End = p.cal.Format(interval.AddHours(start, hours))
			}
			d.WorkOrders = append(d.WorkOrders, w)
		}
		for j := 0; j < p.cfg.OpsPerVehicle; j++ {
			opsSeq++
			hours := float64(1 + rng.Intn(3))
			start := p.cal.At(rng.Intn(days), 6+rng.Intn(14))
			d.OpsTasks = append(d.OpsTasks, model.OpsTask{
				ID:        fmt.Sprintf("OPS-%d", opsSeq),
				VehicleID: v.ID,
				Title:     routes[rng.Intn(len(routes))],
				Start:     p.cal.Format(start),
				End:       p.cal.Format(interval.AddHours(start, hours)),
				Hours:     hours,
			})
		}
	}
	return d
}
