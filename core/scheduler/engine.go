package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
	"github.com/kilianp07/fleetmaint/core/model"
)

// Engine runs the scheduling passes over one horizon. It holds no plan
// state, so a single Engine can serve concurrent callers.
type Engine struct {
	cfg    HorizonConfig
	cal    interval.Calendar
	depots map[string]string
	log    logger.Logger
	now    func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithFleet registers the vehicle roster used to resolve depot scopes.
func WithFleet(vehicles []model.Vehicle) Option {
	return func(e *Engine) {
		e.depots = make(map[string]string, len(vehicles))
		for _, v := range vehicles {
			e.depots[v.ID] = v.Depot
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// WithClock overrides the clock stamping snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg HorizonConfig, opts ...Option) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("horizon config: %w", err)
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, cal: cal, log: logger.Nop{}, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Calendar returns the engine's calendar.
func (e *Engine) Calendar() interval.Calendar { return e.cal }

// Config returns the horizon configuration.
func (e *Engine) Config() HorizonConfig { return e.cfg }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }

// businessHours returns the policy window when valid, else the horizon default.
func (e *Engine) businessHours(bh *model.BusinessHours) model.BusinessHours {
	if bh != nil && bh.Valid() {
		return *bh
	}
	return e.cfg.BusinessHours()
}

// scope resolves the policy's vehicle restriction. A nil scope means every
// vehicle is in scope.
type scope map[string]bool

func (s scope) has(vehicleID string) bool {
	return s == nil || s[vehicleID]
}

func (e *Engine) resolveScope(p model.Policy) scope {
	if !p.Scoped() {
		return nil
	}
	s := scope{}
	if p.ForVehicle != "" {
		s[p.ForVehicle] = true
	}
	for _, id := range p.VehicleScope {
		s[id] = true
	}
	if len(p.DepotScope) > 0 {
		depots := make(map[string]bool, len(p.DepotScope))
		for _, d := range p.DepotScope {
			depots[d] = true
		}
		for id, depot := range e.depots {
			if depots[depot] {
				s[id] = true
			}
		}
	}
	return s
}
