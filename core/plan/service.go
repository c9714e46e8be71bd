package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/fleetdata"
	"github.com/kilianp07/fleetmaint/core/logger"
	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/mutation"
	"github.com/kilianp07/fleetmaint/core/scheduler"
)

// CurrentID resolves to the accepted snapshot wherever an id is expected.
const CurrentID = "current"

var (
	ErrNotFound        = errors.New("plan not found")
	ErrNotPreview      = errors.New("plan is not a preview")
	ErrStalePreview    = errors.New("preview was derived from a superseded plan")
	ErrNotBootstrapped = errors.New("plan service not bootstrapped")
	ErrInvalidRequest  = errors.New("invalid request")
)

// EventPublisher receives plan lifecycle events. eventbus.Bus satisfies it.
type EventPublisher interface {
	Publish(events.PlanEvent)
}

// ApplyResult is a mutation preview together with the batch outcome.
type ApplyResult struct {
	Snapshot  model.Snapshot          `json:"plan"`
	Applied   int                     `json:"applied"`
	Skipped   int                     `json:"skipped"`
	Forwarded []mutation.ResourceEdit `json:"forwarded,omitempty"`
}

// Service owns the accepted plan and its previews. Methods are safe for
// concurrent use; they run one at a time.
//
// A preview's Version is the accepted version it derives from. Accepting it
// bumps the version, so previews of an older plan are detected as stale.
type Service struct {
	mu       sync.Mutex
	engine   *scheduler.Engine
	applier  *mutation.Applier
	store    Store
	events   EventPublisher
	log      logger.Logger
	accepted string
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes lifecycle events to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

// NewService builds a Service. A nil store falls back to a MemoryStore.
func NewService(engine *scheduler.Engine, store Store, opts ...Option) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Service{engine: engine, store: store, log: logger.Nop{}}
	for _, o := range opts {
		o(s)
	}
	s.applier = mutation.NewApplier(engine, s.log)
	return s
}

// Bootstrap sets the accepted plan. A store that already holds an accepted
// snapshot is resumed as is; otherwise version 1 is built from p, which must
// already be initialized.
func (s *Service) Bootstrap(ctx context.Context, p fleetdata.Provider) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list snapshots: %w", err)
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Status == model.PlanAccepted {
			s.accepted = all[i].ID
			s.log.Infof("resumed accepted plan %s version %d", all[i].ID, all[i].Version)
			return all[i], nil
		}
	}

	wos, err := p.WorkOrders()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("bootstrap work orders: %w", err)
	}
	ops, err := p.OpsTasks()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("bootstrap ops tasks: %w", err)
	}
	snap := s.engine.Summarize(wos, ops, wos, ops)
	snap.ID = uuid.NewString()
	snap.Version = 1
	snap.Status = model.PlanAccepted
	snap.When = s.engine.Now()
	snap.Rationale = []string{fmt.Sprintf("Loaded %d work order(s) and %d ops task(s).", len(wos), len(ops))}
	if err := s.store.Save(ctx, snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("save accepted plan: %w", err)
	}
	s.accepted = snap.ID
	s.log.Infof("bootstrapped plan %s: %d work orders, %d ops tasks, %d clashes",
		snap.ID, len(wos), len(ops), snap.Stats.Clashes)
	return snap.Clone(), nil
}

// Accepted returns the current accepted plan.
func (s *Service) Accepted(ctx context.Context) (model.Snapshot, error) {
	return s.Get(ctx, CurrentID)
}

// Get returns the snapshot with the given id.
func (s *Service) Get(ctx context.Context, id string) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

// Previews lists the open previews, oldest first.
func (s *Service) Previews(ctx context.Context) ([]model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]model.Snapshot, 0, len(all))
	for _, snap := range all {
		if snap.Status == model.PlanPreview {
			out = append(out, snap)
		}
	}
	return out, nil
}

// Propose runs the policy pass on baseID and stores the result as a preview.
func (s *Service) Propose(ctx context.Context, baseID string, policy model.Policy) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	base, err := s.load(ctx, baseID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if policy.BusinessHours != nil && !policy.BusinessHours.Valid() {
		return model.Snapshot{}, fmt.Errorf("business hours %d-%d: %w", policy.BusinessHours.Open, policy.BusinessHours.Close, ErrInvalidRequest)
	}
	snap := s.engine.ProposeSchedule(base.WorkOrders, base.OpsTasks, policy)
	if err := s.savePreview(ctx, &snap, base); err != nil {
		return model.Snapshot{}, err
	}
	s.publish(events.PlanEvent{Kind: events.KindProposed, Snapshot: snap.Clone(), Duration: time.Since(start)})
	s.log.Infof("proposed plan %s from %s: %d moved", snap.ID, base.ID, snap.Moved)
	return snap, nil
}

// Apply runs a mutation batch on baseID and stores the result as a preview.
func (s *Service) Apply(ctx context.Context, baseID string, mutations []mutation.Mutation, policy model.Policy) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	base, err := s.load(ctx, baseID)
	if err != nil {
		return ApplyResult{}, err
	}
	if len(mutations) == 0 {
		return ApplyResult{}, fmt.Errorf("empty mutation batch: %w", ErrInvalidRequest)
	}
	res := s.applier.Apply(base.WorkOrders, base.OpsTasks, mutations, policy)
	snap := s.engine.Summarize(res.WorkOrders, res.OpsTasks, base.WorkOrders, base.OpsTasks)
	snap.Status = model.PlanPreview
	snap.When = s.engine.Now()
	snap.Notes = res.Notes
	snap.Rationale = []string{fmt.Sprintf("Applied %d mutation(s); %d skipped.", res.Applied, res.Skipped)}
	if err := s.savePreview(ctx, &snap, base); err != nil {
		return ApplyResult{}, err
	}
	s.publish(events.PlanEvent{
		Kind:      events.KindMutated,
		Snapshot:  snap.Clone(),
		Applied:   res.Applied,
		Skipped:   res.Skipped,
		Forwarded: len(res.Forwarded),
		Duration:  time.Since(start),
	})
	return ApplyResult{Snapshot: snap, Applied: res.Applied, Skipped: res.Skipped, Forwarded: res.Forwarded}, nil
}

// Accept promotes a preview to the accepted plan and supersedes the previous one.
func (s *Service) Accept(ctx context.Context, previewID string) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, err := s.load(ctx, previewID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if preview.Status != model.PlanPreview {
		return model.Snapshot{}, fmt.Errorf("accept %s (%s): %w", preview.ID, preview.Status, ErrNotPreview)
	}
	current, err := s.load(ctx, CurrentID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if preview.Version != current.Version {
		return model.Snapshot{}, fmt.Errorf("accept %s: based on version %d, current is %d: %w",
			preview.ID, preview.Version, current.Version, ErrStalePreview)
	}

	preview.Status = model.PlanAccepted
	preview.Version = current.Version + 1
	preview.When = s.engine.Now()
	current.Status = model.PlanSuperseded
	if err := s.store.Save(ctx, current); err != nil {
		return model.Snapshot{}, fmt.Errorf("supersede %s: %w", current.ID, err)
	}
	if err := s.store.Save(ctx, preview); err != nil {
		current.Status = model.PlanAccepted
		if rbErr := s.store.Save(ctx, current); rbErr != nil {
			s.log.Errorf("restore accepted plan %s: %v", current.ID, rbErr)
		}
		return model.Snapshot{}, fmt.Errorf("accept %s: %w", preview.ID, err)
	}
	s.accepted = preview.ID
	s.publish(events.PlanEvent{Kind: events.KindAccepted, Snapshot: preview.Clone(), Superseded: current.ID})
	s.log.Infof("accepted plan %s version %d, superseding %s", preview.ID, preview.Version, current.ID)
	return preview, nil
}

// Discard deletes a preview. Accepted and superseded plans cannot be discarded.
func (s *Service) Discard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if snap.Status != model.PlanPreview {
		return fmt.Errorf("discard %s (%s): %w", snap.ID, snap.Status, ErrNotPreview)
	}
	if err := s.store.Delete(ctx, snap.ID); err != nil {
		return fmt.Errorf("discard %s: %w", snap.ID, err)
	}
	s.publish(events.PlanEvent{Kind: events.KindDiscarded, Snapshot: snap})
	return nil
}

// Clashes reports maintenance-versus-ops overlaps of a snapshot.
func (s *Service) Clashes(ctx context.Context, id string) ([]model.Clash, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeClashes(snap.WorkOrders, snap.OpsTasks), nil
}

// Slot finds the earliest free slot for vehicleID in a snapshot. hours <= 0
// uses the configured default task length; a nil bh uses the horizon's
// business hours. The returned slot is flagged Infeasible when no gap exists.
func (s *Service) Slot(ctx context.Context, id, vehicleID string, hours float64, bh *model.BusinessHours) (model.Slot, error) {
	if vehicleID == "" {
		return model.Slot{}, fmt.Errorf("vehicle id required: %w", ErrInvalidRequest)
	}
	if bh != nil && !bh.Valid() {
		return model.Slot{}, fmt.Errorf("business hours %d-%d: %w", bh.Open, bh.Close, ErrInvalidRequest)
	}
	snap, err := s.Get(ctx, id)
	if err != nil {
		return model.Slot{}, err
	}
	if hours <= 0 {
		hours = s.engine.Config().DefaultTaskHours
	}
	return s.engine.FindSlotOrFallback(vehicleID, hours, snap.WorkOrders, snap.OpsTasks, bh), nil
}

// Diff lists the per-item changes turning snapshot a into snapshot b.
func (s *Service) Diff(ctx context.Context, a, b string) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, err := s.load(ctx, a)
	if err != nil {
		return nil, err
	}
	to, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}
	return Diff(from, to), nil
}

func (s *Service) load(ctx context.Context, id string) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	if id == "" || id == CurrentID {
		if s.accepted == "" {
			return model.Snapshot{}, ErrNotBootstrapped
		}
		id = s.accepted
	}
	return s.store.Load(ctx, id)
}

func (s *Service) savePreview(ctx context.Context, snap *model.Snapshot, base model.Snapshot) error {
	snap.ID = uuid.NewString()
	snap.BaseID = base.ID
	snap.Version = base.Version
	if err := s.store.Save(ctx, *snap); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

func (s *Service) publish(ev events.PlanEvent) {
	if s.events == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.events.Publish(ev)
}
