package metrics

import (
	"context"

	"github.com/kilianp07/fleetmaint/core/events"
	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/infra/logger"
)

// PlanEvents is the subscription side of the plan event bus.
type PlanEvents interface {
	Subscribe() <-chan events.PlanEvent
	Unsubscribe(<-chan events.PlanEvent)
}

// StartEventCollector subscribes to the bus and records metrics for plan
// events. It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus PlanEvents, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %s event for %s: %v", ev.Kind, ev.Snapshot.ID, err)
				}
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev events.PlanEvent) error {
	snap := ev.Snapshot
	clashes := coremetrics.ClashEvent{PlanID: snap.ID, Status: snap.Status, Count: snap.Stats.Clashes, Time: ev.Time}
	switch ev.Kind {
	case events.KindProposed, events.KindMutated:
		src := coremetrics.SourcePolicy
		if ev.Kind == events.KindMutated {
			src = coremetrics.SourceMutations
			if r, ok := sink.(coremetrics.MutationRecorder); ok {
				if err := r.RecordMutations(coremetrics.MutationEvent{
					PlanID: snap.ID, Applied: ev.Applied, Skipped: ev.Skipped, Forwarded: ev.Forwarded, Time: ev.Time,
				}); err != nil {
					return err
				}
			}
		}
		if err := sink.RecordProposal(coremetrics.ProposalEvent{
			PlanID:      snap.ID,
			BaseID:      snap.BaseID,
			Source:      src,
			Moved:       snap.Moved,
			Scheduled:   snap.Scheduled,
			Unscheduled: snap.Unscheduled,
			Clashes:     snap.Stats.Clashes,
			Duration:    ev.Duration,
			Time:        ev.Time,
		}); err != nil {
			return err
		}
	case events.KindAccepted:
		if r, ok := sink.(coremetrics.AcceptRecorder); ok {
			if err := r.RecordAccept(coremetrics.AcceptEvent{
				PlanID: snap.ID, Version: snap.Version, Superseded: ev.Superseded, Stats: snap.Stats, Time: ev.Time,
			}); err != nil {
				return err
			}
		}
		clashes.Status = model.PlanAccepted
	default:
		return nil
	}
	if r, ok := sink.(coremetrics.ClashRecorder); ok {
		return r.RecordClashes(clashes)
	}
	return nil
}
