package audit

import (
	"context"

	"github.com/kilianp07/fleetmaint/core/events"
	coremon "github.com/kilianp07/fleetmaint/core/monitoring"
	"github.com/kilianp07/fleetmaint/infra/logger"
)

// PlanEvents is the subscription side of the plan event bus.
type PlanEvents interface {
	Subscribe() <-chan events.PlanEvent
	Unsubscribe(<-chan events.PlanEvent)
}

// StartRecorder appends every plan event to the journal until ctx is
// canceled or the bus is closed. The returned channel is closed once the
// recorder has stopped; events queued before Close are drained first.
func StartRecorder(ctx context.Context, bus PlanEvents, j Journal) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || j == nil {
		close(done)
		return done
	}
	log := logger.New("audit")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := j.Append(context.WithoutCancel(ctx), RecordFor(ev)); err != nil {
					log.Warnf("journal %s event for %s: %v", ev.Kind, ev.Snapshot.ID, err)
					coremon.CapturePlan("audit", ev.Snapshot.ID, err)
				}
			}
		}
	}()
	return done
}
