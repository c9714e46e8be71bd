package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/fleetmaint/core/events"
	coremon "github.com/kilianp07/fleetmaint/core/monitoring"
	"github.com/kilianp07/fleetmaint/internal/eventbus"
)

type recordMonitor struct {
	mu   sync.Mutex
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func (r *recordMonitor) captured() (error, map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err, r.tags
}

func TestPublishErrorCaptured(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	bus := eventbus.New[events.PlanEvent](4)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPlanPublisher(ctx, bus, &recordingClient{err: errors.New("net fail")}, PublisherOptions{})
	bus.Publish(acceptedEvent())

	deadline := time.Now().Add(time.Second)
	for {
		err, tags := mon.captured()
		if err != nil {
			if tags["module"] != "mqtt" || tags["plan_id"] != "plan-2" {
				t.Fatalf("tags not set: %v", tags)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("error not captured")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
