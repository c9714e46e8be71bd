package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/model"
	coremon "github.com/kilianp07/fleetmaint/core/monitoring"
	coremqtt "github.com/kilianp07/fleetmaint/core/mqtt"
	"github.com/kilianp07/fleetmaint/infra/logger"
)

// PlanEvents is the subscription side of the plan event bus.
type PlanEvents interface {
	Subscribe() <-chan events.PlanEvent
	Unsubscribe(<-chan events.PlanEvent)
}

// PlanMessage is the retained payload announcing an accepted plan.
type PlanMessage struct {
	MessageID  string      `json:"message_id"`
	PlanID     string      `json:"plan_id"`
	Version    int         `json:"version"`
	Superseded string      `json:"superseded,omitempty"`
	AcceptedAt time.Time   `json:"accepted_at"`
	Vehicles   []string    `json:"vehicles"`
	Stats      model.Stats `json:"stats"`
}

// VehicleSchedule is the per-vehicle slice of an accepted plan.
type VehicleSchedule struct {
	MessageID  string            `json:"message_id"`
	PlanID     string            `json:"plan_id"`
	Version    int               `json:"version"`
	VehicleID  string            `json:"vehicle_id"`
	WorkOrders []model.WorkOrder `json:"workorders"`
	OpsTasks   []model.OpsTask   `json:"ops_tasks"`
}

// PublisherOptions tunes StartPlanPublisher.
type PublisherOptions struct {
	TopicPrefix string
	AckTimeout  time.Duration
}

// PlanTopic is the topic carrying accepted plan headers.
func PlanTopic(prefix string) string { return prefix + "/plan/accepted" }

// VehicleTopic is the topic carrying one vehicle's accepted schedule.
func VehicleTopic(prefix, vehicleID string) string {
	return fmt.Sprintf("%s/vehicle/%s/schedule", prefix, vehicleID)
}

// StartPlanPublisher forwards accepted plans from the bus to the broker.
// Other event kinds are ignored. It stops when ctx is canceled or the bus closes.
func StartPlanPublisher(ctx context.Context, bus PlanEvents, client coremqtt.Client, opts PublisherOptions) {
	if bus == nil || client == nil {
		return
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "fleetmaint"
	}
	log := logger.New("mqtt-publisher")
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
				if ev.Kind != events.KindAccepted {
					continue
				}
				if err := PublishAccepted(client, ev, opts); err != nil {
					log.Errorf("publish plan %s: %v", ev.Snapshot.ID, err)
					coremon.CapturePlan("mqtt", ev.Snapshot.ID, err)
				}
			}
		}
	}()
}

// PublishAccepted sends the plan header followed by one message per vehicle.
// Vehicle schedules are retained so late subscribers see the current plan.
func PublishAccepted(client coremqtt.Client, ev events.PlanEvent, opts PublisherOptions) error {
	snap := ev.Snapshot
	schedules := splitByVehicle(snap)
	vehicles := make([]string, 0, len(schedules))
	for id := range schedules {
		vehicles = append(vehicles, id)
	}
	sort.Strings(vehicles)

	header := PlanMessage{
		MessageID:  uuid.NewString(),
		PlanID:     snap.ID,
		Version:    snap.Version,
		Superseded: ev.Superseded,
		AcceptedAt: ev.Time,
		Vehicles:   vehicles,
		Stats:      snap.Stats,
	}
	payload, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	tracker, track := client.(coremqtt.AckTracker)
	track = track && opts.AckTimeout > 0
	if track {
		tracker.Track(header.MessageID)
	}
	if err := client.Publish(PlanTopic(opts.TopicPrefix), payload, true); err != nil {
		return err
	}

	for _, id := range vehicles {
		vs := schedules[id]
		vs.MessageID = uuid.NewString()
		b, err := json.Marshal(vs)
		if err != nil {
			return fmt.Errorf("marshal vehicle %s: %w", id, err)
		}
		if err := client.Publish(VehicleTopic(opts.TopicPrefix, id), b, true); err != nil {
			return err
		}
	}

	if track {
		if _, err := tracker.WaitForAck(header.MessageID, opts.AckTimeout); err != nil {
			return err
		}
	}
	return nil
}

func splitByVehicle(snap model.Snapshot) map[string]*VehicleSchedule {
	out := make(map[string]*VehicleSchedule)
	get := func(id string) *VehicleSchedule {
		vs, ok := out[id]
		if !ok {
			vs = &VehicleSchedule{
				PlanID:     snap.ID,
				Version:    snap.Version,
				VehicleID:  id,
				WorkOrders: []model.WorkOrder{},
				OpsTasks:   []model.OpsTask{},
			}
			out[id] = vs
		}
		return vs
	}
	for _, w := range snap.WorkOrders {
		vs := get(w.VehicleID)
		vs.WorkOrders = append(vs.WorkOrders, w)
	}
	for _, o := range snap.OpsTasks {
		vs := get(o.VehicleID)
		vs.OpsTasks = append(vs.OpsTasks, o)
	}
	return out
}
