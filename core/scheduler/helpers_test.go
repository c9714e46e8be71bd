package scheduler

import (
	"testing"
	"time"

	"github.com/kilianp07/fleetmaint/core/model"
)

var fixedNow = time.Date(2025, 8, 18, 7, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg HorizonConfig, opts ...Option) *Engine {
	t.Helper()
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func wo(id, vehicle string, status model.Status, start, end string) model.WorkOrder {
	return model.WorkOrder{ID: id, VehicleID: vehicle, Title: id, Type: model.TypePreventive, Priority: model.PriorityMedium, Status: status, Start: start, End: end}
}

func ops(id, vehicle, start, end string) model.OpsTask {
	return model.OpsTask{ID: id, VehicleID: vehicle, Title: id, Start: start, End: end}
}

func intPtr(v int) *int { return &v }
