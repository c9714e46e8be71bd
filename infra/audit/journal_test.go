package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/internal/eventbus"
)

func sampleEvent(kind events.Kind, id string, at time.Time) events.PlanEvent {
	return events.PlanEvent{
		Kind: kind,
		Snapshot: model.Snapshot{
			ID: id, BaseID: "base", Version: 2, Status: model.PlanPreview, Moved: 1,
			WorkOrders: []model.WorkOrder{{ID: "WO-1", VehicleID: "V002"}, {ID: "WO-2", VehicleID: "V001"}},
			OpsTasks:   []model.OpsTask{{ID: "OPS-1", VehicleID: "V001"}},
			Stats:      model.Stats{Clashes: 2},
		},
		Applied: 3,
		Time:    at,
	}
}

func TestRecordFor(t *testing.T) {
	at := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	rec := RecordFor(sampleEvent(events.KindMutated, "p2", at))
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, "p2", rec.PlanID)
	assert.Equal(t, "base", rec.BaseID)
	assert.Equal(t, 2, rec.Clashes)
	assert.Equal(t, 3, rec.Applied)
	assert.Equal(t, []string{"V001", "V002"}, rec.Vehicles)
}

func TestRotatingJournalAppendQuery(t *testing.T) {
	dir := t.TempDir()
	j, err := NewRotatingJournal(Config{Path: filepath.Join(dir, "audit", "plans.jsonl")})
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	ctx := context.Background()
	base := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	require.NoError(t, j.Append(ctx, RecordFor(sampleEvent(events.KindProposed, "p2", base))))
	acc := sampleEvent(events.KindAccepted, "p2", base.Add(time.Hour))
	acc.Superseded = "p1"
	require.NoError(t, j.Append(ctx, RecordFor(acc)))
	require.NoError(t, j.Append(ctx, Record{Timestamp: base.Add(2 * time.Hour), Kind: events.KindDiscarded, PlanID: "p3"}))

	all, err := j.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	got, err := j.Query(ctx, Query{Kind: events.KindAccepted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].Superseded)

	got, err = j.Query(ctx, Query{PlanID: "p1"})
	require.NoError(t, err)
	assert.Len(t, got, 1, "superseded plan id matches the accept record")

	got, err = j.Query(ctx, Query{VehicleID: "V001"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = j.Query(ctx, Query{Start: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].PlanID)
}

func TestRotatingJournalReadsBackupsFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.jsonl")
	old := Record{Timestamp: time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC), Kind: events.KindAccepted, PlanID: "p0"}
	line, err := json.Marshal(old)
	require.NoError(t, err)
	backup := filepath.Join(dir, "plans-2025-08-17T00-00-00.000.jsonl")
	require.NoError(t, os.WriteFile(backup, append(append(line, '\n'), []byte("not json\n")...), 0o644))

	j, err := NewRotatingJournal(Config{Path: path})
	require.NoError(t, err)
	defer func() { _ = j.Close() }()
	require.NoError(t, j.Append(context.Background(), Record{Timestamp: time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), PlanID: "p1"}))

	got, err := j.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p0", got[0].PlanID)
	assert.Equal(t, "p1", got[1].PlanID)
}

func TestRotatingJournalCanceledContext(t *testing.T) {
	j, err := NewRotatingJournal(Config{Path: filepath.Join(t.TempDir(), "plans.jsonl")})
	require.NoError(t, err)
	defer func() { _ = j.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, j.Append(ctx, Record{}), context.Canceled)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "data/audit.jsonl", c.Path)
	assert.Equal(t, 10, c.MaxSizeMB)
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
}

func TestStartRecorder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j, err := NewRotatingJournal(Config{Path: filepath.Join(t.TempDir(), "plans.jsonl")})
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	bus := eventbus.New[events.PlanEvent](0)
	done := StartRecorder(ctx, bus, j)
	bus.Publish(sampleEvent(events.KindProposed, "p2", time.Now()))
	bus.Publish(sampleEvent(events.KindDiscarded, "p2", time.Now()))

	assert.Eventually(t, func() bool {
		got, err := j.Query(context.Background(), Query{PlanID: "p2"})
		return err == nil && len(got) == 2
	}, time.Second, 5*time.Millisecond)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop after bus close")
	}
	select {
	case <-StartRecorder(ctx, nil, j):
	default:
		t.Fatal("nil bus should return a closed channel")
	}
}
