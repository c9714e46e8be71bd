package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/core/model"
)

func newCapturingServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestInfluxSinkRecordProposal(t *testing.T) {
	srv, body := newCapturingServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.ProposalEvent{
		PlanID: "p2", BaseID: "p1", Source: coremetrics.SourcePolicy,
		Moved: 2, Scheduled: 5, Unscheduled: 1, Clashes: 0,
		Duration: 1500 * time.Microsecond, Time: now,
	}
	if err := sink.RecordProposal(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("plan_proposal").
		AddTag("plan_id", "p2").
		AddTag("base_id", "p1").
		AddTag("source", "policy").
		AddField("moved", 2).
		AddField("scheduled", 5).
		AddField("unscheduled", 1).
		AddField("clashes", 0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(*body) != expected {
		t.Errorf("unexpected body: %s", *body)
	}
}

func TestInfluxSinkRecordAcceptWritesVehiclePoints(t *testing.T) {
	srv, body := newCapturingServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	defer sink.Close()

	err := sink.RecordAccept(coremetrics.AcceptEvent{
		PlanID:  "p3",
		Version: 2,
		Stats:   model.Stats{BookedHours: map[string]float64{"V002": 3, "V001": 5}},
		Time:    time.Now(),
	})
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(*body), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %s", len(lines), *body)
	}
	if !strings.HasPrefix(lines[0], "plan_accepted,") || !strings.Contains(lines[1], "vehicle_id=V001") {
		t.Fatalf("unexpected body: %s", *body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
