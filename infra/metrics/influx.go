package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes plan activity to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(points ...*write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordProposal writes one plan_proposal point.
func (s *InfluxSink) RecordProposal(ev coremetrics.ProposalEvent) error {
	p := write.NewPointWithMeasurement("plan_proposal").AddTag("plan_id", ev.PlanID)
	if ev.BaseID != "" {
		p = p.AddTag("base_id", ev.BaseID)
	}
	p = p.AddTag("source", string(ev.Source)).
		AddField("moved", ev.Moved).
		AddField("scheduled", ev.Scheduled).
		AddField("unscheduled", ev.Unscheduled).
		AddField("clashes", ev.Clashes).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordMutations writes one plan_mutations point.
func (s *InfluxSink) RecordMutations(ev coremetrics.MutationEvent) error {
	p := write.NewPointWithMeasurement("plan_mutations").
		AddTag("plan_id", ev.PlanID).
		AddField("applied", ev.Applied).
		AddField("skipped", ev.Skipped).
		AddField("forwarded", ev.Forwarded).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordClashes writes one plan_clashes point.
func (s *InfluxSink) RecordClashes(ev coremetrics.ClashEvent) error {
	p := write.NewPointWithMeasurement("plan_clashes").
		AddTag("plan_id", ev.PlanID).
		AddTag("status", string(ev.Status)).
		AddField("count", ev.Count).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAccept writes the accepted plan summary and one load point per vehicle.
func (s *InfluxSink) RecordAccept(ev coremetrics.AcceptEvent) error {
	head := write.NewPointWithMeasurement("plan_accepted").AddTag("plan_id", ev.PlanID)
	if ev.Superseded != "" {
		head = head.AddTag("superseded", ev.Superseded)
	}
	points := []*write.Point{
		head.AddField("version", ev.Version).
			AddField("clashes", ev.Stats.Clashes).
			AddField("mean_booked_hours", round3(ev.Stats.MeanBookedHours)).
			AddField("stddev_booked_hours", round3(ev.Stats.StdDevBookedHours)).
			AddField("max_booked_hours", round3(ev.Stats.MaxBookedHours)).
			SetTime(ev.Time),
	}
	ids := make([]string, 0, len(ev.Stats.BookedHours))
	for id := range ev.Stats.BookedHours {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		points = append(points, write.NewPointWithMeasurement("vehicle_booked_hours").
			AddTag("plan_id", ev.PlanID).
			AddTag("vehicle_id", id).
			AddField("hours", round3(ev.Stats.BookedHours[id])).
			SetTime(ev.Time))
	}
	return s.write(points...)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
