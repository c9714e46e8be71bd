package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
)

// PromSink records plan activity in Prometheus metrics.
type PromSink struct {
	proposals *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	moved     *prometheus.CounterVec
	mutations *prometheus.CounterVec
	clashes   *prometheus.GaugeVec
	version   prometheus.Gauge
	booked    *prometheus.GaugeVec
	spread    prometheus.Gauge
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_proposals_total",
			Help: "Total number of plan previews produced",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plan_proposal_duration_seconds",
			Help:    "Time spent producing a preview",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"source"}),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_moved_items_total",
			Help: "Work orders and ops tasks moved by previews",
		}, []string{"source"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_mutations_total",
			Help: "Mutations processed, by outcome",
		}, []string{"outcome"}),
		clashes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_clashes",
			Help: "Maintenance and ops overlaps in the latest plan of each status",
		}, []string{"status"}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plan_accepted_version",
			Help: "Version of the accepted plan",
		}),
		booked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_vehicle_booked_hours",
			Help: "Hours booked per vehicle in the accepted plan",
		}, []string{"vehicle_id"}),
		spread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plan_booked_hours_stddev",
			Help: "Standard deviation of booked hours across the fleet",
		}),
	}
	var err error
	if s.proposals, err = register(reg, s.proposals); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.moved, err = register(reg, s.moved); err != nil {
		return nil, err
	}
	if s.mutations, err = register(reg, s.mutations); err != nil {
		return nil, err
	}
	if s.clashes, err = register(reg, s.clashes); err != nil {
		return nil, err
	}
	if s.version, err = register(reg, s.version); err != nil {
		return nil, err
	}
	if s.booked, err = register(reg, s.booked); err != nil {
		return nil, err
	}
	if s.spread, err = register(reg, s.spread); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordProposal counts the preview and observes its duration.
func (s *PromSink) RecordProposal(ev coremetrics.ProposalEvent) error {
	src := string(ev.Source)
	s.proposals.WithLabelValues(src).Inc()
	s.duration.WithLabelValues(src).Observe(ev.Duration.Seconds())
	s.moved.WithLabelValues(src).Add(float64(ev.Moved))
	return nil
}

// RecordMutations counts batch outcomes.
func (s *PromSink) RecordMutations(ev coremetrics.MutationEvent) error {
	s.mutations.WithLabelValues("applied").Add(float64(ev.Applied))
	s.mutations.WithLabelValues("skipped").Add(float64(ev.Skipped))
	s.mutations.WithLabelValues("forwarded").Add(float64(ev.Forwarded))
	return nil
}

// RecordClashes sets the clash gauge for the plan status.
func (s *PromSink) RecordClashes(ev coremetrics.ClashEvent) error {
	s.clashes.WithLabelValues(string(ev.Status)).Set(float64(ev.Count))
	return nil
}

// RecordAccept publishes the accepted version and per-vehicle load.
func (s *PromSink) RecordAccept(ev coremetrics.AcceptEvent) error {
	s.version.Set(float64(ev.Version))
	s.booked.Reset()
	for id, h := range ev.Stats.BookedHours {
		s.booked.WithLabelValues(id).Set(h)
	}
	s.spread.Set(ev.Stats.StdDevBookedHours)
	return nil
}
