package metrics

import (
	"fmt"

	"github.com/kilianp07/fleetmaint/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to the metrics.sinks
// section.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds every sink of the metrics section. No sinks yields
// NopSink; several are fanned out through a MultiSink.
func NewMetricsSink(cfg Config) (MetricsSink, error) {
	sinks := make([]MetricsSink, 0, len(cfg.Sinks))
	for i, c := range cfg.Sinks {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, fmt.Errorf("metrics.sinks[%d]: %w", i, err)
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}
