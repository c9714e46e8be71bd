// Package metrics defines the sinks that record plan activity. Every sink
// implements MetricsSink; the optional recorder interfaces are detected at
// runtime. NewMetricsSink builds the sinks of the metrics section and combines
// several of them into a MultiSink.
package metrics
