// Package infra groups the adapters around the plan service: snapshot
// stores, the audit journal, MQTT publication, metrics sinks, Sentry
// reporting and the zerolog logger. Adapters depend on core packages,
// never the reverse.
package infra
