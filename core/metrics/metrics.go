package metrics

import (
	"time"

	"github.com/kilianp07/fleetmaint/core/model"
)

// Source tells how a preview was produced.
type Source string

const (
	SourcePolicy    Source = "policy"
	SourceMutations Source = "mutations"
)

// ProposalEvent describes one preview produced from a base plan.
type ProposalEvent struct {
	PlanID      string
	BaseID      string
	Source      Source
	Moved       int
	Scheduled   int
	Unscheduled int
	Clashes     int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records plan activity for observability purposes.
type MetricsSink interface {
	RecordProposal(ev ProposalEvent) error
}

// MutationEvent summarizes a mutation batch.
type MutationEvent struct {
	PlanID    string
	Applied   int
	Skipped   int
	Forwarded int
	Time      time.Time
}

// MutationRecorder records mutation batch outcomes.
type MutationRecorder interface {
	RecordMutations(ev MutationEvent) error
}

// AcceptEvent is emitted when a preview becomes the accepted plan.
type AcceptEvent struct {
	PlanID     string
	Version    int
	Superseded string
	Stats      model.Stats
	Time       time.Time
}

// AcceptRecorder records plan acceptance, including per-vehicle load.
type AcceptRecorder interface {
	RecordAccept(ev AcceptEvent) error
}

// ClashEvent reports the clash count of a plan.
type ClashEvent struct {
	PlanID string
	Status model.PlanStatus
	Count  int
	Time   time.Time
}

// ClashRecorder records clash counts.
type ClashRecorder interface {
	RecordClashes(ev ClashEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordProposal(ProposalEvent) error  { return nil }
func (NopSink) RecordMutations(MutationEvent) error { return nil }
func (NopSink) RecordAccept(AcceptEvent) error      { return nil }
func (NopSink) RecordClashes(ClashEvent) error      { return nil }
