package events

import (
	"time"

	"github.com/kilianp07/fleetmaint/core/model"
)

// Kind identifies a plan lifecycle step.
type Kind string

const (
	KindProposed  Kind = "proposed"
	KindMutated   Kind = "mutated"
	KindAccepted  Kind = "accepted"
	KindDiscarded Kind = "discarded"
)

// PlanEvent is published by the plan service after each state change.
// Snapshot is a private copy; subscribers may keep it.
type PlanEvent struct {
	Kind       Kind
	Snapshot   model.Snapshot
	Superseded string
	Applied    int
	Skipped    int
	Forwarded  int
	Duration   time.Duration
	Time       time.Time
}
