// Package events defines the plan lifecycle events emitted on the event bus.
//
// Available event kinds:
//   - KindProposed: a preview was produced by the policy pass
//   - KindMutated: a preview was produced by a mutation batch
//   - KindAccepted: a preview became the accepted plan
//   - KindDiscarded: a preview was dropped
package events
