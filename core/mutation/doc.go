// Package mutation applies ordered batches of discrete plan edits.
//
// Available mutations:
//   - MoveWorkOrder, CancelWorkOrder, AddWorkOrder, ScheduleWorkOrder
//   - MoveOps, CancelOps
//   - ResourceEdit: forwarded to the caller unless it targets a work order field
//   - Invalid: a payload the boundary could not classify
package mutation
