// Package scheduler implements the maintenance planning passes over a fixed
// horizon: clash detection between work orders and ops tasks, the policy
// transformer producing preview plans, and the earliest-slot search used to
// place new work.
//
// All passes are synchronous and work on clones of their inputs.
package scheduler
