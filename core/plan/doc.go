// Package plan keeps the accepted maintenance plan and the previews derived
// from it. Every state change goes through Service, which serializes callers
// and announces the result on the plan event bus.
package plan
