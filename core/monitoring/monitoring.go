// Package monitoring is the process-wide error reporting hook. Components
// report failures nobody is waiting on, such as background plan publication
// or 5xx responses.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Monitor receives captured errors.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

type holder struct{ m Monitor }

var current atomic.Pointer[holder]

func active() Monitor {
	if h := current.Load(); h != nil {
		return h.m
	}
	return NopMonitor{}
}

// Init installs m as the process monitor. A nil m keeps the current one.
func Init(m Monitor) {
	if m != nil {
		current.Store(&holder{m: m})
	}
}

// CaptureException reports err with tags. Nil errors are ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	active().CaptureException(err, tags)
}

// CapturePlan reports a failure while handling a plan snapshot.
func CapturePlan(module, planID string, err error) {
	CaptureException(err, map[string]string{"module": module, "plan_id": planID})
}

// Flush waits up to timeout for buffered reports to be sent.
func Flush(timeout time.Duration) {
	active().Flush(timeout)
}
