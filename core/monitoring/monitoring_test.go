package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	errs    []error
	tags    map[string]string
	flushed bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestGlobalMonitor(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(NopMonitor{})

	CaptureException(errors.New("boom"), map[string]string{"module": "api"})
	Flush(time.Millisecond)
	if len(mon.errs) != 1 || mon.tags["module"] != "api" {
		t.Fatalf("error not captured: %+v", mon)
	}
	if !mon.flushed {
		t.Fatalf("flush not forwarded")
	}

	CaptureException(nil, nil)
	if len(mon.errs) != 1 {
		t.Fatalf("nil error reported")
	}

	Init(nil)
	CapturePlan("audit", "plan-7", errors.New("disk full"))
	if len(mon.errs) != 2 || mon.tags["module"] != "audit" || mon.tags["plan_id"] != "plan-7" {
		t.Fatalf("plan failure not tagged: %+v", mon.tags)
	}
}
