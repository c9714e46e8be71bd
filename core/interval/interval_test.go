package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalendar(t *testing.T) Calendar {
	t.Helper()
	loc := time.FixedZone("CEST", 2*60*60)
	return NewCalendar(loc, time.Date(2025, 8, 18, 0, 0, 0, 0, loc), 7, 2025)
}

func TestDurationHoursClamp(t *testing.T) {
	base := time.Date(2025, 8, 22, 9, 0, 0, 0, time.UTC)
	assert.InDelta(t, 2.0, DurationHours(base, base.Add(2*time.Hour)), 1e-9)
	assert.InDelta(t, MinDurationHours, DurationHours(base, base.Add(5*time.Minute)), 1e-9)
	assert.InDelta(t, MinDurationHours, DurationHours(base, base.Add(-time.Hour)), 1e-9)
}

func TestOverlaps(t *testing.T) {
	d := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	h := func(n int) time.Time { return d.Add(time.Duration(n) * time.Hour) }
	if !Overlaps(h(9), h(11), h(10), h(12)) {
		t.Fatalf("expected overlap")
	}
	if Overlaps(h(9), h(10), h(10), h(11)) {
		t.Fatalf("touching boundaries must not overlap")
	}
	if got := OverlapHours(h(9), h(11), h(10), h(12)); got != 1 {
		t.Fatalf("overlap hours %v", got)
	}
	if got := OverlapHours(h(9), h(10), h(11), h(12)); got != 0 {
		t.Fatalf("disjoint overlap %v", got)
	}
	if OverlapHours(h(9), h(11), h(10), h(12)) != OverlapHours(h(10), h(12), h(9), h(11)) {
		t.Fatalf("overlap should be commutative")
	}
}

func TestClampToBusinessWindow(t *testing.T) {
	anchor := time.Date(2025, 8, 22, 5, 30, 0, 0, time.UTC)
	w := ClampToBusinessWindow(anchor, 8, 17)
	assert.Equal(t, time.Date(2025, 8, 22, 8, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 8, 22, 17, 0, 0, 0, time.UTC), w.End)
	assert.InDelta(t, 9.0, w.Hours(), 1e-9)
	assert.True(t, w.Contains(w.Start, w.End))
	assert.False(t, w.Contains(anchor, w.End))
}

func TestAddHoursFractional(t *testing.T) {
	base := time.Date(2025, 8, 22, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(90*time.Minute), AddHours(base, 1.5))
	assert.Equal(t, base.Add(-2*time.Hour), AddHours(base, -2))
}

func TestCalendarParseFormats(t *testing.T) {
	cal := testCalendar(t)
	cases := []struct {
		in   string
		want string
	}{
		{"2025-08-22T05:00:00", "2025-08-22T05:00:00"},
		{"2025-08-22T05:00", "2025-08-22T05:00:00"},
		{"2025-08-22 05:00:00", "2025-08-22T05:00:00"},
		{"2025-08-22T05:00:00.000", "2025-08-22T05:00:00"},
		// The test calendar runs at UTC+2.
		{"2025-08-22T03:00:00Z", "2025-08-22T05:00:00"},
		{"2025-08-22T03:00:00.000Z", "2025-08-22T05:00:00"},
		{"2025-08-22T05:00:00+02:00", "2025-08-22T05:00:00"},
	}
	for _, c := range cases {
		got, err := cal.Normalize(c.in)
		if err != nil {
			t.Fatalf("normalize %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("normalize %q: got %q want %q", c.in, got, c.want)
		}
	}
}

func TestCalendarParseErrors(t *testing.T) {
	cal := testCalendar(t)
	for _, in := range []string{"", "tomorrow", "2025-13-01T00:00:00", "22/08/2025"} {
		if _, err := cal.Parse(in); !errors.Is(err, ErrBadTimestamp) {
			t.Fatalf("expected ErrBadTimestamp for %q, got %v", in, err)
		}
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	cal := testCalendar(t)
	in := "2025-08-23T09:00:00"
	once, err := cal.Normalize(in)
	require.NoError(t, err)
	twice, err := cal.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, in, once)
	assert.Equal(t, once, twice)
}

func TestCalendarSnapYear(t *testing.T) {
	cal := testCalendar(t)
	in, err := cal.Parse("2024-08-23T09:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-23T09:00:00", cal.Format(cal.SnapYear(in)))

	noSnap := NewCalendar(time.UTC, in, 7, 0)
	assert.Equal(t, in, noSnap.SnapYear(in))
}

func TestCalendarDurationFallback(t *testing.T) {
	cal := testCalendar(t)
	assert.InDelta(t, 3.0, cal.DurationHours("2025-08-23T09:00:00", "2025-08-23T12:00:00", 1), 1e-9)
	assert.InDelta(t, 1.5, cal.DurationHours("garbage", "2025-08-23T12:00:00", 1.5), 1e-9)
	assert.InDelta(t, MinDurationHours, cal.DurationHours("", "", 0), 1e-9)
}

func TestCalendarDaysAndSpan(t *testing.T) {
	cal := testCalendar(t)
	assert.Equal(t, "2025-08-18T00:00:00", cal.Format(cal.Day(0)))
	assert.Equal(t, "2025-08-24T08:00:00", cal.Format(cal.At(6, 8)))
	assert.Equal(t, 7, cal.Days())

	w, ok := cal.Span("2025-08-22T09:00:00", "2025-08-22T11:00:00")
	require.True(t, ok)
	assert.InDelta(t, 2.0, w.Hours(), 1e-9)
	_, ok = cal.Span("2025-08-22T11:00:00", "2025-08-22T09:00:00")
	assert.False(t, ok)
	_, ok = cal.Span("", "2025-08-22T09:00:00")
	assert.False(t, ok)
}

func TestDayDeltaAndSameDay(t *testing.T) {
	a := time.Date(2025, 8, 22, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 8, 24, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DayDelta(a, b))
	assert.Equal(t, -2, DayDelta(b, a))
	assert.True(t, SameDay(a, a.Add(-22*time.Hour)))
	assert.False(t, SameDay(a, a.Add(2*time.Hour)))
	assert.Equal(t, 1.3, Round1(1.25001))
}
