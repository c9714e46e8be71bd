package interval

import (
	"math"
	"time"
)

// MinDurationHours is the floor applied to every computed duration.
const MinDurationHours = 0.25

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Hours returns the window length in hours, never negative.
func (w Window) Hours() float64 {
	h := w.End.Sub(w.Start).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Contains reports whether [start,end) lies fully inside the window.
func (w Window) Contains(start, end time.Time) bool {
	return !start.Before(w.Start) && !end.After(w.End)
}

// DurationHours returns end-start in hours, clamped to MinDurationHours.
func DurationHours(start, end time.Time) float64 {
	h := end.Sub(start).Hours()
	if h < MinDurationHours {
		return MinDurationHours
	}
	return h
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapHours returns the length of the intersection in hours.
func OverlapHours(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return end.Sub(start).Hours()
}

// AddHours adds a fractional number of hours, rounded to the second.
func AddHours(t time.Time, h float64) time.Time {
	return t.Add(time.Duration(math.Round(h*3600)) * time.Second)
}

// ClampToBusinessWindow returns the business window of the calendar day of
// dayAnchor, in dayAnchor's location.
func ClampToBusinessWindow(dayAnchor time.Time, openHour, closeHour int) Window {
	y, m, d := dayAnchor.Date()
	loc := dayAnchor.Location()
	return Window{
		Start: time.Date(y, m, d, openHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, closeHour, 0, 0, 0, loc),
	}
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayDelta returns the number of calendar days from a to b.
func DayDelta(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(bd.Sub(ad).Hours() / 24))
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
