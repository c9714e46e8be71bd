package interval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocalLayout is the wire format of every timestamp.
const LocalLayout = "2006-01-02T15:04:05"

// ErrBadTimestamp is returned when a value matches none of the accepted layouts.
var ErrBadTimestamp = errors.New("invalid timestamp")

var localLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// Calendar interprets wall-clock timestamps in a fixed location over a
// horizon of Days days starting at WeekStart.
type Calendar struct {
	loc        *time.Location
	weekStart  time.Time
	days       int
	anchorYear int
}

// NewCalendar builds a Calendar. A nil location means time.Local. An anchor
// year of zero disables year snapping.
func NewCalendar(loc *time.Location, weekStart time.Time, days, anchorYear int) Calendar {
	if loc == nil {
		loc = time.Local
	}
	if days <= 0 {
		days = 7
	}
	y, m, d := weekStart.Date()
	return Calendar{
		loc:        loc,
		weekStart:  time.Date(y, m, d, 0, 0, 0, 0, loc),
		days:       days,
		anchorYear: anchorYear,
	}
}

func (c Calendar) Location() *time.Location { return c.loc }
func (c Calendar) WeekStart() time.Time     { return c.weekStart }
func (c Calendar) Days() int                { return c.days }
func (c Calendar) AnchorYear() int          { return c.anchorYear }

// Day returns midnight of horizon day i.
func (c Calendar) Day(i int) time.Time {
	return c.weekStart.AddDate(0, 0, i)
}

// At returns hour:00 on horizon day i.
func (c Calendar) At(day, hour int) time.Time {
	d := c.Day(day)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, c.loc)
}

// Parse reads a timestamp. Zone-less values are wall-clock time in the
// calendar's location; values carrying Z or an offset are converted into it.
func (c Calendar) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrBadTimestamp)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(c.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// Format writes t as local wall clock without a zone suffix.
func (c Calendar) Format(t time.Time) string {
	return t.In(c.loc).Format(LocalLayout)
}

// Normalize parses and re-formats s.
func (c Calendar) Normalize(s string) (string, error) {
	t, err := c.Parse(s)
	if err != nil {
		return s, err
	}
	return c.Format(t), nil
}

// SnapYear moves t into the anchor year, keeping month, day and clock.
func (c Calendar) SnapYear(t time.Time) time.Time {
	if c.anchorYear == 0 || t.Year() == c.anchorYear {
		return t
	}
	return time.Date(c.anchorYear, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DurationHours returns the hours between two timestamps, or fallback when
// either cannot be parsed. The result is never below MinDurationHours.
func (c Calendar) DurationHours(start, end string, fallback float64) float64 {
	s, err1 := c.Parse(start)
	e, err2 := c.Parse(end)
	if err1 != nil || err2 != nil {
		if fallback < MinDurationHours {
			return MinDurationHours
		}
		return fallback
	}
	return DurationHours(s, e)
}

// Span parses a start/end pair. ok is false when either side is missing or
// malformed, or when end is not after start.
func (c Calendar) Span(start, end string) (Window, bool) {
	if start == "" || end == "" {
		return Window{}, false
	}
	s, err := c.Parse(start)
	if err != nil {
		return Window{}, false
	}
	e, err := c.Parse(end)
	if err != nil || !e.After(s) {
		return Window{}, false
	}
	return Window{Start: s, End: e}, true
}
