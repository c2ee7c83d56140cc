package common

import "time"

// Calendar resolves business dates in a configured timezone.
// The business date partitions cached reports: a report generated at
// 01:00 KST on Friday belongs to Friday even when the server's UTC
// clock still reads Thursday.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar creates a calendar for the given location.
func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc, now: time.Now}
}

// NewCalendarAt creates a calendar with an injected clock, for tests.
func NewCalendarAt(loc *time.Location, now func() time.Time) *Calendar {
	return &Calendar{loc: loc, now: now}
}

// CurrentBusinessDate returns the calendar date of the present instant
// in the business timezone, truncated to midnight in that timezone.
func (c *Calendar) CurrentBusinessDate() time.Time {
	t := c.now().In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// IsBusinessDay reports whether the given date is a weekday.
// Exchange holidays are not modelled.
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	wd := date.In(c.loc).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsBusinessToday reports whether the calendar's present instant falls
// on a weekday, using the same clock as CurrentBusinessDate.
func (c *Calendar) IsBusinessToday() bool {
	return c.IsBusinessDay(c.now())
}

// Location returns the business timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}
