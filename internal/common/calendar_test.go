package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCurrentBusinessDateDependsOnTimezone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 16:30 UTC on March 1st is already March 2nd in Seoul but still
	// March 1st in New York.
	instant := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)

	seoulCal := NewCalendarAt(seoul, fixedClock(instant))
	nyCal := NewCalendarAt(newYork, fixedClock(instant))

	assert.Equal(t, "2024-03-02", seoulCal.CurrentBusinessDate().Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", nyCal.CurrentBusinessDate().Format("2006-01-02"))
}

func TestCurrentBusinessDateIsMidnight(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	cal := NewCalendarAt(seoul, fixedClock(time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)))
	date := cal.CurrentBusinessDate()

	assert.Equal(t, 0, date.Hour())
	assert.Equal(t, 0, date.Minute())
	assert.Equal(t, seoul, date.Location())
}

func TestIsBusinessDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	cal := NewCalendar(seoul)

	// 2026-08-24 is a Monday.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, seoul)
	saturday := time.Date(2026, 8, 29, 12, 0, 0, 0, seoul)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, seoul)

	assert.True(t, cal.IsBusinessDay(monday))
	assert.False(t, cal.IsBusinessDay(saturday))
	assert.False(t, cal.IsBusinessDay(sunday))
}

func TestIsBusinessTodayUsesInjectedClock(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2026-08-29 is a Saturday, 2026-08-24 a Monday. The result must
	// follow the calendar's own clock regardless of the wall clock.
	saturday := NewCalendarAt(seoul, fixedClock(time.Date(2026, 8, 29, 12, 0, 0, 0, seoul)))
	monday := NewCalendarAt(seoul, fixedClock(time.Date(2026, 8, 24, 12, 0, 0, 0, seoul)))

	assert.False(t, saturday.IsBusinessToday())
	assert.True(t, monday.IsBusinessToday())
}

func TestIsBusinessDayConvertsToBusinessTimezone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	cal := NewCalendar(seoul)

	// Friday 20:00 UTC is already Saturday 05:00 in Seoul.
	fridayUTC := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	assert.False(t, cal.IsBusinessDay(fridayUTC))
}
