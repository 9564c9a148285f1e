package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLocation(t *testing.T, loc *time.Location) {
	t.Helper()
	prev := Location()
	SetLocation(loc)
	t.Cleanup(func() { SetLocation(prev) })
}

func TestDaysBetween(t *testing.T) {
	withLocation(t, time.UTC)

	day := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(day, day.Add(20*time.Minute)))
	assert.Equal(t, 1, DaysBetween(day, day.Add(40*time.Minute)))
	assert.Equal(t, -1, DaysBetween(day.Add(40*time.Minute), day))
	assert.Equal(t, 31, DaysBetween(day, day.AddDate(0, 1, 0)))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	withLocation(t, ny)

	before := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	after := time.Date(2026, 3, 9, 0, 30, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(before, after))
}

func TestIsSameDayAndStartOfDay(t *testing.T) {
	withLocation(t, time.FixedZone("UTC+5", 5*60*60))

	// 20:00 UTC is already the next day at UTC+5.
	a := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)
	b := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	assert.False(t, IsSameDay(a, b))
	assert.Equal(t, "2026-10-19", FormatDate(b))
	assert.Equal(t, 0, StartOfDay(b).Hour())
}

func TestParseDateRoundTrip(t *testing.T) {
	withLocation(t, time.UTC)

	parsed, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", FormatDate(parsed))

	_, err = ParseDate("19.10.2026")
	assert.Error(t, err)
}

func TestLoadLocationFallback(t *testing.T) {
	assert.Equal(t, time.Local, LoadLocation(""))
	assert.Equal(t, time.Local, LoadLocation("Not/AZone"))
}
