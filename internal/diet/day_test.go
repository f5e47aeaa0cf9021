package diet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-02 06:00 in Tokyo is still March 1st in UTC.
	d := Day(time.Date(2026, 3, 2, 6, 0, 0, 0, tokyo))
	assert.Equal(t, "2026-03-01", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
	assert.Equal(t, 0, d.Time().Hour())
}

func TestDayOrToday(t *testing.T) {
	now := time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-05", DayOrToday(nil, now).String())
	other := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-01", DayOrToday(&other, now).String())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))

	_, err = ParseDay("28/02/2026")
	assert.Error(t, err)
}

func TestCalendarDayJSON(t *testing.T) {
	d, err := ParseDay("2026-03-01")
	require.NoError(t, err)
	b, err := json.Marshal(struct {
		Date CalendarDay `json:"date"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-03-01"}`, string(b))

	var back CalendarDay
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01"`), &back))
	assert.True(t, back.Equal(d))
}

func TestCalendarDayScan(t *testing.T) {
	var d CalendarDay
	require.NoError(t, d.Scan("2026-03-01"))
	assert.Equal(t, "2026-03-01", d.String())
	require.NoError(t, d.Scan(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-02", d.String())
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))

	v, err := CalendarDay{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
