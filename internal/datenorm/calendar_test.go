package datenorm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDate_Renderings(t *testing.T) {
	d := NewDate(2026, time.January, 5)

	assert.Equal(t, "2026-01-05", d.String())
	assert.Equal(t, "05/01/2026", d.DayMonthYear())
	assert.Equal(t, "05/01/26", d.DayMonthShortYear())
	assert.Equal(t, [3]string{"2026-01-05", "05/01/2026", "05/01/26"}, Literals(d))
}

func TestCalendarDate_AddDaysCrossesBoundaries(t *testing.T) {
	d := NewDate(2025, time.December, 31)

	assert.Equal(t, "2026-01-01", d.AddDays(1).String())
	assert.Equal(t, "2025-12-30", d.AddDays(-1).String())
	assert.Equal(t, "2024-03-01", NewDate(2024, time.February, 29).AddDays(1).String())
}

func TestCalendarDate_Compare(t *testing.T) {
	a := NewDate(2025, time.December, 19)
	b := NewDate(2025, time.December, 20)

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, NewDate(2024, time.December, 31).Before(a))
}

func TestDays_HalfOpenWindow(t *testing.T) {
	start := NewDate(2025, time.December, 19)
	end := NewDate(2025, time.December, 22)

	days := Days(start, end)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-12-19", days[0].String())
	assert.Equal(t, "2025-12-21", days[2].String())

	assert.Empty(t, Days(end, start))
	assert.Empty(t, Days(start, start))
}

func TestParseDate_Rejects(t *testing.T) {
	for _, s := range []string{"", "20/12/2025", "2025-12-32", "2025-12-20T10:00:00Z"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestCalendarDate_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Day CalendarDate `json:"day"`
	}{NewDate(2025, time.December, 20)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-12-20"}`, string(b))

	var out struct {
		Day CalendarDate `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-02-01"}`), &out))
	assert.Equal(t, NewDate(2026, time.February, 1), out.Day)
}
