package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	parsed, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(9*60+30), parsed)
	assert.Equal(t, "09:30", parsed.String())

	for _, raw := range []string{"", "9:00 am", "25:00", "09:61", "noon"} {
		_, err := ParseTimeOfDay(raw)
		assert.Error(t, err, raw)
	}
}

func TestTimeOfDayScanAcceptsTimeColumnForms(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan("14:30:00"))
	assert.Equal(t, "14:30", tod.String())

	require.NoError(t, tod.Scan([]byte("08:00:00")))
	assert.Equal(t, "08:00", tod.String())

	require.NoError(t, tod.Scan(time.Date(2025, 3, 10, 16, 45, 0, 0, time.UTC)))
	assert.Equal(t, "16:45", tod.String())

	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(TimeOfDay(9 * 60))
	require.NoError(t, err)
	assert.Equal(t, `"09:00"`, string(raw))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"17:15"`), &tod))
	assert.Equal(t, "17:15", tod.String())
}

func TestDateWeekday(t *testing.T) {
	date, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, Monday, date.Weekday())

	date, err = ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, Friday, date.Weekday())
}

func TestDateEqualIgnoresTimeComponent(t *testing.T) {
	a := DateOf(time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC))
	b, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("Wednesday")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	_, err = ParseWeekday("Funday")
	assert.Error(t, err)
}

func TestAvailabilityWindowValidate(t *testing.T) {
	start, err := ParseTimeOfDay("09:00")
	require.NoError(t, err)
	end, err := ParseTimeOfDay("12:00")
	require.NoError(t, err)

	valid := AvailabilityWindow{Day: Monday, StartTime: start, EndTime: end}
	assert.NoError(t, valid.Validate())

	inverted := AvailabilityWindow{Day: Monday, StartTime: end, EndTime: start}
	assert.Error(t, inverted.Validate())

	empty := AvailabilityWindow{Day: Monday, StartTime: start, EndTime: start}
	assert.Error(t, empty.Validate())

	unknownDay := AvailabilityWindow{Day: Weekday("Funday"), StartTime: start, EndTime: end}
	assert.Error(t, unknownDay.Validate())
}
