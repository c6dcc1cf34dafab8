package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Weekday names an availability window's recurring day. Values follow the
// Gregorian weekday names so they round-trip through the public API without
// translation.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var weekdayNames = map[Weekday]struct{}{
	Monday: {}, Tuesday: {}, Wednesday: {}, Thursday: {},
	Friday: {}, Saturday: {}, Sunday: {},
}

// ParseWeekday validates a weekday name.
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(raw)
	if _, ok := weekdayNames[day]; !ok {
		return "", fmt.Errorf("unknown weekday %q", raw)
	}
	return day, nil
}

// WeekdayOf maps a calendar date onto the weekday enum.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

// TimeOfDay is a minute-precision time of day stored as minutes since
// midnight. Windows and slots never cross midnight, so plain integer
// comparison gives chronological order.
type TimeOfDay int

const timeOfDayLayout = "15:04"

// ParseTimeOfDay parses "HH:MM" in 24-hour notation.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parsed, err := time.Parse(timeOfDayLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", raw, err)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// AddMinutes advances the time of day without wrapping validation; callers
// guard against crossing midnight.
func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// MarshalJSON encodes the time as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM" strings.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the time as its "HH:MM" text form.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan reads "HH:MM" (or "HH:MM:SS" from a TIME column) text.
func (t *TimeOfDay) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	default:
		return fmt.Errorf("unsupported time of day source %T", src)
	}
	if len(raw) > len(timeOfDayLayout) {
		raw = raw[:len(timeOfDayLayout)]
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date without a time component, JSON-encoded as
// "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD".
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return Date{Time: parsed}, nil
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// String renders the canonical "YYYY-MM-DD" form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// Weekday returns the date's weekday enum value.
func (d Date) Weekday() Weekday {
	return WeekdayOf(d.Time)
}

// Equal compares two dates by calendar day.
func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" strings.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as its text form.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads DATE columns or date text.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("unsupported date source %T", src)
	}
}

// AvailabilityWindow is a doctor's recurring weekly open interval. Windows on
// the same day may overlap; slot expansion treats each window independently.
type AvailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	Day       Weekday   `db:"day_of_week" json:"day"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate enforces the window invariants: a known weekday and a same-day
// interval with start strictly before end. Zero-length windows are rejected
// on write even though the expander would simply yield no slots for them.
func (w AvailabilityWindow) Validate() error {
	if _, err := ParseWeekday(string(w.Day)); err != nil {
		return err
	}
	if w.StartTime >= w.EndTime {
		return fmt.Errorf("window %s: start %s must be before end %s", w.Day, w.StartTime, w.EndTime)
	}
	return nil
}
