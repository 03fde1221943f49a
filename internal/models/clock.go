package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// ParseClockTime accepts "15:04" and "15:04:05"; seconds are dropped.
func ParseClockTime(raw string) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", raw)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan reads a PostgreSQL TIME column.
func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return c.scanString(v)
	case []byte:
		return c.scanString(string(v))
	case time.Time:
		*c = ClockOf(v)
		return nil
	default:
		return fmt.Errorf("scan clock time: unsupported type %T", src)
	}
}

func (c *ClockTime) scanString(raw string) error {
	if len(raw) > 8 {
		raw = raw[:8]
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}
