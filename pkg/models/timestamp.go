package models

import (
	"bytes"
	"fmt"
	"time"
)

// LocalTimeLayout is the wall-clock layout used on every wire format in the
// pipeline. It carries no zone.
const LocalTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a time.Time that serializes with LocalTimeLayout.
type LocalTime struct {
	time.Time
}

func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: t.Truncate(time.Second)}
}

func Now() LocalTime {
	return NewLocalTime(time.Now())
}

func ParseLocalTime(value string) (LocalTime, error) {
	t, err := time.ParseInLocation(LocalTimeLayout, value, time.Local)
	if err != nil {
		return LocalTime{}, err
	}
	return LocalTime{Time: t}, nil
}

func (t LocalTime) String() string {
	return t.Format(LocalTimeLayout)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(LocalTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = LocalTime{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a string in %s layout", LocalTimeLayout)
	}
	parsed, err := ParseLocalTime(string(data[1 : len(data)-1]))
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	*t = parsed
	return nil
}
