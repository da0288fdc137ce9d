package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// timestampLayouts are the forms the collection backend has been seen to
// send. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime reads s in any of the known backend layouts
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp decodes backend times leniently. Null, non-string and
// unrecognized values decode to the zero time instead of failing the
// whole payload.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseTime(s); ok {
		t.Time = parsed
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

// ptr returns nil for the zero time
func (t *Timestamp) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
