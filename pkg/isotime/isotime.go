package isotime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts accepted when reading stored timestamps, tried in order.
// The zone-less forms are what older data files contain (naive local/UTC text).
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Time is a time.Time that marshals as ISO-8601 text and parses the
// variants found in existing data files.
type Time struct {
	time.Time
}

func New(t time.Time) Time {
	return Time{Time: t}
}

func Now() Time {
	return Time{Time: time.Now().UTC()}
}

// Parse reads an ISO-8601 timestamp. Values without a zone are taken as UTC.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t}, nil
		}
	}
	return Time{}, fmt.Errorf("isotime: cannot parse %q", s)
}

func (t Time) String() string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("isotime: expected string: %w", err)
	}
	if s == "" {
		*t = Time{}
		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Ptr returns nil for the zero time so optional fields can use omitempty.
func Ptr(t time.Time) *Time {
	if t.IsZero() {
		return nil
	}
	v := New(t)
	return &v
}
