package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the workflow state of a resource.
type Status string

const (
	StatusPlanning   Status = "Planning"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusPlanning, StatusInProgress, StatusReview, StatusCompleted}

// ParseStatus accepts the display names case-insensitively as well as the
// snake_case and compact spellings some backends use.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "planning", "todo":
		return StatusPlanning, nil
	case "inprogress":
		return StatusInProgress, nil
	case "review":
		return StatusReview, nil
	case "completed", "done":
		return StatusCompleted, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// Priority is the urgency of a resource.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts the display names case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", s)}
}

// ClampProgress limits a percentage to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ParseProgress parses a percentage typed by the user and clamps it.
// An empty string is 0.
func ParseProgress(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "progress", Message: "progress must be a whole number"}
	}
	return ClampProgress(n), nil
}

// dateLayout is the wire and input format for calendar dates.
const dateLayout = "2006-01-02"

// Date is an optional calendar date. The zero value means "no due date".
// A value that could not be parsed keeps its raw text and reports !Valid(),
// so callers can degrade to "unknown" instead of failing.
//
// A Date parsed from a timestamp also remembers the instant, so In can
// re-read its calendar date in the viewer's time zone.
type Date struct {
	raw   string
	year  int
	month time.Month
	day   int
	valid bool
	unix  int64
	timed bool
}

// NewDate builds a valid date.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{raw: t.Format(dateLayout), year: t.Year(), month: t.Month(), day: t.Day(), valid: true}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp. An empty string
// yields the zero Date. Unparsable input is kept but invalid.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return timedDate(t)
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return timedDate(t)
	}
	return Date{raw: s}
}

func timedDate(t time.Time) Date {
	d := DateOf(t)
	d.unix = t.Unix()
	d.timed = true
	return d
}

// In returns the calendar date in loc. Only dates parsed from a timestamp
// can move; a plain date is the same day everywhere.
func (d Date) In(loc *time.Location) Date {
	if !d.timed || loc == nil {
		return d
	}
	c := DateOf(time.Unix(d.unix, 0).In(loc))
	c.raw = d.raw
	c.unix = d.unix
	c.timed = true
	return c
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool { return d.raw == "" }

// Valid reports whether the date parsed to a real calendar date.
func (d Date) Valid() bool { return d.valid }

// Time returns midnight UTC of the date. It is only meaningful when Valid.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String returns YYYY-MM-DD for valid dates, the raw input otherwise.
func (d Date) String() string {
	return d.raw
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.raw)
}

// UnmarshalJSON implements json.Unmarshaler. It never fails on a malformed
// date string; the value is kept as an invalid Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{raw: string(data)}
		return nil
	}
	*d = ParseDate(s)
	return nil
}
