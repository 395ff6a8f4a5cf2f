// Package domain contains core domain types for the event planner.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var durationDaysPattern = regexp.MustCompile(`(?i)(\d+)\s*day`)

// Quantity is a non-negative count (guests, budget). The zero value is
// unset, which is distinct from an explicit 0. It tolerates the string-typed
// numbers older clients recorded.
type Quantity struct {
	Value int
	Valid bool
}

// Count returns a set Quantity.
func Count(n int) Quantity {
	return Quantity{Value: n, Valid: true}
}

// Int returns the value and whether it is set.
func (q Quantity) Int() (int, bool) {
	return q.Value, q.Valid
}

// String returns the decimal value, or "" when unset.
func (q Quantity) String() string {
	if !q.Valid {
		return ""
	}
	return strconv.Itoa(q.Value)
}

// MarshalJSON writes a number, or "" when unset as the form does.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte(`""`), nil
	}
	return strconv.AppendInt(nil, int64(q.Value), 10), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode quantity: %w", err)
		}
		raw = s
	}
	n, err := ParseQuantity(raw)
	if err != nil {
		return err
	}
	*q = n
	return nil
}

// MarshalYAML writes an int, or "" when unset.
func (q Quantity) MarshalYAML() (any, error) {
	if !q.Valid {
		return "", nil
	}
	return q.Value, nil
}

// UnmarshalYAML accepts the same spellings as UnmarshalJSON.
func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("decode quantity: expected scalar at line %d", value.Line)
	}
	if value.Tag == "!!null" {
		*q = Quantity{}
		return nil
	}
	n, err := ParseQuantity(value.Value)
	if err != nil {
		return err
	}
	*q = n
	return nil
}

// ParseQuantity parses a non-negative integer; blank input is unset.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if n < 0 {
		return Quantity{}, fmt.Errorf("invalid quantity %q: must not be negative", s)
	}
	return Count(n), nil
}

// EventDraft is the user-editable description of an event.
type EventDraft struct {
	EventType   string   `json:"eventType" yaml:"eventType"`
	Date        string   `json:"date" yaml:"date"`
	EndDate     string   `json:"endDate" yaml:"endDate"`
	Duration    string   `json:"duration" yaml:"duration"`
	Guests      Quantity `json:"guests" yaml:"guests"`
	Budget      Quantity `json:"budget" yaml:"budget"`
	Location    string   `json:"location" yaml:"location"`
	Culture     string   `json:"culture" yaml:"culture"`
	Description string   `json:"description" yaml:"description"`
}

// Field is one labelled value of an EventDraft, in display order.
type Field struct {
	Name  string
	Label string
	Value string
}

// DurationDays returns the "<N> day(s)" count found in Duration, or 0.
func (d EventDraft) DurationDays() int {
	m := durationDaysPattern.FindStringSubmatch(d.Duration)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// IsMultiDay reports whether Date and EndDate together denote a range.
func (d EventDraft) IsMultiDay() bool {
	return d.DurationDays() > 1
}

// DateRange renders "date to endDate" when an end date is set, else date alone.
func (d EventDraft) DateRange() string {
	if d.EndDate != "" {
		return d.Date + " to " + d.EndDate
	}
	return d.Date
}

// IsZero returns true if no field has been filled in.
func (d EventDraft) IsZero() bool {
	return d == EventDraft{}
}

// Fields returns the draft as ordered (label, value) pairs.
func (d EventDraft) Fields() []Field {
	return []Field{
		{Name: "eventType", Label: "Event Type", Value: d.EventType},
		{Name: "date", Label: "Date", Value: d.Date},
		{Name: "endDate", Label: "End Date", Value: d.EndDate},
		{Name: "duration", Label: "Duration", Value: d.Duration},
		{Name: "guests", Label: "Guests", Value: d.Guests.String()},
		{Name: "budget", Label: "Budget", Value: d.Budget.String()},
		{Name: "location", Label: "Location", Value: d.Location},
		{Name: "culture", Label: "Culture", Value: d.Culture},
		{Name: "description", Label: "Description", Value: d.Description},
	}
}

// Set assigns one field by its wire name.
func (d *EventDraft) Set(name, value string) error {
	switch name {
	case "eventType":
		d.EventType = value
	case "date":
		d.Date = value
	case "endDate":
		d.EndDate = value
	case "duration":
		d.Duration = value
	case "guests":
		n, err := ParseQuantity(value)
		if err != nil {
			return fmt.Errorf("guests: %w", err)
		}
		d.Guests = n
	case "budget":
		n, err := ParseQuantity(value)
		if err != nil {
			return fmt.Errorf("budget: %w", err)
		}
		d.Budget = n
	case "location":
		d.Location = value
	case "culture":
		d.Culture = value
	case "description":
		d.Description = value
	default:
		return fmt.Errorf("unknown draft field %q", name)
	}
	return nil
}
