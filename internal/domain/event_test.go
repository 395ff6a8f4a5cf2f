package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationDays(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"", 0},
		{"1 day", 1},
		{"3 days", 3},
		{"2Days", 2},
		{"a weekend, 2 DAYS total", 2},
		{"4 hours", 0},
	}
	for _, tt := range tests {
		d := EventDraft{Duration: tt.duration}
		assert.Equal(t, tt.want, d.DurationDays(), "duration %q", tt.duration)
	}

	assert.True(t, EventDraft{Duration: "3 days"}.IsMultiDay())
	assert.False(t, EventDraft{Duration: "1 day"}.IsMultiDay())
}

func TestDateRange(t *testing.T) {
	assert.Equal(t, "2024-01-01 to 2024-01-03", EventDraft{Date: "2024-01-01", EndDate: "2024-01-03"}.DateRange())
	assert.Equal(t, "2024-01-01", EventDraft{Date: "2024-01-01"}.DateRange())
}

func TestQuantityAcceptsStringsAndNumbers(t *testing.T) {
	var d EventDraft
	err := json.Unmarshal([]byte(`{"eventType":"Wedding","guests":"200","budget":500000}`), &d)
	require.NoError(t, err)
	assert.Equal(t, Count(200), d.Guests)
	assert.Equal(t, Count(500000), d.Budget)

	err = json.Unmarshal([]byte(`{"guests":"","budget":null}`), &d)
	require.NoError(t, err)
	assert.False(t, d.Guests.Valid)
	assert.False(t, d.Budget.Valid)

	err = json.Unmarshal([]byte(`{"guests":0,"budget":"0"}`), &d)
	require.NoError(t, err)
	assert.Equal(t, Count(0), d.Guests)
	assert.Equal(t, Count(0), d.Budget)

	err = json.Unmarshal([]byte(`{"guests":"many"}`), &d)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"guests":-4}`), &d)
	assert.Error(t, err)
}

func TestQuantityMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(EventDraft{Guests: Count(20), Budget: Count(20000)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"guests":20`)
	assert.Contains(t, string(data), `"budget":20000`)
}

func TestUnsetQuantityStaysUnset(t *testing.T) {
	var d EventDraft
	require.NoError(t, d.Set("guests", ""))
	require.NoError(t, d.Set("budget", "  "))
	assert.True(t, d.IsZero())
	assert.Empty(t, d.Fields()[4].Value)
	assert.Empty(t, d.Fields()[5].Value)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"guests":""`)

	var back EventDraft
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)

	out, err := yaml.Marshal(EventDraft{Guests: Count(0)})
	require.NoError(t, err)
	var fromYAML EventDraft
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Equal(t, Count(0), fromYAML.Guests)
	assert.False(t, fromYAML.Budget.Valid)
}

func TestDraftFromYAML(t *testing.T) {
	src := `
eventType: Wedding
date: "2024-06-01"
duration: 1 day
guests: 200
budget: "500000"
location: Mumbai
culture: Indian
`
	var d EventDraft
	require.NoError(t, yaml.Unmarshal([]byte(src), &d))
	assert.Equal(t, "Wedding", d.EventType)
	assert.Equal(t, "2024-06-01", d.Date)
	assert.Equal(t, Count(200), d.Guests)
	assert.Equal(t, Count(500000), d.Budget)
}

func TestFieldsOrder(t *testing.T) {
	d := EventDraft{EventType: "Party", Guests: Count(12)}
	fields := d.Fields()
	require.Len(t, fields, 9)
	assert.Equal(t, "Event Type", fields[0].Label)
	assert.Equal(t, "Party", fields[0].Value)
	assert.Equal(t, "Guests", fields[4].Label)
	assert.Equal(t, "12", fields[4].Value)
	assert.Equal(t, "Description", fields[8].Label)
}

func TestSet(t *testing.T) {
	var d EventDraft
	require.NoError(t, d.Set("eventType", "Conference"))
	require.NoError(t, d.Set("guests", "45"))
	require.NoError(t, d.Set("endDate", "2024-02-02"))
	assert.Equal(t, "Conference", d.EventType)
	assert.Equal(t, Count(45), d.Guests)
	assert.Equal(t, "2024-02-02", d.EndDate)

	assert.Error(t, d.Set("budget", "lots"))
	assert.Error(t, d.Set("colour", "blue"))
	assert.False(t, d.IsZero())
	assert.True(t, EventDraft{}.IsZero())
}

func TestSessionRecordTitle(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	r := SessionRecord{Timestamp: ts, EventData: EventDraft{EventType: "wedding"}}
	assert.Equal(t, "Wedding – 2024-06-01", r.Title())

	r.EventData.EventType = ""
	assert.Equal(t, "Event – 2024-06-01", r.Title())
}

func TestSortByNewest(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []SessionRecord{
		{ChatSessionID: "a", Timestamp: base},
		{ChatSessionID: "b", Timestamp: base.Add(2 * time.Hour)},
		{ChatSessionID: "c", Timestamp: base.Add(time.Hour)},
	}
	out := SortByNewest(in)
	assert.Equal(t, []string{"b", "c", "a"}, ids(out))
	assert.Equal(t, "a", in[0].ChatSessionID, "input must not be reordered")
}

func ids(records []SessionRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ChatSessionID)
	}
	return out
}
