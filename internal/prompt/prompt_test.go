package prompt

import (
	"testing"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetNotes(t *testing.T) {
	tests := []struct {
		name   string
		guests int
		budget int
		want   string
	}{
		{"small and cheap", 20, 20000, LowBudgetNote},
		{"boundary", 30, 25000, LowBudgetNote},
		{"large and very cheap", 100, 8000, TightBudgetNote},
		{"large and funded", 100, 50000, ""},
		{"small but funded", 10, 30000, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(domain.EventDraft{EventType: "Party", Guests: domain.Count(tt.guests), Budget: domain.Count(tt.budget)})
			for _, note := range []string{LowBudgetNote, TightBudgetNote} {
				if note == tt.want {
					assert.Contains(t, got, note)
				} else {
					assert.NotContains(t, got, note)
				}
			}
		})
	}
}

func TestDateRendering(t *testing.T) {
	ranged := Compile(domain.EventDraft{Date: "2024-01-01", EndDate: "2024-01-03"})
	assert.Contains(t, ranged, "- Date(s): 2024-01-01 to 2024-01-03\n")

	single := Compile(domain.EventDraft{Date: "2024-01-01", EndDate: ""})
	assert.Contains(t, single, "- Date(s): 2024-01-01\n")
	assert.NotContains(t, single, " to ")
}

func TestCompileWedding(t *testing.T) {
	d := domain.EventDraft{
		EventType: "Wedding",
		Duration:  "1 day",
		Date:      "2024-06-01",
		Guests:    domain.Count(200),
		Budget:    domain.Count(500000),
		Location:  "Mumbai",
		Culture:   "Indian",
	}
	got := Compile(d)
	for _, want := range []string{"Wedding", "2024-06-01", "200", "500000", "Mumbai", "Indian"} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, LowBudgetNote)
	assert.NotContains(t, got, TightBudgetNote)
	assert.Contains(t, got, "- Budget: ₹500000\n")
}

func TestCompileRequestsDeliverables(t *testing.T) {
	got := Compile(domain.EventDraft{})
	assert.Contains(t, got, "1. Time-based event schedule (check feasibility for short-notice).")
	assert.Contains(t, got, "2. Task plan with deadlines.")
	assert.Contains(t, got, "3. Budget breakdown (item & cost).")
	assert.Contains(t, got, "4. Suggestions for organizing the event.")
}

func TestCompileIsDeterministic(t *testing.T) {
	d := domain.EventDraft{EventType: "Meetup", Guests: domain.Count(40), Budget: domain.Count(9000)}
	assert.Equal(t, Compile(d), Compile(d))
}

func TestWithCurrency(t *testing.T) {
	c := New(WithCurrency("$"))
	assert.Contains(t, c.Compile(domain.EventDraft{Budget: domain.Count(1200)}), "- Budget: $1200\n")
}

func TestBlankQuantities(t *testing.T) {
	var d domain.EventDraft
	require.NoError(t, d.Set("eventType", "Reunion"))
	require.NoError(t, d.Set("guests", ""))
	require.NoError(t, d.Set("budget", ""))

	assert.Empty(t, BudgetNote(d))
	got := Compile(d)
	assert.Contains(t, got, "- Guests: \n")
	assert.Contains(t, got, "- Budget: ₹\n")
	assert.NotContains(t, got, LowBudgetNote)
	assert.NotContains(t, got, TightBudgetNote)
}

func TestBudgetNoteWithOneQuantitySet(t *testing.T) {
	assert.Empty(t, BudgetNote(domain.EventDraft{Guests: domain.Count(10)}))
	assert.Equal(t, TightBudgetNote, BudgetNote(domain.EventDraft{Budget: domain.Count(5000)}))
	assert.Empty(t, BudgetNote(domain.EventDraft{Budget: domain.Count(20000)}))
	assert.Equal(t, LowBudgetNote, BudgetNote(domain.EventDraft{Guests: domain.Count(0), Budget: domain.Count(0)}))
}
