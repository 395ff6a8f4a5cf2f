// Package prompt compiles an event draft into the planning request sent to the
// generation service.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ashureev/eventplanner/internal/domain"
)

// Budget thresholds for the advisory notes.
const (
	LowBudgetMaxGuests    = 30
	LowBudgetMaxBudget    = 25000
	TightBudgetMaxBudget  = 10000
	DefaultCurrencySymbol = "₹"
)

// Advisory notes appended after the event details.
const (
	LowBudgetNote   = "Note: This is a low-budget event. Focus on affordable options like small halls, veg catering, basic sound & lights."
	TightBudgetNote = "Important: Extremely limited budget. Advise if the event is feasible and what can be cut down."
)

var deliverables = []string{
	"Time-based event schedule (check feasibility for short-notice).",
	"Task plan with deadlines.",
	"Budget breakdown (item & cost).",
	"Suggestions for organizing the event.",
}

// Compiler builds prompts. The zero value is not usable; use New.
type Compiler struct {
	currency string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCurrency sets the symbol printed before the budget.
func WithCurrency(symbol string) Option {
	return func(c *Compiler) {
		c.currency = symbol
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{currency: DefaultCurrencySymbol}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = New()

// Compile builds a prompt with the default compiler.
func Compile(d domain.EventDraft) string {
	return defaultCompiler.Compile(d)
}

// BudgetNote returns the advisory note that applies to the draft, or "".
// A comparison against an unset quantity never holds.
func BudgetNote(d domain.EventDraft) string {
	guests, hasGuests := d.Guests.Int()
	budget, hasBudget := d.Budget.Int()
	switch {
	case hasGuests && hasBudget && guests <= LowBudgetMaxGuests && budget <= LowBudgetMaxBudget:
		return LowBudgetNote
	case hasBudget && budget <= TightBudgetMaxBudget:
		return TightBudgetNote
	default:
		return ""
	}
}

// Compile renders the planning request for a draft. Missing fields render
// as empty values.
func (c *Compiler) Compile(d domain.EventDraft) string {
	var b strings.Builder

	b.WriteString("You are an expert event planner. Based on the details below, create a comprehensive plan:\n")
	fmt.Fprintf(&b, "- Event: %s\n", d.EventType)
	fmt.Fprintf(&b, "- Date(s): %s\n", d.DateRange())
	fmt.Fprintf(&b, "- Duration: %s\n", d.Duration)
	fmt.Fprintf(&b, "- Guests: %s\n", d.Guests)
	fmt.Fprintf(&b, "- Budget: %s%s\n", c.currency, d.Budget)
	fmt.Fprintf(&b, "- Location: %s\n", d.Location)
	fmt.Fprintf(&b, "- Culture/Theme: %s\n", d.Culture)
	fmt.Fprintf(&b, "- Description: %s\n", d.Description)

	if note := BudgetNote(d); note != "" {
		b.WriteString("\n" + note + "\n")
	}

	b.WriteString("\nPlease provide:\n")
	for i, item := range deliverables {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}
