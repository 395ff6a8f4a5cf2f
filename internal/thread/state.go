package thread

import (
	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/render"
)

// State is the lifecycle position of the live session.
type State int

const (
	StateIdle State = iota
	StateGeneratingInitial
	StateReady
	StateGeneratingFollowUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGeneratingInitial:
		return "generating-initial"
	case StateReady:
		return "ready"
	case StateGeneratingFollowUp:
		return "generating-follow-up"
	default:
		return "unknown"
	}
}

func (s State) generating() bool {
	return s == StateGeneratingInitial || s == StateGeneratingFollowUp
}

// Status is what the presentation layer needs to gate input.
type Status struct {
	State     State
	SessionID string
	Loading   bool
	Turns     int
}

// Thread is the live conversation. Follow-ups are always asked against
// InitialPrompt and InitialResponse, never against later turns.
type Thread struct {
	InitialPrompt   string
	InitialResponse string
	Turns           []domain.Turn
}

// HistoryEntry is one recorded exchange prepared for display.
type HistoryEntry struct {
	ChatType domain.ChatType
	Prompt   string
	Response string
	Result   render.Result
}

// History is a recorded session prepared for read-only display.
type History struct {
	Title   string
	Fields  []domain.Field
	Entries []HistoryEntry
}

// SelectHistorical renders a recorded session for viewing. It does not touch
// the live session: follow-ups still target the live thread.
func (m *Manager) SelectHistorical(record domain.SessionRecord) History {
	return ReplayHistory(record)
}

// ReplayHistory renders every entry of record in order.
func ReplayHistory(record domain.SessionRecord) History {
	h := History{
		Title:   record.Title(),
		Fields:  record.EventData.Fields(),
		Entries: make([]HistoryEntry, 0, len(record.ChatHistory)),
	}
	for _, e := range record.ChatHistory {
		h.Entries = append(h.Entries, HistoryEntry{
			ChatType: e.ChatType,
			Prompt:   e.Prompt,
			Response: e.Response,
			Result:   render.Render(e.Response),
		})
	}
	return h
}
