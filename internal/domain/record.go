package domain

import (
	"sort"
	"time"
	"unicode"
	"unicode/utf8"
)

// ChatType distinguishes the first generation of a session from follow-ups.
type ChatType string

const (
	// ChatTypeInitial is the plan generation that opens a session.
	ChatTypeInitial ChatType = "initial"
	// ChatTypeFollowUp is a question asked against an existing plan.
	ChatTypeFollowUp ChatType = "follow-up"
)

// Valid returns true for the two known chat types.
func (c ChatType) Valid() bool {
	return c == ChatTypeInitial || c == ChatTypeFollowUp
}

// Turn is one follow-up question and the answer it received.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatEntry is one recorded request/response exchange of a session.
type ChatEntry struct {
	ChatType  ChatType  `json:"chatType,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionRecord is a server-recorded conversation.
type SessionRecord struct {
	ChatSessionID string      `json:"chatSessionId"`
	UserID        string      `json:"userId"`
	Timestamp     time.Time   `json:"timestamp"`
	EventData     EventDraft  `json:"eventData"`
	ChatHistory   []ChatEntry `json:"chatHistory"`
}

// Title returns "<Event type> – <date>" for session listings.
func (r SessionRecord) Title() string {
	name := "Event"
	if r.EventData.EventType != "" {
		name = capitalize(r.EventData.EventType)
	}
	return name + " – " + r.Timestamp.Local().Format("2006-01-02")
}

// SortByNewest returns a copy of records ordered by descending timestamp.
func SortByNewest(records []SessionRecord) []SessionRecord {
	out := make([]SessionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
