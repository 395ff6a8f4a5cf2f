// Package view renders plans, threads and session listings for the terminal.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/render"
	"github.com/ashureev/eventplanner/internal/thread"
)

var (
	boldHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headingStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dayStyle         = lipgloss.NewStyle().Bold(true)
	bulletStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	questionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	borderStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func getStateStyles() map[thread.State]lipgloss.Style {
	return map[thread.State]lipgloss.Style{
		thread.StateIdle:               lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		thread.StateGeneratingInitial:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		thread.StateReady:              lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		thread.StateGeneratingFollowUp: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
}

// Result renders a classified response.
func Result(r render.Result) string {
	if r.IsTable() {
		return grid(r.Table.Header(), r.Table.Rows())
	}

	lines := make([]string, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		lines = append(lines, Block(b))
	}
	return strings.Join(lines, "\n")
}

// Block renders one classified line.
func Block(b render.Block) string {
	switch b.Kind {
	case render.KindEmpty:
		return ""
	case render.KindListItem:
		return bulletStyle.Render("•") + " " + b.Text
	case render.KindHeading:
		return headingStyle.Render(b.Text)
	case render.KindBoldHeading:
		return boldHeadingStyle.Render(b.Text)
	case render.KindDayLabel:
		return dayStyle.Render(b.Text)
	default:
		return b.Text
	}
}

// Turn renders a follow-up question and its answer.
func Turn(t domain.Turn) string {
	return questionStyle.Render("Q: "+t.Question) + "\n" + Result(render.Render(t.Answer))
}

// Draft renders the event fields as a two-column list.
func Draft(fields []domain.Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s  %s\n", labelStyle.Render(fmt.Sprintf("%-*s", width, f.Label)), f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// History renders a recorded session read-only.
func History(h thread.History) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(h.Title))
	b.WriteString("\n\n")
	b.WriteString(Draft(h.Fields))
	for _, e := range h.Entries {
		b.WriteString("\n\n")
		if e.ChatType == domain.ChatTypeFollowUp {
			b.WriteString(questionStyle.Render("Q: " + e.Prompt))
			b.WriteString("\n")
		}
		b.WriteString(Result(e.Result))
	}
	return b.String()
}

// Sessions renders a directory listing.
func Sessions(records []domain.SessionRecord) string {
	if len(records) == 0 {
		return labelStyle.Render("No saved sessions.")
	}
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Title(),
			r.ChatSessionID,
			strconv.Itoa(len(r.ChatHistory)),
		})
	}
	return grid([]string{"#", "Session", "ID", "Entries"}, rows)
}

// Status renders a one-line state indicator.
func Status(s thread.Status) string {
	style, ok := getStateStyles()[s.State]
	if !ok {
		style = lipgloss.NewStyle()
	}
	line := style.Render(s.State.String())
	if s.Loading {
		line += " …"
	}
	return fmt.Sprintf("%s  session %s  turns %d", line, s.SessionID, s.Turns)
}

func grid(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.String()
}
