package render

import (
	"html"
	"strings"
)

// Table holds rows of trimmed cells; row 0 is the header.
type Table [][]string

// Header returns the first row, or nil for an empty table.
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns every row after the header.
func (t Table) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// Result is either a Table or a sequence of Blocks, never both.
type Result struct {
	Table  Table
	Blocks []Block
}

// IsTable returns true if the response was rendered as a table.
func (r Result) IsTable() bool {
	return r.Table != nil
}

// Render classifies a full response. More than one line containing "|"
// selects table rendering; otherwise every line becomes a Block in order.
func Render(text string) Result {
	lines := strings.Split(text, "\n")

	var table Table
	for _, line := range lines {
		if !strings.Contains(line, "|") {
			continue
		}
		cells := strings.Split(line, "|")
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = strings.TrimSpace(c)
		}
		table = append(table, row)
	}
	if len(table) > 1 {
		return Result{Table: table}
	}

	blocks := make([]Block, len(lines))
	for i, line := range lines {
		blocks[i] = Classify(line)
	}
	return Result{Blocks: blocks}
}

// HTML renders the result as markup. Text is escaped.
func (r Result) HTML() string {
	var b strings.Builder
	if r.IsTable() {
		b.WriteString("<table><thead><tr>")
		for _, h := range r.Table.Header() {
			b.WriteString("<th>" + html.EscapeString(h) + "</th>")
		}
		b.WriteString("</tr></thead><tbody>")
		for _, row := range r.Table.Rows() {
			b.WriteString("<tr>")
			for _, c := range row {
				b.WriteString("<td>" + html.EscapeString(c) + "</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table>")
		return b.String()
	}

	for _, blk := range r.Blocks {
		b.WriteString(blk.HTML())
	}
	return b.String()
}

// HTML renders a single block as markup.
func (b Block) HTML() string {
	text := html.EscapeString(b.Text)
	switch b.Kind {
	case KindEmpty:
		return ""
	case KindListItem:
		return "<li>" + text + "</li>"
	case KindHeading:
		return "<h5>" + text + "</h5>"
	case KindDayLabel:
		return "<p><strong>" + text + "</strong></p>"
	case KindBoldHeading:
		return "<h4>" + text + "</h4>"
	default:
		return "<p>" + text + "</p>"
	}
}
