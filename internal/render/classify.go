// Package render turns generated plan text into tables or classified blocks.
package render

import (
	"regexp"
	"strings"
)

// Kind identifies how a single line of generated text is displayed.
type Kind int

const (
	// KindParagraph is plain text.
	KindParagraph Kind = iota
	// KindEmpty is a line that renders nothing (code fence markers).
	KindEmpty
	// KindListItem is a bulleted or numbered entry.
	KindListItem
	// KindHeading is an all-caps label ending in a colon.
	KindHeading
	// KindDayLabel is a "Day N ...:" schedule label, shown bold.
	KindDayLabel
	// KindBoldHeading is a line wrapped in ** markers.
	KindBoldHeading
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindEmpty:
		return "empty"
	case KindListItem:
		return "list_item"
	case KindHeading:
		return "heading"
	case KindDayLabel:
		return "day_label"
	case KindBoldHeading:
		return "bold_heading"
	default:
		return "unknown"
	}
}

// Heading levels used for the two heading kinds.
const (
	HeadingLevel     = 5
	BoldHeadingLevel = 4
)

// Block is one classified line.
type Block struct {
	Kind  Kind
	Level int
	Text  string
}

const fence = "```"

var (
	numberedPrefix = regexp.MustCompile(`^\d+\.`)
	numberedStrip  = regexp.MustCompile(`^\d+\.\s*`)
	bulletStrip    = regexp.MustCompile(`^-\s*`)
	capsLabel      = regexp.MustCompile(`^[A-Z\s&\-]+:$`)
	dayLabel       = regexp.MustCompile(`^Day\s+\d+.*:`)
)

// Classify maps one line to a Block. Rules are tried in order; first match wins.
// A blank line yields an empty paragraph.
func Classify(line string) Block {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, fence) || strings.HasSuffix(trimmed, fence):
		return Block{Kind: KindEmpty}
	case strings.HasPrefix(trimmed, "-"):
		return Block{Kind: KindListItem, Text: bulletStrip.ReplaceAllString(trimmed, "")}
	case numberedPrefix.MatchString(trimmed):
		return Block{Kind: KindListItem, Text: numberedStrip.ReplaceAllString(trimmed, "")}
	case capsLabel.MatchString(trimmed):
		return Block{Kind: KindHeading, Level: HeadingLevel, Text: stripEmphasis(line)}
	case dayLabel.MatchString(trimmed):
		return Block{Kind: KindDayLabel, Text: stripEmphasis(line)}
	case strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**"):
		return Block{Kind: KindBoldHeading, Level: BoldHeadingLevel, Text: stripEmphasis(line)}
	default:
		return Block{Kind: KindParagraph, Text: stripEmphasis(line)}
	}
}

func stripEmphasis(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
}
