package textutil

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const DefaultTabWidth = 8

// CleanLine prepares external command output for display: escape sequences
// are stripped, tabs expanded and remaining control characters made visible.
func CleanLine(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if strings.IndexByte(line, 0x1b) >= 0 {
		line = StripANSI(line)
	}
	return SanitizeTerminalText(ExpandTabs(line, DefaultTabWidth))
}

// StripANSI removes CSI/OSC escape sequences.
func StripANSI(text string) string {
	return ansi.Strip(text)
}

// ExpandTabs replaces tab characters with spaces respecting terminal column width.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text
	}

	var builder strings.Builder
	builder.Grow(len(text) + tabWidth)
	column := 0
	for _, ru := range text {
		if ru == '\t' {
			spaces := tabWidth - (column % tabWidth)
			builder.WriteString(strings.Repeat(" ", spaces))
			column += spaces
			continue
		}
		builder.WriteRune(ru)
		column += RuneWidth(ru)
	}
	return builder.String()
}

// RuneWidth reports the cell width of ru, treating zero-width runes as one
// cell so sanitized placeholders never collapse.
func RuneWidth(ru rune) int {
	w := runewidth.RuneWidth(ru)
	if w < 1 {
		return 1
	}
	return w
}

// DisplayWidth reports the printable width of text accounting for wide runes.
func DisplayWidth(text string) int {
	width := 0
	for _, ru := range text {
		width += RuneWidth(ru)
	}
	return width
}

// Truncate cuts text to maxWidth cells, ending with an ellipsis when
// anything was dropped.
func Truncate(text string, maxWidth int) string {
	if maxWidth <= 0 || text == "" {
		return ""
	}
	if DisplayWidth(text) <= maxWidth {
		return text
	}
	const ellipsis = "…"
	if maxWidth == 1 {
		return ellipsis
	}

	var builder strings.Builder
	used := 0
	for _, ru := range text {
		w := RuneWidth(ru)
		if used+w > maxWidth-1 {
			break
		}
		builder.WriteRune(ru)
		used += w
	}
	builder.WriteString(ellipsis)
	return builder.String()
}

// Skip drops the first offset cells of text. A wide rune split by the
// offset is dropped entirely.
func Skip(text string, offset int) string {
	if offset <= 0 {
		return text
	}
	used := 0
	for i, ru := range text {
		if used >= offset {
			return text[i:]
		}
		used += RuneWidth(ru)
	}
	return ""
}
