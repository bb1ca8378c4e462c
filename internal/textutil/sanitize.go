package textutil

import (
	"strings"
	"unicode"
)

// Unsafe reports whether ru would move the cursor or reorder cells when
// painted: C0/C1 controls and format runes such as bidi overrides and
// zero-width joiners. Tabs are handled by the caller.
func Unsafe(ru rune) bool {
	return ru != '\t' && (unicode.IsControl(ru) || unicode.Is(unicode.Cf, ru))
}

// SanitizeTerminalText makes external text paintable on one row. Line
// breaks become spaces and every other unsafe rune becomes '?'.
func SanitizeTerminalText(text string) string {
	i := strings.IndexFunc(text, Unsafe)
	if i < 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	b.WriteString(text[:i])
	for _, ru := range text[i:] {
		switch {
		case ru == '\n' || ru == '\r':
			b.WriteByte(' ')
		case Unsafe(ru):
			b.WriteByte('?')
		default:
			b.WriteRune(ru)
		}
	}
	return b.String()
}
