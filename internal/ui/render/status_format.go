package render

import (
	"fmt"
	"strings"

	textutil "github.com/kk-code-lab/rpick/internal/textutil"
)

// sanitizeLine keeps the first line of an error or label and makes it safe
// to print.
func sanitizeLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return textutil.SanitizeTerminalText(text)
}

func truncate(text string, width int) string {
	return textutil.Truncate(text, width)
}

// formatCount prints exact counts up to 100k and compact ones above.
func formatCount(n int) string {
	if n < 100_000 {
		return fmt.Sprintf("%d", n)
	}
	return formatCompactNumber(n)
}

func formatCompactNumber(n int) string {
	switch {
	case n >= 1_000_000_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000_000_000.0)) + "B"
	case n >= 1_000_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000_000.0)) + "M"
	case n >= 1_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000.0)) + "k"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimTrailingZero(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}
