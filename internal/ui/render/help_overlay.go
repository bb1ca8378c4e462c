package render

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

const helpFooter = "f1 / alt-h close"

func (r *Renderer) drawHelpOverlay(s *statepkg.PickerState, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	r.screen.HideCursor()
	baseStyle := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	for y := 0; y < h; y++ {
		r.fill(0, y, w, baseStyle)
	}

	title := " Help "
	headerStyle := baseStyle.Background(r.theme.HelpTitleBg).Foreground(r.theme.HelpTitleFg).Bold(true)
	r.fill(0, 0, w, headerStyle)
	titleStart := 0
	if titleWidth := r.measureTextWidth(title); w > titleWidth {
		titleStart = (w - titleWidth) / 2
	}
	r.drawTextLine(titleStart, 0, w-titleStart, title, headerStyle)

	row := 2
	maxRow := h - 1
	for _, line := range s.HelpLines() {
		if row >= maxRow {
			break
		}
		text := truncate(sanitizeLine(strings.TrimRight(line, " ")), w-4)
		r.drawTextLine(2, row, w-4, text, baseStyle)
		row++
	}

	if h > 1 {
		r.fill(0, h-1, w, headerStyle)
		r.drawTextLine(0, h-1, w, truncate(helpFooter, w), headerStyle)
	}
}
