package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

func (r *Renderer) drawSeparator(s *statepkg.PickerState, g statepkg.Geometry) {
	style := tcell.StyleDefault.Foreground(r.theme.SeparatorFg)
	sep := g.Separator
	if g.Layout.Side.Horizontal() {
		for y := sep.Y; y < sep.Y+sep.H; y++ {
			r.screen.SetContent(sep.X, y, '│', nil, style)
		}
		return
	}
	for x := sep.X; x < sep.X+sep.W; x++ {
		r.screen.SetContent(x, sep.Y, '─', nil, style)
	}
	if label := " " + sanitizeLine(s.Preview.SourceName()) + " "; sep.W > 4 {
		r.drawTextLine(sep.X+2, sep.Y, sep.W-4, label, style.Bold(true))
	}
}

// drawPreview draws the preview lines from the current scroll offset. The
// last row is kept for the error of a failed command. In overlay mode the
// source name is always shown in the corner.
func (r *Renderer) drawPreview(s *statepkg.PickerState, rect statepkg.Rect, overlay bool) {
	if rect.Empty() {
		return
	}
	p := &s.Preview
	style := tcell.StyleDefault.Background(r.theme.PreviewBg).Foreground(r.theme.PreviewFg)
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		r.fill(rect.X, y, rect.W, style)
	}

	body := rect.H
	if p.Err != nil && (body > 1 || len(p.Lines) == 0) {
		body--
		msg := truncate(sanitizeLine(p.Err.Error()), rect.W)
		r.drawTextLine(rect.X, rect.Y+body, rect.W, msg, style.Foreground(r.theme.ErrorFg))
	}

	row := 0
	for i := max(p.Scroll, 0); i < len(p.Lines) && row < body; i++ {
		chunks := []string{p.Lines[i]}
		if p.Wrap {
			chunks = r.wrapLine(p.Lines[i], rect.W)
		}
		for _, chunk := range chunks {
			if row >= body {
				break
			}
			r.drawTextLine(rect.X, rect.Y+row, rect.W, chunk, style)
			row++
		}
	}
	if len(p.Lines) == 0 && p.Loading && p.Err == nil && body > 0 {
		r.drawTextLine(rect.X, rect.Y, rect.W, "loading…", style.Foreground(r.theme.InfoFg))
	}

	label := ""
	if len(p.Lines) > body {
		label = fmt.Sprintf("%d/%d", p.Scroll+1, len(p.Lines))
	}
	if overlay || (label != "" && s.Geometry().Layout.Side.Horizontal()) {
		if label != "" {
			label = " " + label
		}
		label = sanitizeLine(p.SourceName()) + label
	}
	if label == "" {
		return
	}
	label = truncate(" "+label+" ", rect.W)
	x := rect.X + rect.W - r.measureTextWidth(label)
	r.drawTextLine(x, rect.Y, rect.W, label, style.Foreground(r.theme.ScrollInfoFg).Reverse(true))
}

// wrapLine splits text into chunks of at most width cells.
func (r *Renderer) wrapLine(text string, width int) []string {
	if width <= 0 || r.measureTextWidth(text) <= width {
		return []string{text}
	}
	var chunks []string
	start, used := 0, 0
	for i, ru := range text {
		w := max(r.cachedRuneWidth(ru), 1)
		if used+w > width {
			chunks = append(chunks, text[start:i])
			start, used = i, 0
		}
		used += w
	}
	return append(chunks, text[start:])
}
