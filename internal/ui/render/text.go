package render

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/search"
	"github.com/kk-code-lab/rpick/internal/textutil"
	"github.com/mattn/go-runewidth"
)

func (r *Renderer) cachedRuneWidth(ru rune) int {
	if ru < 128 {
		r.runeWidthCacheMu.RLock()
		width := r.runeWidthCache[ru]
		r.runeWidthCacheMu.RUnlock()

		if width == 0 && ru != 0 {
			actualWidth := max(runewidth.RuneWidth(ru), 0)
			r.runeWidthCacheMu.Lock()
			r.runeWidthCache[ru] = actualWidth + 1
			r.runeWidthCacheMu.Unlock()
			return actualWidth
		}
		return width - 1
	}

	if cached, ok := r.runeWidthWide.Load(ru); ok {
		return cached.(int)
	}
	width := max(runewidth.RuneWidth(ru), 0)
	r.runeWidthWide.Store(ru, width)
	return width
}

func (r *Renderer) measureTextWidth(text string) int {
	width := 0
	for _, ru := range text {
		width += r.cachedRuneWidth(ru)
	}
	return width
}

// drawTextLine draws text from startX and returns the next free column.
// Zero-width runes are attached to the preceding cell.
func (r *Renderer) drawTextLine(startX, y, maxWidth int, text string, style tcell.Style) int {
	x := startX
	runes := []rune(text)
	i := 0

	for i < len(runes) {
		mainc := runes[i]
		w := max(r.cachedRuneWidth(mainc), 1)
		if x-startX+w > maxWidth {
			break
		}
		i++

		var combc []rune
		for i < len(runes) && r.cachedRuneWidth(runes[i]) == 0 && !unicode.IsControl(runes[i]) {
			combc = append(combc, runes[i])
			i++
		}

		r.screen.SetContent(x, y, mainc, combc, style)
		x += w
	}
	return x
}

func (r *Renderer) fill(x, y, w int, style tcell.Style) {
	for i := 0; i < w; i++ {
		r.screen.SetContent(x+i, y, ' ', nil, style)
	}
}

// drawRecordText draws untrusted record text in one pass: tabs expand to
// the next stop, control and formatting runes show as '?', and runes inside
// spans (inclusive rune ranges of text) use matchStyle. skip drops leading
// cells.
func (r *Renderer) drawRecordText(startX, y, maxX int, text string, spans []search.MatchSpan, skip int, baseStyle, matchStyle tcell.Style) int {
	x := startX
	col := 0
	spanIdx := 0
	idx := 0
	for _, ru := range text {
		for spanIdx < len(spans) && idx > spans[spanIdx].End {
			spanIdx++
		}
		style := baseStyle
		if spanIdx < len(spans) && idx >= spans[spanIdx].Start {
			style = matchStyle
		}
		idx++

		glyph, width := ru, r.cachedRuneWidth(ru)
		switch {
		case ru == '\t':
			glyph, width = ' ', textutil.DefaultTabWidth-col%textutil.DefaultTabWidth
		case textutil.Unsafe(ru):
			glyph, width = '?', 1
		case width == 0:
			width = 1
		}
		pos := col - skip
		col += width
		if pos+width <= 0 {
			continue
		}
		if pos < 0 || startX+pos+width > maxX || (glyph == ' ' && width > 1) {
			// Tabs and runes cut by either edge become blank cells.
			from, to := max(pos, 0), min(pos+width, maxX-startX)
			for c := from; c < to; c++ {
				r.screen.SetContent(startX+c, y, ' ', nil, style)
			}
			x = startX + max(to, 0)
			if startX+pos+width > maxX {
				return x
			}
			continue
		}
		r.screen.SetContent(startX+pos, y, glyph, nil, style)
		x = startX + pos + width
	}
	return x
}

// recordCells is the cell offset at which rune index idx of text starts,
// measured the way drawRecordText lays it out.
func (r *Renderer) recordCells(text string, idx int) int {
	col := 0
	i := 0
	for _, ru := range text {
		if i == idx {
			break
		}
		i++
		switch w := r.cachedRuneWidth(ru); {
		case ru == '\t':
			col += textutil.DefaultTabWidth - col%textutil.DefaultTabWidth
		case textutil.Unsafe(ru) || w == 0:
			col++
		default:
			col += w
		}
	}
	return col
}
