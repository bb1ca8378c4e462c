package render

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/search"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

// Records looks up ingested lines by index.
type Records interface {
	Record(i int) (search.Record, bool)
}

// Renderer paints a PickerState onto a tcell screen.
type Renderer struct {
	screen   tcell.Screen
	theme    ColorTheme
	records  Records
	matcher  *search.FuzzyMatcher
	caseMode search.CaseMode
	now      func() time.Time

	// pattern is the parsed query of the snapshot being shown.
	patternQuery string
	patternModel *column.Model
	pattern      *search.Pattern
	patternOK    bool

	runeWidthCache   [128]int // ASCII cache (0-127)
	runeWidthCacheMu sync.RWMutex
	runeWidthWide    sync.Map // For non-ASCII runes
}

// NewRenderer creates a new renderer
func NewRenderer(screen tcell.Screen, records Records) *Renderer {
	return &Renderer{
		screen:  screen,
		theme:   GetColorTheme(),
		records: records,
		matcher: search.NewFuzzyMatcher(),
		now:     time.Now,
	}
}

// SetCaseMode sets the case handling used for match highlighting. It must
// agree with the ranking worker.
func (r *Renderer) SetCaseMode(mode search.CaseMode) {
	r.caseMode = mode
	r.patternOK = false
}

// Render draws the entire UI based on state
func (r *Renderer) Render(s *statepkg.PickerState) {
	r.screen.Clear()
	r.screen.HideCursor()

	g := s.Geometry()
	if g.Overlay {
		r.drawPreview(s, g.Preview, true)
	} else {
		r.drawMain(s, g.Main, !s.HelpVisible)
		if g.PreviewShown() {
			r.drawSeparator(s, g)
			r.drawPreview(s, g.Preview, false)
		}
	}
	if s.HelpVisible {
		r.drawHelpOverlay(s, s.ScreenWidth, s.ScreenHeight)
	}

	r.screen.Show()
}

func (r *Renderer) drawMain(s *statepkg.PickerState, main statepkg.Rect, cursor bool) {
	if main.Empty() {
		return
	}
	bottom := main.Y + main.H

	r.drawPrompt(s, main, cursor)
	if main.H > 1 {
		r.drawInfo(s, main, main.Y+1)
	}

	headerStyle := tcell.StyleDefault.Foreground(r.theme.HeaderFg)
	y := main.Y + 2
	for _, line := range s.HeaderLines() {
		if y >= bottom {
			return
		}
		r.drawRecordText(main.X, y, main.X+main.W, line, nil, 0, headerStyle, headerStyle)
		y++
	}

	rect := s.ResultsRect()
	r.drawResults(s, rect)

	y = rect.Y + rect.H
	for _, line := range s.FooterLines() {
		if y >= bottom {
			return
		}
		r.drawRecordText(main.X, y, main.X+main.W, line, nil, 0, headerStyle, headerStyle)
		y++
	}
}

// drawPrompt draws the prompt and query, scrolling the query so the cursor
// stays on screen.
func (r *Renderer) drawPrompt(s *statepkg.PickerState, main statepkg.Rect, cursor bool) {
	promptStyle := tcell.StyleDefault.Foreground(r.theme.PromptFg).Bold(true)
	queryStyle := tcell.StyleDefault.Foreground(r.theme.Foreground)
	maxX := main.X + main.W

	x := r.drawTextLine(main.X, main.Y, main.W, s.Prompt, promptStyle)
	avail := maxX - x
	if avail <= 0 {
		return
	}

	pos := min(max(s.Cursor, 0), len(s.Query))
	query := string(s.Query)
	cursorCells := r.recordCells(query, pos)
	skip := max(cursorCells-avail+1, 0)
	r.drawRecordText(x, main.Y, maxX, query, nil, skip, queryStyle, queryStyle)
	if cursor {
		r.screen.ShowCursor(x+cursorCells-skip, main.Y)
	}
}

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 100 * time.Millisecond

func (r *Renderer) spinner() rune {
	frame := r.now().UnixNano() / int64(spinnerInterval)
	return spinnerFrames[int(frame%int64(len(spinnerFrames)))]
}

// drawInfo draws the counter line: a spinner while input or ranking is in
// flight, matched/total, the selection count, the active column, and the
// last error.
func (r *Renderer) drawInfo(s *statepkg.PickerState, main statepkg.Rect, y int) {
	maxX := main.X + main.W
	infoStyle := tcell.StyleDefault.Foreground(r.theme.InfoFg)

	x := main.X
	if busy(s) {
		r.screen.SetContent(x, y, r.spinner(), nil, tcell.StyleDefault.Foreground(r.theme.SpinnerFg))
	}
	x += 2
	if x >= maxX {
		return
	}
	x = r.drawTextLine(x, y, maxX-x, formatCounts(s), infoStyle)

	err := s.StatusErr
	if err == nil {
		err = s.Snapshot.Err
	}
	if err == nil || maxX-x < 3 {
		return
	}
	msg := sanitizeLine(err.Error())
	x += 2
	r.drawTextLine(x, y, maxX-x, truncate(msg, maxX-x), tcell.StyleDefault.Foreground(r.theme.ErrorFg))
}

func busy(s *statepkg.PickerState) bool {
	return s.Snapshot.Running || !s.Snapshot.Sealed
}

func (r *Renderer) drawResults(s *statepkg.PickerState, rect statepkg.Rect) {
	if rect.Empty() || r.records == nil {
		return
	}
	matches := s.Snapshot.Matches
	maxX := rect.X + rect.W

	for row := 0; row < rect.H; row++ {
		i := s.ResultScroll + row
		if i < 0 || i >= len(matches) {
			return
		}
		rec, ok := r.records.Record(matches[i].Index)
		if !ok {
			continue
		}
		y := rect.Y + row

		base := tcell.StyleDefault.Foreground(r.theme.Foreground)
		if i == s.Highlight {
			base = tcell.StyleDefault.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg).Bold(true)
			r.fill(rect.X, y, rect.W, base)
			r.screen.SetContent(rect.X, y, '>', nil, base.Foreground(r.theme.CursorFg))
		}
		if s.Selection.Has(matches[i].Index) && rect.W > 1 {
			r.screen.SetContent(rect.X+1, y, '•', nil, base.Foreground(r.theme.MarkerFg))
		}

		startX := rect.X + 2
		if startX >= maxX {
			continue
		}
		display, spans := r.displayText(s, rec)
		matchStyle := base.Foreground(r.theme.MatchFg).Bold(true)
		r.drawLine(startX, y, maxX, display, spans, base, matchStyle)
	}
}

// drawLine draws a result line, shifting it left when the last match span
// would fall off the right edge. Cut ends are marked with an ellipsis.
func (r *Renderer) drawLine(startX, y, maxX int, text string, spans []search.MatchSpan, base, matchStyle tcell.Style) {
	avail := maxX - startX
	total := r.recordCells(text, utf8.RuneCountInString(text))
	skip := 0
	if len(spans) > 0 && total > avail {
		end := r.recordCells(text, spans[len(spans)-1].End+1)
		if end > avail-1 {
			skip = min(end-avail+2, total-avail+1)
		}
	}

	x := startX
	if skip > 0 {
		r.screen.SetContent(x, y, '…', nil, base)
		x++
	}
	r.drawRecordText(x, y, maxX, text, spans, skip, base, matchStyle)
	if total-skip > maxX-x {
		r.screen.SetContent(maxX-1, y, '…', nil, base)
	}
}

// displayText returns the visible form of rec and the spans of the active
// column matched by the current query, in display rune indexes.
func (r *Renderer) displayText(s *statepkg.PickerState, rec search.Record) (string, []search.MatchSpan) {
	model := s.Options().Columns
	display := rec.Raw
	if model != nil {
		display = model.Display(rec.Raw, rec.Columns)
	}

	pattern := r.patternFor(s.Snapshot.Query, model)
	if pattern == nil {
		return display, nil
	}
	if model == nil || len(rec.Columns) == 0 {
		return display, pattern.Highlight(r.matcher, display)
	}

	active := s.ActiveColumn
	if active < 0 || active >= len(rec.Columns) || model.Hidden(active) {
		return display, nil
	}
	// Visible columns appear in display in order; walk past the ones before
	// the active column so a repeated value is not found too early.
	pos := 0
	for j := 0; j < active; j++ {
		if model.Hidden(j) {
			continue
		}
		if k := strings.Index(display[pos:], rec.Columns[j]); k >= 0 {
			pos += k + len(rec.Columns[j])
		}
	}
	text := rec.Columns[active]
	k := strings.Index(display[pos:], text)
	if text == "" || k < 0 {
		return display, nil
	}
	offset := utf8.RuneCountInString(display[:pos+k])
	spans := pattern.Highlight(r.matcher, text)
	for i := range spans {
		spans[i].Start += offset
		spans[i].End += offset
	}
	return display, spans
}

func (r *Renderer) patternFor(query string, model *column.Model) *search.Pattern {
	if query == "" {
		return nil
	}
	if !r.patternOK || r.patternQuery != query || r.patternModel != model {
		pattern, err := search.ParsePattern(query, model, r.caseMode)
		if err != nil {
			pattern = nil
		}
		r.pattern = pattern
		r.patternQuery = query
		r.patternModel = model
		r.patternOK = true
	}
	return r.pattern
}

func formatCounts(s *statepkg.PickerState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s", formatCount(len(s.Snapshot.Matches)), formatCount(s.Snapshot.Total))
	if n := s.Selection.Len(); n > 0 {
		fmt.Fprintf(&b, " (%d)", n)
	}
	if model := s.Options().Columns; model != nil && len(model.Specs()) > 1 {
		fmt.Fprintf(&b, " [%s]", s.ColumnName())
	}
	return b.String()
}
