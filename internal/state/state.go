package state

import (
	"strings"
	"time"

	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/search"
)

// Ranker is the matching worker as seen by the reducer.
type Ranker interface {
	Requery(query string)
	SetColumn(idx int)
	Record(i int) (search.Record, bool)
}

// PreviewSource is one named preview command.
type PreviewSource struct {
	Name     string
	Command  *column.Template
	Debounce time.Duration
}

// Options is the resolved startup configuration of a picker.
type Options struct {
	Prompt     string
	Header     string
	Footer     string
	Query      string
	History    []string
	Columns    *column.Model
	Active     int
	Sources    []PreviewSource
	Layouts    []Layout
	Hidden     bool
	Wrap       bool
	KeepScroll bool
	Select1    bool
	AllowEmpty bool
	HelpLines  []string
	TickEvery  time.Duration
	// Quote quotes template values for the configured shell.
	Quote func(string) string
}

// OutcomeKind tells how the picker terminated.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeAccept
	OutcomeAbort
)

// Outcome is the termination flag.
type Outcome struct {
	Kind    OutcomeKind
	Records []search.Record
	Code    int
}

// PickerState is the single source of truth of a running picker. It is
// owned by the application loop and mutated only through Reducer.Reduce.
type PickerState struct {
	opts Options

	// Query editing
	Query  []rune
	Cursor int

	Prompt string
	Header string
	Footer string

	// Ranking
	Snapshot     search.Snapshot
	Version      uint64
	Highlight    int
	ResultScroll int
	ActiveColumn int
	Wrap         bool

	Selection Selection

	ScreenWidth  int
	ScreenHeight int

	Preview PreviewState

	HelpVisible bool
	HelpText    string

	StatusErr error
	Outcome   Outcome

	// RedrawRequested asks the loop for a full terminal resync.
	RedrawRequested bool

	history      []string
	historyPos   int
	historyDraft string

	select1Armed bool
	loadRaised   bool

	events         []Event
	suppressEvents bool
}

// NewPickerState builds the initial state from opts.
func NewPickerState(opts Options) *PickerState {
	s := &PickerState{
		opts:         opts,
		Query:        []rune(opts.Query),
		Prompt:       opts.Prompt,
		Header:       opts.Header,
		Footer:       opts.Footer,
		ActiveColumn: opts.Active,
		history:      append([]string(nil), opts.History...),
		select1Armed: opts.Select1,
		Highlight:    -1,
	}
	s.Cursor = len(s.Query)
	s.historyPos = len(s.history)
	s.Preview = newPreviewState(opts)
	return s
}

// Options returns the startup options.
func (s *PickerState) Options() Options {
	return s.opts
}

// QueryString returns the query text.
func (s *PickerState) QueryString() string {
	return string(s.Query)
}

// Terminated reports whether Accept or Quit ran.
func (s *PickerState) Terminated() bool {
	return s.Outcome.Kind != OutcomeNone
}

// HighlightedIndex returns the record index under the cursor, or -1.
func (s *PickerState) HighlightedIndex() int {
	if s.Highlight < 0 || s.Highlight >= len(s.Snapshot.Matches) {
		return -1
	}
	return s.Snapshot.Matches[s.Highlight].Index
}

// HeaderLines splits the header for display.
func (s *PickerState) HeaderLines() []string {
	return splitLines(s.Header)
}

// FooterLines splits the footer for display.
func (s *PickerState) FooterLines() []string {
	return splitLines(s.Footer)
}

// HelpLines returns the overlay content.
func (s *PickerState) HelpLines() []string {
	if s.HelpText != "" {
		return splitLines(s.HelpText)
	}
	return s.opts.HelpLines
}

// ColumnName returns the display name of the active column.
func (s *PickerState) ColumnName() string {
	if s.opts.Columns == nil {
		return ""
	}
	return s.opts.Columns.Name(s.ActiveColumn)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

// ResultRows is the number of result rows visible in the main area.
func (s *PickerState) ResultRows() int {
	g := s.Geometry()
	rows := g.Main.H - 2 - len(s.HeaderLines()) - len(s.FooterLines())
	if rows < 0 {
		return 0
	}
	return rows
}

// clampHighlight keeps Highlight inside the snapshot and the cursor row
// inside the visible window.
func (s *PickerState) clampHighlight() {
	n := len(s.Snapshot.Matches)
	switch {
	case n == 0:
		s.Highlight = -1
		s.ResultScroll = 0
		return
	case s.Highlight < 0:
		s.Highlight = 0
	case s.Highlight >= n:
		s.Highlight = n - 1
	}
	rows := max(s.ResultRows(), 1)
	if s.Highlight < s.ResultScroll {
		s.ResultScroll = s.Highlight
	}
	if s.Highlight >= s.ResultScroll+rows {
		s.ResultScroll = s.Highlight - rows + 1
	}
	s.ResultScroll = min(s.ResultScroll, max(n-rows, 0))
	s.ResultScroll = max(s.ResultScroll, 0)
}
