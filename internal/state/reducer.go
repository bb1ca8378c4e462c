package state

import (
	"log/slog"

	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/logging"
	"github.com/kk-code-lab/rpick/internal/search"
)

// abortCancelled is the exit code of Cancel on an empty query.
const abortCancelled = 130

// Reducer applies actions to a PickerState. It is used from the loop
// goroutine only; dispatch may be called from any goroutine.
type Reducer struct {
	ranker   Ranker
	loader   PreviewLoader
	dispatch func(Action)
	logger   *slog.Logger
}

// NewReducer wires the reducer to the ranking worker and preview loader.
// dispatch feeds asynchronous completions back into the loop.
func NewReducer(ranker Ranker, loader PreviewLoader, dispatch func(Action), logger *slog.Logger) *Reducer {
	return &Reducer{
		ranker:   ranker,
		loader:   loader,
		dispatch: dispatch,
		logger:   logging.OrDiscard(logger),
	}
}

// Reduce applies action to state. Terminated states ignore everything.
func (r *Reducer) Reduce(s *PickerState, action Action) (*PickerState, error) {
	if s.Terminated() {
		return s, nil
	}

	switch a := action.(type) {

	// ===== SELECTION =====

	case SelectAction:
		if idx := s.HighlightedIndex(); idx >= 0 && s.Selection.Add(idx) {
			r.selectionChanged(s)
		}

	case DeselectAction:
		if idx := s.HighlightedIndex(); idx >= 0 && s.Selection.Remove(idx) {
			r.selectionChanged(s)
		}

	case ToggleAction:
		if idx := s.HighlightedIndex(); idx >= 0 {
			s.Selection.Toggle(idx)
			r.selectionChanged(s)
		}

	case CycleAllAction:
		r.cycleAll(s)

	case ClearAllAction:
		if s.Selection.Len() > 0 {
			s.Selection.Clear()
			r.selectionChanged(s)
		}

	case AcceptAction:
		r.accept(s)

	case QuitAction:
		r.terminate(s, Outcome{Kind: OutcomeAbort, Code: a.Code})

	// ===== NAVIGATION =====

	case UpAction:
		r.moveHighlight(s, s.Highlight-count(a.Count))

	case DownAction:
		r.moveHighlight(s, s.Highlight+count(a.Count))

	case PosAction:
		if n := len(s.Snapshot.Matches); n > 0 {
			r.moveHighlight(s, resolvePos(a.Index, n))
		}

	case ForwardCharAction:
		s.Cursor = min(s.Cursor+1, len(s.Query))

	case BackwardCharAction:
		s.Cursor = max(s.Cursor-1, 0)

	case ForwardWordAction:
		s.Cursor = nextWordBoundary(s.Query, s.Cursor)

	case BackwardWordAction:
		s.Cursor = previousWordBoundary(s.Query, s.Cursor)

	case InputPosAction:
		s.Cursor = resolvePos(a.Index, len(s.Query)+1)

	// ===== PREVIEW =====

	case CyclePreviewAction:
		p := &s.Preview
		switch {
		case p.oneOff != nil:
			p.oneOff = nil
		case len(p.Sources) > 1:
			p.Active = (p.Active + 1) % len(p.Sources)
		default:
			return s, nil
		}
		r.previewSourceChanged(s)

	case SetPreviewAction:
		idx := 0
		if a.HasIndex {
			idx = a.Index
		}
		if idx < 0 || idx >= len(s.Preview.Sources) {
			r.logger.Debug("preview source out of range", "index", idx)
			return s, nil
		}
		s.Preview.Active = idx
		s.Preview.Visible = true
		s.Preview.oneOff = nil
		r.previewSourceChanged(s)

	case SwitchPreviewAction:
		p := &s.Preview
		if !a.HasIndex || a.Index == p.Active {
			p.Visible = !p.Visible
		} else {
			if a.Index < 0 || a.Index >= len(p.Sources) {
				r.logger.Debug("preview source out of range", "index", a.Index)
				return s, nil
			}
			p.Active = a.Index
			p.Visible = true
		}
		p.oneOff = nil
		s.clampHighlight()
		r.previewSourceChanged(s)

	case PreviewAction:
		if a.Command == nil {
			return s, nil
		}
		s.Preview.oneOff = a.Command
		s.Preview.Visible = true
		s.clampHighlight()
		r.previewSourceChanged(s)

	case PreviewUpAction:
		s.Preview.scrollBy(-count(a.Count), s.Geometry().Preview.H)

	case PreviewDownAction:
		s.Preview.scrollBy(count(a.Count), s.Geometry().Preview.H)

	case PreviewHalfPageUpAction:
		rows := s.Geometry().Preview.H
		s.Preview.scrollBy(-max(rows/2, 1), rows)

	case PreviewHalfPageDownAction:
		rows := s.Geometry().Preview.H
		s.Preview.scrollBy(max(rows/2, 1), rows)

	case ToggleWrapPreviewAction:
		s.Preview.Wrap = !s.Preview.Wrap

	case HelpAction:
		if s.HelpVisible && a.Text == s.HelpText {
			s.HelpVisible = false
			s.HelpText = ""
		} else {
			s.HelpVisible = true
			s.HelpText = a.Text
		}

	// ===== INPUT =====

	case InputAction:
		s.insertRune(a.Char)
		r.queryChanged(s)

	case SetInputAction:
		if a.Text != s.QueryString() {
			s.setQuery(a.Text)
			r.queryChanged(s)
		}

	case CancelAction:
		if len(s.Query) == 0 {
			r.terminate(s, Outcome{Kind: OutcomeAbort, Code: abortCancelled})
			return s, nil
		}
		s.setQuery("")
		r.queryChanged(s)

	case DeleteCharAction:
		if s.deleteRange(s.Cursor-1, s.Cursor) {
			r.queryChanged(s)
		}

	case DeleteWordAction:
		if s.deleteRange(previousWordBoundary(s.Query, s.Cursor), s.Cursor) {
			r.queryChanged(s)
		}

	case DeleteLineStartAction:
		if s.deleteRange(0, s.Cursor) {
			r.queryChanged(s)
		}

	case DeleteLineEndAction:
		if s.deleteRange(s.Cursor, len(s.Query)) {
			r.queryChanged(s)
		}

	case HistoryUpAction:
		if s.historyStep(-1) {
			r.queryChanged(s)
		}

	case HistoryDownAction:
		if s.historyStep(1) {
			r.queryChanged(s)
		}

	case ToggleWrapAction:
		s.Wrap = !s.Wrap

	// ===== UI =====

	case SetHeaderAction:
		s.Header = textOr(a.Text, a.HasText, s.opts.Header)
		s.clampHighlight()

	case SetFooterAction:
		s.Footer = textOr(a.Text, a.HasText, s.opts.Footer)
		s.clampHighlight()

	case SetPromptAction:
		s.Prompt = textOr(a.Text, a.HasText, s.opts.Prompt)

	case ColumnAction:
		r.setColumn(s, a.Index)

	case CycleColumnAction:
		r.cycleColumn(s)

	case RedrawAction:
		s.RedrawRequested = true

	case OverlayAction:
		r.toggleOverlay(s, a)

	// ===== INTERNAL =====

	case StartAction:
		if len(s.Query) > 0 && r.ranker != nil {
			r.ranker.Requery(s.QueryString())
		}
		s.raise(EventStart)
		r.refreshPreview(s, false)

	case SnapshotAction:
		r.applySnapshot(s, a.Snapshot)

	case ResizeAction:
		if a.Width == s.ScreenWidth && a.Height == s.ScreenHeight {
			return s, nil
		}
		s.ScreenWidth = a.Width
		s.ScreenHeight = a.Height
		s.clampHighlight()
		s.Preview.scrollBy(0, s.Geometry().Preview.H)
		s.raise(EventResize)
		r.refreshPreview(s, true)

	case PreviewLoadStartAction:
		r.startPreview(s, a)

	case PreviewLoadResultAction:
		r.applyPreviewResult(s, a.Result)

	case ReloadStartedAction:
		s.Version = a.Version
		s.Snapshot = search.Snapshot{Version: a.Version}
		s.Selection.Clear()
		s.Highlight = -1
		s.ResultScroll = 0
		s.loadRaised = false
		s.StatusErr = nil
		r.refreshPreview(s, false)

	case SourceDoneAction:
		if a.Version == s.Version && a.Err != nil {
			s.StatusErr = a.Err
		}

	case StatusAction:
		s.StatusErr = a.Err

	case TickAction:
		s.raise(EventTick)

	default:
		if action.Category() == CategorySystem {
			r.logger.Debug("system action reached reducer", "action", action)
		}
	}

	return s, nil
}

func count(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func textOr(text string, ok bool, fallback string) string {
	if ok {
		return text
	}
	return fallback
}

func (r *Reducer) terminate(s *PickerState, outcome Outcome) {
	s.Outcome = outcome
	r.cancelPreview(s)
}

func (r *Reducer) record(idx int) (search.Record, bool) {
	if r.ranker == nil || idx < 0 {
		return search.Record{}, false
	}
	return r.ranker.Record(idx)
}

func (r *Reducer) accept(s *PickerState) {
	var records []search.Record
	if s.Selection.Len() > 0 {
		for _, idx := range s.Selection.Indices() {
			if rec, ok := r.record(idx); ok {
				records = append(records, rec)
			}
		}
	} else if rec, ok := r.record(s.HighlightedIndex()); ok {
		records = append(records, rec)
	}
	if len(records) == 0 && !s.opts.AllowEmpty {
		r.logger.Debug("accept ignored without a record")
		return
	}
	r.terminate(s, Outcome{Kind: OutcomeAccept, Records: records})
}

func (r *Reducer) cycleAll(s *PickerState) {
	matches := s.Snapshot.Matches
	if len(matches) == 0 {
		return
	}
	all := true
	for _, m := range matches {
		if !s.Selection.Has(m.Index) {
			all = false
			break
		}
	}
	for _, m := range matches {
		if all {
			s.Selection.Remove(m.Index)
		} else {
			s.Selection.Add(m.Index)
		}
	}
	r.selectionChanged(s)
}

func (r *Reducer) selectionChanged(s *PickerState) {
	if tmpl := s.Preview.template(s.Preview.EffectiveSource()); tmpl != nil && tmpl.UsesSelection() {
		r.refreshPreview(s, true)
	}
}

// moveHighlight puts the cursor at pos, clamped to the snapshot.
func (r *Reducer) moveHighlight(s *PickerState, pos int) {
	if len(s.Snapshot.Matches) == 0 {
		return
	}
	before := s.HighlightedIndex()
	s.Highlight = pos
	s.clampHighlight()
	r.highlightMoved(s, before)
}

// highlightMoved raises cursor-change when the highlighted record differs
// from before and returns any one-off preview to the active source.
func (r *Reducer) highlightMoved(s *PickerState, before int) {
	if s.HighlightedIndex() == before {
		return
	}
	s.raise(EventCursorChange)
	if s.Preview.oneOff != nil {
		s.Preview.oneOff = nil
		r.previewSourceChanged(s)
		return
	}
	r.refreshPreview(s, false)
}

func (r *Reducer) queryChanged(s *PickerState) {
	if r.ranker != nil {
		r.ranker.Requery(s.QueryString())
	}
	s.raise(EventQueryChange)
	before := s.HighlightedIndex()
	s.Highlight = 0
	s.ResultScroll = 0
	s.clampHighlight()
	if tmpl := s.Preview.template(s.Preview.EffectiveSource()); tmpl != nil && tmpl.UsesQuery() {
		s.raise(EventCursorChange)
		r.refreshPreview(s, true)
		return
	}
	r.highlightMoved(s, before)
}

func (r *Reducer) applySnapshot(s *PickerState, snap search.Snapshot) {
	if snap.Version < s.Version {
		return
	}
	if snap.Version == s.Version && snap.Generation <= s.Snapshot.Generation {
		return
	}
	if snap.Version > s.Version {
		s.Version = snap.Version
		s.Selection.Clear()
		s.loadRaised = false
	}

	before := s.HighlightedIndex()
	s.Snapshot = snap
	if snap.Err != nil {
		s.StatusErr = snap.Err
	} else if _, ok := s.StatusErr.(*search.PatternError); ok {
		s.StatusErr = nil
	}
	s.clampHighlight()
	r.highlightMoved(s, before)

	if snap.Running {
		return
	}
	s.raise(EventResult)
	if !snap.Sealed {
		return
	}
	if !s.loadRaised {
		s.loadRaised = true
		s.raise(EventLoad)
	}
	if s.select1Armed && snap.Query == s.QueryString() {
		s.select1Armed = false
		if len(snap.Matches) == 1 {
			r.accept(s)
		}
	}
}

func (r *Reducer) setColumn(s *PickerState, idx int) {
	model := s.opts.Columns
	if model == nil || !model.Filterable(idx) || idx < 0 || idx == s.ActiveColumn {
		return
	}
	if specs := model.Specs(); len(specs) > 0 && idx >= len(specs) {
		return
	}
	s.ActiveColumn = idx
	if r.ranker != nil {
		r.ranker.SetColumn(idx)
	}
}

func (r *Reducer) cycleColumn(s *PickerState) {
	model := s.opts.Columns
	if model == nil {
		return
	}
	specs := model.Specs()
	for step := 1; step <= len(specs); step++ {
		idx := (s.ActiveColumn + step) % len(specs)
		if model.Filterable(idx) {
			r.setColumn(s, idx)
			return
		}
	}
}

func (r *Reducer) toggleOverlay(s *PickerState, a OverlayAction) {
	p := &s.Preview
	idx := p.Active
	if a.HasIndex {
		idx = a.Index
	}
	if idx < 0 || idx >= len(p.Sources) {
		r.logger.Debug("overlay source out of range", "index", idx)
		return
	}
	if p.Overlay == idx {
		p.Overlay = -1
		p.Active = p.overlayReturn
	} else {
		if p.Overlay < 0 {
			p.overlayReturn = p.Active
		}
		p.Overlay = idx
		p.Active = idx
	}
	p.oneOff = nil
	s.clampHighlight()
	r.previewSourceChanged(s)
}

// TemplateContext resolves placeholders against the highlighted record and
// the selection.
func (r *Reducer) TemplateContext(s *PickerState) column.Context {
	ctx := column.Context{Active: s.ActiveColumn, Query: s.QueryString(), Quote: s.opts.Quote}
	if rec, ok := r.record(s.HighlightedIndex()); ok {
		target := rec.Target()
		ctx.Current = &target
	}
	for _, idx := range s.Selection.Indices() {
		if rec, ok := r.record(idx); ok {
			ctx.Selected = append(ctx.Selected, rec.Target())
		}
	}
	return ctx
}
