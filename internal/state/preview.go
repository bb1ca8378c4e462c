package state

import (
	"time"

	"github.com/kk-code-lab/rpick/internal/column"
)

const defaultPreviewDebounce = 50 * time.Millisecond

type pendingPreview struct {
	source     int
	generation uint64
	target     int
	started    bool
	request    PreviewRequest
}

// PreviewState is the request/apply side of the preview pipeline.
type PreviewState struct {
	Sources    []PreviewSource
	Layouts    []Layout
	Active     int
	Visible    bool
	Wrap       bool
	KeepScroll bool
	// Overlay is the source shown full screen, or -1.
	Overlay int

	Scroll  int
	Lines   []string
	Err     error
	Done    bool
	Loading bool

	oneOff        *column.Template
	overlayReturn int
	shownSource   int
	shownTarget   int

	generations []uint64
	timers      []*time.Timer
	pending     pendingPreview
}

func newPreviewState(opts Options) PreviewState {
	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = []Layout{DefaultLayout}
	}
	n := len(opts.Sources) + 1
	return PreviewState{
		Sources:     opts.Sources,
		Layouts:     layouts,
		Visible:     !opts.Hidden && len(opts.Sources) > 0,
		Wrap:        opts.Wrap,
		KeepScroll:  opts.KeepScroll,
		Overlay:     -1,
		shownSource: -1,
		shownTarget: -1,
		generations: make([]uint64, n),
		timers:      make([]*time.Timer, n),
	}
}

// Shown reports whether the pane has something to show.
func (p *PreviewState) Shown() bool {
	return p.Visible && (len(p.Sources) > 0 || p.oneOff != nil)
}

func (p *PreviewState) wanted() bool {
	return p.Shown() || p.Overlay >= 0
}

// EffectiveSource is the source whose results are applied; the one-off
// slot follows the configured ones.
func (p *PreviewState) EffectiveSource() int {
	if p.oneOff != nil {
		return len(p.Sources)
	}
	return p.Active
}

// Generation returns the last generation issued for source.
func (p *PreviewState) Generation(source int) uint64 {
	if source < 0 || source >= len(p.generations) {
		return 0
	}
	return p.generations[source]
}

// SourceName labels the pane.
func (p *PreviewState) SourceName() string {
	src := p.EffectiveSource()
	if src < len(p.Sources) {
		return p.Sources[src].Name
	}
	return "preview"
}

func (p *PreviewState) template(source int) *column.Template {
	if source == len(p.Sources) {
		return p.oneOff
	}
	if source < 0 || source >= len(p.Sources) {
		return nil
	}
	return p.Sources[source].Command
}

func (p *PreviewState) debounce(source int) time.Duration {
	if source < len(p.Sources) {
		return p.Sources[source].Debounce
	}
	return defaultPreviewDebounce
}

func (p *PreviewState) clearContent() {
	p.Lines = nil
	p.Err = nil
	p.Done = false
	p.Loading = false
	p.shownSource = -1
	p.shownTarget = -1
}

// maxScroll is the furthest the pane can scroll for rows visible lines.
func (p *PreviewState) maxScroll(rows int) int {
	return max(len(p.Lines)-max(rows, 1), 0)
}

func (p *PreviewState) scrollBy(delta, rows int) {
	p.Scroll = min(max(p.Scroll+delta, 0), p.maxScroll(rows))
}

// refreshPreview issues a request for the highlighted record when the
// target or source changed, or unconditionally with force.
func (r *Reducer) refreshPreview(s *PickerState, force bool) {
	p := &s.Preview
	src := p.EffectiveSource()
	tmpl := p.template(src)
	target := s.HighlightedIndex()
	if !p.wanted() || tmpl == nil || target < 0 {
		r.cancelPreview(s)
		if target < 0 || tmpl == nil {
			p.clearContent()
		}
		return
	}
	if !force && p.pending.generation != 0 && p.pending.source == src && p.pending.target == target {
		return
	}
	r.cancelPreview(s)

	p.generations[src]++
	gen := p.generations[src]
	pane := s.Geometry().Preview
	ctx := r.TemplateContext(s)
	p.pending = pendingPreview{
		source:     src,
		generation: gen,
		target:     target,
		request: PreviewRequest{
			Source:     src,
			Generation: gen,
			Target:     target,
			Command:    tmpl.Format(ctx, true),
			Columns:    pane.W,
			Lines:      pane.H,
			Env:        append(s.Env(), "FZF_PREVIEW_COMMAND="+tmpl.String()),
		},
	}

	delay := p.debounce(src)
	if r.dispatch == nil || delay <= 0 {
		r.startPreview(s, PreviewLoadStartAction{Source: src, Generation: gen})
		return
	}
	dispatch := r.dispatch
	p.timers[src] = time.AfterFunc(delay, func() {
		dispatch(PreviewLoadStartAction{Source: src, Generation: gen})
	})
}

func (r *Reducer) cancelPreview(s *PickerState) {
	p := &s.Preview
	if p.pending.generation == 0 {
		return
	}
	if t := p.timers[p.pending.source]; t != nil {
		t.Stop()
		p.timers[p.pending.source] = nil
	}
	if p.pending.started && r.loader != nil {
		r.loader.Cancel(p.pending.source, p.pending.generation)
	}
	p.pending = pendingPreview{}
	p.Loading = false
}

// CancelPreview drops any outstanding preview work.
func (r *Reducer) CancelPreview(s *PickerState) {
	r.cancelPreview(s)
}

func (r *Reducer) startPreview(s *PickerState, a PreviewLoadStartAction) {
	p := &s.Preview
	if a.Source != p.pending.source || a.Generation != p.pending.generation || p.pending.started {
		r.logger.Debug("stale preview start dropped", "source", a.Source, "generation", a.Generation)
		return
	}
	p.timers[a.Source] = nil
	p.pending.started = true
	p.Loading = true
	if r.loader == nil {
		return
	}
	req := p.pending.request
	dispatch := r.dispatch
	req.Callback = func(res PreviewResult) {
		if dispatch != nil {
			dispatch(PreviewLoadResultAction{Result: res})
		}
	}
	r.loader.Start(req)
}

func (r *Reducer) applyPreviewResult(s *PickerState, res PreviewResult) {
	p := &s.Preview
	if res.Source != p.EffectiveSource() ||
		res.Generation != p.Generation(res.Source) ||
		res.Generation != p.pending.generation ||
		res.Target != s.HighlightedIndex() {
		r.logger.Debug("stale preview result dropped",
			"source", res.Source, "generation", res.Generation, "target", res.Target)
		return
	}
	if p.shownSource != res.Source || p.shownTarget != res.Target {
		if !p.KeepScroll {
			p.Scroll = 0
		}
		p.shownSource = res.Source
		p.shownTarget = res.Target
	}
	p.Lines = res.Lines
	p.Err = res.Err
	p.Done = res.Done
	p.Loading = !res.Done
	p.Scroll = min(p.Scroll, p.maxScroll(s.Geometry().Preview.H))
}

func (r *Reducer) previewSourceChanged(s *PickerState) {
	s.raise(EventPreviewChange)
	r.refreshPreview(s, true)
}
