package state

import (
	"testing"

	"github.com/kk-code-lab/rpick/internal/search"
)

type fakeRanker struct {
	records []search.Record
	queries []string
	columns []int
}

func (f *fakeRanker) Requery(query string) { f.queries = append(f.queries, query) }
func (f *fakeRanker) SetColumn(idx int)    { f.columns = append(f.columns, idx) }

func (f *fakeRanker) Record(i int) (search.Record, bool) {
	if i < 0 || i >= len(f.records) {
		return search.Record{}, false
	}
	return f.records[i], true
}

type fakeLoader struct {
	started   []PreviewRequest
	cancelled []uint64
}

func (f *fakeLoader) Start(req PreviewRequest) { f.started = append(f.started, req) }
func (f *fakeLoader) Cancel(_ int, generation uint64) {
	f.cancelled = append(f.cancelled, generation)
}

type harness struct {
	t      *testing.T
	r      *Reducer
	s      *PickerState
	ranker *fakeRanker
	loader *fakeLoader
	gen    uint64
}

func newHarness(t *testing.T, opts Options, lines ...string) *harness {
	t.Helper()
	ranker := &fakeRanker{}
	for i, line := range lines {
		ranker.records = append(ranker.records, search.Record{Index: i, Raw: line, Columns: []string{line}})
	}
	loader := &fakeLoader{}
	return &harness{
		t:      t,
		r:      NewReducer(ranker, loader, nil, nil),
		s:      NewPickerState(opts),
		ranker: ranker,
		loader: loader,
	}
}

func (h *harness) do(actions ...Action) {
	h.t.Helper()
	for _, a := range actions {
		next, err := h.r.Reduce(h.s, a)
		if err != nil {
			h.t.Fatalf("reduce %T: %v", a, err)
		}
		h.s = next
	}
}

// snapshot delivers a finished ranking of indices for the current query.
func (h *harness) snapshot(indices ...int) {
	h.t.Helper()
	h.gen++
	matches := make([]search.Match, 0, len(indices))
	for _, idx := range indices {
		matches = append(matches, search.Match{Index: idx})
	}
	h.do(SnapshotAction{Snapshot: search.Snapshot{
		Generation: h.gen,
		Version:    h.s.Version,
		Matches:    matches,
		Total:      len(h.ranker.records),
		Sealed:     true,
		Query:      h.s.QueryString(),
	}})
}

func (h *harness) typeText(text string) {
	h.t.Helper()
	for _, r := range text {
		h.do(InputAction{Char: r})
	}
}

func hasEvent(events []Event, ev Event) bool {
	for _, e := range events {
		if e == ev {
			return true
		}
	}
	return false
}
