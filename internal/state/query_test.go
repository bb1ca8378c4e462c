package state

import "testing"

func TestQueryEditing(t *testing.T) {
	h := newHarness(t, Options{})
	h.typeText("foo bar")

	steps := []struct {
		action Action
		query  string
		cursor int
	}{
		{DeleteWordAction{}, "foo ", 4},
		{BackwardCharAction{}, "foo ", 3},
		{DeleteLineEndAction{}, "foo", 3},
		{InputPosAction{Index: 0}, "foo", 0},
		{DeleteLineStartAction{}, "foo", 0},
		{DeleteCharAction{}, "foo", 0},
		{InputAction{Char: 'x'}, "xfoo", 1},
		{InputPosAction{Index: -1}, "xfoo", 4},
		{DeleteCharAction{}, "xfo", 3},
		{BackwardWordAction{}, "xfo", 0},
		{ForwardWordAction{}, "xfo", 3},
		{ForwardCharAction{}, "xfo", 3},
		{SetInputAction{Text: "new"}, "new", 3},
		{DeleteLineStartAction{}, "", 0},
	}
	for i, step := range steps {
		h.do(step.action)
		if h.s.QueryString() != step.query || h.s.Cursor != step.cursor {
			t.Fatalf("step %d %T: expected %q@%d, got %q@%d", i, step.action, step.query, step.cursor, h.s.QueryString(), h.s.Cursor)
		}
	}
}

func TestWordBoundaries(t *testing.T) {
	runes := []rune("path/to  file_name.go")
	if got := previousWordBoundary(runes, len(runes)); got != 19 {
		t.Fatalf("expected 19, got %d", got)
	}
	if got := previousWordBoundary(runes, 9); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := nextWordBoundary(runes, 4); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := nextWordBoundary(runes, 0); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestHistoryRestoresDraft(t *testing.T) {
	h := newHarness(t, Options{History: []string{"one", "two"}})
	h.typeText("dr")

	steps := []struct {
		action Action
		want   string
	}{
		{HistoryUpAction{}, "two"},
		{HistoryUpAction{}, "one"},
		{HistoryUpAction{}, "one"},
		{HistoryDownAction{}, "two"},
		{HistoryDownAction{}, "dr"},
		{HistoryDownAction{}, "dr"},
	}
	for i, step := range steps {
		h.do(step.action)
		if got := h.s.QueryString(); got != step.want {
			t.Fatalf("step %d: expected %q, got %q", i, step.want, got)
		}
	}
	if n := len(h.ranker.queries); h.ranker.queries[n-1] != "dr" {
		t.Fatalf("history navigation should requery, got %v", h.ranker.queries)
	}
}
