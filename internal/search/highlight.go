package search

import (
	"cmp"
	"slices"
)

// MergeMatchSpans sorts spans by start and joins those that overlap or
// touch, in place. The result aliases spans.
func MergeMatchSpans(spans []MatchSpan) []MatchSpan {
	if len(spans) == 0 {
		return nil
	}
	slices.SortFunc(spans, func(a, b MatchSpan) int {
		return cmp.Compare(a.Start, b.Start)
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start > last.End+1 {
			out = append(out, s)
			continue
		}
		last.End = max(last.End, s.End)
	}
	return out
}
