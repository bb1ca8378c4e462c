package search

import "slices"

// Match is one ranked record.
type Match struct {
	Index int
	Score float64
}

// compareMatches orders by score descending, then append order.
func compareMatches(a, b Match) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	return a.Index - b.Index
}

func sortMatches(matches []Match) {
	slices.SortFunc(matches, compareMatches)
}

// mergeMatches merges two sorted rankings into a new slice.
func mergeMatches(existing, incoming []Match) []Match {
	if len(incoming) == 0 {
		return slices.Clone(existing)
	}
	out := make([]Match, 0, len(existing)+len(incoming))
	i, j := 0, 0
	for i < len(existing) && j < len(incoming) {
		if compareMatches(existing[i], incoming[j]) <= 0 {
			out = append(out, existing[i])
			i++
		} else {
			out = append(out, incoming[j])
			j++
		}
	}
	out = append(out, existing[i:]...)
	return append(out, incoming[j:]...)
}
