package state

import "unicode"

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func previousWordBoundary(runes []rune, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}

	i := pos - 1
	for i >= 0 && !isWordChar(runes[i]) {
		i--
	}
	for i >= 0 && isWordChar(runes[i]) {
		i--
	}
	return i + 1
}

func nextWordBoundary(runes []rune, pos int) int {
	if pos >= len(runes) {
		return len(runes)
	}
	if pos < 0 {
		pos = 0
	}

	i := pos
	for i < len(runes) && !isWordChar(runes[i]) {
		i++
	}
	for i < len(runes) && isWordChar(runes[i]) {
		i++
	}
	return i
}

// resolvePos maps a possibly negative position onto [0, n-1]; -1 is the
// last element.
func resolvePos(idx, n int) int {
	if idx < 0 {
		idx += n
	}
	return min(max(idx, 0), n-1)
}

func (s *PickerState) insertRune(ch rune) {
	s.Query = append(s.Query, 0)
	copy(s.Query[s.Cursor+1:], s.Query[s.Cursor:])
	s.Query[s.Cursor] = ch
	s.Cursor++
}

// deleteRange removes [from, to) from the query and parks the cursor at
// from. It reports whether anything was removed.
func (s *PickerState) deleteRange(from, to int) bool {
	from = max(from, 0)
	to = min(to, len(s.Query))
	if from >= to {
		return false
	}
	s.Query = append(s.Query[:from], s.Query[to:]...)
	s.Cursor = from
	return true
}

func (s *PickerState) setQuery(text string) {
	s.Query = []rune(text)
	s.Cursor = len(s.Query)
}

// historyStep moves through history by delta, where -1 is older. It
// reports whether the query text changed.
func (s *PickerState) historyStep(delta int) bool {
	if len(s.history) == 0 {
		return false
	}
	next := s.historyPos + delta
	if next < 0 || next > len(s.history) {
		return false
	}
	if s.historyPos == len(s.history) {
		s.historyDraft = s.QueryString()
	}
	s.historyPos = next
	if next == len(s.history) {
		s.setQuery(s.historyDraft)
	} else {
		s.setQuery(s.history[next])
	}
	return true
}

// History returns the history list with the newest entry last.
func (s *PickerState) History() []string {
	return append([]string(nil), s.history...)
}
