package search

import (
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// MatchSpan is an inclusive [Start, End] range of rune indexes.
type MatchSpan struct {
	Start int
	End   int
}

// MatchDetails describes where a fuzzy match landed in the target text.
// Start and End are rune indexes; TargetLength is the rune length of the
// target.
type MatchDetails struct {
	Start        int
	End          int
	TargetLength int
	MatchCount   int
	WordHits     int
	Spans        []MatchSpan
}

const (
	boundaryWord = 1 << iota
	boundaryStrong
)

// FuzzyMatcher scores a pattern against a line, Sublime/fzf style:
// consecutive runs and word-boundary hits earn bonuses, gaps cost a small
// penalty and a contiguous substring hit is preferred over a scattered one.
type FuzzyMatcher struct {
	consecutiveBonus        float64
	wordBoundaryBonus       float64
	charBonus               float64
	gapPenalty              float64
	substringBonus          float64
	prefixBonus             float64
	finalSegmentBonus       float64
	startPenaltyFactor      float64
	crossSegmentPenalty     float64
	wordHitBonus            float64
	substringBoundaryFactor float64
	substringInteriorFactor float64
}

// NewFuzzyMatcher creates a matcher with the default weights.
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{
		consecutiveBonus:        1.2,
		wordBoundaryBonus:       0.6,
		charBonus:               1.2,
		gapPenalty:              0.18,
		substringBonus:          1.2,
		prefixBonus:             2.4,
		finalSegmentBonus:       2.0,
		startPenaltyFactor:      0.012,
		crossSegmentPenalty:     0.9,
		wordHitBonus:            3.2,
		substringBoundaryFactor: 0.3,
		substringInteriorFactor: 0.15,
	}
}

func hasUppercase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// Match scores pattern against text with smart case.
func (fm *FuzzyMatcher) Match(pattern, text string) (float64, bool) {
	score, matched, _ := fm.MatchDetailed(pattern, text, hasUppercase(pattern))
	return score, matched
}

// MatchDetailed scores pattern against text and reports the matched range.
func (fm *FuzzyMatcher) MatchDetailed(pattern, text string, caseSensitive bool) (float64, bool, MatchDetails) {
	if pattern == "" {
		return 1.0, true, MatchDetails{Start: 0, End: -1, TargetLength: utf8.RuneCountInString(text)}
	}
	fold := !caseSensitive
	patternRunes, patternBuf := acquireRunes(pattern, fold)
	defer releaseRunes(patternBuf)
	textRunes, textBuf := acquireRunes(text, fold)
	defer releaseRunes(textBuf)
	return fm.MatchRunes(patternRunes, textRunes)
}

// MatchRunes scores already case-folded rune slices.
func (fm *FuzzyMatcher) MatchRunes(pattern, text []rune) (float64, bool, MatchDetails) {
	if len(pattern) == 0 {
		return 1.0, true, MatchDetails{Start: 0, End: -1, TargetLength: len(text)}
	}
	miss := MatchDetails{Start: -1, End: -1, TargetLength: len(text)}

	start, end, wordHits := -1, -1, 0
	score := 0.0
	substringIdx := indexRunes(text, pattern)
	if substringIdx >= 0 {
		score, start, end, wordHits = fm.contiguousScore(pattern, text, substringIdx)
	} else {
		boundaries := acquireBoundaryBuffer(len(text))
		var ok bool
		score, ok, start, end, wordHits = fm.scatteredScore(pattern, text, boundaries)
		releaseBoundaryBuffer(boundaries)
		if !ok {
			return 0, false, miss
		}
	}
	if start < 0 || end < start || end >= len(text) {
		return 0, false, miss
	}

	score += fm.substringAdjust(text, substringIdx)
	score += fm.segmentAdjust(text, start, end, substringIdx)
	score += fm.wordHitBonus * float64(wordHits)

	return score, true, MatchDetails{
		Start:        start,
		End:          end,
		TargetLength: len(text),
		MatchCount:   len(pattern),
		WordHits:     wordHits,
		Spans:        []MatchSpan{{Start: start, End: end}},
	}
}

func (fm *FuzzyMatcher) substringAdjust(text []rune, idx int) float64 {
	if idx < 0 {
		return 0
	}
	if idx == 0 {
		return fm.substringBonus + fm.prefixBonus
	}
	switch text[idx-1] {
	case '/', '\\':
		return fm.substringBonus
	case '-', '_', ' ', '.', ':':
		return fm.substringBonus * fm.substringBoundaryFactor
	default:
		return fm.substringBonus * fm.substringInteriorFactor
	}
}

// segmentAdjust favours matches inside the last '/'-separated segment, which
// keeps path-shaped input ranking by file name first.
func (fm *FuzzyMatcher) segmentAdjust(text []rune, start, end, substringIdx int) float64 {
	adjust := 0.0
	lastSlash := -1
	for i, r := range text {
		if r == '/' {
			if i >= start && i <= end {
				adjust -= fm.crossSegmentPenalty
			}
			lastSlash = i
		}
	}
	if lastSlash != -1 && start <= lastSlash {
		adjust -= fm.startPenaltyFactor * float64(lastSlash-start)
	}
	if lastSlash == -1 || start > lastSlash || (substringIdx != -1 && substringIdx > lastSlash) {
		adjust += fm.finalSegmentBonus
	}
	return adjust
}

func (fm *FuzzyMatcher) trailingPenalty(trailing int) float64 {
	if trailing <= 20 {
		return 0
	}
	return fm.gapPenalty * 0.25 * float64((trailing-20)/10)
}

func (fm *FuzzyMatcher) contiguousScore(pattern, text []rune, start int) (float64, int, int, int) {
	end := start + len(pattern) - 1
	if end >= len(text) {
		return 0, -1, -1, 0
	}
	score := 0.0
	wordHits := 0
	for i := range pattern {
		idx := start + i
		charScore := fm.charBonus
		if isWordBoundaryRune(text, idx) {
			charScore += fm.wordBoundaryBonus
			if isStrongWordBoundaryRune(text, idx) {
				wordHits++
			}
		}
		if i == 0 {
			charScore -= fm.gapPenalty * 0.02 * float64(idx)
		} else {
			charScore += fm.consecutiveBonus
		}
		score += charScore
	}
	score -= fm.trailingPenalty(len(text) - end - 1)
	return score, start, end, wordHits
}

// scatteredScore runs a banded DP over pattern x text keeping the best
// predecessor per row, then backtracks to find the chosen positions.
func (fm *FuzzyMatcher) scatteredScore(pattern, text []rune, boundaries *boundaryBuffer) (float64, bool, int, int, int) {
	m, n := len(pattern), len(text)
	if n == 0 || m > n {
		return 0, false, -1, -1, 0
	}

	const beamWidth = 96
	const beamMargin = 48

	negInf := math.Inf(-1)
	scratch := acquireDPScratch(m, n)
	defer releaseDPScratch(scratch)
	prev, curr := scratch.prev, scratch.curr
	for j := range prev {
		prev[j] = negInf
		curr[j] = negInf
	}
	cols := scratch.cols

	minActive, maxActive := -1, -1
	for j := 0; j <= n-m; j++ {
		if pattern[0] != text[j] {
			continue
		}
		score := fm.charBonus - fm.gapPenalty*0.02*float64(j)
		if boundaries.bits(text, j)&boundaryWord != 0 {
			score += fm.wordBoundaryBonus
		}
		prev[j] = score
		if minActive == -1 {
			minActive = j
		}
		maxActive = j
	}
	if maxActive == -1 {
		return 0, false, -1, -1, 0
	}

	for i := 1; i < m; i++ {
		for j := range curr {
			curr[j] = negInf
		}
		lo := max(minActive-beamWidth, 0)
		hi := min(maxActive+beamWidth, n-1)

		best := negInf
		bestIdx := -1
		nextMin, nextMax := -1, -1
		for j := lo; j <= hi; j++ {
			if n-j < m-i {
				break
			}
			if bestIdx != -1 && best > negInf/2 {
				best -= fm.gapPenalty
			}
			if j > 0 && prev[j-1] > best {
				best = prev[j-1]
				bestIdx = j - 1
			}
			if pattern[i] != text[j] || bestIdx == -1 || best <= negInf/2 {
				continue
			}

			charScore := fm.charBonus
			if boundaries.bits(text, j)&boundaryWord != 0 {
				charScore += fm.wordBoundaryBonus
			}
			score := best + charScore
			from := bestIdx
			if bestIdx == j-1 {
				score += fm.consecutiveBonus
			}
			if j > 0 && prev[j-1] > negInf/2 {
				if direct := prev[j-1] + charScore + fm.consecutiveBonus; direct > score {
					score = direct
					from = j - 1
				}
			}

			curr[j] = score
			cell := i*cols + j
			scratch.backtrack[cell] = from
			scratch.backtrackGen[cell] = scratch.generation
			if nextMin == -1 {
				nextMin = j
			}
			nextMax = j
		}

		prev, curr = curr, prev
		if nextMax == -1 {
			return 0, false, -1, -1, 0
		}
		minActive = max(nextMin-beamMargin, 0)
		maxActive = min(nextMax+beamMargin, n-1)
	}

	endIdx := maxIndex(prev)
	if endIdx == -1 {
		return 0, false, -1, -1, 0
	}

	positions := make([]int, m)
	k := endIdx
	for i := m - 1; i >= 0; i-- {
		positions[i] = k
		if i == 0 {
			break
		}
		cell := i*cols + k
		if scratch.backtrackGen[cell] != scratch.generation {
			return 0, false, -1, -1, 0
		}
		k = scratch.backtrack[cell]
	}

	score := prev[endIdx] - fm.trailingPenalty(n-positions[m-1]-1)
	wordHits := 0
	for _, idx := range positions {
		if boundaries.bits(text, idx)&boundaryStrong != 0 {
			wordHits++
		}
	}
	return score, true, positions[0], positions[m-1], wordHits
}

func maxIndex(values []float64) int {
	best := math.Inf(-1)
	bestIdx := -1
	for i, v := range values {
		if v > best {
			best = v
			bestIdx = i
		}
	}
	if bestIdx == -1 || best <= math.Inf(-1)/2 {
		return -1
	}
	return bestIdx
}

func isWordBoundaryRune(text []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, curr := text[idx-1], text[idx]
	switch prev {
	case '/', '\\', '-', '_', ' ', '.', ':':
		return true
	}
	return letterTransition(prev, curr)
}

func isStrongWordBoundaryRune(text []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, curr := text[idx-1], text[idx]
	switch prev {
	case '/', '\\', ' ', '-':
		return true
	case '_', '.', ':':
		return false
	}
	return letterTransition(prev, curr)
}

// letterTransition reports a non-letter to letter step or a camelCase hump.
func letterTransition(prev, curr rune) bool {
	if !isLetterRune(prev) && isLetterRune(curr) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(curr)
}

func isLetterRune(r rune) bool {
	if r <= unicode.MaxASCII {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	return unicode.IsLetter(r)
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i <= len(haystack)-len(needle); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

type runeBuffer struct {
	data []rune
}

var runeBufferPool = sync.Pool{
	New: func() any { return &runeBuffer{} },
}

// acquireRunes decodes s into a pooled rune slice, lower-casing when fold is
// set.
func acquireRunes(s string, fold bool) ([]rune, *runeBuffer) {
	buf := runeBufferPool.Get().(*runeBuffer)
	needed := utf8.RuneCountInString(s)
	if cap(buf.data) < needed {
		buf.data = make([]rune, needed)
	}
	runes := buf.data[:needed]
	i := 0
	for _, r := range s {
		if fold {
			if r < utf8.RuneSelf {
				if r >= 'A' && r <= 'Z' {
					r += 'a' - 'A'
				}
			} else {
				r = unicode.ToLower(r)
			}
		}
		runes[i] = r
		i++
	}
	buf.data = runes
	return runes, buf
}

func releaseRunes(buf *runeBuffer) {
	if buf == nil {
		return
	}
	buf.data = buf.data[:0]
	runeBufferPool.Put(buf)
}

type boundaryBuffer struct {
	flags      []uint8
	gens       []uint32
	generation uint32
}

var boundaryBufferPool = sync.Pool{
	New: func() any { return &boundaryBuffer{} },
}

func acquireBoundaryBuffer(length int) *boundaryBuffer {
	buf := boundaryBufferPool.Get().(*boundaryBuffer)
	if cap(buf.flags) < length {
		buf.flags = make([]uint8, length)
		buf.gens = make([]uint32, length)
	}
	buf.flags = buf.flags[:length]
	buf.gens = buf.gens[:length]
	buf.generation++
	if buf.generation == 0 {
		clear(buf.gens)
		buf.generation = 1
	}
	return buf
}

func releaseBoundaryBuffer(buf *boundaryBuffer) {
	if buf == nil {
		return
	}
	boundaryBufferPool.Put(buf)
}

// bits caches the boundary classification of text[idx] for this generation.
func (b *boundaryBuffer) bits(text []rune, idx int) uint8 {
	if idx < 0 || idx >= len(b.flags) {
		return 0
	}
	if b.gens[idx] == b.generation {
		return b.flags[idx]
	}
	var value uint8
	if isWordBoundaryRune(text, idx) {
		value |= boundaryWord
	}
	if isStrongWordBoundaryRune(text, idx) {
		value |= boundaryStrong
	}
	b.flags[idx] = value
	b.gens[idx] = b.generation
	return value
}

type dpScratch struct {
	prev         []float64
	curr         []float64
	backtrack    []int
	backtrackGen []uint32
	cols         int
	generation   uint32
}

var dpScratchPool = sync.Pool{
	New: func() any { return &dpScratch{} },
}

func acquireDPScratch(rows, cols int) *dpScratch {
	s := dpScratchPool.Get().(*dpScratch)
	if cap(s.prev) < cols {
		s.prev = make([]float64, cols)
		s.curr = make([]float64, cols)
	}
	required := rows * cols
	if cap(s.backtrack) < required {
		s.backtrack = make([]int, required)
		s.backtrackGen = make([]uint32, required)
	}
	s.prev = s.prev[:cols]
	s.curr = s.curr[:cols]
	s.backtrack = s.backtrack[:required]
	s.backtrackGen = s.backtrackGen[:required]
	s.generation++
	if s.generation == 0 {
		clear(s.backtrackGen)
		s.generation = 1
	}
	s.cols = cols
	return s
}

func releaseDPScratch(s *dpScratch) {
	dpScratchPool.Put(s)
}

// lowerString is strings.ToLower with an ASCII fast path.
func lowerString(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf || (c >= 'A' && c <= 'Z') {
			return strings.ToLower(s)
		}
	}
	return s
}
