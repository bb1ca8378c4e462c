package search

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kk-code-lab/rpick/internal/column"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CaseMode selects how letter case participates in matching.
type CaseMode int

const (
	// CaseSmart matches case-sensitively only for terms with an uppercase letter.
	CaseSmart CaseMode = iota
	CaseRespect
	CaseIgnore
)

// ParseCaseMode maps a config value to a CaseMode.
func ParseCaseMode(value string) (CaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "smart":
		return CaseSmart, nil
	case "respect":
		return CaseRespect, nil
	case "ignore":
		return CaseIgnore, nil
	default:
		return CaseSmart, fmt.Errorf("unknown case mode %q", value)
	}
}

// PatternError reports a query that could not be compiled. The worker keeps
// ranking with the last valid pattern while it is set.
type PatternError struct {
	Query  string
	Reason string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
}

type termKind int

const (
	termFuzzy termKind = iota
	termExact
	termPrefix
	termSuffix
	termEqual
)

// activeColumn marks a term that follows the worker's active column.
const activeColumn = -1

type term struct {
	text          string
	runes         []rune
	kind          termKind
	inverse       bool
	caseSensitive bool
	fold          bool
	column        int
}

// Pattern is a compiled query: every term must match.
type Pattern struct {
	Query string
	terms []term
}

// Empty reports whether the pattern matches every record.
func (p *Pattern) Empty() bool {
	return p == nil || len(p.terms) == 0
}

type token struct {
	text  string
	scope bool
}

// ParsePattern compiles query. Column-scoped tokens are resolved against
// model; a nil model only knows the active column.
func ParsePattern(query string, model *column.Model, mode CaseMode) (*Pattern, error) {
	p := &Pattern{Query: query}
	scope := activeColumn
	for _, tok := range tokenize(query) {
		if tok.scope {
			if tok.text == "" {
				scope = activeColumn
				continue
			}
			if model == nil {
				return nil, &PatternError{Query: query, Reason: fmt.Sprintf("unknown column %q", tok.text)}
			}
			idx, ok := model.Lookup(tok.text)
			if !ok {
				return nil, &PatternError{Query: query, Reason: fmt.Sprintf("unknown column %q", tok.text)}
			}
			if !model.Filterable(idx) {
				return nil, &PatternError{Query: query, Reason: fmt.Sprintf("column %q is not searchable", model.Name(idx))}
			}
			scope = idx
			continue
		}
		t, err := parseTerm(tok.text, mode)
		if err != nil {
			return nil, &PatternError{Query: query, Reason: err.Error()}
		}
		t.column = scope
		p.terms = append(p.terms, t)
	}
	return p, nil
}

// tokenize splits on unescaped whitespace. "\ " and "\%" are literals; a
// token starting with an unescaped '%' is a column scope.
func tokenize(query string) []token {
	var tokens []token
	var b strings.Builder
	inToken := false
	scope := false
	flush := func() {
		if inToken {
			tokens = append(tokens, token{text: b.String(), scope: scope})
		}
		b.Reset()
		inToken = false
		scope = false
	}

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\\' && i+1 < len(query) && (query[i+1] == ' ' || query[i+1] == '%' || query[i+1] == '\\'):
			i++
			b.WriteByte(query[i])
			inToken = true
		case c == ' ' || c == '\t':
			flush()
		case c == '%' && !inToken:
			scope = true
			inToken = true
		default:
			b.WriteByte(c)
			inToken = true
		}
	}
	flush()
	return tokens
}

func parseTerm(text string, mode CaseMode) (term, error) {
	t := term{kind: termFuzzy}
	if strings.HasPrefix(text, "!") {
		t.inverse = true
		t.kind = termExact
		text = text[1:]
	}
	switch {
	case strings.HasPrefix(text, "'"):
		t.kind = termExact
		text = text[1:]
	case strings.HasPrefix(text, "^"):
		t.kind = termPrefix
		text = text[1:]
	}
	if len(text) > 1 && strings.HasSuffix(text, "$") {
		if t.kind == termPrefix {
			t.kind = termEqual
		} else {
			t.kind = termSuffix
		}
		text = text[:len(text)-1]
	}
	if text == "" {
		return term{}, fmt.Errorf("empty term")
	}

	switch mode {
	case CaseRespect:
		t.caseSensitive = true
	case CaseIgnore:
		t.caseSensitive = false
	default:
		t.caseSensitive = hasUppercase(text)
	}
	t.fold = isASCII(text)
	if !t.caseSensitive {
		text = lowerString(text)
	}
	t.text = text
	t.runes = []rune(text)
	return t, nil
}

// Score matches cols against every term. active is the column used by
// unscoped terms.
func (p *Pattern) Score(fm *FuzzyMatcher, cols []string, active int) (float64, bool) {
	if p.Empty() {
		return 0, true
	}
	total := 0.0
	for i := range p.terms {
		t := &p.terms[i]
		idx := t.column
		if idx == activeColumn {
			idx = active
		}
		text := ""
		if idx >= 0 && idx < len(cols) {
			text = t.prepare(cols[idx])
		}
		score, ok := t.match(fm, text)
		if ok == t.inverse {
			return 0, false
		}
		total += score
	}
	return total, true
}

// Highlight returns the merged rune spans the non-inverse terms of the active
// column hit in text.
func (p *Pattern) Highlight(fm *FuzzyMatcher, text string) []MatchSpan {
	if p.Empty() {
		return nil
	}
	var spans []MatchSpan
	for i := range p.terms {
		t := &p.terms[i]
		if t.inverse || t.column != activeColumn {
			continue
		}
		prepared := t.prepare(text)
		if utf8.RuneCountInString(prepared) != utf8.RuneCountInString(text) {
			continue
		}
		textRunes := []rune(prepared)
		if _, ok, details := fm.MatchRunes(t.runes, textRunes); ok {
			spans = append(spans, details.Spans...)
		}
	}
	return MergeMatchSpans(spans)
}

func (t *term) prepare(text string) string {
	if t.fold && !isASCII(text) {
		text = foldDiacritics(text)
	}
	if !t.caseSensitive {
		text = lowerString(text)
	}
	return text
}

func (t *term) match(fm *FuzzyMatcher, text string) (float64, bool) {
	switch t.kind {
	case termExact:
		if !strings.Contains(text, t.text) {
			return 0, false
		}
	case termPrefix:
		if !strings.HasPrefix(text, t.text) {
			return 0, false
		}
	case termSuffix:
		if !strings.HasSuffix(text, t.text) {
			return 0, false
		}
	case termEqual:
		if text != t.text {
			return 0, false
		}
	}
	if t.inverse {
		return 0, true
	}
	textRunes, buf := acquireRunes(text, false)
	defer releaseRunes(buf)
	score, ok, _ := fm.MatchRunes(t.runes, textRunes)
	return score, ok
}

// foldDiacritics strips combining marks: "Crème" becomes "Creme".
func foldDiacritics(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return folded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
