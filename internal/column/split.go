// Package column splits record text into ordered column values and resolves
// format placeholders against them.
package column

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule describes how raw lines become columns. At most one of Delimiter and
// Regexes may be set; with neither the whole line is a single column.
type Rule struct {
	Delimiter string
	Regexes   []string
	Trim      bool
	Names     []string
	Hidden    []string
	NoFilter  []string
}

// Spec is the per-column configuration derived from a Rule.
type Spec struct {
	Name     string
	Hidden   bool
	NoFilter bool
}

// Model is an immutable splitter plus column metadata.
type Model struct {
	delim   *regexp.Regexp
	extract []*regexp.Regexp
	trim    bool
	limit   int
	specs   []Spec
}

// NewModel compiles rule.
func NewModel(rule Rule) (*Model, error) {
	m := &Model{trim: rule.Trim}

	if rule.Delimiter != "" && len(rule.Regexes) > 0 {
		return nil, fmt.Errorf("delimiter and regexes are mutually exclusive")
	}
	if rule.Delimiter != "" {
		re, err := regexp.Compile(rule.Delimiter)
		if err != nil {
			return nil, fmt.Errorf("delimiter: %w", err)
		}
		if re.MatchString("") {
			return nil, fmt.Errorf("delimiter %q matches the empty string", rule.Delimiter)
		}
		m.delim = re
		m.limit = len(rule.Names)
	}
	for i, expr := range rule.Regexes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("regexes[%d]: %w", i, err)
		}
		m.extract = append(m.extract, re)
	}
	if len(m.extract) > 0 && len(rule.Names) > len(m.extract) {
		return nil, fmt.Errorf("%d names given for %d regexes", len(rule.Names), len(m.extract))
	}
	if m.delim == nil && len(m.extract) == 0 && len(rule.Names) > 1 {
		return nil, fmt.Errorf("%d names given but no split rule", len(rule.Names))
	}

	count := len(rule.Names)
	if len(m.extract) > count {
		count = len(m.extract)
	}
	if count == 0 {
		count = 1
	}
	seen := make(map[string]bool, count)
	m.specs = make([]Spec, count)
	for i := range m.specs {
		name := strconv.Itoa(i)
		if i < len(rule.Names) && strings.TrimSpace(rule.Names[i]) != "" {
			name = strings.TrimSpace(rule.Names[i])
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = true
		m.specs[i].Name = name
	}
	if err := m.flag(rule.Hidden, func(s *Spec) { s.Hidden = true }); err != nil {
		return nil, fmt.Errorf("hidden: %w", err)
	}
	if err := m.flag(rule.NoFilter, func(s *Spec) { s.NoFilter = true }); err != nil {
		return nil, fmt.Errorf("nofilter: %w", err)
	}
	return m, nil
}

func (m *Model) flag(names []string, set func(*Spec)) error {
	for _, name := range names {
		idx, ok := m.Index(name)
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		m.grow(idx + 1)
		set(&m.specs[idx])
	}
	return nil
}

func (m *Model) grow(n int) {
	for len(m.specs) < n {
		m.specs = append(m.specs, Spec{Name: strconv.Itoa(len(m.specs))})
	}
}

// Split returns the column values of line. The result always has at least
// one element.
func (m *Model) Split(line string) []string {
	var cols []string
	switch {
	case m.delim != nil:
		cols = m.splitDelimited(line)
	case len(m.extract) > 0:
		cols = make([]string, len(m.extract))
		for i, re := range m.extract {
			match := re.FindStringSubmatch(line)
			switch {
			case match == nil:
			case len(match) > 1:
				cols[i] = match[1]
			default:
				cols[i] = match[0]
			}
		}
	default:
		cols = []string{line}
	}
	if m.trim {
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
	}
	return cols
}

func (m *Model) splitDelimited(line string) []string {
	n := -1
	if m.limit > 0 {
		n = m.limit
	}
	bounds := m.delim.FindAllStringIndex(line, n)
	if m.limit > 0 && len(bounds) >= m.limit {
		bounds = bounds[:m.limit-1]
	}
	cols := make([]string, 0, len(bounds)+1)
	start := 0
	for _, b := range bounds {
		cols = append(cols, line[start:b[0]])
		start = b[1]
	}
	return append(cols, line[start:])
}

// Specs returns the declared columns. Delimited records may carry more
// values than there are specs; those columns are unnamed and visible.
func (m *Model) Specs() []Spec {
	return m.specs
}

// Name returns the display name of column idx.
func (m *Model) Name(idx int) string {
	if idx >= 0 && idx < len(m.specs) {
		return m.specs[idx].Name
	}
	return strconv.Itoa(idx)
}

// Hidden reports whether column idx is excluded from display.
func (m *Model) Hidden(idx int) bool {
	return idx >= 0 && idx < len(m.specs) && m.specs[idx].Hidden
}

// Filterable reports whether column idx may be the active match column.
func (m *Model) Filterable(idx int) bool {
	return !(idx >= 0 && idx < len(m.specs) && m.specs[idx].NoFilter)
}

// DefaultActive returns the first filterable column.
func (m *Model) DefaultActive() int {
	for i := range m.specs {
		if !m.specs[i].NoFilter {
			return i
		}
	}
	return 0
}

// Index resolves an exact column name or decimal index.
func (m *Model) Index(name string) (int, bool) {
	for i, spec := range m.specs {
		if spec.Name == name {
			return i, true
		}
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && (m.delim != nil || n < len(m.specs)) {
		return n, true
	}
	return 0, false
}

// Lookup resolves a column by name prefix; the shortest matching name wins.
func (m *Model) Lookup(prefix string) (int, bool) {
	if idx, ok := m.Index(prefix); ok {
		return idx, true
	}
	best, bestLen := -1, 0
	for i, spec := range m.specs {
		if !strings.HasPrefix(spec.Name, prefix) {
			continue
		}
		if best == -1 || len(spec.Name) < bestLen {
			best, bestLen = i, len(spec.Name)
		}
	}
	return best, best >= 0
}

// Display joins the visible columns of cols for the result list. Without
// hidden columns the raw line is shown unchanged.
func (m *Model) Display(raw string, cols []string) string {
	anyHidden := false
	for _, spec := range m.specs {
		if spec.Hidden {
			anyHidden = true
			break
		}
	}
	if !anyHidden {
		return raw
	}
	var parts []string
	for i, value := range cols {
		if m.Hidden(i) {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, "  ")
}
