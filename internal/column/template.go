package column

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is the column view of one record.
type Target struct {
	Raw     string
	Columns []string
}

// Context carries what a template may reference at format time.
type Context struct {
	Current  *Target
	Selected []Target
	Active   int
	Query    string
	// Quote makes a value one shell word. Nil means POSIX single quotes.
	Quote func(string) string
}

type partKind int

const (
	partLiteral partKind = iota
	partWhole
	partActive
	partAll
	partSelection
	partQuery
	partColumn
)

type part struct {
	kind  partKind
	text  string
	index int
}

// Template is a compiled format string.
//
//	{}       whole line
//	{.}      active column
//	{*}      all columns joined by a space
//	{+}      selection, falling back to the current record
//	{q}      query
//	{N}      column N, or {name} for a named column
//
// A backslash escapes the next character. Brace groups that are not
// placeholder-shaped (awk programs, ${VAR}) and unterminated groups are
// copied literally.
type Template struct {
	src   string
	parts []part
}

// Compile parses src, resolving column names against model. A nil model
// only accepts numeric columns.
func Compile(src string, model *Model) (*Template, error) {
	t := &Template{src: src}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{kind: partLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			i++
			lit.WriteByte(src[i])
			continue
		}
		if c != '{' || (i > 0 && src[i-1] == '$') {
			lit.WriteByte(c)
			continue
		}
		end := strings.IndexByte(src[i+1:], '}')
		if end < 0 {
			lit.WriteString(src[i:])
			break
		}
		key := src[i+1 : i+1+end]
		if !placeholderShaped(key) {
			lit.WriteByte(c)
			continue
		}
		p, err := resolveKey(key, model)
		if err != nil {
			return nil, err
		}
		flush()
		t.parts = append(t.parts, p)
		i += end + 1
	}
	flush()
	return t, nil
}

// MustCompile is Compile for templates known to be valid.
func MustCompile(src string) *Template {
	t, err := Compile(src, nil)
	if err != nil {
		panic(err)
	}
	return t
}

func placeholderShaped(key string) bool {
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '*', r == '+':
		default:
			return false
		}
	}
	return true
}

func resolveKey(key string, model *Model) (part, error) {
	switch key {
	case "":
		return part{kind: partWhole}, nil
	case ".":
		return part{kind: partActive}, nil
	case "*":
		return part{kind: partAll}, nil
	case "+":
		return part{kind: partSelection}, nil
	case "q":
		return part{kind: partQuery}, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 {
		return part{kind: partColumn, index: n}, nil
	}
	if model != nil {
		if idx, ok := model.Index(key); ok {
			return part{kind: partColumn, index: idx}, nil
		}
	}
	return part{}, fmt.Errorf("unknown placeholder {%s}", key)
}

// Format expands the template. With quote set every substituted value is
// quoted for the shell through ctx.Quote.
func (t *Template) Format(ctx Context, quote bool) string {
	if t == nil {
		return ""
	}
	shellQuote := ctx.Quote
	if shellQuote == nil {
		shellQuote = ShellQuote
	}
	q := func(s string) string {
		if quote {
			return shellQuote(s)
		}
		return s
	}

	var b strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case partLiteral:
			b.WriteString(p.text)
		case partWhole:
			b.WriteString(q(rawOf(ctx.Current)))
		case partActive:
			b.WriteString(q(columnOf(ctx.Current, ctx.Active)))
		case partAll:
			if ctx.Current != nil {
				b.WriteString(q(strings.Join(ctx.Current.Columns, " ")))
			} else {
				b.WriteString(q(""))
			}
		case partColumn:
			b.WriteString(q(columnOf(ctx.Current, p.index)))
		case partQuery:
			b.WriteString(q(ctx.Query))
		case partSelection:
			targets := ctx.Selected
			if len(targets) == 0 && ctx.Current != nil {
				targets = []Target{*ctx.Current}
			}
			if len(targets) == 0 {
				b.WriteString(q(""))
				continue
			}
			for i, target := range targets {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(q(target.Raw))
			}
		}
	}
	return b.String()
}

// String returns the source text.
func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.src
}

// UsesSelection reports whether the template expands {+}.
func (t *Template) UsesSelection() bool {
	if t == nil {
		return false
	}
	for _, p := range t.parts {
		if p.kind == partSelection {
			return true
		}
	}
	return false
}

// UsesQuery reports whether the template expands {q}.
func (t *Template) UsesQuery() bool {
	if t == nil {
		return false
	}
	for _, p := range t.parts {
		if p.kind == partQuery {
			return true
		}
	}
	return false
}

func rawOf(target *Target) string {
	if target == nil {
		return ""
	}
	return target.Raw
}

func columnOf(target *Target, idx int) string {
	if target == nil || idx < 0 || idx >= len(target.Columns) {
		return ""
	}
	return target.Columns[idx]
}

// ShellQuote wraps s in single quotes for POSIX shells. It is the default
// when a Context carries no Quote.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
