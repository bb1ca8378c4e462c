package column

import (
	"reflect"
	"testing"
)

func TestSplitWithoutRuleKeepsWholeLine(t *testing.T) {
	m, err := NewModel(Rule{})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	got := m.Split("a\tb c")
	if !reflect.DeepEqual(got, []string{"a\tb c"}) {
		t.Fatalf("expected single column, got %q", got)
	}
}

func TestSplitDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		line   string
		expect []string
	}{
		{"tab", Rule{Delimiter: "\t"}, "a\tb", []string{"a", "b"}},
		{"regex delimiter", Rule{Delimiter: ",\\s*"}, "x, y,z", []string{"x", "y", "z"}},
		{"names cap columns", Rule{Delimiter: ":", Names: []string{"user", "rest"}}, "root:x:0:0", []string{"root", "x:0:0"}},
		{"trim", Rule{Delimiter: "\\|", Trim: true}, " a | b ", []string{"a", "b"}},
		{"empty fields", Rule{Delimiter: ","}, ",a,", []string{"", "a", ""}},
	}
	for _, tt := range tests {
		m, err := NewModel(tt.rule)
		if err != nil {
			t.Fatalf("%s: NewModel: %v", tt.name, err)
		}
		if got := m.Split(tt.line); !reflect.DeepEqual(got, tt.expect) {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.expect, got)
		}
	}
}

func TestSplitRegexesUseFirstGroup(t *testing.T) {
	m, err := NewModel(Rule{
		Regexes: []string{`^(\S+)`, `line (\d+)`, `missing`},
		Names:   []string{"file", "line"},
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	got := m.Split("main.go line 42")
	if !reflect.DeepEqual(got, []string{"main.go", "42", ""}) {
		t.Fatalf("unexpected columns %q", got)
	}
	if idx, ok := m.Index("line"); !ok || idx != 1 {
		t.Fatalf("expected line column at 1, got %d %v", idx, ok)
	}
	if m.Name(2) != "2" {
		t.Fatalf("expected unnamed column to use its index, got %q", m.Name(2))
	}
}

func TestNewModelRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"both rules", Rule{Delimiter: ",", Regexes: []string{"x"}}},
		{"empty match delimiter", Rule{Delimiter: "a*"}},
		{"bad regex", Rule{Regexes: []string{"("}}},
		{"too many names", Rule{Regexes: []string{"a"}, Names: []string{"a", "b"}}},
		{"names without rule", Rule{Names: []string{"a", "b"}}},
		{"duplicate names", Rule{Delimiter: ",", Names: []string{"a", "a"}}},
		{"unknown hidden", Rule{Regexes: []string{"a"}, Hidden: []string{"nope"}}},
	}
	for _, tt := range tests {
		if _, err := NewModel(tt.rule); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestLookupPrefersShortestName(t *testing.T) {
	m, err := NewModel(Rule{Delimiter: ",", Names: []string{"version", "ver", "name"}})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if idx, ok := m.Lookup("ve"); !ok || idx != 1 {
		t.Fatalf("expected ver (1), got %d %v", idx, ok)
	}
	if idx, ok := m.Lookup("version"); !ok || idx != 0 {
		t.Fatalf("expected exact version (0), got %d %v", idx, ok)
	}
	if _, ok := m.Lookup("zzz"); ok {
		t.Fatalf("expected unknown prefix to fail")
	}
}

func TestHiddenAndNoFilterColumns(t *testing.T) {
	m, err := NewModel(Rule{
		Delimiter: "\t",
		Names:     []string{"id", "title", "body"},
		Hidden:    []string{"id"},
		NoFilter:  []string{"id"},
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if m.DefaultActive() != 1 {
		t.Fatalf("expected first filterable column 1, got %d", m.DefaultActive())
	}
	if m.Filterable(0) || !m.Filterable(2) {
		t.Fatalf("unexpected filterable flags")
	}
	raw := "7\thello\tworld"
	if got := m.Display(raw, m.Split(raw)); got != "hello  world" {
		t.Fatalf("expected hidden column dropped, got %q", got)
	}
}
