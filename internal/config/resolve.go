package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kk-code-lab/rpick/internal/binds"
	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/proc"
	"github.com/kk-code-lab/rpick/internal/search"
	"github.com/kk-code-lab/rpick/internal/state"
)

// ConfigError reports an invalid setting. Field is the dotted key, or the
// file path for parse failures.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// Resolved is the immutable startup snapshot built from a Config.
type Resolved struct {
	Options       state.Options
	Binds         *binds.Map
	Model         *column.Model
	Case          search.CaseMode
	Shell         proc.Shell
	SourceCommand string
	Output        *column.Template
	Print0        bool
	PrintQuery    bool
	HistoryFile   string
}

// Resolve compiles c. getenv supplies SHELL when no shell is configured.
func (c *Config) Resolve(getenv func(string) string) (*Resolved, error) {
	c.fillDefaults()
	r := &Resolved{
		SourceCommand: strings.TrimSpace(c.Source.Command),
		Print0:        c.Output.Print0,
		PrintQuery:    c.Output.PrintQuery,
		HistoryFile:   c.HistoryFile,
	}

	model, err := column.NewModel(column.Rule{
		Delimiter: c.Columns.Delimiter,
		Regexes:   c.Columns.Regexes,
		Trim:      c.Columns.Trim,
		Names:     c.Columns.Names,
		Hidden:    c.Columns.Hidden,
		NoFilter:  c.Columns.NoFilter,
	})
	if err != nil {
		return nil, fieldErr("columns", err)
	}
	r.Model = model

	active, err := resolveActive(c.Columns.Active, model)
	if err != nil {
		return nil, fieldErr("columns.active", err)
	}

	if r.Case, err = search.ParseCaseMode(c.Case); err != nil {
		return nil, fieldErr("case", err)
	}

	if strings.TrimSpace(c.Shell) != "" {
		if r.Shell, err = proc.ParseShell(c.Shell); err != nil {
			return nil, fieldErr("shell", err)
		}
	} else {
		r.Shell = proc.DefaultShell(getenv)
	}

	if r.Output, err = column.Compile(c.Output.Template, model); err != nil {
		return nil, fieldErr("output.template", err)
	}

	sources, err := c.resolveSources(model)
	if err != nil {
		return nil, err
	}
	layouts, err := c.resolveLayouts()
	if err != nil {
		return nil, err
	}

	if r.Binds, err = c.resolveBinds(model); err != nil {
		return nil, err
	}

	history := c.History
	if c.HistoryFile != "" {
		if history, err = ReadHistory(c.HistoryFile); err != nil {
			return nil, fieldErr("history_file", err)
		}
	}

	r.Options = state.Options{
		Prompt:     c.prompt(),
		Header:     c.Header,
		Footer:     c.Footer,
		Query:      c.Query,
		History:    history,
		Columns:    model,
		Active:     active,
		Sources:    sources,
		Layouts:    layouts,
		Hidden:     c.Preview.Hidden,
		Wrap:       c.Preview.Wrap,
		KeepScroll: c.Preview.KeepScroll,
		Select1:    c.Output.Select1,
		AllowEmpty: c.Output.AllowEmpty,
		HelpLines:  r.Binds.HelpLines(),
		TickEvery:  time.Duration(c.TickMS) * time.Millisecond,
		Quote:      r.Shell.Quote,
	}
	return r, nil
}

func resolveActive(value any, model *column.Model) (int, error) {
	switch v := value.(type) {
	case nil:
		return model.DefaultActive(), nil
	case int:
		return checkColumn(v)
	case int64:
		return checkColumn(int(v))
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return model.DefaultActive(), nil
		}
		if n, err := strconv.Atoi(v); err == nil {
			return checkColumn(n)
		}
		if idx, ok := model.Lookup(v); ok {
			return idx, nil
		}
		return 0, fmt.Errorf("unknown column %q", v)
	default:
		return 0, fmt.Errorf("expected a column index or name, got %T", value)
	}
}

func checkColumn(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("column index %d is negative", n)
	}
	return n, nil
}

func (c *Config) resolveSources(model *column.Model) ([]state.PreviewSource, error) {
	debounce := time.Duration(*c.Preview.DebounceMS) * time.Millisecond
	if *c.Preview.DebounceMS < 0 {
		return nil, fieldErr("preview.debounce_ms", fmt.Errorf("must not be negative"))
	}
	sources := make([]state.PreviewSource, 0, len(c.Preview.Sources))
	for i, src := range c.Preview.Sources {
		field := fmt.Sprintf("preview.sources[%d]", i)
		if strings.TrimSpace(src.Command) == "" {
			return nil, fieldErr(field+".command", fmt.Errorf("empty command"))
		}
		tmpl, err := column.Compile(src.Command, model)
		if err != nil {
			return nil, fieldErr(field+".command", err)
		}
		name := src.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		sources = append(sources, state.PreviewSource{Name: name, Command: tmpl, Debounce: debounce})
	}
	return sources, nil
}

func (c *Config) resolveLayouts() ([]state.Layout, error) {
	if len(c.Preview.Layouts) == 0 {
		return []state.Layout{state.DefaultLayout}, nil
	}
	layouts := make([]state.Layout, 0, len(c.Preview.Layouts))
	for i, lc := range c.Preview.Layouts {
		l, err := layoutFrom(lc)
		if err != nil {
			return nil, fieldErr(fmt.Sprintf("preview.layouts[%d]", i), err)
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

func layoutFrom(lc LayoutConfig) (state.Layout, error) {
	side, err := state.ParseSide(lc.Side)
	if err != nil {
		return state.Layout{}, err
	}
	switch {
	case lc.Percentage < 0 || lc.Percentage > 100:
		return state.Layout{}, fmt.Errorf("percentage %d out of range 0-100", lc.Percentage)
	case lc.Min < 0 || lc.Max < 0:
		return state.Layout{}, fmt.Errorf("min and max must not be negative")
	case lc.Max > 0 && lc.Min > lc.Max:
		return state.Layout{}, fmt.Errorf("min %d exceeds max %d", lc.Min, lc.Max)
	}
	return state.Layout{Side: side, Percent: lc.Percentage, Min: lc.Min, Max: lc.Max}, nil
}

// ParseLayout reads the command-line form side:pct[:min[:max]]. The
// percentage may carry a trailing '%'.
func ParseLayout(spec string) (LayoutConfig, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) < 2 || len(parts) > 4 {
		return LayoutConfig{}, fmt.Errorf("layout %q: expected side:pct[:min[:max]]", spec)
	}
	lc := LayoutConfig{Side: parts[0]}
	nums := make([]int, 0, 3)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(p), "%"))
		if err != nil {
			return LayoutConfig{}, fmt.Errorf("layout %q: %q is not a number", spec, p)
		}
		nums = append(nums, n)
	}
	lc.Percentage = nums[0]
	if len(nums) > 1 {
		lc.Min = nums[1]
	}
	if len(nums) > 2 {
		lc.Max = nums[2]
	}
	if _, err := layoutFrom(lc); err != nil {
		return LayoutConfig{}, fmt.Errorf("layout %q: %w", spec, err)
	}
	return lc, nil
}

func (c *Config) resolveBinds(model *column.Model) (*binds.Map, error) {
	m := binds.New()

	// Sorted so that two specs naming the same trigger resolve the same way
	// on every run.
	keys := make([]string, 0, len(c.Binds))
	for k := range c.Binds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, spec := range keys {
		field := "binds." + spec
		trigger, err := binds.ParseTrigger(spec)
		if err != nil {
			return nil, fieldErr(field, err)
		}
		actions, err := bindValue(c.Binds[spec], model)
		if err != nil {
			return nil, fieldErr(field, err)
		}
		m.Bind(trigger, actions)
	}

	for _, line := range c.ExtraBinds {
		trigger, actions, err := binds.ParseBind(line, model)
		if err != nil {
			return nil, fieldErr("bind", err)
		}
		m.Bind(trigger, actions)
	}
	return m, nil
}

func bindValue(value any, model *column.Model) ([]state.Action, error) {
	switch v := value.(type) {
	case string:
		return binds.ParseActions(v, model)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("action list entries must be strings, got %T", item)
			}
			items = append(items, s)
		}
		return binds.ParseActionList(items, model)
	case []string:
		return binds.ParseActionList(v, model)
	default:
		return nil, fmt.Errorf("expected a string or an array of actions, got %T", value)
	}
}
