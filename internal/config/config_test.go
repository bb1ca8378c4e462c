package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kk-code-lab/rpick/internal/binds"
	"github.com/kk-code-lab/rpick/internal/search"
	"github.com/kk-code-lab/rpick/internal/state"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	r, err := Default().Resolve(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "> ", r.Options.Prompt)
	assert.Equal(t, DefaultSourceCommand, r.SourceCommand)
	assert.Equal(t, search.CaseSmart, r.Case)
	assert.Equal(t, time.Second, r.Options.TickEvery)
	assert.Equal(t, []state.Layout{state.DefaultLayout}, r.Options.Layouts)
	assert.Equal(t, "{}", r.Output.String())
	assert.NotEmpty(t, r.Options.HelpLines)

	enter, err := binds.ParseTrigger("enter")
	require.NoError(t, err)
	actions, ok := r.Binds.Resolve(enter)
	require.True(t, ok)
	assert.Equal(t, "Accept", binds.FormatActions(actions))
}

func TestLoadMissingDefaultFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load("", envOf(map[string]string{"XDG_CONFIG_HOME": dir}))
	require.NoError(t, err)
	assert.Equal(t, DefaultSourceCommand, cfg.Source.Command)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), envOf(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load("", envOf(map[string]string{EnvConfig: filepath.Join(t.TempDir(), "gone.toml")}))
	require.Error(t, err, "RPICK_CONFIG names an explicit file")
}

func TestDefaultPath(t *testing.T) {
	if os.Getenv("APPDATA") != "" {
		t.Skip("windows layout")
	}
	assert.Equal(t, filepath.Join("/xdg", "rpick", "config.toml"),
		DefaultPath(envOf(map[string]string{"XDG_CONFIG_HOME": "/xdg"})))
}

const sampleTOML = `
prompt = "pick> "
header = "files"
case = "ignore"
tick_ms = 250
shell = "bash -lc"
history = ["one", "two"]

[source]
command = "git ls-files"

[columns]
delimiter = ":"
names = ["file", "line", "text"]
nofilter = ["line"]
active = "text"

[preview]
debounce_ms = 0
wrap = true

[[preview.sources]]
name = "cat"
command = "cat {file}"

[[preview.sources]]
command = "head -n {line} {file}"

[[preview.layouts]]
side = "right"
percentage = 60
min = 30

[[preview.layouts]]
side = "bottom"
percentage = 40

[output]
template = "{file}:{line}"
select_1 = true
print0 = true

[binds]
"ctrl-y" = "Execute(echo {+}),Redraw"
"alt-p" = ["CyclePreview", "PreviewDown(3)"]
"ctrl-d" = ""
`

func TestLoadTOML(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "config.toml", sampleTOML))
	require.NoError(t, err)
	r, err := cfg.Resolve(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "pick> ", r.Options.Prompt)
	assert.Equal(t, "files", r.Options.Header)
	assert.Equal(t, search.CaseIgnore, r.Case)
	assert.Equal(t, 250*time.Millisecond, r.Options.TickEvery)
	assert.Equal(t, []string{"bash", "-lc"}, r.Shell.Argv)
	assert.Equal(t, []string{"one", "two"}, r.Options.History)
	assert.Equal(t, "git ls-files", r.SourceCommand)
	assert.Equal(t, 2, r.Options.Active)
	assert.True(t, r.Options.Wrap)
	assert.True(t, r.Options.Select1)
	assert.True(t, r.Print0)

	require.Len(t, r.Options.Sources, 2)
	assert.Equal(t, "cat", r.Options.Sources[0].Name)
	assert.Equal(t, "2", r.Options.Sources[1].Name)
	assert.Equal(t, time.Duration(0), r.Options.Sources[0].Debounce)

	assert.Equal(t, []state.Layout{
		{Side: state.SideRight, Percent: 60, Min: 30},
		{Side: state.SideBottom, Percent: 40},
	}, r.Options.Layouts)

	yank, err := binds.ParseTrigger("ctrl-y")
	require.NoError(t, err)
	actions, ok := r.Binds.Resolve(yank)
	require.True(t, ok)
	assert.Equal(t, "Execute(echo {+}),Redraw", binds.FormatActions(actions))

	alt, err := binds.ParseTrigger("alt-p")
	require.NoError(t, err)
	actions, ok = r.Binds.Resolve(alt)
	require.True(t, ok)
	assert.Equal(t, "CyclePreview,PreviewDown(3)", binds.FormatActions(actions))

	disabled, err := binds.ParseTrigger("ctrl-d")
	require.NoError(t, err)
	actions, _ = r.Binds.Resolve(disabled)
	assert.Empty(t, actions)
}

const sampleYAML = `
prompt: ""
columns:
  delimiter: "\t"
  active: 1
preview:
  sources:
    - command: "echo {1}"
  hidden: true
binds:
  ctrl-j: Down
  ctrl-k: [Up, Up]
`

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	r, err := cfg.Resolve(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "", r.Options.Prompt, "an explicit empty prompt is kept")
	assert.Equal(t, 1, r.Options.Active)
	assert.True(t, r.Options.Hidden)
	assert.Equal(t, 50*time.Millisecond, r.Options.Sources[0].Debounce)
	assert.Equal(t, []string{"a", "b"}, r.Model.Split("a\tb"))

	k, err := binds.ParseTrigger("ctrl-k")
	require.NoError(t, err)
	actions, ok := r.Binds.Resolve(k)
	require.True(t, ok)
	assert.Equal(t, "Up,Up", binds.FormatActions(actions))
}

func TestExtraBindsApplyAfterFile(t *testing.T) {
	cfg := Default()
	cfg.Binds = map[string]any{"ctrl-y": "Up"}
	cfg.ExtraBinds = []string{"ctrl-y:Down(2)", "start:Pos(-1)"}
	r, err := cfg.Resolve(envOf(nil))
	require.NoError(t, err)

	y, err := binds.ParseTrigger("ctrl-y")
	require.NoError(t, err)
	actions, _ := r.Binds.Resolve(y)
	assert.Equal(t, "Down(2)", binds.FormatActions(actions))
	assert.Contains(t, r.Binds.Events(), state.EventStart)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"bad trigger", "binds.ctrl-", func(c *Config) { c.Binds = map[string]any{"ctrl-": "Up"} }},
		{"unknown action", "binds.ctrl-y", func(c *Config) { c.Binds = map[string]any{"ctrl-y": "Explode"} }},
		{"non-string list", "binds.ctrl-y", func(c *Config) { c.Binds = map[string]any{"ctrl-y": []any{int64(1)}} }},
		{"bad cli bind", "bind", func(c *Config) { c.ExtraBinds = []string{"nocolon"} }},
		{"split rules conflict", "columns", func(c *Config) {
			c.Columns.Delimiter = ","
			c.Columns.Regexes = []string{`\S+`}
		}},
		{"unknown active", "columns.active", func(c *Config) { c.Columns.Active = "missing" }},
		{"case", "case", func(c *Config) { c.Case = "loud" }},
		{"shell", "shell", func(c *Config) { c.Shell = "bash 'oops" }},
		{"placeholder", "output.template", func(c *Config) { c.Output.Template = "{nope}" }},
		{"empty preview", "preview.sources[0].command", func(c *Config) {
			c.Preview.Sources = []PreviewSourceConfig{{Name: "x"}}
		}},
		{"layout side", "preview.layouts[0]", func(c *Config) {
			c.Preview.Layouts = []LayoutConfig{{Side: "diagonal", Percentage: 50}}
		}},
		{"layout pct", "preview.layouts[0]", func(c *Config) {
			c.Preview.Layouts = []LayoutConfig{{Side: "left", Percentage: 120}}
		}},
		{"layout bounds", "preview.layouts[0]", func(c *Config) {
			c.Preview.Layouts = []LayoutConfig{{Side: "left", Percentage: 50, Min: 40, Max: 10}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)
			_, err := cfg.Resolve(envOf(nil))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), "config "+tt.field)
		})
	}
}

func TestParseErrorIsConfigError(t *testing.T) {
	_, err := LoadFromFile(writeFile(t, "broken.toml", "prompt = ["))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestParseLayout(t *testing.T) {
	lc, err := ParseLayout("bottom:40%:5:20")
	require.NoError(t, err)
	assert.Equal(t, LayoutConfig{Side: "bottom", Percentage: 40, Min: 5, Max: 20}, lc)

	lc, err = ParseLayout("left:0")
	require.NoError(t, err)
	assert.Equal(t, 0, lc.Percentage)

	for _, bad := range []string{"right", "right:x", "up:50:1:2:3", "right:50:9:3"} {
		_, err := ParseLayout(bad)
		assert.Error(t, err, bad)
	}
}

func TestHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	entries, err := ReadHistory(path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, AppendHistory(path, "first"))
	require.NoError(t, AppendHistory(path, "second"))
	require.NoError(t, AppendHistory(path, "second"))
	require.NoError(t, AppendHistory(path, ""))

	entries, err = ReadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, entries)

	cfg := Default()
	cfg.History = []string{"ignored"}
	cfg.HistoryFile = path
	r, err := cfg.Resolve(envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, r.Options.History)
}

func TestHistoryFileIsTrimmed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	for i := range MaxHistory + 5 {
		require.NoError(t, AppendHistory(path, "q"+string(rune('a'+i%26))+string(rune('a'+i/26%26))))
	}
	entries, err := ReadHistory(path)
	require.NoError(t, err)
	assert.Len(t, entries, MaxHistory)
}

func TestTemplateQuotingFollowsShell(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash -lc", `'it'\''s'`},
		{"pwsh", `'it''s'`},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			c := Default()
			c.Shell = tt.shell
			r, err := c.Resolve(envOf(nil))
			require.NoError(t, err)
			require.NotNil(t, r.Options.Quote)
			assert.Equal(t, tt.want, r.Options.Quote("it's"))
		})
	}
}
