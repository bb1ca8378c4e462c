package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kk-code-lab/rpick/internal/app"
	"github.com/kk-code-lab/rpick/internal/binds"
	"github.com/kk-code-lab/rpick/internal/state"
)

type fakeRun struct {
	req    request
	called bool
	res    app.Result
	err    error
}

func (f *fakeRun) run(_ context.Context, req request) (app.Result, error) {
	f.called = true
	f.req = req
	return f.res, f.err
}

type harness struct {
	fake   *fakeRun
	stdout bytes.Buffer
	stderr bytes.Buffer
	stdin  *strings.Reader
	piped  bool
	vars   map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		fake:  &fakeRun{},
		stdin: strings.NewReader("one\ntwo\n"),
		vars:  map[string]string{"XDG_CONFIG_HOME": t.TempDir()},
	}
}

func (h *harness) exec(args ...string) int {
	cmd := newRootCmd(env{
		stdin:  h.stdin,
		getenv: func(k string) string { return h.vars[k] },
		piped:  func() bool { return h.piped },
		run:    h.fake.run,
	})
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	return execute(context.Background(), cmd, args)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	h := newHarness(t)
	code := h.exec(
		"-q", "foo",
		"--prompt", "",
		"--header", "pick one",
		"-d", ":",
		"--with-names", "path, line",
		"--nth", "line",
		"--preview", "cat {path}",
		"--preview-layout", "bottom:30:5",
		"--preview-layout", "right:50%",
		"--bind", "ctrl-y:Down(2),Accept",
		"-1",
		"--allow-empty",
		"--output", "{path}",
		"--history-file", filepath.Join(t.TempDir(), "hist"),
	)
	require.Equal(t, 0, code, h.stderr.String())
	require.True(t, h.fake.called)

	r := h.fake.req.resolved
	assert.Equal(t, "foo", r.Options.Query)
	assert.Equal(t, "", r.Options.Prompt)
	assert.Equal(t, "pick one", r.Options.Header)
	assert.Equal(t, 1, r.Options.Active)
	assert.True(t, r.Options.Select1)
	assert.True(t, r.Options.AllowEmpty)
	assert.Equal(t, "{path}", r.Output.String())
	assert.NotEmpty(t, r.HistoryFile)

	require.Len(t, r.Options.Sources, 1)
	assert.Equal(t, "1", r.Options.Sources[0].Name)
	assert.Equal(t, []state.Layout{
		{Side: state.SideBottom, Percent: 30, Min: 5},
		{Side: state.SideRight, Percent: 50},
	}, r.Options.Layouts)

	names := make([]string, 0)
	for _, spec := range r.Model.Specs() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"path", "line"}, names)

	trigger, err := binds.ParseTrigger("ctrl-y")
	require.NoError(t, err)
	actions, ok := r.Binds.Resolve(trigger)
	require.True(t, ok)
	assert.Equal(t, "Down(2),Accept", binds.FormatActions(actions))
}

func TestConfigFileUnderFlags(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "rpick.toml")
	require.NoError(t, os.WriteFile(path, []byte("prompt = \"file> \"\nquery = \"x\"\n[source]\ncommand = \"ls\"\n"), 0o644))

	code := h.exec("--config", path, "--query", "y")
	require.Equal(t, 0, code, h.stderr.String())

	r := h.fake.req.resolved
	assert.Equal(t, "file> ", r.Options.Prompt)
	assert.Equal(t, "y", r.Options.Query)
	assert.Equal(t, "ls", r.SourceCommand)
}

func TestSourceFlagAndTerminalStdin(t *testing.T) {
	h := newHarness(t)
	code := h.exec("--source", "git ls-files")
	require.Equal(t, 0, code)
	assert.Equal(t, "git ls-files", h.fake.req.resolved.SourceCommand)
	assert.Nil(t, h.fake.req.input)
}

func TestPipedStdinFeedsPicker(t *testing.T) {
	h := newHarness(t)
	h.piped = true
	require.Equal(t, 0, h.exec())
	assert.Same(t, h.stdin, h.fake.req.input)
}

func TestAcceptedItemsPrinted(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", nil, "a\nb c\n"},
		{"print query", []string{"--print-query"}, "qq\na\nb c\n"},
		{"print0", []string{"--print0", "--print-query"}, "qq\x00a\x00b c\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fake.res = app.Result{Items: []string{"a", "b c"}, Query: "qq"}
			require.Equal(t, 0, h.exec(tt.args...))
			assert.Equal(t, tt.want, h.stdout.String())
		})
	}
}

func TestAbortExitsWithQuitCode(t *testing.T) {
	h := newHarness(t)
	h.fake.res = app.Result{Query: "q"}
	h.fake.err = &app.AbortError{Code: 130}

	assert.Equal(t, 130, h.exec("--print-query"))
	assert.Empty(t, h.stdout.String())
	assert.Empty(t, h.stderr.String())
}

func TestRunFailureExitsTwo(t *testing.T) {
	h := newHarness(t)
	h.fake.err = &app.TerminalError{Op: "init", Err: errors.New("no tty")}

	assert.Equal(t, 2, h.exec())
	assert.Contains(t, h.stderr.String(), "rpick: terminal init: no tty")
}

func TestConfigErrorsExitTwo(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad layout", []string{"--preview-layout", "diagonal:10"}, "preview-layout"},
		{"bad bind", []string{"--bind", "ctrl-y:Nope"}, "unknown action"},
		{"unknown column", []string{"-d", ",", "--with-names", "a,b", "--nth", "zzz"}, "columns.active"},
		{"names without delimiter", []string{"--with-names", "a,b"}, "no split rule"},
		{"missing config", []string{"--config", "/nonexistent/rpick.toml"}, "read config"},
		{"stray argument", []string{"extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, 2, h.exec(tt.args...))
			assert.False(t, h.fake.called)
			assert.Contains(t, h.stderr.String(), tt.want)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.exec("version"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "rpick "))
	assert.False(t, h.fake.called)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(&app.AbortError{Code: 1}))
	assert.Equal(t, 2, exitCode(errors.New("boom")))
}

func TestSetupCommand(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.exec("setup", "zsh"))
	assert.Contains(t, h.stdout.String(), "bindkey '^T' __rpick_widget")
	assert.False(t, h.fake.called)

	h = newHarness(t)
	assert.Equal(t, 2, h.exec("setup", "tcsh"))
	assert.Contains(t, h.stderr.String(), "no key binding widget")
}
