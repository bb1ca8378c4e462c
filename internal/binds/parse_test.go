package binds

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/state"
)

func TestParseActions(t *testing.T) {
	actions, err := ParseActions("Toggle, Down", nil)
	require.NoError(t, err)
	assert.Equal(t, []state.Action{state.ToggleAction{}, state.DownAction{Count: 1}}, actions)

	actions, err = ParseActions("up(3),quit,Quit(2),pos(-1),cycle-all,clear_all", nil)
	require.NoError(t, err)
	assert.Equal(t, []state.Action{
		state.UpAction{Count: 3},
		state.QuitAction{Code: 1},
		state.QuitAction{Code: 2},
		state.PosAction{Index: -1},
		state.CycleAllAction{},
		state.ClearAllAction{},
	}, actions)
}

func TestParseActionOptionalPayloads(t *testing.T) {
	tests := []struct {
		spec string
		want state.Action
	}{
		{"SwitchPreview", state.SwitchPreviewAction{}},
		{"SwitchPreview(1)", state.SwitchPreviewAction{Index: 1, HasIndex: true}},
		{"SetPreview()", state.SetPreviewAction{}},
		{"SetHeader", state.SetHeaderAction{}},
		{"SetHeader(hello)", state.SetHeaderAction{Text: "hello", HasText: true}},
		{"SetPrompt(> )", state.SetPromptAction{Text: "> ", HasText: true}},
		{"Help", state.HelpAction{}},
		{"Input(x)", state.InputAction{Char: 'x'}},
		{"SetInput(foo bar)", state.SetInputAction{Text: "foo bar"}},
		{"Overlay(0)", state.OverlayAction{Index: 0, HasIndex: true}},
		{"InputPos(0)", state.InputPosAction{Index: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseAction(tt.spec, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseActionCommands(t *testing.T) {
	model, err := column.NewModel(column.Rule{Delimiter: ":", Names: []string{"file", "line"}})
	require.NoError(t, err)

	actions, err := ParseActions("Execute(vim +{line} {file}),Reload(ls, -la),Print", model)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	execute, ok := actions[0].(state.ExecuteAction)
	require.True(t, ok)
	ctx := column.Context{Current: &column.Target{Raw: "a.go:12", Columns: []string{"a.go", "12"}}}
	assert.Equal(t, "vim +'12' 'a.go'", execute.Command.Format(ctx, true))

	reload, ok := actions[1].(state.ReloadAction)
	require.True(t, ok)
	assert.Equal(t, "ls, -la", reload.Command.String())

	printAction, ok := actions[2].(state.PrintAction)
	require.True(t, ok)
	assert.Equal(t, "{}", printAction.Template.String())

	col, err := ParseAction("Column(line)", model)
	require.NoError(t, err)
	assert.Equal(t, state.ColumnAction{Index: 1}, col)
}

func TestParseActionErrors(t *testing.T) {
	for _, spec := range []string{
		"Nope", "Accept(1)", "Up(x)", "Up(0)", "Pos", "Execute", "Execute()",
		"Input(ab)", "Column(missing)", "Toggle(", "SwitchPreview(-1)", "Preview({nope})",
	} {
		_, err := ParseAction(spec, nil)
		assert.Error(t, err, spec)
	}
	_, err := ParseAction("Nope", nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
	_, err = ParseAction(" ", nil)
	assert.ErrorIs(t, err, ErrEmptySpec)
}

func TestParseBind(t *testing.T) {
	tr, actions, err := ParseBind("ctrl-j:Down,Toggle", nil)
	require.NoError(t, err)
	assert.Equal(t, RuneTrigger('j', tcell.ModCtrl), tr)
	assert.Equal(t, []state.Action{state.DownAction{Count: 1}, state.ToggleAction{}}, actions)

	tr, actions, err = ParseBind("::Accept", nil)
	require.NoError(t, err)
	assert.Equal(t, RuneTrigger(':', 0), tr)
	assert.Equal(t, []state.Action{state.AcceptAction{}}, actions)

	_, _, err = ParseBind("ctrl-j", nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
	_, _, err = ParseBind("ctrl-j:Bogus", nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestFormatActionsRoundTrips(t *testing.T) {
	spec := "Toggle,Down(2),Quit(1),SwitchPreview(1),SetHeader(hi),Execute(less {}),Help"
	actions, err := ParseActions(spec, nil)
	require.NoError(t, err)
	assert.Equal(t, spec, FormatActions(actions))
}
