package binds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/state"
)

type actionParser func(arg string, has bool, model *column.Model) (state.Action, error)

// ParseBind parses a "trigger:Action,Action" line as given to --bind.
func ParseBind(line string, model *column.Model) (Trigger, []state.Action, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Trigger{}, nil, ErrEmptySpec
	}
	cut := strings.Index(line[1:], ":") + 1
	if cut <= 0 {
		return Trigger{}, nil, fmt.Errorf("%w: %q has no ':'", ErrInvalidSpec, line)
	}
	trigger, err := ParseTrigger(line[:cut])
	if err != nil {
		return Trigger{}, nil, err
	}
	actions, err := ParseActions(line[cut+1:], model)
	if err != nil {
		return Trigger{}, nil, fmt.Errorf("bind %s: %w", trigger, err)
	}
	return trigger, actions, nil
}

// ParseActions parses a comma separated action list. Commas inside
// parentheses belong to the action argument.
func ParseActions(spec string, model *column.Model) ([]state.Action, error) {
	items := splitActions(spec)
	actions := make([]state.Action, 0, len(items))
	for _, item := range items {
		a, err := ParseAction(item, model)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// ParseActionList parses actions given one per element, as in a config
// array.
func ParseActionList(items []string, model *column.Model) ([]state.Action, error) {
	actions := make([]state.Action, 0, len(items))
	for _, item := range items {
		a, err := ParseAction(item, model)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func splitActions(spec string) []string {
	var items []string
	depth, start := 0, 0
	for i, r := range spec {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				items = append(items, spec[start:i])
				start = i + 1
			}
		}
	}
	items = append(items, spec[start:])

	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseAction parses "Name" or "Name(arg)". Names are matched ignoring
// case, dashes and underscores.
func ParseAction(text string, model *column.Model) (state.Action, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySpec
	}
	name, arg, has := text, "", false
	if open := strings.IndexByte(text, '('); open >= 0 {
		if !strings.HasSuffix(text, ")") {
			return nil, fmt.Errorf("%w: unclosed argument in %q", ErrInvalidSpec, text)
		}
		name, arg, has = text[:open], text[open+1:len(text)-1], true
	}
	parse, ok := actionParsers[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidSpec, strings.TrimSpace(name))
	}
	a, err := parse(arg, has, model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.TrimSpace(name), err)
	}
	return a, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "").Replace(name)
}

func unit(a state.Action) actionParser {
	return func(arg string, has bool, _ *column.Model) (state.Action, error) {
		if has && strings.TrimSpace(arg) != "" {
			return nil, fmt.Errorf("%w: unexpected argument %q", ErrInvalidSpec, arg)
		}
		return a, nil
	}
}

func intArg(arg string, has bool, fallback int, required bool) (int, error) {
	arg = strings.TrimSpace(arg)
	if !has || arg == "" {
		if required {
			return 0, fmt.Errorf("%w: missing argument", ErrInvalidSpec)
		}
		return fallback, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSpec, arg)
	}
	return n, nil
}

func countArg(build func(int) state.Action) actionParser {
	return func(arg string, has bool, _ *column.Model) (state.Action, error) {
		n, err := intArg(arg, has, 1, false)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: count must be positive", ErrInvalidSpec)
		}
		return build(n), nil
	}
}

func posArg(build func(int) state.Action) actionParser {
	return func(arg string, has bool, _ *column.Model) (state.Action, error) {
		n, err := intArg(arg, has, 0, true)
		if err != nil {
			return nil, err
		}
		return build(n), nil
	}
}

func optionalIndex(build func(int, bool) state.Action) actionParser {
	return func(arg string, has bool, _ *column.Model) (state.Action, error) {
		if !has || strings.TrimSpace(arg) == "" {
			return build(0, false), nil
		}
		n, err := intArg(arg, true, 0, true)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: index must not be negative", ErrInvalidSpec)
		}
		return build(n, true), nil
	}
}

func optionalText(build func(string, bool) state.Action) actionParser {
	return func(arg string, has bool, _ *column.Model) (state.Action, error) {
		return build(arg, has && arg != ""), nil
	}
}

func command(build func(*column.Template) state.Action) actionParser {
	return func(arg string, _ bool, model *column.Model) (state.Action, error) {
		if strings.TrimSpace(arg) == "" {
			return nil, fmt.Errorf("%w: missing command", ErrInvalidSpec)
		}
		tmpl, err := column.Compile(arg, model)
		if err != nil {
			return nil, err
		}
		return build(tmpl), nil
	}
}

func parseColumn(arg string, has bool, model *column.Model) (state.Action, error) {
	arg = strings.TrimSpace(arg)
	if !has || arg == "" {
		return nil, fmt.Errorf("%w: missing column", ErrInvalidSpec)
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return state.ColumnAction{Index: n}, nil
	}
	if model != nil {
		if idx, ok := model.Lookup(arg); ok {
			return state.ColumnAction{Index: idx}, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidSpec, arg)
}

func parseInput(arg string, has bool, _ *column.Model) (state.Action, error) {
	runes := []rune(arg)
	if !has || len(runes) != 1 {
		return nil, fmt.Errorf("%w: Input takes exactly one character", ErrInvalidSpec)
	}
	return state.InputAction{Char: runes[0]}, nil
}

func parsePrint(arg string, _ bool, model *column.Model) (state.Action, error) {
	if arg == "" {
		arg = "{}"
	}
	tmpl, err := column.Compile(arg, model)
	if err != nil {
		return nil, err
	}
	return state.PrintAction{Template: tmpl}, nil
}

var actionParsers = map[string]actionParser{
	"select":   unit(state.SelectAction{}),
	"deselect": unit(state.DeselectAction{}),
	"toggle":   unit(state.ToggleAction{}),
	"cycleall": unit(state.CycleAllAction{}),
	"clearall": unit(state.ClearAllAction{}),
	"accept":   unit(state.AcceptAction{}),
	"quit": func(arg string, has bool, _ *column.Model) (state.Action, error) {
		code, err := intArg(arg, has, 1, false)
		if err != nil {
			return nil, err
		}
		return state.QuitAction{Code: code}, nil
	},

	"up":           countArg(func(n int) state.Action { return state.UpAction{Count: n} }),
	"down":         countArg(func(n int) state.Action { return state.DownAction{Count: n} }),
	"pos":          posArg(func(n int) state.Action { return state.PosAction{Index: n} }),
	"forwardchar":  unit(state.ForwardCharAction{}),
	"backwardchar": unit(state.BackwardCharAction{}),
	"forwardword":  unit(state.ForwardWordAction{}),
	"backwardword": unit(state.BackwardWordAction{}),
	"inputpos":     posArg(func(n int) state.Action { return state.InputPosAction{Index: n} }),

	"cyclepreview": unit(state.CyclePreviewAction{}),
	"setpreview": optionalIndex(func(i int, ok bool) state.Action {
		return state.SetPreviewAction{Index: i, HasIndex: ok}
	}),
	"switchpreview": optionalIndex(func(i int, ok bool) state.Action {
		return state.SwitchPreviewAction{Index: i, HasIndex: ok}
	}),
	"preview":             command(func(t *column.Template) state.Action { return state.PreviewAction{Command: t} }),
	"previewup":           countArg(func(n int) state.Action { return state.PreviewUpAction{Count: n} }),
	"previewdown":         countArg(func(n int) state.Action { return state.PreviewDownAction{Count: n} }),
	"previewhalfpageup":   unit(state.PreviewHalfPageUpAction{}),
	"previewhalfpagedown": unit(state.PreviewHalfPageDownAction{}),
	"togglewrappreview":   unit(state.ToggleWrapPreviewAction{}),
	"help": func(arg string, _ bool, _ *column.Model) (state.Action, error) {
		return state.HelpAction{Text: arg}, nil
	},

	"input": parseInput,
	"setinput": func(arg string, _ bool, _ *column.Model) (state.Action, error) {
		return state.SetInputAction{Text: arg}, nil
	},
	"cancel":          unit(state.CancelAction{}),
	"deletechar":      unit(state.DeleteCharAction{}),
	"deleteword":      unit(state.DeleteWordAction{}),
	"deletelinestart": unit(state.DeleteLineStartAction{}),
	"deletelineend":   unit(state.DeleteLineEndAction{}),
	"historyup":       unit(state.HistoryUpAction{}),
	"historydown":     unit(state.HistoryDownAction{}),
	"togglewrap":      unit(state.ToggleWrapAction{}),

	"setheader":   optionalText(func(s string, ok bool) state.Action { return state.SetHeaderAction{Text: s, HasText: ok} }),
	"setfooter":   optionalText(func(s string, ok bool) state.Action { return state.SetFooterAction{Text: s, HasText: ok} }),
	"setprompt":   optionalText(func(s string, ok bool) state.Action { return state.SetPromptAction{Text: s, HasText: ok} }),
	"column":      parseColumn,
	"cyclecolumn": unit(state.CycleColumnAction{}),
	"redraw":      unit(state.RedrawAction{}),
	"overlay": optionalIndex(func(i int, ok bool) state.Action {
		return state.OverlayAction{Index: i, HasIndex: ok}
	}),

	"execute": command(func(t *column.Template) state.Action { return state.ExecuteAction{Command: t} }),
	"become":  command(func(t *column.Template) state.Action { return state.BecomeAction{Command: t} }),
	"reload":  command(func(t *column.Template) state.Action { return state.ReloadAction{Command: t} }),
	"print":   parsePrint,
}

// FormatAction renders an action in the text form ParseAction accepts.
func FormatAction(a state.Action) string {
	switch a := a.(type) {
	case state.SelectAction:
		return "Select"
	case state.DeselectAction:
		return "Deselect"
	case state.ToggleAction:
		return "Toggle"
	case state.CycleAllAction:
		return "CycleAll"
	case state.ClearAllAction:
		return "ClearAll"
	case state.AcceptAction:
		return "Accept"
	case state.QuitAction:
		return fmt.Sprintf("Quit(%d)", a.Code)
	case state.UpAction:
		return withCount("Up", a.Count)
	case state.DownAction:
		return withCount("Down", a.Count)
	case state.PosAction:
		return fmt.Sprintf("Pos(%d)", a.Index)
	case state.ForwardCharAction:
		return "ForwardChar"
	case state.BackwardCharAction:
		return "BackwardChar"
	case state.ForwardWordAction:
		return "ForwardWord"
	case state.BackwardWordAction:
		return "BackwardWord"
	case state.InputPosAction:
		return fmt.Sprintf("InputPos(%d)", a.Index)
	case state.CyclePreviewAction:
		return "CyclePreview"
	case state.SetPreviewAction:
		return withIndex("SetPreview", a.Index, a.HasIndex)
	case state.SwitchPreviewAction:
		return withIndex("SwitchPreview", a.Index, a.HasIndex)
	case state.PreviewAction:
		return "Preview(" + a.Command.String() + ")"
	case state.PreviewUpAction:
		return withCount("PreviewUp", a.Count)
	case state.PreviewDownAction:
		return withCount("PreviewDown", a.Count)
	case state.PreviewHalfPageUpAction:
		return "PreviewHalfPageUp"
	case state.PreviewHalfPageDownAction:
		return "PreviewHalfPageDown"
	case state.ToggleWrapPreviewAction:
		return "ToggleWrapPreview"
	case state.HelpAction:
		return withText("Help", a.Text, a.Text != "")
	case state.InputAction:
		return "Input(" + string(a.Char) + ")"
	case state.SetInputAction:
		return "SetInput(" + a.Text + ")"
	case state.CancelAction:
		return "Cancel"
	case state.DeleteCharAction:
		return "DeleteChar"
	case state.DeleteWordAction:
		return "DeleteWord"
	case state.DeleteLineStartAction:
		return "DeleteLineStart"
	case state.DeleteLineEndAction:
		return "DeleteLineEnd"
	case state.HistoryUpAction:
		return "HistoryUp"
	case state.HistoryDownAction:
		return "HistoryDown"
	case state.ToggleWrapAction:
		return "ToggleWrap"
	case state.SetHeaderAction:
		return withText("SetHeader", a.Text, a.HasText)
	case state.SetFooterAction:
		return withText("SetFooter", a.Text, a.HasText)
	case state.SetPromptAction:
		return withText("SetPrompt", a.Text, a.HasText)
	case state.ColumnAction:
		return fmt.Sprintf("Column(%d)", a.Index)
	case state.CycleColumnAction:
		return "CycleColumn"
	case state.RedrawAction:
		return "Redraw"
	case state.OverlayAction:
		return withIndex("Overlay", a.Index, a.HasIndex)
	case state.ExecuteAction:
		return "Execute(" + a.Command.String() + ")"
	case state.BecomeAction:
		return "Become(" + a.Command.String() + ")"
	case state.ReloadAction:
		return "Reload(" + a.Command.String() + ")"
	case state.PrintAction:
		return "Print(" + a.Template.String() + ")"
	default:
		return fmt.Sprintf("%T", a)
	}
}

func withCount(name string, n int) string {
	if n <= 1 {
		return name
	}
	return fmt.Sprintf("%s(%d)", name, n)
}

func withIndex(name string, idx int, ok bool) string {
	if !ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", name, idx)
}

func withText(name, text string, ok bool) string {
	if !ok {
		return name
	}
	return name + "(" + text + ")"
}

// FormatActions joins a sequence the way ParseActions reads it.
func FormatActions(actions []state.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = FormatAction(a)
	}
	return strings.Join(parts, ",")
}
