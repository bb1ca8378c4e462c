package binds

import (
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/state"
)

// Map is the binding table. User bindings shadow the defaults; binding a
// trigger to an empty list disables it.
type Map struct {
	user     map[Trigger][]state.Action
	defaults map[Trigger][]state.Action
}

// New returns a map holding only the default table.
func New() *Map {
	return &Map{
		user:     make(map[Trigger][]state.Action),
		defaults: Defaults(),
	}
}

// Bind sets the actions for t, replacing any earlier user binding.
func (m *Map) Bind(t Trigger, actions []state.Action) {
	m.user[t] = append([]state.Action(nil), actions...)
}

// Resolve returns the actions for t, most specific binding first: the
// exact trigger, the same mouse button without modifiers, the defaults,
// and finally self-insertion for printable runes.
func (m *Map) Resolve(t Trigger) ([]state.Action, bool) {
	for _, table := range []map[Trigger][]state.Action{m.user, m.defaults} {
		if actions, ok := table[t]; ok {
			return actions, true
		}
		if t.Kind == KindMouse && t.Mods != 0 {
			if actions, ok := table[MouseTrigger(t.Button, 0)]; ok {
				return actions, true
			}
		}
	}
	if t.Printable() {
		return []state.Action{state.InputAction{Char: t.Rune}}, true
	}
	return nil, false
}

// Bound reports whether t has a binding of its own, ignoring rune
// self-insertion.
func (m *Map) Bound(t Trigger) bool {
	if _, ok := m.user[t]; ok {
		return true
	}
	_, ok := m.defaults[t]
	return ok
}

// Entry is one effective binding.
type Entry struct {
	Trigger Trigger
	Actions []state.Action
}

// Entries lists the effective bindings sorted by trigger text.
func (m *Map) Entries() []Entry {
	merged := make(map[Trigger][]state.Action, len(m.defaults)+len(m.user))
	for t, a := range m.defaults {
		merged[t] = a
	}
	for t, a := range m.user {
		merged[t] = a
	}
	entries := make([]Entry, 0, len(merged))
	for t, a := range merged {
		if len(a) == 0 {
			continue
		}
		entries = append(entries, Entry{Trigger: t, Actions: a})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Trigger.Kind != entries[j].Trigger.Kind {
			return entries[i].Trigger.Kind < entries[j].Trigger.Kind
		}
		return entries[i].Trigger.String() < entries[j].Trigger.String()
	})
	return entries
}

// HelpLines renders the effective table for the help overlay.
func (m *Map) HelpLines() []string {
	entries := m.Entries()
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Trigger.String()))
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Trigger.String()
		lines = append(lines, name+strings.Repeat(" ", width-len(name)+2)+FormatActions(e.Actions))
	}
	return lines
}

// Events returns the synthetic events that carry actions.
func (m *Map) Events() []state.Event {
	var events []state.Event
	for _, ev := range state.Events {
		if actions, ok := m.Resolve(EventTrigger(ev)); ok && len(actions) > 0 {
			events = append(events, ev)
		}
	}
	return events
}

// Defaults is the built-in key table.
func Defaults() map[Trigger][]state.Action {
	key := func(k tcell.Key, mods tcell.ModMask) Trigger { return KeyTrigger(k, 0, mods) }
	ctrl := func(r rune) Trigger { return RuneTrigger(r, tcell.ModCtrl) }
	one := func(a state.Action) []state.Action { return []state.Action{a} }

	return map[Trigger][]state.Action{
		ctrl('c'):                              one(state.QuitAction{Code: 1}),
		key(tcell.KeyEscape, 0):                one(state.QuitAction{Code: 1}),
		key(tcell.KeyEnter, 0):                 one(state.AcceptAction{}),
		key(tcell.KeyUp, 0):                    one(state.UpAction{Count: 1}),
		key(tcell.KeyDown, 0):                  one(state.DownAction{Count: 1}),
		ctrl('p'):                              one(state.UpAction{Count: 1}),
		ctrl('n'):                              one(state.DownAction{Count: 1}),
		key(tcell.KeyPgUp, 0):                  one(state.UpAction{Count: 10}),
		key(tcell.KeyPgDn, 0):                  one(state.DownAction{Count: 10}),
		key(tcell.KeyHome, 0):                  one(state.PosAction{Index: 0}),
		key(tcell.KeyEnd, 0):                   one(state.PosAction{Index: -1}),
		key(tcell.KeyTab, 0):                   {state.ToggleAction{}, state.DownAction{Count: 1}},
		key(tcell.KeyBacktab, 0):               {state.ToggleAction{}, state.UpAction{Count: 1}},
		key(tcell.KeyRight, 0):                 one(state.ForwardCharAction{}),
		key(tcell.KeyLeft, 0):                  one(state.BackwardCharAction{}),
		key(tcell.KeyRight, tcell.ModCtrl):     one(state.ForwardWordAction{}),
		key(tcell.KeyLeft, tcell.ModCtrl):      one(state.BackwardWordAction{}),
		key(tcell.KeyRight, tcell.ModAlt):      one(state.ForwardWordAction{}),
		key(tcell.KeyLeft, tcell.ModAlt):       one(state.BackwardWordAction{}),
		ctrl('a'):                              one(state.InputPosAction{Index: 0}),
		ctrl('e'):                              one(state.InputPosAction{Index: -1}),
		key(tcell.KeyBackspace2, 0):            one(state.DeleteCharAction{}),
		key(tcell.KeyBackspace2, tcell.ModAlt): one(state.DeleteWordAction{}),
		ctrl('h'):                              one(state.DeleteWordAction{}),
		ctrl('w'):                              one(state.DeleteWordAction{}),
		ctrl('k'):                              one(state.DeleteLineEndAction{}),
		ctrl('u'):                              one(state.CancelAction{}),
		RuneTrigger('h', tcell.ModAlt):         one(state.HelpAction{}),
		ctrl(']'):                              one(state.ToggleWrapPreviewAction{}),
		ctrl('l'):                              one(state.RedrawAction{}),
		key(tcell.KeyPgUp, tcell.ModShift):     one(state.PreviewHalfPageUpAction{}),
		key(tcell.KeyPgDn, tcell.ModShift):     one(state.PreviewHalfPageDownAction{}),
		key(tcell.KeyUp, tcell.ModShift):       one(state.PreviewUpAction{Count: 1}),
		key(tcell.KeyDown, tcell.ModShift):     one(state.PreviewDownAction{Count: 1}),
		key(tcell.KeyUp, tcell.ModAlt):         one(state.HistoryUpAction{}),
		key(tcell.KeyDown, tcell.ModAlt):       one(state.HistoryDownAction{}),
		key(tcell.KeyF1, 0):                    one(state.HelpAction{}),
	}
}
