package binds

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/state"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty binding specification")
	ErrInvalidSpec = errors.New("invalid binding specification")
)

// Kind tells which field of a Trigger is meaningful.
type Kind int

const (
	KindKey Kind = iota
	KindMouse
	KindEvent
)

// Button is a mouse button or wheel direction.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ScrollUp
	ScrollDown
	ScrollLeft
	ScrollRight
)

var buttonNames = map[Button]string{
	ButtonLeft:   "left",
	ButtonMiddle: "middle",
	ButtonRight:  "right",
	ScrollUp:     "scrollup",
	ScrollDown:   "scrolldown",
	ScrollLeft:   "scrollleft",
	ScrollRight:  "scrollright",
}

// Trigger is a normalized key chord, mouse button or synthetic event. It
// is comparable and used as a map key.
//
// Keys are stored the way NormalizeKey produces them: control letters
// become KeyRune with ModCtrl and shift is folded into runes. The ^H code
// is ctrl-h; the backspace key is DEL (KeyBackspace2).
type Trigger struct {
	Kind   Kind
	Key    tcell.Key
	Rune   rune
	Mods   tcell.ModMask
	Button Button
	Event  state.Event
}

// KeyTrigger builds a normalized key trigger.
func KeyTrigger(key tcell.Key, r rune, mods tcell.ModMask) Trigger {
	return NormalizeKey(key, r, mods)
}

// RuneTrigger is a shorthand for a plain or modified character.
func RuneTrigger(r rune, mods tcell.ModMask) Trigger {
	return NormalizeKey(tcell.KeyRune, r, mods)
}

// MouseTrigger builds a mouse trigger.
func MouseTrigger(b Button, mods tcell.ModMask) Trigger {
	return Trigger{Kind: KindMouse, Button: b, Mods: mods & (tcell.ModShift | tcell.ModCtrl | tcell.ModAlt | tcell.ModMeta)}
}

// EventTrigger builds a synthetic event trigger.
func EventTrigger(ev state.Event) Trigger {
	return Trigger{Kind: KindEvent, Event: ev}
}

// Printable reports whether the trigger is an unmodified printable rune.
func (t Trigger) Printable() bool {
	return t.Kind == KindKey && t.Key == tcell.KeyRune && t.Mods == 0 && unicode.IsPrint(t.Rune)
}

// NormalizeKey folds the different encodings terminals and tcell use for
// the same chord into one Trigger.
func NormalizeKey(key tcell.Key, r rune, mods tcell.ModMask) Trigger {
	mods &= tcell.ModShift | tcell.ModCtrl | tcell.ModAlt | tcell.ModMeta
	switch {
	case key == tcell.KeyBackspace2:
		mods &^= tcell.ModCtrl
	case key == tcell.KeyTab || key == tcell.KeyEnter || key == tcell.KeyEscape:
		mods &^= tcell.ModCtrl
	case key == tcell.KeyBacktab:
		mods &^= tcell.ModShift
	case key == tcell.KeyCtrlSpace:
		key, r = tcell.KeyRune, ' '
		mods |= tcell.ModCtrl
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		r = rune('a' + (key - tcell.KeyCtrlA))
		key = tcell.KeyRune
		mods |= tcell.ModCtrl
	case key == tcell.KeyCtrlRightSq:
		key, r = tcell.KeyRune, ']'
		mods |= tcell.ModCtrl
	case key == tcell.KeyCtrlBackslash:
		key, r = tcell.KeyRune, '\\'
		mods |= tcell.ModCtrl
	}
	if key != tcell.KeyRune {
		return Trigger{Kind: KindKey, Key: key, Mods: mods}
	}
	if mods&tcell.ModShift != 0 {
		r = unicode.ToUpper(r)
		mods &^= tcell.ModShift
	}
	if mods&tcell.ModCtrl != 0 {
		r = unicode.ToLower(r)
	}
	return Trigger{Kind: KindKey, Key: tcell.KeyRune, Rune: r, Mods: mods}
}

// FromEvent maps a tcell key or mouse event to a trigger. Mouse events
// without a pressed button or wheel report false.
func FromEvent(ev tcell.Event) (Trigger, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return NormalizeKey(ev.Key(), ev.Rune(), ev.Modifiers()), true
	case *tcell.EventMouse:
		b := ButtonFromMask(ev.Buttons())
		if b == ButtonNone {
			return Trigger{}, false
		}
		return MouseTrigger(b, ev.Modifiers()), true
	default:
		return Trigger{}, false
	}
}

// ButtonFromMask picks the most significant button in mask.
func ButtonFromMask(mask tcell.ButtonMask) Button {
	switch {
	case mask&tcell.WheelUp != 0:
		return ScrollUp
	case mask&tcell.WheelDown != 0:
		return ScrollDown
	case mask&tcell.WheelLeft != 0:
		return ScrollLeft
	case mask&tcell.WheelRight != 0:
		return ScrollRight
	case mask&tcell.ButtonPrimary != 0:
		return ButtonLeft
	case mask&tcell.ButtonSecondary != 0:
		return ButtonRight
	case mask&tcell.ButtonMiddle != 0:
		return ButtonMiddle
	default:
		return ButtonNone
	}
}

// ParseTrigger parses a trigger spec.
//
// Supported formats:
//   - Single character: "a", "?", "A"
//   - Named keys: "enter", "esc", "tab", "btab", "f5", "space"
//   - With modifiers: "ctrl-c", "alt-enter", "ctrl-alt-x", "C-x", "Ctrl+X"
//   - Vim-style: "<C-x>", "<A-CR>"
//   - Mouse: "scrollup", "ctrl+left", "none+left"
//   - Events: "start", "query-change", "load"
//
// Key names win over mouse buttons, so a bare left click is "none+left".
func ParseTrigger(spec string) (Trigger, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Trigger{}, ErrEmptySpec
	}
	if t, err := parseKey(spec); err == nil {
		return t, nil
	}
	if t, ok, err := parseMouse(spec); ok {
		return t, err
	}
	for _, ev := range state.Events {
		if strings.EqualFold(spec, string(ev)) {
			return EventTrigger(ev), nil
		}
	}
	return Trigger{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
}

func parseKey(spec string) (Trigger, error) {
	if runes := []rune(spec); len(runes) == 1 {
		if !unicode.IsPrint(runes[0]) {
			return Trigger{}, fmt.Errorf("%w: unprintable key %q", ErrInvalidSpec, spec)
		}
		return RuneTrigger(runes[0], 0), nil
	}
	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		spec = spec[1 : len(spec)-1]
	}

	var mods tcell.ModMask
	rest := spec
	for {
		mod, after, ok := cutModifier(rest)
		if !ok {
			break
		}
		mods |= mod
		rest = after
	}
	if rest == "" {
		return Trigger{}, fmt.Errorf("%w: missing key in %q", ErrInvalidSpec, spec)
	}
	if runes := []rune(rest); len(runes) == 1 {
		return RuneTrigger(runes[0], mods), nil
	}
	key, ok := keyNames[strings.ToLower(rest)]
	if !ok {
		return Trigger{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, rest)
	}
	if key == tcell.KeyRune {
		return RuneTrigger(' ', mods), nil
	}
	if key == tcell.KeyTab && mods&tcell.ModShift != 0 {
		key = tcell.KeyBacktab
	}
	return KeyTrigger(key, 0, mods), nil
}

// cutModifier strips one "mod-" or "mod+" prefix.
func cutModifier(spec string) (tcell.ModMask, string, bool) {
	idx := strings.IndexAny(spec, "-+")
	if idx <= 0 || idx == len(spec)-1 {
		return 0, spec, false
	}
	mod, ok := modifierNames[strings.ToLower(spec[:idx])]
	if !ok {
		return 0, spec, false
	}
	return mod, spec[idx+1:], true
}

func parseMouse(spec string) (Trigger, bool, error) {
	parts := strings.Split(spec, "+")
	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	var button Button
	for b, name := range buttonNames {
		if name == last {
			button = b
		}
	}
	if button == ButtonNone {
		return Trigger{}, false, nil
	}
	var mods tcell.ModMask
	for _, p := range parts[:len(parts)-1] {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "none" {
			continue
		}
		mod, ok := modifierNames[p]
		if !ok {
			return Trigger{}, true, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods |= mod
	}
	return MouseTrigger(button, mods), true, nil
}

var modifierNames = map[string]tcell.ModMask{
	"ctrl":    tcell.ModCtrl,
	"control": tcell.ModCtrl,
	"c":       tcell.ModCtrl,
	"alt":     tcell.ModAlt,
	"a":       tcell.ModAlt,
	"meta":    tcell.ModMeta,
	"m":       tcell.ModMeta,
	"shift":   tcell.ModShift,
	"s":       tcell.ModShift,
}

// keyNames maps named keys; KeyRune stands for space.
var keyNames = map[string]tcell.Key{
	"enter": tcell.KeyEnter, "return": tcell.KeyEnter, "cr": tcell.KeyEnter,
	"esc": tcell.KeyEscape, "escape": tcell.KeyEscape,
	"tab": tcell.KeyTab, "btab": tcell.KeyBacktab, "backtab": tcell.KeyBacktab,
	"backspace": tcell.KeyBackspace2, "bs": tcell.KeyBackspace2, "bspace": tcell.KeyBackspace2,
	"delete": tcell.KeyDelete, "del": tcell.KeyDelete,
	"insert": tcell.KeyInsert, "ins": tcell.KeyInsert,
	"up": tcell.KeyUp, "down": tcell.KeyDown, "left": tcell.KeyLeft, "right": tcell.KeyRight,
	"home": tcell.KeyHome, "end": tcell.KeyEnd,
	"pgup": tcell.KeyPgUp, "pageup": tcell.KeyPgUp,
	"pgdn": tcell.KeyPgDn, "pagedown": tcell.KeyPgDn,
	"space": tcell.KeyRune,
	"f1": tcell.KeyF1, "f2": tcell.KeyF2, "f3": tcell.KeyF3, "f4": tcell.KeyF4,
	"f5": tcell.KeyF5, "f6": tcell.KeyF6, "f7": tcell.KeyF7, "f8": tcell.KeyF8,
	"f9": tcell.KeyF9, "f10": tcell.KeyF10, "f11": tcell.KeyF11, "f12": tcell.KeyF12,
}

var keyLabels = map[tcell.Key]string{
	tcell.KeyEnter: "enter", tcell.KeyEscape: "esc", tcell.KeyTab: "tab", tcell.KeyBacktab: "btab",
	tcell.KeyBackspace2: "backspace", tcell.KeyDelete: "delete", tcell.KeyInsert: "insert",
	tcell.KeyUp: "up", tcell.KeyDown: "down", tcell.KeyLeft: "left", tcell.KeyRight: "right",
	tcell.KeyHome: "home", tcell.KeyEnd: "end", tcell.KeyPgUp: "pgup", tcell.KeyPgDn: "pgdn",
	tcell.KeyF1: "f1", tcell.KeyF2: "f2", tcell.KeyF3: "f3", tcell.KeyF4: "f4",
	tcell.KeyF5: "f5", tcell.KeyF6: "f6", tcell.KeyF7: "f7", tcell.KeyF8: "f8",
	tcell.KeyF9: "f9", tcell.KeyF10: "f10", tcell.KeyF11: "f11", tcell.KeyF12: "f12",
}

// String renders the trigger in the form ParseTrigger accepts.
func (t Trigger) String() string {
	switch t.Kind {
	case KindEvent:
		return string(t.Event)
	case KindMouse:
		prefix := modPrefix(t.Mods, "+")
		if prefix == "" && (t.Button == ButtonLeft || t.Button == ButtonRight) {
			prefix = "none+"
		}
		return prefix + buttonNames[t.Button]
	}
	name := keyLabels[t.Key]
	if t.Key == tcell.KeyRune {
		name = string(t.Rune)
		if t.Rune == ' ' {
			name = "space"
		}
	}
	if name == "" {
		name = fmt.Sprintf("key%d", t.Key)
	}
	return modPrefix(t.Mods, "-") + name
}

func modPrefix(mods tcell.ModMask, sep string) string {
	var b strings.Builder
	if mods&tcell.ModCtrl != 0 {
		b.WriteString("ctrl" + sep)
	}
	if mods&tcell.ModAlt != 0 {
		b.WriteString("alt" + sep)
	}
	if mods&tcell.ModMeta != 0 {
		b.WriteString("meta" + sep)
	}
	if mods&tcell.ModShift != 0 {
		b.WriteString("shift" + sep)
	}
	return b.String()
}
