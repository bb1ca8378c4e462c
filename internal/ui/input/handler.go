package input

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/binds"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

const (
	doubleClickThreshold = 300 * time.Millisecond
	wheelStep            = 3
)

const clickButtons = tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle

// InputHandler converts tcell events to action sequences through the
// binding table.
type InputHandler struct {
	binds *binds.Map
	state *statepkg.PickerState // read-only view for mouse hit testing
	now   func() time.Time

	lastButtons tcell.ButtonMask
	lastClick   int
	lastClickAt time.Time
}

// NewInputHandler creates a new input handler
func NewInputHandler(m *binds.Map) *InputHandler {
	if m == nil {
		m = binds.New()
	}
	return &InputHandler{binds: m, now: time.Now, lastClick: -1}
}

// SetState sets the state reference for mouse hit testing
func (ih *InputHandler) SetState(state *statepkg.PickerState) {
	ih.state = state
}

// Translate returns the actions ev triggers, in order. A nil result means
// the event is ignored.
func (ih *InputHandler) Translate(ev tcell.Event) []statepkg.Action {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		trigger, _ := binds.FromEvent(ev)
		actions, _ := ih.binds.Resolve(trigger)
		return actions
	case *tcell.EventResize:
		w, h := ev.Size()
		return []statepkg.Action{statepkg.ResizeAction{Width: w, Height: h}}
	case *tcell.EventMouse:
		return ih.translateMouse(ev)
	default:
		return nil
	}
}

// Event returns the actions bound to a synthetic event.
func (ih *InputHandler) Event(ev statepkg.Event) []statepkg.Action {
	actions, _ := ih.binds.Resolve(binds.EventTrigger(ev))
	return actions
}

func (ih *InputHandler) translateMouse(ev *tcell.EventMouse) []statepkg.Action {
	buttons := ev.Buttons()
	pressed := buttons &^ ih.lastButtons
	ih.lastButtons = buttons & clickButtons

	trigger, ok := binds.FromEvent(ev)
	if !ok {
		return nil
	}
	// Held buttons repeat while dragging; only the press counts.
	switch trigger.Button {
	case binds.ButtonLeft, binds.ButtonRight, binds.ButtonMiddle:
		if pressed&clickButtons == 0 {
			return nil
		}
	}
	if actions, ok := ih.binds.Resolve(trigger); ok {
		return actions
	}
	x, y := ev.Position()
	return ih.defaultMouse(trigger.Button, x, y)
}

// defaultMouse is the built-in behaviour for unbound buttons: the wheel
// scrolls whatever is under the pointer and clicks pick result rows.
func (ih *InputHandler) defaultMouse(button binds.Button, x, y int) []statepkg.Action {
	s := ih.state
	if s == nil {
		return nil
	}
	g := s.Geometry()
	if g.PreviewShown() && g.Preview.Contains(x, y) {
		switch button {
		case binds.ScrollUp:
			return []statepkg.Action{statepkg.PreviewUpAction{Count: wheelStep}}
		case binds.ScrollDown:
			return []statepkg.Action{statepkg.PreviewDownAction{Count: wheelStep}}
		}
		return nil
	}
	if !g.Main.Contains(x, y) {
		return nil
	}

	switch button {
	case binds.ScrollUp:
		return []statepkg.Action{statepkg.UpAction{Count: 1}}
	case binds.ScrollDown:
		return []statepkg.Action{statepkg.DownAction{Count: 1}}
	case binds.ButtonLeft, binds.ButtonRight:
	default:
		return nil
	}

	rows := s.ResultsRect()
	if !rows.Contains(x, y) {
		return nil
	}
	idx := s.ResultScroll + y - rows.Y
	if idx < 0 || idx >= len(s.Snapshot.Matches) {
		return nil
	}
	actions := []statepkg.Action{statepkg.PosAction{Index: idx}}
	if button == binds.ButtonRight {
		return append(actions, statepkg.ToggleAction{})
	}

	now := ih.now()
	doubleClick := ih.lastClick == idx && now.Sub(ih.lastClickAt) <= doubleClickThreshold
	ih.lastClick = idx
	ih.lastClickAt = now
	if doubleClick {
		ih.lastClick = -1
		actions = append(actions, statepkg.AcceptAction{})
	}
	return actions
}
