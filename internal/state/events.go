package state

// Event is a named synthetic trigger raised by the state machine.
type Event string

const (
	EventStart         Event = "start"
	EventQueryChange   Event = "query-change"
	EventCursorChange  Event = "cursor-change"
	EventPreviewChange Event = "preview-change"
	EventResult        Event = "result"
	EventLoad          Event = "load"
	EventResize        Event = "resize"
	EventTick          Event = "tick"
)

// Events lists every bindable event name.
var Events = []Event{
	EventStart, EventQueryChange, EventCursorChange, EventPreviewChange,
	EventResult, EventLoad, EventResize, EventTick,
}

func (s *PickerState) raise(ev Event) {
	if s.suppressEvents {
		return
	}
	for _, pending := range s.events {
		if pending == ev {
			return
		}
	}
	s.events = append(s.events, ev)
}

// TakeEvents returns and clears the events raised since the last call.
func (s *PickerState) TakeEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// SuppressEvents stops actions from raising events while an event-bound
// action sequence runs.
func (s *PickerState) SuppressEvents(suppress bool) {
	s.suppressEvents = suppress
}
