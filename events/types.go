package events

import (
	"fmt"

	"github.com/agiangrant/framecore/dom"
)

// ============================================================================
// Event Types
// ============================================================================

// EventType identifies the kind of event. It doubles as the filter callbacks
// register for.
type EventType uint8

const (
	// Window events
	EventWindow EventType = iota + 1

	// Hover events
	EventMouseLeave
	EventMouseEnter
	EventMouseOver
	EventMouseDown
	EventMouseUp
	EventClick
	EventDoubleClick
	EventScroll

	// Focus events
	EventFocusOut
	EventFocusIn
	EventKeyUp
	EventKeyDown
	EventTextInput

	// Drag events
	EventDragStart
	EventDragLeave
	EventDragEnter
	EventDragOver
	EventDrag
	EventDragEnd
	EventDrop
)

var eventNames = map[EventType]string{
	EventWindow:      "window",
	EventMouseLeave:  "mouseleave",
	EventMouseEnter:  "mouseenter",
	EventMouseOver:   "mouseover",
	EventMouseDown:   "mousedown",
	EventMouseUp:     "mouseup",
	EventClick:       "click",
	EventDoubleClick: "dblclick",
	EventScroll:      "scroll",
	EventFocusOut:    "focusout",
	EventFocusIn:     "focusin",
	EventKeyUp:       "keyup",
	EventKeyDown:     "keydown",
	EventTextInput:   "textinput",
	EventDragStart:   "dragstart",
	EventDragLeave:   "dragleave",
	EventDragEnter:   "dragenter",
	EventDragOver:    "dragover",
	EventDrag:        "drag",
	EventDragEnd:     "dragend",
	EventDrop:        "drop",
}

func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// EventTypeByName is the inverse of String. Returns 0 for unknown names.
func EventTypeByName(name string) EventType {
	for t, n := range eventNames {
		if n == name {
			return t
		}
	}
	return 0
}

// Exact reports whether the event targets exactly its node instead of
// bubbling to the nearest ancestor with a callback.
func (t EventType) Exact() bool {
	switch t {
	case EventMouseEnter, EventMouseLeave, EventDragEnter, EventDragLeave:
		return true
	}
	return false
}

// MouseButton identifies which mouse button was pressed.
type MouseButton uint8

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonRight:
		return "right"
	case MouseButtonMiddle:
		return "middle"
	default:
		return "none"
	}
}

// Modifier keys
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper // Cmd on Mac, Win on Windows
)

func (m Modifiers) Shift() bool { return m&ModShift != 0 }
func (m Modifiers) Ctrl() bool  { return m&ModCtrl != 0 }
func (m Modifiers) Alt() bool   { return m&ModAlt != 0 }
func (m Modifiers) Super() bool { return m&ModSuper != 0 }

// ChangedFields is the bitset carried by a window event.
type ChangedFields uint16

const (
	ChangedSize ChangedFields = 1 << iota
	ChangedPosition
	ChangedDPI
	ChangedFocused
	ChangedMinimized
	ChangedMaximized
	ChangedFullscreen
	ChangedVisible
	ChangedDecorated
	ChangedTheme
	ChangedCloseRequested
)

// Has reports whether all bits of f are set.
func (c ChangedFields) Has(f ChangedFields) bool { return c&f == f }

// ============================================================================
// Event
// ============================================================================

// Event is one synthesized semantic event.
type Event struct {
	Type EventType

	// Target is the node the event concerns; nil for window events and for
	// pointer events outside every node.
	Target *dom.DomNodeID

	Position  dom.Position
	Button    MouseButton
	Modifiers Modifiers

	// Delta is the wheel delta for Scroll, the pointer movement for Drag.
	Delta dom.Position

	Key  string
	Text string

	// Clicks is the click count of Click and DoubleClick events.
	Clicks int

	// Changed is set on window events.
	Changed ChangedFields
}

func (e Event) String() string {
	if e.Target == nil {
		return e.Type.String()
	}
	return e.Type.String() + "(" + e.Target.String() + ")"
}
