package events

import (
	"slices"
	"sort"

	"github.com/agiangrant/framecore/dom"
)

// ============================================================================
// External (raw) Events
// ============================================================================

// Category orders raw events within one frame.
type Category uint8

const (
	CategoryWindow Category = iota
	CategoryHover
	CategoryFocus
	CategoryDrag
)

// ExternalKind identifies a raw, OS-normalized input event.
type ExternalKind uint8

const (
	// Window
	ExtResize ExternalKind = iota + 1
	ExtMove
	ExtDPI
	ExtWindowFocus
	ExtMinimize
	ExtMaximize
	ExtFullscreen
	ExtVisible
	ExtTheme
	ExtCloseRequested

	// Hover
	ExtMouseMove
	ExtMouseLeave
	ExtMouseButton
	ExtWheel

	// Focus
	ExtKey
	ExtText
	ExtModifiers
	ExtFocusNode

	// Drag
	ExtDragCancel
)

var externalNames = map[ExternalKind]string{
	ExtResize:         "resize",
	ExtMove:           "move",
	ExtDPI:            "dpi",
	ExtWindowFocus:    "window-focus",
	ExtMinimize:       "minimize",
	ExtMaximize:       "maximize",
	ExtFullscreen:     "fullscreen",
	ExtVisible:        "visible",
	ExtTheme:          "theme",
	ExtCloseRequested: "close",
	ExtMouseMove:      "mouse-move",
	ExtMouseLeave:     "mouse-leave",
	ExtMouseButton:    "mouse-button",
	ExtWheel:          "wheel",
	ExtKey:            "key",
	ExtText:           "text",
	ExtModifiers:      "modifiers",
	ExtFocusNode:      "focus",
	ExtDragCancel:     "drag-cancel",
}

func (k ExternalKind) String() string {
	if n, ok := externalNames[k]; ok {
		return n
	}
	return "unknown"
}

// ExternalKindByName is the inverse of String. Returns 0 for unknown names.
func ExternalKindByName(name string) ExternalKind {
	for k, n := range externalNames {
		if n == name {
			return k
		}
	}
	return 0
}

// Category returns the processing group of the event.
func (k ExternalKind) Category() Category {
	switch {
	case k >= ExtResize && k <= ExtCloseRequested:
		return CategoryWindow
	case k >= ExtMouseMove && k <= ExtWheel:
		return CategoryHover
	case k >= ExtKey && k <= ExtFocusNode:
		return CategoryFocus
	default:
		return CategoryDrag
	}
}

// ExternalEvent is one raw event submitted by the window backend. Only the
// fields relevant to Kind are read.
type ExternalEvent struct {
	Kind ExternalKind

	Size     dom.Size
	Position dom.Position
	DPI      float32
	Theme    Theme

	// On is the new state of a flag, a button or a key.
	On bool

	Button     MouseButton
	Delta      dom.Position
	WheelLines bool

	Key       string
	Text      string
	Modifiers Modifiers

	// Node is the focus target of ExtFocusNode; nil clears focus.
	Node *dom.DomNodeID
}

// Fold applies queued raw events to a snapshot. Events are applied grouped by
// category (window, hover, focus, drag) and in submission order within a
// group. The base snapshot is not modified.
func Fold(base WindowState, evs []ExternalEvent) WindowState {
	s := base.Clone()
	if len(evs) == 0 {
		return s
	}

	ordered := slices.Clone(evs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind.Category() < ordered[j].Kind.Category()
	})

	for _, e := range ordered {
		apply(&s, e)
	}
	return s
}

// Split cuts a frame's queue into segments in which no mouse button and no
// key changes state twice. Folding and diffing the segments in order observes
// every transition, so a press and release queued before the same frame still
// produce MouseDown, MouseUp and Click. It always returns at least one
// segment.
func Split(base WindowState, evs []ExternalEvent) [][]ExternalEvent {
	var segs [][]ExternalEvent
	start := 0
	buttons := make(map[MouseButton]bool)
	keys := make(map[string]bool)
	changedButtons := make(map[MouseButton]bool)
	changedKeys := make(map[string]bool)

	cut := func(i int) {
		segs = append(segs, evs[start:i])
		start = i
		clear(changedButtons)
		clear(changedKeys)
	}

	for i, e := range evs {
		switch e.Kind {
		case ExtMouseButton:
			held, ok := buttons[e.Button]
			if !ok {
				held = base.Mouse.Down(e.Button)
			}
			if held == e.On {
				continue
			}
			if changedButtons[e.Button] {
				cut(i)
			}
			changedButtons[e.Button] = true
			buttons[e.Button] = e.On
		case ExtKey:
			held, ok := keys[e.Key]
			if !ok {
				_, held = slices.BinarySearch(base.Keyboard.Pressed, e.Key)
			}
			if held == e.On {
				continue
			}
			if changedKeys[e.Key] {
				cut(i)
			}
			changedKeys[e.Key] = true
			keys[e.Key] = e.On
		}
	}
	return append(segs, evs[start:])
}

func apply(s *WindowState, e ExternalEvent) {
	switch e.Kind {
	case ExtResize:
		s.Size = e.Size
	case ExtMove:
		s.Position = e.Position
	case ExtDPI:
		s.DPI = e.DPI
	case ExtWindowFocus:
		s.Flags.Focused = e.On
	case ExtMinimize:
		s.Flags.Minimized = e.On
	case ExtMaximize:
		s.Flags.Maximized = e.On
	case ExtFullscreen:
		s.Flags.Fullscreen = e.On
	case ExtVisible:
		s.Flags.Visible = e.On
	case ExtTheme:
		s.Theme = e.Theme
	case ExtCloseRequested:
		s.Flags.CloseRequested = e.On

	case ExtMouseMove:
		s.Mouse.Position = e.Position
		s.Mouse.Inside = true
	case ExtMouseLeave:
		s.Mouse.Inside = false
	case ExtMouseButton:
		switch e.Button {
		case MouseButtonLeft:
			s.Mouse.Left = e.On
		case MouseButtonRight:
			s.Mouse.Right = e.On
		case MouseButtonMiddle:
			s.Mouse.Middle = e.On
		}
	case ExtWheel:
		s.Mouse.Wheel = s.Mouse.Wheel.Add(e.Delta)
		s.Mouse.WheelLines = e.WheelLines

	case ExtKey:
		s.Keyboard.Pressed = setKey(s.Keyboard.Pressed, e.Key, e.On)
	case ExtText:
		s.Keyboard.Text += e.Text
	case ExtModifiers:
		s.Keyboard.Modifiers = e.Modifiers
	case ExtFocusNode:
		s.Focus = clonePtr(e.Node)

	case ExtDragCancel:
		s.DragCancel = true
	}
}

// setKey adds or removes a key from a sorted set.
func setKey(keys []string, key string, down bool) []string {
	i, found := slices.BinarySearch(keys, key)
	switch {
	case down && !found:
		return slices.Insert(keys, i, key)
	case !down && found:
		return slices.Delete(keys, i, i+1)
	}
	return keys
}
