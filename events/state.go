// Package events turns pairs of window snapshots into ordered semantic events.
//
// A frame works on two snapshots: the previous one and the current one. Raw
// input is folded into the current snapshot, Prepare annotates it with the
// hover chain, press and drag bookkeeping, and Diff compares the pair. Diff is
// a pure function: the same pair always yields the same event sequence.
package events

import (
	"slices"
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/hittest"
)

// Config configures gesture recognition.
type Config struct {
	// DragThreshold is the pointer travel in logical pixels before a held
	// left button becomes a drag (default: 4).
	DragThreshold float32

	// DoubleClickWindow is the maximum time between two clicks (default: 500ms).
	DoubleClickWindow time.Duration

	// DoubleClickDistance is the maximum pointer travel between two clicks (default: 4).
	DoubleClickDistance float32
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DragThreshold:       4,
		DoubleClickWindow:   500 * time.Millisecond,
		DoubleClickDistance: 4,
	}
}

// Theme is the window's color scheme.
type Theme uint8

const (
	ThemeLight Theme = iota
	ThemeDark
)

// WindowFlags are the boolean window properties.
type WindowFlags struct {
	Focused        bool
	Minimized      bool
	Maximized      bool
	Fullscreen     bool
	Visible        bool
	Decorated      bool
	CloseRequested bool
}

// MouseState is the pointer part of a snapshot.
type MouseState struct {
	Position dom.Position

	// Inside is false once the pointer left the window.
	Inside bool

	Left, Right, Middle bool

	// Wheel is the wheel delta accumulated since the previous snapshot.
	Wheel dom.Position

	// WheelLines is true when Wheel counts lines instead of pixels.
	WheelLines bool
}

// Down reports whether a button is held.
func (m MouseState) Down(b MouseButton) bool {
	switch b {
	case MouseButtonLeft:
		return m.Left
	case MouseButtonRight:
		return m.Right
	case MouseButtonMiddle:
		return m.Middle
	}
	return false
}

// KeyboardState is the keyboard part of a snapshot.
type KeyboardState struct {
	// Pressed lists held keys, sorted.
	Pressed []string

	// Text is the text typed since the previous snapshot.
	Text string

	Modifiers Modifiers
}

// HoverState is the hit-test result a snapshot was annotated with.
type HoverState struct {
	// Chain lists hovered nodes innermost first.
	Chain     []dom.DomNodeID
	Scrollbar *hittest.ScrollbarHitID
}

// Innermost returns the deepest hovered node, or nil.
func (h HoverState) Innermost() *dom.DomNodeID {
	if len(h.Chain) == 0 {
		return nil
	}
	return h.Chain[0].Ptr()
}

// PressState tracks a left button press across frames.
type PressState struct {
	// Active while the left button is held.
	Active bool

	// Node was under the pointer when the button went down.
	Node   *dom.DomNodeID
	Origin dom.Position
	At     time.Time

	// Clean stays true while the pointer has not left Node.
	Clean bool

	// Released is set only in the snapshot in which the button went up.
	Released bool

	// Scrollbar is set when the press began on a scrollbar.
	Scrollbar *hittest.ScrollbarHitID

	// Dragged is set once this press started a drag.
	Dragged bool

	// Clicks is the click count of this press (2 for the second click of a
	// double click).
	Clicks int

	// Last completed click, used to count the next press.
	LastNode   *dom.DomNodeID
	LastAt     time.Time
	LastPos    dom.Position
	LastClicks int
}

// DragPhase is the state of the drag state machine.
type DragPhase uint8

const (
	NotDragging DragPhase = iota
	DragStarted
	Dragging
)

func (p DragPhase) String() string {
	switch p {
	case DragStarted:
		return "started"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// DragState tracks a drag gesture.
type DragState struct {
	Phase  DragPhase
	Source *dom.DomNodeID
	Origin dom.Position

	// Target is the node currently under the pointer while dragging.
	Target *dom.DomNodeID

	// Ended is set only in the snapshot in which the drag finished.
	Ended     bool
	Cancelled bool
}

// Active reports whether a drag is in progress.
func (d DragState) Active() bool {
	return d.Phase == DragStarted || d.Phase == Dragging
}

// WindowState is an immutable capture of window and input state at one
// instant. Treat values as read-only; Clone before modifying.
type WindowState struct {
	Size     dom.Size
	Position dom.Position
	DPI      float32
	Flags    WindowFlags
	Theme    Theme

	Mouse    MouseState
	Keyboard KeyboardState

	// Focus is the focused node, nil when nothing has focus.
	Focus *dom.DomNodeID

	// DragCancel requests cancelling the current drag.
	DragCancel bool

	// Annotations computed by Prepare.
	Hover HoverState
	Press PressState
	Drag  DragState
}

// Clone returns a deep copy.
func (s WindowState) Clone() WindowState {
	c := s
	c.Keyboard.Pressed = slices.Clone(s.Keyboard.Pressed)
	c.Hover.Chain = slices.Clone(s.Hover.Chain)
	c.Focus = clonePtr(s.Focus)
	c.Hover.Scrollbar = clonePtr(s.Hover.Scrollbar)
	c.Press.Node = clonePtr(s.Press.Node)
	c.Press.LastNode = clonePtr(s.Press.LastNode)
	c.Press.Scrollbar = clonePtr(s.Press.Scrollbar)
	c.Drag.Source = clonePtr(s.Drag.Source)
	c.Drag.Target = clonePtr(s.Drag.Target)
	return c
}

// ClearTransient drops the per-snapshot deltas (wheel, typed text, drag
// cancel) so they are not replayed by the next frame.
func (s *WindowState) ClearTransient() {
	s.Mouse.Wheel = dom.Position{}
	s.Keyboard.Text = ""
	s.DragCancel = false
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
