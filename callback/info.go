package callback

import (
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/gpu"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/scroll"
)

// ============================================================================
// Buffered Context Facade
// ============================================================================
//
// Callbacks never touch registries directly. Reads go straight to the frame
// state; writes are buffered in the Info and committed by the engine right
// after the callback returns. A callback that traps has its buffer dropped.

type scrollKind uint8

const (
	scrollSet scrollKind = iota
	scrollBy
	scrollTo
	scrollIntoView
)

type scrollOp struct {
	kind     scrollKind
	id       dom.DomNodeID
	pos      dom.Position
	duration time.Duration
	easing   scroll.Easing
}

type timerOp struct {
	id    TimerID
	timer Timer
}

type threadOp struct {
	id        ThreadID
	fn        ThreadFunc
	data      any
	writeBack WriteBackFunc
}

type gpuOp struct {
	id dom.DomNodeID
	v  gpu.Value
}

type focusOp struct {
	node *dom.DomNodeID
}

type buffer struct {
	scrolls      []scrollOp
	timers       []timerOp
	stopTimers   []TimerID
	threads      []threadOp
	stopThreads  []ThreadID
	gpu          []gpuOp
	dirty        []dom.DomNodeID
	windowDirty  bool
	allWindows   bool
	focus        *focusOp
	preventDflt  bool
	invalidTimer []error
}

// Info is the context handed to every callback.
type Info struct {
	engine *Engine
	buf    buffer

	// Event is the event being dispatched; zero for timers and threads.
	Event events.Event

	// Node is the node the running callback is registered on; nil for window
	// callbacks and node-less timers.
	Node *dom.DomNodeID

	Now time.Time
}

// ---------------------------------------------------------------------------
// Reads

// Layout returns the read-only layout.
func (i *Info) Layout() *dom.Layout {
	return i.engine.layout()
}

// NodeData returns a node's layout data.
func (i *Info) NodeData(id dom.DomNodeID) (dom.Node, bool) {
	n, ok := i.Layout().Node(id)
	if !ok {
		return dom.Node{}, false
	}
	return *n, true
}

// Parent returns the parent of a node, crossing into the IFrame host for
// content roots.
func (i *Info) Parent(id dom.DomNodeID) (dom.DomNodeID, bool) {
	return i.Layout().Parent(id)
}

// Rect returns a node's rect in window coordinates.
func (i *Info) Rect(id dom.DomNodeID) (dom.Rect, bool) {
	return hittest.WindowRect(i.Layout(), i.engine.env.Scroll, id)
}

// ScrollOffset returns the current scroll offset of a scroll container.
func (i *Info) ScrollOffset(id dom.DomNodeID) (dom.Position, bool) {
	st, ok := i.engine.env.Scroll.State(id)
	if !ok {
		return dom.Position{}, false
	}
	return st.Offset, true
}

// GpuValue returns the cached GPU value of a node.
func (i *Info) GpuValue(id dom.DomNodeID) (gpu.Value, bool) {
	return i.engine.env.GPU.Get(id)
}

// WindowState returns the current snapshot.
func (i *Info) WindowState() events.WindowState {
	return i.engine.snapshot
}

// Hovered returns the hovered chain, innermost first.
func (i *Info) Hovered() []dom.DomNodeID {
	return append([]dom.DomNodeID(nil), i.engine.snapshot.Hover.Chain...)
}

// Focused returns the focused node.
func (i *Info) Focused() *dom.DomNodeID {
	if f := i.engine.snapshot.Focus; f != nil {
		return f.Ptr()
	}
	return nil
}

// TimerAlive reports whether a timer is still registered.
func (i *Info) TimerAlive(id TimerID) bool {
	_, ok := i.engine.timers.Get(id)
	return ok
}

// ThreadAlive reports whether a thread is still registered.
func (i *Info) ThreadAlive(id ThreadID) bool {
	return i.engine.threads.Alive(id)
}

// ---------------------------------------------------------------------------
// Buffered writes

// SetScrollOffset jumps a scroll container to an absolute offset. An offset
// outside an IFrame's materialized content lands at the end of the frame,
// after the IFrame producer ran against the old offset.
func (i *Info) SetScrollOffset(id dom.DomNodeID, pos dom.Position) {
	i.buf.scrolls = append(i.buf.scrolls, scrollOp{kind: scrollSet, id: id, pos: pos})
}

// ScrollBy scrolls relatively. A zero duration applies the delta immediately.
func (i *Info) ScrollBy(id dom.DomNodeID, delta dom.Position, d time.Duration, e scroll.Easing) {
	i.buf.scrolls = append(i.buf.scrolls, scrollOp{kind: scrollBy, id: id, pos: delta, duration: d, easing: e})
}

// ScrollTo animates to an absolute offset.
func (i *Info) ScrollTo(id dom.DomNodeID, pos dom.Position, d time.Duration, e scroll.Easing) {
	i.buf.scrolls = append(i.buf.scrolls, scrollOp{kind: scrollTo, id: id, pos: pos, duration: d, easing: e})
}

// ScrollIntoView scrolls the nearest scrolling ancestor so the node is visible.
func (i *Info) ScrollIntoView(id dom.DomNodeID) {
	i.buf.scrolls = append(i.buf.scrolls, scrollOp{kind: scrollIntoView, id: id})
}

// StartTimer schedules a timer. The id is valid immediately; the timer
// starts running when the callback returns. Invalid timers are rejected with
// a diagnostic and the returned id stays dead.
func (i *Info) StartTimer(t Timer) TimerID {
	id := i.engine.timers.reserve()
	if err := validateTimer(t); err != nil {
		i.buf.invalidTimer = append(i.buf.invalidTimer, err)
		return id
	}
	if t.Node == nil && i.Node != nil {
		t.Node = i.Node.Ptr()
	}
	i.buf.timers = append(i.buf.timers, timerOp{id: id, timer: t})
	return id
}

// StopTimer stops a timer. Unknown ids are ignored.
func (i *Info) StopTimer(id TimerID) {
	i.buf.stopTimers = append(i.buf.stopTimers, id)
}

// StartThread launches a background worker when the callback returns. A nil
// fn yields a dead id.
func (i *Info) StartThread(fn ThreadFunc, data any, writeBack WriteBackFunc) ThreadID {
	id := i.engine.threads.reserve()
	if fn == nil {
		return id
	}
	i.buf.threads = append(i.buf.threads, threadOp{id: id, fn: fn, data: data, writeBack: writeBack})
	return id
}

// StopThread cancels a worker. Unknown ids are ignored.
func (i *Info) StopThread(id ThreadID) {
	i.buf.stopThreads = append(i.buf.stopThreads, id)
}

// SetGpuValue writes a node's transform and opacity.
func (i *Info) SetGpuValue(id dom.DomNodeID, v gpu.Value) {
	i.buf.gpu = append(i.buf.gpu, gpuOp{id: id, v: v})
}

// RegenerateDom requests a rebuild of one node's subtree.
func (i *Info) RegenerateDom(id dom.DomNodeID) {
	i.buf.dirty = append(i.buf.dirty, id)
}

// RegenerateWindow requests a rebuild of the whole window.
func (i *Info) RegenerateWindow() {
	i.buf.windowDirty = true
}

// RegenerateAllWindows requests a rebuild of every window.
func (i *Info) RegenerateAllWindows() {
	i.buf.allWindows = true
}

// PreventDefault skips the default handling of the current event.
func (i *Info) PreventDefault() {
	i.buf.preventDflt = true
}

// SetFocus moves keyboard focus at the end of the frame.
func (i *Info) SetFocus(id dom.DomNodeID) {
	i.buf.focus = &focusOp{node: id.Ptr()}
}

// ClearFocus removes keyboard focus at the end of the frame.
func (i *Info) ClearFocus() {
	i.buf.focus = &focusOp{}
}
