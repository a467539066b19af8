package frame

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/agiangrant/framecore/callback"
	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/gpu"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/scroll"
)

var (
	buttonID = dom.ID(0, 1)
	listID   = dom.ID(0, 2)
	hostID   = dom.ID(0, 4)
)

// fixture builds the root DOM:
//
//	root 800x600
//	├── button (10,10 100x40), pointer cursor, focusable
//	├── list (200,0 300x300), scrolls vertically over 1200
//	│   └── item (200,0 300x50)
//	└── host (0,400 400x200), IFrame, scrolls vertically
func fixture(gen uint64, images ...dom.ImageKey) *dom.Layout {
	return dom.NewLayout(&dom.LayoutResult{
		Dom:        dom.RootDom,
		Generation: gen,
		Nodes: []dom.Node{
			{Parent: dom.NoNode, Children: []dom.NodeID{1, 2, 4}, Rect: dom.Rect{Width: 800, Height: 600}},
			{
				Parent:    0,
				Rect:      dom.Rect{X: 10, Y: 10, Width: 100, Height: 40},
				Cursor:    dom.CursorPointer,
				Focusable: true,
				Images:    images,
			},
			{
				Parent:   0,
				Children: []dom.NodeID{3},
				Rect:     dom.Rect{X: 200, Width: 300, Height: 300},
				Scroll:   &dom.ScrollFrame{ContentSize: dom.Size{Width: 300, Height: 1200}, ScrollY: true},
			},
			{Parent: 2, Rect: dom.Rect{X: 200, Width: 300, Height: 50}},
			{
				Parent: 0,
				Rect:   dom.Rect{Y: 400, Width: 400, Height: 200},
				IFrame: true,
				Scroll: &dom.ScrollFrame{ContentSize: dom.Size{Width: 400, Height: 200}, ScrollY: true},
			},
		},
	})
}

type fakeProvider struct {
	layout      *dom.Layout
	dirty       []dom.DomNodeID
	windowDirty int
	replaced    map[dom.DomNodeID]any
}

func (p *fakeProvider) Layout() *dom.Layout        { return p.layout }
func (p *fakeProvider) MarkDirty(id dom.DomNodeID) { p.dirty = append(p.dirty, id) }
func (p *fakeProvider) MarkWindowDirty()           { p.windowDirty++ }
func (p *fakeProvider) ReplaceSubtree(host dom.DomNodeID, subtree any) {
	p.replaced[host] = subtree
}

type fakeHolder struct {
	images  map[dom.ImageKey]bool
	deleted []dom.ImageKey
}

func (h *fakeHolder) HasImage(k dom.ImageKey) bool             { return h.images[k] }
func (h *fakeHolder) HasFont(dom.FontKey) bool                 { return false }
func (h *fakeHolder) HasFontInstance(dom.FontInstanceKey) bool { return false }
func (h *fakeHolder) DeleteFont(dom.FontKey)                   {}
func (h *fakeHolder) DeleteFontInstance(dom.FontInstanceKey)   {}
func (h *fakeHolder) DeleteImage(k dom.ImageKey) {
	delete(h.images, k)
	h.deleted = append(h.deleted, k)
}

type harness struct {
	t      *testing.T
	loop   *Loop
	prov   *fakeProvider
	holder *fakeHolder
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	prov := &fakeProvider{layout: fixture(1), replaced: make(map[dom.DomNodeID]any)}
	holder := &fakeHolder{images: make(map[dom.ImageKey]bool)}
	cfg := DefaultLoopConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	l := NewLoop(prov, holder, cfg)
	t.Cleanup(func() { l.Close() })
	return &harness{t: t, loop: l, prov: prov, holder: holder, now: time.Unix(5000, 0)}
}

func (h *harness) frame(evs ...events.ExternalEvent) Report {
	for _, e := range evs {
		h.loop.SubmitExternalEvent(e)
	}
	h.now = h.now.Add(16 * time.Millisecond)
	return h.loop.RunFrame(h.now)
}

func (h *harness) on(id dom.DomNodeID, t events.EventType, fn callback.Func) {
	h.t.Helper()
	if err := h.loop.Registry().On(id, t, callback.Callback{Fn: fn}); err != nil {
		h.t.Fatal(err)
	}
}

func (h *harness) timer(fn func(info *callback.Info)) {
	h.t.Helper()
	_, err := h.loop.Timers().Add(callback.Timer{Callback: func(info *callback.Info, _ any) callback.TimerResult {
		fn(info)
		return callback.TimerResult{}
	}}, h.now)
	if err != nil {
		h.t.Fatal(err)
	}
}

func moveTo(x, y float32) events.ExternalEvent {
	return events.ExternalEvent{Kind: events.ExtMouseMove, Position: dom.Position{X: x, Y: y}}
}

func leftButton(down bool) events.ExternalEvent {
	return events.ExternalEvent{Kind: events.ExtMouseButton, Button: events.MouseButtonLeft, On: down}
}

func eventTypes(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

func hasDiagnostic(rep Report, k callback.DiagnosticKind) bool {
	for _, d := range rep.Diagnostics {
		if d.Kind == k {
			return true
		}
	}
	return false
}

func TestClickFocusAndCursor(t *testing.T) {
	h := newHarness(t)
	clicks := 0
	h.on(buttonID, events.EventClick, func(*callback.Info, any) callback.Update {
		clicks++
		return callback.RequestRedraw
	})

	rep := h.frame(moveTo(20, 20))
	if rep.Cursor != dom.CursorPointer || !rep.CursorChanged {
		t.Errorf("cursor = %v (changed %v), want pointer", rep.Cursor, rep.CursorChanged)
	}

	rep = h.frame(leftButton(true))
	if got := eventTypes(rep.Events); len(got) != 1 || got[0] != events.EventMouseDown {
		t.Errorf("press events = %v, want [mousedown]", got)
	}

	rep = h.frame(leftButton(false))
	want := []events.EventType{events.EventMouseUp, events.EventClick, events.EventFocusIn}
	got := eventTypes(rep.Events)
	if len(got) != len(want) {
		t.Fatalf("release events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("release events = %v, want %v", got, want)
			break
		}
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
	if rep.Update != callback.RequestRedraw || !rep.NeedsRedraw {
		t.Errorf("Update = %v, NeedsRedraw = %v", rep.Update, rep.NeedsRedraw)
	}
	if f := h.loop.Snapshot().Focus; f == nil || *f != buttonID {
		t.Errorf("focus = %v, want %v", f, buttonID)
	}
}

func TestPressAndReleaseWithinOneFrame(t *testing.T) {
	h := newHarness(t)
	var seen []events.EventType
	for _, et := range []events.EventType{events.EventMouseDown, events.EventMouseUp, events.EventClick} {
		h.on(buttonID, et, func(info *callback.Info, _ any) callback.Update {
			seen = append(seen, info.Event.Type)
			return callback.DoNothing
		})
	}
	h.frame(moveTo(20, 20))

	rep := h.frame(leftButton(true), leftButton(false))
	want := []events.EventType{events.EventMouseDown, events.EventMouseUp, events.EventClick}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("callbacks = %v, want %v", seen, want)
	}
	if got := eventTypes(rep.Events); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if h.loop.Snapshot().Mouse.Left {
		t.Error("expected the left button to end the frame released")
	}

	rep = h.frame()
	if got := eventTypes(rep.Events); !reflect.DeepEqual(got, []events.EventType{events.EventFocusIn}) {
		t.Errorf("next frame events = %v, want [focusin]", got)
	}

	rep = h.frame(
		events.ExternalEvent{Kind: events.ExtKey, Key: "Enter", On: true},
		events.ExternalEvent{Kind: events.ExtKey, Key: "Enter"},
	)
	if got := eventTypes(rep.Events); !reflect.DeepEqual(got, []events.EventType{events.EventKeyDown, events.EventKeyUp}) {
		t.Errorf("key events = %v, want [keydown keyup]", got)
	}
}

func TestTrappedPreventDefaultIsDiscarded(t *testing.T) {
	h := newHarness(t)
	h.on(buttonID, events.EventMouseDown, func(info *callback.Info, _ any) callback.Update {
		info.PreventDefault()
		panic("boom")
	})
	h.frame(moveTo(20, 20))
	h.frame(leftButton(true))
	h.frame(leftButton(false))

	if f := h.loop.Snapshot().Focus; f == nil || *f != buttonID {
		t.Errorf("focus = %v, want %v", f, buttonID)
	}
}

func TestWheelScrollsHoveredContainer(t *testing.T) {
	h := newHarness(t)
	h.frame(moveTo(250, 100))

	rep := h.frame(events.ExternalEvent{Kind: events.ExtWheel, Delta: dom.Position{Y: 100}})
	if got := h.loop.Scroll().Offset(listID); got.Y != 100 {
		t.Errorf("offset = %v, want y=100", got)
	}
	if !rep.NeedsHitTestRebuild || !rep.NeedsRedraw {
		t.Errorf("NeedsHitTestRebuild = %v, NeedsRedraw = %v, want both", rep.NeedsHitTestRebuild, rep.NeedsRedraw)
	}

	// Wheel deltas are per frame, not replayed.
	h.frame()
	if got := h.loop.Scroll().Offset(listID); got.Y != 100 {
		t.Errorf("offset after idle frame = %v, want y=100", got)
	}
}

func TestWheelPreventDefault(t *testing.T) {
	h := newHarness(t)
	h.on(listID, events.EventScroll, func(info *callback.Info, _ any) callback.Update {
		info.PreventDefault()
		return callback.DoNothing
	})
	h.frame(moveTo(250, 100))
	h.frame(events.ExternalEvent{Kind: events.ExtWheel, Delta: dom.Position{Y: 100}})
	if got := h.loop.Scroll().Offset(listID); got.Y != 0 {
		t.Errorf("offset = %v, want unchanged", got)
	}
}

func TestScrollbarThumbDrag(t *testing.T) {
	h := newHarness(t)
	downs := 0
	h.on(listID, events.EventMouseDown, func(*callback.Info, any) callback.Update {
		downs++
		return callback.DoNothing
	})

	// Track x 488..500, thumb 75 long at the top.
	h.frame(moveTo(494, 10))
	rep := h.frame(leftButton(true))
	want := hittest.ScrollbarHitID{Node: listID.Node, Orientation: dom.Vertical, Component: hittest.ComponentThumb}
	if rep.ScrollbarDrag == nil || *rep.ScrollbarDrag != want {
		t.Fatalf("ScrollbarDrag = %v, want %v", rep.ScrollbarDrag, want)
	}

	h.frame(moveTo(494, 85))
	// 75px of thumb travel out of 225 maps to 300 of the 900 scrollable.
	if got := h.loop.Scroll().Offset(listID); got.Y != 300 {
		t.Errorf("offset = %v, want y=300", got)
	}

	rep = h.frame(leftButton(false))
	if rep.ScrollbarDrag != nil {
		t.Error("expected the drag to end on release")
	}
	if downs != 0 {
		t.Errorf("mousedown reached the DOM %d times", downs)
	}
}

func TestScrollbarTrackPages(t *testing.T) {
	h := newHarness(t)
	h.frame(moveTo(494, 200))
	h.frame(leftButton(true))

	st, _ := h.loop.Scroll().State(listID)
	if st.Animation == nil || st.Animation.To.Y != 300 {
		t.Fatalf("animation = %+v, want a page down to y=300", st.Animation)
	}
	h.now = h.now.Add(time.Second)
	h.frame(leftButton(false))
	if got := h.loop.Scroll().Offset(listID); got.Y != 300 {
		t.Errorf("offset = %v, want y=300", got)
	}
}

func registerProducer(h *harness, fn func(info *callback.IFrameInfo) scroll.Result) {
	h.t.Helper()
	err := h.loop.Registry().SetIFrame(hostID, callback.IFrameCallback{Fn: func(info *callback.IFrameInfo, _ any) scroll.Result {
		return fn(info)
	}})
	if err != nil {
		h.t.Fatal(err)
	}
}

func rows(offset float32) scroll.Result {
	return scroll.Result{
		Update:       true,
		Subtree:      offset,
		ActualSize:   dom.Size{Width: 400, Height: 1000},
		ActualOffset: dom.Position{Y: offset},
		VirtualSize:  dom.Size{Width: 400, Height: 5000},
	}
}

func TestIFrameInitialRenderOnce(t *testing.T) {
	h := newHarness(t)
	var reasons []scroll.Reason
	registerProducer(h, func(info *callback.IFrameInfo) scroll.Result {
		reasons = append(reasons, info.Reason)
		return rows(0)
	})

	rep := h.frame()
	if len(rep.IFrames) != 1 || rep.IFrames[0] != (IFrameInvocation{Host: hostID, Reason: scroll.InitialRender, Updated: true}) {
		t.Errorf("IFrames = %+v, want one initial render", rep.IFrames)
	}
	if _, ok := h.prov.replaced[hostID]; !ok {
		t.Error("expected the produced subtree to reach the provider")
	}
	if ext, _ := h.loop.Scroll().Extent(hostID); ext.Height != 5000 {
		t.Errorf("extent = %v, want virtual height 5000", ext)
	}
	if !rep.NeedsDomRegeneration {
		t.Error("expected NeedsDomRegeneration after new IFrame content")
	}

	for i := 0; i < 3; i++ {
		if rep := h.frame(); len(rep.IFrames) != 0 {
			t.Errorf("frame %d invoked %+v", i, rep.IFrames)
		}
	}
	if len(reasons) != 1 {
		t.Errorf("reasons = %v, want one invocation", reasons)
	}
}

func TestProgrammaticOverscrollRunsProducerFirst(t *testing.T) {
	h := newHarness(t)
	var seen []dom.Position
	registerProducer(h, func(info *callback.IFrameInfo) scroll.Result {
		seen = append(seen, info.Offset)
		if info.Reason == scroll.ProgrammaticOverscroll {
			return rows(2800)
		}
		return rows(0)
	})
	h.frame()

	h.timer(func(info *callback.Info) {
		info.SetScrollOffset(hostID, dom.Position{Y: 3000})
	})
	rep := h.frame()

	if len(rep.IFrames) != 1 || rep.IFrames[0].Reason != scroll.ProgrammaticOverscroll {
		t.Fatalf("IFrames = %+v, want one programmatic overscroll", rep.IFrames)
	}
	if len(seen) != 2 || seen[1].Y != 0 {
		t.Errorf("producer saw offsets %v, want the old offset before scrolling", seen)
	}
	if got := h.loop.Scroll().Offset(hostID); got.Y != 3000 {
		t.Errorf("offset = %v, want y=3000", got)
	}

	if rep := h.frame(); len(rep.IFrames) != 0 {
		t.Errorf("next frame invoked %+v", rep.IFrames)
	}
}

func TestRebuildInvalidatesGpuAndRecreatesIFrame(t *testing.T) {
	h := newHarness(t)
	var reasons []scroll.Reason
	registerProducer(h, func(info *callback.IFrameInfo) scroll.Result {
		reasons = append(reasons, info.Reason)
		return rows(0)
	})
	h.frame()
	h.loop.GPU().Set(buttonID, gpu.Value{Transform: gpu.Translate(4, 0), Opacity: 1})
	h.frame()

	h.prov.layout = fixture(2)
	rep := h.frame()
	if _, ok := h.loop.GPU().Get(buttonID); ok {
		t.Error("expected the rebuilt DOM's GPU values to be dropped")
	}
	removed := false
	for _, u := range rep.GpuUpdates {
		removed = removed || (u.ID == buttonID && u.Removed)
	}
	if !removed {
		t.Errorf("GpuUpdates = %v, want removal of %v", rep.GpuUpdates, buttonID)
	}
	if len(reasons) != 2 || reasons[1] != scroll.ParentRecreated {
		t.Errorf("reasons = %v, want [initial-render parent-recreated]", reasons)
	}
	if !rep.NeedsHitTestRebuild {
		t.Error("expected NeedsHitTestRebuild after a rebuild")
	}
}

func TestTrapDoesNotAbortFrame(t *testing.T) {
	h := newHarness(t)
	h.on(buttonID, events.EventMouseEnter, func(*callback.Info, any) callback.Update {
		panic("broken handler")
	})
	ran := false
	h.timer(func(*callback.Info) { ran = true })

	rep := h.frame(moveTo(20, 20))
	if !ran {
		t.Error("expected the timer to run after the trap")
	}
	if !hasDiagnostic(rep, callback.CallbackTrap) {
		t.Errorf("diagnostics = %v, want a trap", rep.Diagnostics)
	}
	if rep.Update != callback.DoNothing {
		t.Errorf("Update = %v, want %v", rep.Update, callback.DoNothing)
	}
}

func TestDirtyRequestsReachProvider(t *testing.T) {
	h := newHarness(t)
	h.timer(func(info *callback.Info) {
		info.RegenerateDom(listID)
		info.RegenerateDom(dom.ID(9, 9))
	})
	rep := h.frame()

	if len(h.prov.dirty) != 1 || h.prov.dirty[0] != listID {
		t.Errorf("provider dirty = %v, want [%v]", h.prov.dirty, listID)
	}
	if !rep.NeedsDomRegeneration || len(rep.DirtySubtrees) != 1 {
		t.Errorf("report = %+v", rep)
	}
	if !hasDiagnostic(rep, callback.StaleReference) {
		t.Error("expected a stale reference diagnostic")
	}

	h.timer(func(info *callback.Info) { info.RegenerateWindow() })
	rep = h.frame()
	if h.prov.windowDirty != 1 || !rep.WindowDirty || rep.Update != callback.RegenerateDomCurrentWindow {
		t.Errorf("windowDirty = %d, report = %+v", h.prov.windowDirty, rep)
	}
}

func TestResourceCollection(t *testing.T) {
	h := newHarness(t)
	h.holder.images[5] = true
	h.prov.layout = fixture(1, 5)

	rep := h.frame()
	if len(rep.ResourceAdds.Images) != 1 || rep.ResourceAdds.Images[0] != 5 {
		t.Errorf("ResourceAdds = %+v, want image 5", rep.ResourceAdds)
	}

	h.prov.layout = fixture(1)
	rep = h.frame()
	if len(rep.ResourceDeletes.Images) != 1 || len(h.holder.deleted) != 1 {
		t.Errorf("ResourceDeletes = %+v, holder deleted %v", rep.ResourceDeletes, h.holder.deleted)
	}

	rep = h.frame()
	if !rep.ResourceDeletes.Empty() || len(h.holder.deleted) != 1 {
		t.Errorf("image deleted twice: %+v", rep.ResourceDeletes)
	}
}

func TestRedrawAfterNextTimer(t *testing.T) {
	h := newHarness(t)
	h.frame()

	_, err := h.loop.Timers().Add(callback.Timer{
		Delay:    time.Second,
		Callback: func(*callback.Info, any) callback.TimerResult { return callback.TimerResult{} },
	}, h.now)
	if err != nil {
		t.Fatal(err)
	}
	rep := h.frame()
	if rep.NeedsRedraw {
		t.Fatalf("idle frame needs redraw: %+v", rep)
	}
	if rep.RedrawAfter != 984*time.Millisecond {
		t.Errorf("RedrawAfter = %v, want 984ms", rep.RedrawAfter)
	}
}

func TestSubmitSnapshotReplacesQueue(t *testing.T) {
	h := newHarness(t)
	h.loop.SubmitExternalEvent(moveTo(20, 20))

	var ws events.WindowState
	ws.Mouse.Inside = true
	ws.Mouse.Position = dom.Position{X: 250, Y: 100}
	h.loop.SubmitSnapshot(ws)

	rep := h.frame()
	var entered *dom.DomNodeID
	for _, e := range rep.Events {
		if e.Type == events.EventMouseEnter {
			entered = e.Target
		}
	}
	if entered == nil || *entered != listID {
		t.Errorf("entered = %v, want %v", entered, listID)
	}
}
