package scroll

import (
	"log/slog"
	"sort"

	"github.com/agiangrant/framecore/dom"
)

// ============================================================================
// IFrame Re-invocation
// ============================================================================
//
// An IFrame host produces its content lazily through a user callback. The
// callback may materialize less than the logical extent (virtualization), so
// every host tracks two sizes:
//
//   actual  - the size of the content that was actually rendered
//   virtual - the logical extent shown to the scrollbar
//
// Reinvocation rules are evaluated in numeric order; when several match in
// one frame the host is invoked once with the highest matching reason.

// Reason is why an IFrame callback is invoked.
type Reason uint8

const (
	ReasonNone Reason = iota
	InitialRender
	ParentRecreated
	BoundsExpanded
	EdgeApproached
	ProgrammaticOverscroll
)

func (r Reason) String() string {
	switch r {
	case InitialRender:
		return "initial-render"
	case ParentRecreated:
		return "parent-recreated"
	case BoundsExpanded:
		return "bounds-expanded"
	case EdgeApproached:
		return "edge-approached"
	case ProgrammaticOverscroll:
		return "programmatic-overscroll"
	default:
		return "none"
	}
}

// IFrameState is the persistent re-invocation bookkeeping of one host.
type IFrameState struct {
	ID dom.DomNodeID

	ActualSize    dom.Size
	ActualOffset  dom.Position
	VirtualSize   dom.Size
	VirtualOffset dom.Position

	// InvokedForExpansion is set per axis once BoundsExpanded fired and is
	// cleared when a result grows the actual size on that axis.
	InvokedForExpansion [2]bool

	// InvokedEdges is set per edge once EdgeApproached fired.
	InvokedEdges [4]bool

	// LastViewport is the viewport seen by the previous evaluation.
	LastViewport dom.Size

	CachedSubtree any

	// NestedDom is the DOM id the content is rendered as.
	NestedDom dom.DomID

	// Invocations counts how often the callback has been invoked.
	Invocations int
}

// Input is the geometry an evaluation looks at.
type Input struct {
	Viewport dom.Size
	Offset   dom.Position

	// Rebuilt is true when the host's DOM was rebuilt, not merely relaid out.
	Rebuilt bool
}

// Result is what an IFrame callback returns. A result with Update false is
// "no update": nothing changes and the flags that triggered the invocation
// stay set.
type Result struct {
	Update        bool
	Subtree       any
	ActualSize    dom.Size
	ActualOffset  dom.Position
	VirtualSize   dom.Size
	VirtualOffset dom.Position
}

// IFrames tracks every IFrame host of a window.
type IFrames struct {
	config  Config
	states  map[dom.DomNodeID]*IFrameState
	handled map[dom.DomNodeID]bool
	nextDom dom.DomID
}

// NewIFrames creates an IFrame tracker. Nested DOM ids start after RootDom.
func NewIFrames(config Config) *IFrames {
	return &IFrames{
		config:  config.withDefaults(),
		states:  make(map[dom.DomNodeID]*IFrameState),
		handled: make(map[dom.DomNodeID]bool),
		nextDom: dom.RootDom + 1,
	}
}

// BeginFrame forgets which hosts were already invoked this frame. Persistent
// flags survive.
func (f *IFrames) BeginFrame() {
	clear(f.handled)
}

// State returns a copy of a host's state.
func (f *IFrames) State(id dom.DomNodeID) (IFrameState, bool) {
	st, ok := f.states[id]
	if !ok {
		return IFrameState{}, false
	}
	return *st, true
}

// IDs returns every tracked host in id order.
func (f *IFrames) IDs() []dom.DomNodeID {
	ids := make([]dom.DomNodeID, 0, len(f.states))
	for id := range f.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Remove drops a host.
func (f *IFrames) Remove(id dom.DomNodeID) {
	delete(f.states, id)
	delete(f.handled, id)
}

// Prune drops hosts that are no longer IFrame nodes in the layout.
func (f *IFrames) Prune(layout *dom.Layout) []dom.DomNodeID {
	var removed []dom.DomNodeID
	for _, id := range f.IDs() {
		if n, ok := layout.Node(id); !ok || !n.IFrame {
			f.Remove(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Evaluate applies the re-invocation rules to one host and returns the
// reason to invoke it with, ReasonNone if it should not be invoked. Flags of
// every matching rule are set; the first evaluation creates the state.
func (f *IFrames) Evaluate(id dom.DomNodeID, in Input) Reason {
	st, ok := f.states[id]
	if !ok {
		st = &IFrameState{ID: id, LastViewport: in.Viewport, NestedDom: f.allocDom()}
		f.states[id] = st
		f.handled[id] = true
		return InitialRender
	}

	// A host already invoked this frame is not invoked again; its flags are
	// only released, never set.
	commit := !f.handled[id]

	reason := ReasonNone
	if in.Rebuilt {
		reason = ParentRecreated
		st.InvokedForExpansion = [2]bool{}
		st.InvokedEdges = [4]bool{}
	}

	for _, a := range dom.Axes {
		vp := in.Viewport.Axis(a)
		grew := vp > st.LastViewport.Axis(a)
		if grew && vp > st.ActualSize.Axis(a) && !st.InvokedForExpansion[a] && commit {
			st.InvokedForExpansion[a] = true
			reason = BoundsExpanded
		}
	}
	if commit {
		st.LastViewport = in.Viewport
	}

	threshold := f.config.EdgeThreshold
	release := threshold * f.config.HysteresisFactor
	for _, e := range dom.Edges {
		dist, ok := edgeDistance(st, in, e)
		if !ok {
			continue
		}
		if st.InvokedEdges[e] {
			if dist > release {
				st.InvokedEdges[e] = false
			}
			continue
		}
		if dist < threshold && commit {
			st.InvokedEdges[e] = true
			reason = EdgeApproached
		}
	}

	if reason == ReasonNone || !commit {
		return ReasonNone
	}
	f.handled[id] = true
	return reason
}

// CheckOverscroll reports whether a programmatic scroll to target leaves the
// materialized content. The caller invokes the callback before applying the
// offset.
func (f *IFrames) CheckOverscroll(id dom.DomNodeID, target dom.Position, viewport dom.Size) Reason {
	st, ok := f.states[id]
	if !ok || f.handled[id] {
		return ReasonNone
	}
	for _, a := range dom.Axes {
		start := st.ActualOffset.Axis(a)
		last := max(start, start+st.ActualSize.Axis(a)-viewport.Axis(a))
		t := target.Axis(a)
		if t < start || t > last {
			f.handled[id] = true
			return ProgrammaticOverscroll
		}
	}
	return ReasonNone
}

// ApplyResult records a callback result. An unset virtual size means the
// actual size. Invalid results are clamped: a virtual size smaller than the
// actual size becomes the actual size. It returns the recorded result and
// whether it had to be clamped.
func (f *IFrames) ApplyResult(id dom.DomNodeID, res Result, in Input) (Result, bool) {
	st, ok := f.states[id]
	if !ok {
		return res, false
	}
	st.Invocations++
	if !res.Update {
		return res, false
	}

	if res.VirtualSize == (dom.Size{}) {
		res.VirtualSize = res.ActualSize
	}

	clamped := false
	fix := func(v *float32) {
		if *v < 0 {
			*v = 0
			clamped = true
		}
	}
	fix(&res.ActualSize.Width)
	fix(&res.ActualSize.Height)
	fix(&res.VirtualSize.Width)
	fix(&res.VirtualSize.Height)
	if res.VirtualSize.Width < res.ActualSize.Width {
		res.VirtualSize.Width = res.ActualSize.Width
		clamped = true
	}
	if res.VirtualSize.Height < res.ActualSize.Height {
		res.VirtualSize.Height = res.ActualSize.Height
		clamped = true
	}
	if clamped {
		f.config.Logger.Warn("iframe result clamped",
			slog.String("node", id.String()),
			slog.Any("actual", res.ActualSize),
			slog.Any("virtual", res.VirtualSize))
	}

	for _, a := range dom.Axes {
		if res.ActualSize.Axis(a) > st.ActualSize.Axis(a) {
			st.InvokedForExpansion[a] = false
		}
	}

	st.ActualSize = res.ActualSize
	st.ActualOffset = res.ActualOffset
	st.VirtualSize = res.VirtualSize
	st.VirtualOffset = res.VirtualOffset
	st.CachedSubtree = res.Subtree

	for _, e := range dom.Edges {
		if !st.InvokedEdges[e] {
			continue
		}
		if dist, ok := edgeDistance(st, in, e); !ok || dist >= f.config.EdgeThreshold {
			st.InvokedEdges[e] = false
		}
	}
	return res, clamped
}

func (f *IFrames) allocDom() dom.DomID {
	d := f.nextDom
	f.nextDom++
	return d
}

// edgeDistance returns how far the visible window is from one edge of the
// materialized content. Edges on an axis that does not scroll are skipped,
// as are leading edges when the content starts at zero.
func edgeDistance(st *IFrameState, in Input, e dom.Edge) (float32, bool) {
	a := e.Axis()
	vp := in.Viewport.Axis(a)
	size := st.ActualSize.Axis(a)
	start := st.ActualOffset.Axis(a)
	off := in.Offset.Axis(a)

	switch e {
	case dom.EdgeBottom, dom.EdgeRight:
		if size <= vp {
			return 0, false
		}
		return (start + size) - (off + vp), true
	default:
		if start <= 0 {
			return 0, false
		}
		return off - start, true
	}
}
