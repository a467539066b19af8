// Package hittest turns a pointer position plus read-only layout geometry
// into the hovered node chain, an optional scrollbar hit, and the cursor icon.
package hittest

import (
	"sort"

	"github.com/agiangrant/framecore/dom"
)

// Config configures scrollbar geometry used for hit testing.
type Config struct {
	// ScrollbarWidth is the thickness of a scrollbar track (default: 12).
	ScrollbarWidth float32

	// MinThumbLength keeps the thumb grabbable on huge content (default: 16).
	MinThumbLength float32
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ScrollbarWidth: 12,
		MinThumbLength: 16,
	}
}

// Offsets supplies live scroll state for scroll containers. The scroll
// manager implements it; hit testing never mutates it.
type Offsets interface {
	// Offset returns the current scroll offset of a node (zero if unknown).
	Offset(id dom.DomNodeID) dom.Position

	// Extent returns the logical scrollable extent shown to the scrollbar.
	Extent(id dom.DomNodeID) (dom.Size, bool)
}

// Result contains the outcome of a hit test.
type Result struct {
	Position dom.Position

	// Hovered lists hit nodes innermost first, across DOMs and IFrames.
	Hovered []dom.DomNodeID

	// Scrollbar is set when the pointer is over a scrollbar component.
	// Hovered then ends at the scroll container owning it.
	Scrollbar *ScrollbarHitID

	// Local is the position relative to the innermost node's rect.
	Local dom.Position
}

// Innermost returns the deepest hovered node, or nil.
func (r Result) Innermost() *dom.DomNodeID {
	if len(r.Hovered) == 0 {
		return nil
	}
	id := r.Hovered[0]
	return &id
}

// Resolver performs hit tests and cursor resolution.
type Resolver struct {
	config Config
}

// NewResolver creates a resolver.
func NewResolver(config Config) *Resolver {
	if config.ScrollbarWidth <= 0 {
		config.ScrollbarWidth = 12
	}
	if config.MinThumbLength <= 0 {
		config.MinThumbLength = 16
	}
	return &Resolver{config: config}
}

// Config returns the resolver's configuration.
func (r *Resolver) Config() Config {
	return r.config
}

// ============================================================================
// Hit Testing
// ============================================================================

type hitState struct {
	layout    *dom.Layout
	offsets   Offsets
	chain     *[]dom.DomNodeID
	scrollbar *ScrollbarHitID
	local     dom.Position
}

// HitTest finds every node under the pointer. The walk starts at the root
// DOM, descends into IFrame content DOMs, tests children last-to-first
// (last child is painted on top), and translates the point by each scroll
// container's offset before testing its children.
func (r *Resolver) HitTest(layout *dom.Layout, offsets Offsets, pos dom.Position) Result {
	res := Result{Position: pos}
	root, ok := layout.Dom(dom.RootDom)
	if !ok || len(root.Nodes) == 0 {
		return res
	}

	chain := acquireChain()
	defer releaseChain(chain)

	st := &hitState{layout: layout, offsets: offsets, chain: chain}
	r.hitNode(st, root, 0, pos)

	n := len(*chain)
	if n == 0 {
		return res
	}
	res.Hovered = make([]dom.DomNodeID, n)
	for i, id := range *chain {
		res.Hovered[n-1-i] = id
	}
	res.Scrollbar = st.scrollbar
	res.Local = st.local
	return res
}

// hitNode tests one node with p given in its DOM's coordinate space.
// Returns true if the node (and therefore the chain) was hit.
func (r *Resolver) hitNode(st *hitState, res *dom.LayoutResult, id dom.NodeID, p dom.Position) bool {
	node, ok := res.Node(id)
	if !ok || !node.Rect.Contains(p) {
		return false
	}

	nodeID := dom.ID(res.Dom, id)
	*st.chain = append(*st.chain, nodeID)
	st.local = node.Rect.LocalPoint(p)

	childP := p
	if node.Scroll != nil {
		// Scrollbars are painted over the content, so they win over children.
		if sb, ok := r.hitScrollbar(st.offsets, nodeID, node, p); ok {
			st.scrollbar = &sb
			return true
		}
		childP = p.Add(st.offsets.Offset(nodeID))
	}

	if node.IFrame {
		if childDom, ok := st.layout.ChildDom(nodeID); ok {
			if cres, ok := st.layout.Dom(childDom); ok && len(cres.Nodes) > 0 {
				// Content DOM coordinates are relative to the host's origin.
				cp := p.Sub(node.Rect.Origin()).Add(st.offsets.Offset(nodeID))
				if r.hitNode(st, cres, 0, cp) {
					return true
				}
			}
		}
	}

	for i := len(node.Children) - 1; i >= 0; i-- {
		if r.hitNode(st, res, node.Children[i], childP) {
			return true
		}
	}

	// No child was hit, this node is the innermost target.
	st.local = node.Rect.LocalPoint(p)
	return true
}

// ============================================================================
// Scrollbars
// ============================================================================

// ScrollbarGeometry describes one scrollbar of a scroll container in the
// coordinate space of the container's DOM.
type ScrollbarGeometry struct {
	Visible bool
	Track   dom.Rect
	Thumb   dom.Rect
}

// Scrollbar computes the geometry of one scrollbar. The thumb length is the
// viewport/extent ratio of the track, its position the offset ratio.
func (r *Resolver) Scrollbar(rect dom.Rect, extent dom.Size, offset dom.Position, o dom.Orientation) ScrollbarGeometry {
	w := r.config.ScrollbarWidth
	var g ScrollbarGeometry

	viewport := rect.Size().Axis(o.Axis())
	total := extent.Axis(o.Axis())
	if total <= viewport || viewport <= 0 {
		return g
	}
	g.Visible = true

	if o == dom.Vertical {
		g.Track = dom.Rect{X: rect.X + rect.Width - w, Y: rect.Y, Width: w, Height: rect.Height}
	} else {
		g.Track = dom.Rect{X: rect.X, Y: rect.Y + rect.Height - w, Width: rect.Width, Height: w}
	}

	trackLen := g.Track.Size().Axis(o.Axis())
	thumbLen := trackLen * viewport / total
	if thumbLen < r.config.MinThumbLength {
		thumbLen = r.config.MinThumbLength
	}
	if thumbLen > trackLen {
		thumbLen = trackLen
	}
	maxOffset := total - viewport
	ratio := dom.Clamp(offset.Axis(o.Axis())/maxOffset, 0, 1)
	start := (trackLen - thumbLen) * ratio

	if o == dom.Vertical {
		g.Thumb = dom.Rect{X: g.Track.X, Y: g.Track.Y + start, Width: w, Height: thumbLen}
	} else {
		g.Thumb = dom.Rect{X: g.Track.X + start, Y: g.Track.Y, Width: thumbLen, Height: w}
	}
	return g
}

// ThumbTravel returns how far the thumb can move along its track, used to
// convert a pointer drag into a scroll delta.
func (r *Resolver) ThumbTravel(g ScrollbarGeometry, o dom.Orientation) float32 {
	return g.Track.Size().Axis(o.Axis()) - g.Thumb.Size().Axis(o.Axis())
}

func (r *Resolver) hitScrollbar(offsets Offsets, id dom.DomNodeID, node *dom.Node, p dom.Position) (ScrollbarHitID, bool) {
	extent, ok := offsets.Extent(id)
	if !ok {
		extent = node.Scroll.ContentSize
	}
	off := offsets.Offset(id)

	check := func(enabled bool, o dom.Orientation) (ScrollbarHitID, bool) {
		if !enabled {
			return ScrollbarHitID{}, false
		}
		g := r.Scrollbar(node.Rect, extent, off, o)
		if !g.Visible || !g.Track.Contains(p) {
			return ScrollbarHitID{}, false
		}
		hit := ScrollbarHitID{Dom: id.Dom, Node: id.Node, Orientation: o, Component: ComponentTrack}
		if g.Thumb.Contains(p) {
			hit.Component = ComponentThumb
		}
		return hit, true
	}

	if hit, ok := check(node.Scroll.ScrollY, dom.Vertical); ok {
		return hit, true
	}
	return check(node.Scroll.ScrollX, dom.Horizontal)
}

// ============================================================================
// Window Geometry
// ============================================================================

// WindowRect converts a node's DOM-relative rect into window coordinates,
// subtracting the scroll offsets of every scrolling ancestor and adding the
// origin of the IFrame host for content DOMs.
func WindowRect(layout *dom.Layout, offsets Offsets, id dom.DomNodeID) (dom.Rect, bool) {
	res, ok := layout.Dom(id.Dom)
	if !ok {
		return dom.Rect{}, false
	}
	node, ok := res.Node(id.Node)
	if !ok {
		return dom.Rect{}, false
	}

	rect := node.Rect
	for parent := node.Parent; parent != dom.NoNode; {
		pn, ok := res.Node(parent)
		if !ok {
			break
		}
		if pn.Scroll != nil {
			off := offsets.Offset(dom.ID(id.Dom, parent))
			rect.X -= off.X
			rect.Y -= off.Y
		}
		parent = pn.Parent
	}

	if res.Host != nil {
		host, ok := WindowRect(layout, offsets, *res.Host)
		if !ok {
			return rect, true
		}
		off := offsets.Offset(*res.Host)
		rect.X += host.X - off.X
		rect.Y += host.Y - off.Y
	}
	return rect, true
}

// ============================================================================
// Cursor Resolution
// ============================================================================

// ResolveCursor walks the hovered chain innermost first and returns the first
// explicit cursor. Ordering is by nesting depth, never by registration order.
// A scrollbar hit always shows the default arrow.
func ResolveCursor(layout *dom.Layout, res Result) dom.CursorIcon {
	if res.Scrollbar != nil || len(res.Hovered) == 0 {
		return dom.CursorDefault
	}

	type entry struct {
		id    dom.DomNodeID
		depth int
	}
	entries := make([]entry, len(res.Hovered))
	for i, id := range res.Hovered {
		entries[i] = entry{id: id, depth: layout.Depth(id)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].depth > entries[j].depth
	})

	for _, e := range entries {
		if n, ok := layout.Node(e.id); ok && n.Cursor != dom.CursorUnset {
			return n.Cursor
		}
	}
	return dom.CursorDefault
}
