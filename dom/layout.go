package dom

import "sort"

// ============================================================================
// Resource Keys
// ============================================================================

// ImageKey identifies a GPU-resident image.
type ImageKey uint64

// FontKey identifies a loaded font face.
type FontKey uint64

// FontInstanceKey identifies a font face instantiated at a size.
type FontInstanceKey uint64

// ============================================================================
// Cursor Icons
// ============================================================================

// CursorIcon is the pointer shape requested by a node's style.
type CursorIcon uint8

const (
	// CursorUnset means the node does not set a cursor; resolution keeps walking outward.
	CursorUnset CursorIcon = iota
	CursorDefault
	CursorPointer
	CursorText
	CursorCrosshair
	CursorMove
	CursorGrab
	CursorGrabbing
	CursorNotAllowed
	CursorWait
	CursorResizeEW
	CursorResizeNS
	CursorHelp
)

var cursorNames = [...]string{
	CursorUnset:      "unset",
	CursorDefault:    "default",
	CursorPointer:    "pointer",
	CursorText:       "text",
	CursorCrosshair:  "crosshair",
	CursorMove:       "move",
	CursorGrab:       "grab",
	CursorGrabbing:   "grabbing",
	CursorNotAllowed: "not-allowed",
	CursorWait:       "wait",
	CursorResizeEW:   "ew-resize",
	CursorResizeNS:   "ns-resize",
	CursorHelp:       "help",
}

func (c CursorIcon) String() string {
	if int(c) < len(cursorNames) {
		return cursorNames[c]
	}
	return "unknown"
}

// CursorByName maps a CSS cursor keyword to a CursorIcon.
// Unknown names map to CursorUnset.
func CursorByName(name string) CursorIcon {
	for i, n := range cursorNames {
		if n == name {
			return CursorIcon(i)
		}
	}
	return CursorUnset
}

// ============================================================================
// Layout Results
// ============================================================================

// ScrollFrame marks a node as a scroll container.
type ScrollFrame struct {
	// ContentSize is the laid-out size of the node's children.
	ContentSize Size
	// ScrollX/ScrollY enable scrolling on each axis (overflow: scroll/auto).
	ScrollX, ScrollY bool
}

// Node is the read-only view of one laid-out node.
type Node struct {
	Parent   NodeID
	Children []NodeID

	// Rect is relative to the origin of the node's DOM.
	Rect Rect

	// Cursor is the explicit cursor style, CursorUnset when none.
	Cursor CursorIcon

	// Scroll is non-nil for scroll containers.
	Scroll *ScrollFrame

	// IFrame marks a lazy-content host. Its content DOM, once produced, is
	// a LayoutResult whose Host points back at this node.
	IFrame bool

	Focusable bool

	Images        []ImageKey
	Fonts         []FontKey
	FontInstances []FontInstanceKey

	// Tag is a debug label (element name, class list, ...).
	Tag string
}

// LayoutResult is the laid-out form of one DOM.
type LayoutResult struct {
	Dom DomID

	// Host is the IFrame node this DOM is rendered into; nil for the root DOM.
	Host *DomNodeID

	// Generation increments every time the DOM is rebuilt from scratch.
	// A relayout keeps the generation.
	Generation uint64

	// Nodes is indexed by NodeID. Nodes[0] is the root.
	Nodes []Node
}

// Node returns the node with the given id.
func (r *LayoutResult) Node(id NodeID) (*Node, bool) {
	if r == nil || int(id) >= len(r.Nodes) {
		return nil, false
	}
	return &r.Nodes[id], true
}

// Layout is the read-only geometry of every DOM in a window.
type Layout struct {
	results  map[DomID]*LayoutResult
	ids      []DomID
	children map[DomNodeID]DomID
}

// NewLayout indexes a set of layout results.
func NewLayout(results ...*LayoutResult) *Layout {
	l := &Layout{
		results:  make(map[DomID]*LayoutResult, len(results)),
		children: make(map[DomNodeID]DomID),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		l.results[r.Dom] = r
		l.ids = append(l.ids, r.Dom)
		if r.Host != nil {
			l.children[*r.Host] = r.Dom
		}
	}
	sort.Slice(l.ids, func(i, j int) bool { return l.ids[i] < l.ids[j] })
	return l
}

// DomIDs returns every DOM id in ascending order.
func (l *Layout) DomIDs() []DomID {
	if l == nil {
		return nil
	}
	return l.ids
}

// Dom returns the layout result of one DOM.
func (l *Layout) Dom(id DomID) (*LayoutResult, bool) {
	if l == nil {
		return nil, false
	}
	r, ok := l.results[id]
	return r, ok
}

// Node looks up a node across all DOMs.
func (l *Layout) Node(id DomNodeID) (*Node, bool) {
	r, ok := l.Dom(id.Dom)
	if !ok {
		return nil, false
	}
	return r.Node(id.Node)
}

// ChildDom returns the content DOM rendered into an IFrame host.
func (l *Layout) ChildDom(host DomNodeID) (DomID, bool) {
	if l == nil {
		return 0, false
	}
	d, ok := l.children[host]
	return d, ok
}

// Parent returns the parent of a node. The root of an IFrame content DOM
// has its host as parent.
func (l *Layout) Parent(id DomNodeID) (DomNodeID, bool) {
	r, ok := l.Dom(id.Dom)
	if !ok {
		return DomNodeID{}, false
	}
	n, ok := r.Node(id.Node)
	if !ok {
		return DomNodeID{}, false
	}
	if n.Parent != NoNode {
		return ID(id.Dom, n.Parent), true
	}
	if r.Host != nil {
		return *r.Host, true
	}
	return DomNodeID{}, false
}

// Depth returns the nesting depth of a node, counting through IFrame hosts.
// The root node of the root DOM has depth 0.
func (l *Layout) Depth(id DomNodeID) int {
	depth := 0
	for {
		r, ok := l.Dom(id.Dom)
		if !ok {
			return depth
		}
		n, ok := r.Node(id.Node)
		if !ok {
			return depth
		}
		if n.Parent != NoNode {
			id.Node = n.Parent
			depth++
			continue
		}
		if r.Host == nil {
			return depth
		}
		id = *r.Host
		depth++
	}
}

// ============================================================================
// Provider
// ============================================================================

// Provider is the layout/DOM collaborator. It answers geometry queries and
// accepts dirty requests; it never calls back into the frame core.
type Provider interface {
	// Layout returns the current read-only geometry.
	Layout() *Layout

	// MarkDirty requests a rebuild of one node's subtree.
	MarkDirty(id DomNodeID)

	// MarkWindowDirty requests a rebuild of the whole window.
	MarkWindowDirty()

	// ReplaceSubtree installs lazily produced content under an IFrame host.
	// Only that host's subtree is dirtied.
	ReplaceSubtree(host DomNodeID, subtree any)
}
