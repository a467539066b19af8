// Package dom holds the identifiers, geometry and read-only layout view shared
// by every subsystem of the frame core. The layout itself is computed by an
// external provider; this package only describes what the core may read from
// it and which dirty requests it may send back.
package dom

import "fmt"

// DomID identifies one document tree. The root document of a window is
// RootDom; IFrame content gets its own DomID.
type DomID uint32

// RootDom is the DOM id of a window's top-level document.
const RootDom DomID = 0

// NodeID indexes a node inside one DOM.
type NodeID uint32

// NoNode marks the absence of a node (e.g. the parent of a root).
const NoNode NodeID = ^NodeID(0)

// DomNodeID addresses a node across all DOMs of a window.
type DomNodeID struct {
	Dom  DomID
	Node NodeID
}

// ID is a shorthand constructor.
func ID(d DomID, n NodeID) DomNodeID {
	return DomNodeID{Dom: d, Node: n}
}

// Less orders ids by DOM first, then node. Every iteration over a map keyed
// by DomNodeID goes through this ordering so results never depend on map
// iteration order.
func (id DomNodeID) Less(other DomNodeID) bool {
	if id.Dom != other.Dom {
		return id.Dom < other.Dom
	}
	return id.Node < other.Node
}

func (id DomNodeID) String() string {
	return fmt.Sprintf("%d:%d", id.Dom, id.Node)
}

// Ptr returns a pointer to a copy of id.
func (id DomNodeID) Ptr() *DomNodeID {
	return &id
}

// Equal compares two optional ids.
func Equal(a, b *DomNodeID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
