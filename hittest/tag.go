package hittest

import (
	"fmt"

	"github.com/agiangrant/framecore/dom"
)

// Component is the part of a scrollbar that was struck.
type Component uint8

const (
	ComponentTrack Component = iota
	ComponentThumb
)

func (c Component) String() string {
	if c == ComponentThumb {
		return "thumb"
	}
	return "track"
}

// ScrollbarHitID routes a pointer hit to scroll manipulation instead of DOM
// callbacks.
type ScrollbarHitID struct {
	Dom         dom.DomID
	Node        dom.NodeID
	Orientation dom.Orientation
	Component   Component
}

// NodeID returns the scroll container owning the scrollbar.
func (s ScrollbarHitID) NodeID() dom.DomNodeID {
	return dom.ID(s.Dom, s.Node)
}

func (s ScrollbarHitID) String() string {
	return fmt.Sprintf("scrollbar(%d:%d %s %s)", s.Dom, s.Node, s.Orientation, s.Component)
}

// Tag is the 64-bit item tag pushed into the GPU-side hit tester. One tag
// resolves "which part, on which node" in a single lookup.
//
//	[63:62] kind  [61] orientation  [60] component  [59:32] dom  [31:0] node
type Tag uint64

const (
	tagKindNode      uint64 = 1
	tagKindScrollbar uint64 = 2

	tagKindShift = 62
	tagOrientBit = 61
	tagCompBit   = 60
	tagDomShift  = 32
	tagDomMask   = (1 << 28) - 1
	tagNodeMask  = (1 << 32) - 1
)

// NodeTag encodes a plain DOM node hit.
func NodeTag(id dom.DomNodeID) Tag {
	return Tag(tagKindNode<<tagKindShift |
		(uint64(id.Dom)&tagDomMask)<<tagDomShift |
		uint64(id.Node)&tagNodeMask)
}

// Tag encodes the scrollbar hit.
func (s ScrollbarHitID) Tag() Tag {
	v := tagKindScrollbar<<tagKindShift |
		(uint64(s.Dom)&tagDomMask)<<tagDomShift |
		uint64(s.Node)&tagNodeMask
	if s.Orientation == dom.Horizontal {
		v |= 1 << tagOrientBit
	}
	if s.Component == ComponentThumb {
		v |= 1 << tagCompBit
	}
	return Tag(v)
}

func (t Tag) kind() uint64 {
	return uint64(t) >> tagKindShift
}

func (t Tag) id() dom.DomNodeID {
	return dom.ID(
		dom.DomID((uint64(t)>>tagDomShift)&tagDomMask),
		dom.NodeID(uint64(t)&tagNodeMask),
	)
}

// Node decodes a node tag.
func (t Tag) Node() (dom.DomNodeID, bool) {
	if t.kind() != tagKindNode {
		return dom.DomNodeID{}, false
	}
	return t.id(), true
}

// Scrollbar decodes a scrollbar tag.
func (t Tag) Scrollbar() (ScrollbarHitID, bool) {
	if t.kind() != tagKindScrollbar {
		return ScrollbarHitID{}, false
	}
	id := t.id()
	s := ScrollbarHitID{Dom: id.Dom, Node: id.Node}
	if uint64(t)&(1<<tagOrientBit) != 0 {
		s.Orientation = dom.Horizontal
	}
	if uint64(t)&(1<<tagCompBit) != 0 {
		s.Component = ComponentThumb
	}
	return s, true
}
