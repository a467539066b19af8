// Package gpu holds the per-DOM cache of GPU-resident node values
// (transforms and opacity) and the update list handed to the compositor.
package gpu

import (
	"sort"

	"github.com/agiangrant/framecore/dom"
)

// Transform is a 2D affine matrix in column-major order:
//
//	| A C E |
//	| B D F |
type Transform struct {
	A, B, C, D, E, F float32
}

// Identity is the identity transform.
var Identity = Transform{A: 1, D: 1}

// Translate returns a translation.
func Translate(x, y float32) Transform {
	return Transform{A: 1, D: 1, E: x, F: y}
}

// Value is the GPU-side state of one node.
type Value struct {
	Transform Transform
	Opacity   float32
}

// DefaultValue is what a node has before anything was written.
var DefaultValue = Value{Transform: Identity, Opacity: 1}

// Update is one pending change for the compositor. Removed is set when the
// entry was invalidated.
type Update struct {
	ID      dom.DomNodeID
	Value   Value
	Removed bool
}

// Cache holds node values per DOM. A DOM's cache is dropped wholesale when
// the DOM is rebuilt, never on relayout.
type Cache struct {
	doms    map[dom.DomID]map[dom.NodeID]Value
	pending map[dom.DomNodeID]Update
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		doms:    make(map[dom.DomID]map[dom.NodeID]Value),
		pending: make(map[dom.DomNodeID]Update),
	}
}

// Get returns the cached value of a node, or DefaultValue.
func (c *Cache) Get(id dom.DomNodeID) (Value, bool) {
	if nodes, ok := c.doms[id.Dom]; ok {
		if v, ok := nodes[id.Node]; ok {
			return v, true
		}
	}
	return DefaultValue, false
}

// Set stores a value and queues an update if it changed.
func (c *Cache) Set(id dom.DomNodeID, v Value) bool {
	nodes, ok := c.doms[id.Dom]
	if !ok {
		nodes = make(map[dom.NodeID]Value)
		c.doms[id.Dom] = nodes
	}
	if old, ok := nodes[id.Node]; ok && old == v {
		return false
	}
	nodes[id.Node] = v
	c.pending[id] = Update{ID: id, Value: v}
	return true
}

// Invalidate drops every entry of a rebuilt DOM and queues removals.
func (c *Cache) Invalidate(d dom.DomID) {
	nodes, ok := c.doms[d]
	if !ok {
		return
	}
	for n := range nodes {
		id := dom.ID(d, n)
		c.pending[id] = Update{ID: id, Removed: true}
	}
	delete(c.doms, d)
}

// Len returns the number of cached entries across all DOMs.
func (c *Cache) Len() int {
	n := 0
	for _, nodes := range c.doms {
		n += len(nodes)
	}
	return n
}

// TakeUpdates returns the pending updates in id order and clears them.
func (c *Cache) TakeUpdates() []Update {
	if len(c.pending) == 0 {
		return nil
	}
	out := make([]Update, 0, len(c.pending))
	for _, u := range c.pending {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	clear(c.pending)
	return out
}
