package hittest

import (
	"sync"

	"github.com/agiangrant/framecore/dom"
)

// ============================================================================
// Chain Pooling
// ============================================================================
//
// Hit testing runs on every pointer move. The recursive walk builds its chain
// in a pooled scratch slice and copies the final chain out, so a frame with a
// deep tree does not allocate per visited node.
//
// Usage:
//   chain := acquireChain()
//   ... append ...
//   out := append([]dom.DomNodeID(nil), chain...)
//   releaseChain(chain)

var chainPool = sync.Pool{
	New: func() interface{} {
		s := make([]dom.DomNodeID, 0, 32)
		return &s
	},
}

// acquireChain gets an empty scratch chain from the pool.
func acquireChain() *[]dom.DomNodeID {
	s := chainPool.Get().(*[]dom.DomNodeID)
	*s = (*s)[:0]
	return s
}

// releaseChain returns a scratch chain to the pool.
// Oversized slices are dropped to avoid holding on to memory.
func releaseChain(s *[]dom.DomNodeID) {
	if s == nil {
		return
	}
	if cap(*s) <= 256 {
		*s = (*s)[:0]
		chainPool.Put(s)
	}
}
