package callback

import (
	"errors"
	"fmt"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/scroll"
)

// Registration errors. Nothing inside the frame loop returns these.
var (
	ErrNilCallback      = errors.New("callback: nil callback function")
	ErrNegativeInterval = errors.New("callback: negative timer interval")
	ErrNilThreadFunc    = errors.New("callback: nil thread function")
)

// Func is the signature of node and window callbacks.
type Func func(info *Info, data any) Update

// Callback is a callback function closed over its payload. The engine only
// ever calls Fn(info, Data) and never inspects Data.
type Callback struct {
	Fn   Func
	Data any
}

// IFrameFunc produces the content of an IFrame host.
type IFrameFunc func(info *IFrameInfo, data any) scroll.Result

// IFrameCallback is an IFrame producer closed over its payload.
type IFrameCallback struct {
	Fn   IFrameFunc
	Data any
}

type nodeKey struct {
	id dom.DomNodeID
	t  events.EventType
}

// Registry stores every callback of a window.
type Registry struct {
	nodes   map[nodeKey][]Callback
	window  map[events.EventType][]Callback
	iframes map[dom.DomNodeID]IFrameCallback
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:   make(map[nodeKey][]Callback),
		window:  make(map[events.EventType][]Callback),
		iframes: make(map[dom.DomNodeID]IFrameCallback),
	}
}

// On registers a node callback for one event type.
func (r *Registry) On(id dom.DomNodeID, t events.EventType, cb Callback) error {
	if cb.Fn == nil {
		return fmt.Errorf("register %v on %v: %w", t, id, ErrNilCallback)
	}
	k := nodeKey{id: id, t: t}
	r.nodes[k] = append(r.nodes[k], cb)
	return nil
}

// OnWindow registers a window callback for one event type.
func (r *Registry) OnWindow(t events.EventType, cb Callback) error {
	if cb.Fn == nil {
		return fmt.Errorf("register window %v: %w", t, ErrNilCallback)
	}
	r.window[t] = append(r.window[t], cb)
	return nil
}

// SetIFrame registers the content producer of an IFrame host.
func (r *Registry) SetIFrame(id dom.DomNodeID, cb IFrameCallback) error {
	if cb.Fn == nil {
		return fmt.Errorf("register iframe %v: %w", id, ErrNilCallback)
	}
	r.iframes[id] = cb
	return nil
}

// IFrame returns the producer of an IFrame host.
func (r *Registry) IFrame(id dom.DomNodeID) (IFrameCallback, bool) {
	cb, ok := r.iframes[id]
	return cb, ok
}

// Node returns the callbacks of one node for one event type, in
// registration order.
func (r *Registry) Node(id dom.DomNodeID, t events.EventType) []Callback {
	return r.nodes[nodeKey{id: id, t: t}]
}

// Window returns the window callbacks for one event type, in registration order.
func (r *Registry) Window(t events.EventType) []Callback {
	return r.window[t]
}

// Off removes every node callback of one node.
func (r *Registry) Off(id dom.DomNodeID) {
	for k := range r.nodes {
		if k.id == id {
			delete(r.nodes, k)
		}
	}
	delete(r.iframes, id)
}

// ClearDom drops the node and IFrame callbacks of a rebuilt DOM. The new DOM
// registers its callbacks again.
func (r *Registry) ClearDom(d dom.DomID) {
	for k := range r.nodes {
		if k.id.Dom == d {
			delete(r.nodes, k)
		}
	}
	for id := range r.iframes {
		if id.Dom == d {
			delete(r.iframes, id)
		}
	}
}

// Len returns the number of node and window registrations.
func (r *Registry) Len() int {
	n := 0
	for _, cbs := range r.nodes {
		n += len(cbs)
	}
	for _, cbs := range r.window {
		n += len(cbs)
	}
	return n
}
