// Package trace reads recorded window input as YAML and replays it through a
// frame loop against a static layout.
package trace

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agiangrant/framecore/callback"
	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
)

var (
	ErrUnknownEvent  = errors.New("unknown event kind")
	ErrUnknownUpdate = errors.New("unknown update")
	ErrBadNode       = errors.New("node reference out of range")
)

// Trace is one recorded session.
type Trace struct {
	Name      string     `yaml:"name"`
	Doms      []Dom      `yaml:"doms"`
	Callbacks []Callback `yaml:"callbacks"`
	Frames    []Frame    `yaml:"frames"`
}

// Dom is one laid-out DOM. Node ids are indexes into Nodes.
type Dom struct {
	ID         uint32 `yaml:"id"`
	Generation uint64 `yaml:"generation"`

	// Host is the [dom, node] pair of the IFrame this DOM renders into.
	Host *[2]uint32 `yaml:"host,omitempty"`

	Nodes []Node `yaml:"nodes"`
}

// Node is one laid-out node. Rect is x, y, width, height relative to the DOM.
type Node struct {
	Tag       string     `yaml:"tag"`
	Parent    *uint32    `yaml:"parent,omitempty"`
	Children  []uint32   `yaml:"children,omitempty"`
	Rect      [4]float32 `yaml:"rect"`
	Cursor    string     `yaml:"cursor,omitempty"`
	Focusable bool       `yaml:"focusable,omitempty"`
	IFrame    bool       `yaml:"iframe,omitempty"`
	Scroll    *Scroll    `yaml:"scroll,omitempty"`
	Images    []uint64   `yaml:"images,omitempty"`
}

type Scroll struct {
	Content [2]float32 `yaml:"content"`
	X       bool       `yaml:"x"`
	Y       bool       `yaml:"y"`
}

// Callback registers a canned response. Without a node it is a window
// callback.
type Callback struct {
	Node           *[2]uint32 `yaml:"node,omitempty"`
	Event          string     `yaml:"event"`
	Update         string     `yaml:"update,omitempty"`
	PreventDefault bool       `yaml:"prevent_default,omitempty"`
}

// Frame is the input submitted before one RunFrame call.
type Frame struct {
	// AtMs is the frame time relative to the start of the trace.
	AtMs   int64   `yaml:"at_ms"`
	Events []Input `yaml:"events,omitempty"`
}

// Input is one raw event. Kind is an events.ExternalKind name.
type Input struct {
	Kind   string  `yaml:"kind"`
	X      float32 `yaml:"x,omitempty"`
	Y      float32 `yaml:"y,omitempty"`
	DX     float32 `yaml:"dx,omitempty"`
	DY     float32 `yaml:"dy,omitempty"`
	Width  float32 `yaml:"width,omitempty"`
	Height float32 `yaml:"height,omitempty"`
	Button string  `yaml:"button,omitempty"`
	On     bool    `yaml:"on,omitempty"`
	Lines  bool    `yaml:"lines,omitempty"`
	Key    string  `yaml:"key,omitempty"`
	Text   string  `yaml:"text,omitempty"`

	// Node is the target of a focus event; nil clears focus.
	Node *[2]uint32 `yaml:"node,omitempty"`
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML trace.
func Parse(data []byte) (*Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Layout builds the static layout of the trace.
func (t *Trace) Layout() (*dom.Layout, error) {
	results := make([]*dom.LayoutResult, 0, len(t.Doms))
	for _, d := range t.Doms {
		res := &dom.LayoutResult{
			Dom:        dom.DomID(d.ID),
			Generation: d.Generation,
			Nodes:      make([]dom.Node, len(d.Nodes)),
		}
		if d.Host != nil {
			res.Host = ref(*d.Host).Ptr()
		}
		for i, n := range d.Nodes {
			node := dom.Node{
				Parent:    dom.NoNode,
				Rect:      dom.Rect{X: n.Rect[0], Y: n.Rect[1], Width: n.Rect[2], Height: n.Rect[3]},
				Cursor:    dom.CursorByName(n.Cursor),
				Focusable: n.Focusable,
				IFrame:    n.IFrame,
				Tag:       n.Tag,
			}
			if n.Parent != nil {
				if int(*n.Parent) >= len(d.Nodes) {
					return nil, fmt.Errorf("dom %d node %d parent %d: %w", d.ID, i, *n.Parent, ErrBadNode)
				}
				node.Parent = dom.NodeID(*n.Parent)
			}
			for _, c := range n.Children {
				if int(c) >= len(d.Nodes) {
					return nil, fmt.Errorf("dom %d node %d child %d: %w", d.ID, i, c, ErrBadNode)
				}
				node.Children = append(node.Children, dom.NodeID(c))
			}
			if n.Scroll != nil {
				node.Scroll = &dom.ScrollFrame{
					ContentSize: dom.Size{Width: n.Scroll.Content[0], Height: n.Scroll.Content[1]},
					ScrollX:     n.Scroll.X,
					ScrollY:     n.Scroll.Y,
				}
			}
			for _, k := range n.Images {
				node.Images = append(node.Images, dom.ImageKey(k))
			}
			res.Nodes[i] = node
		}
		results = append(results, res)
	}
	return dom.NewLayout(results...), nil
}

// Register installs the canned callbacks.
func (t *Trace) Register(r *callback.Registry) error {
	for i, c := range t.Callbacks {
		et := events.EventTypeByName(c.Event)
		if et == 0 {
			return fmt.Errorf("callback %d %q: %w", i, c.Event, ErrUnknownEvent)
		}
		update, err := parseUpdate(c.Update)
		if err != nil {
			return fmt.Errorf("callback %d: %w", i, err)
		}
		prevent := c.PreventDefault
		cb := callback.Callback{Fn: func(info *callback.Info, _ any) callback.Update {
			if prevent {
				info.PreventDefault()
			}
			return update
		}}

		if c.Node == nil {
			err = r.OnWindow(et, cb)
		} else {
			err = r.On(ref(*c.Node), et, cb)
		}
		if err != nil {
			return fmt.Errorf("callback %d: %w", i, err)
		}
	}
	return nil
}

// Inputs converts the raw events of one frame.
func (f Frame) Inputs() ([]events.ExternalEvent, error) {
	out := make([]events.ExternalEvent, 0, len(f.Events))
	for _, in := range f.Events {
		kind := events.ExternalKindByName(in.Kind)
		if kind == 0 {
			return nil, fmt.Errorf("input %q: %w", in.Kind, ErrUnknownEvent)
		}
		e := events.ExternalEvent{
			Kind:       kind,
			Size:       dom.Size{Width: in.Width, Height: in.Height},
			Position:   dom.Position{X: in.X, Y: in.Y},
			On:         in.On,
			Button:     parseButton(in.Button),
			Delta:      dom.Position{X: in.DX, Y: in.DY},
			WheelLines: in.Lines,
			Key:        in.Key,
			Text:       in.Text,
		}
		if in.Node != nil {
			e.Node = ref(*in.Node).Ptr()
		}
		out = append(out, e)
	}
	return out, nil
}

// At returns the frame time relative to start.
func (f Frame) At(start time.Time) time.Time {
	return start.Add(time.Duration(f.AtMs) * time.Millisecond)
}

func ref(r [2]uint32) dom.DomNodeID {
	return dom.ID(dom.DomID(r[0]), dom.NodeID(r[1]))
}

func parseUpdate(name string) (callback.Update, error) {
	if name == "" {
		return callback.DoNothing, nil
	}
	for u := callback.DoNothing; u.Valid(); u++ {
		if u.String() == name {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownUpdate)
}

func parseButton(name string) events.MouseButton {
	for _, b := range [...]events.MouseButton{events.MouseButtonLeft, events.MouseButtonRight, events.MouseButtonMiddle} {
		if b.String() == name {
			return b
		}
	}
	return events.MouseButtonNone
}
