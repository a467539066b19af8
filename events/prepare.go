package events

import (
	"math"
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/hittest"
)

// Prepare annotates a freshly folded snapshot with everything Diff needs that
// spans more than two snapshots: the hover chain from the hit test, the left
// button press bookkeeping used for Click/DoubleClick, and the drag state
// machine. raw is not modified.
func Prepare(prev, raw WindowState, hit hittest.Result, cfg Config, now time.Time) WindowState {
	cur := raw.Clone()
	cur.Hover = HoverState{Chain: append([]dom.DomNodeID(nil), hit.Hovered...), Scrollbar: hit.Scrollbar}
	if !cur.Mouse.Inside {
		cur.Hover = HoverState{}
	}

	cur.Press = nextPress(prev, &cur, cfg, now)
	cur.Drag = nextDrag(prev, &cur, cfg)
	if cur.Drag.Phase == DragStarted {
		// A drag never ends in a click, and one press starts at most one drag.
		cur.Press.Clean = false
		cur.Press.Dragged = true
	}
	return cur
}

func nextPress(prev WindowState, cur *WindowState, cfg Config, now time.Time) PressState {
	p := prev.Press.clone()
	p.Released = false
	inner := cur.Hover.Innermost()
	pos := cur.Mouse.Position

	switch {
	case !prev.Mouse.Left && cur.Mouse.Left:
		clicks := 1
		if p.LastNode != nil && dom.Equal(p.LastNode, inner) &&
			now.Sub(p.LastAt) <= cfg.DoubleClickWindow &&
			distance(p.LastPos, pos) <= cfg.DoubleClickDistance {
			clicks = p.LastClicks + 1
		}
		p = PressState{
			Active:     true,
			Node:       clonePtr(inner),
			Origin:     pos,
			At:         now,
			Clean:      inner != nil,
			Scrollbar:  clonePtr(cur.Hover.Scrollbar),
			Clicks:     clicks,
			LastNode:   p.LastNode,
			LastAt:     p.LastAt,
			LastPos:    p.LastPos,
			LastClicks: p.LastClicks,
		}

	case prev.Mouse.Left && cur.Mouse.Left:
		if !dom.Equal(prev.Hover.Innermost(), inner) {
			p.Clean = false
		}

	case prev.Mouse.Left && !cur.Mouse.Left:
		if !dom.Equal(prev.Hover.Innermost(), inner) {
			p.Clean = false
		}
		p.Active = false
		p.Released = true
		if p.Clean && p.Scrollbar == nil && dom.Equal(p.Node, inner) {
			p.LastNode = clonePtr(inner)
			p.LastAt = now
			p.LastPos = pos
			p.LastClicks = p.Clicks
		} else {
			p.LastNode = nil
			p.LastClicks = 0
		}

	default:
		p.Active = false
		p.Scrollbar = nil
	}
	return p
}

func nextDrag(prev WindowState, cur *WindowState, cfg Config) DragState {
	d := prev.Drag
	d.Source = clonePtr(d.Source)
	d.Target = clonePtr(d.Target)
	inner := cur.Hover.Innermost()

	switch d.Phase {
	case NotDragging:
		d.Ended = false
		d.Cancelled = false
		d.Target = nil
		p := cur.Press
		if cur.Mouse.Left && p.Active && !p.Dragged && p.Scrollbar == nil && p.Node != nil && !cur.DragCancel &&
			distance(p.Origin, cur.Mouse.Position) >= cfg.DragThreshold {
			d = DragState{
				Phase:  DragStarted,
				Source: clonePtr(p.Node),
				Origin: p.Origin,
				Target: clonePtr(inner),
			}
		}

	case DragStarted, Dragging:
		d.Target = clonePtr(inner)
		switch {
		case cur.DragCancel:
			d.Phase = NotDragging
			d.Ended = true
			d.Cancelled = true
		case !cur.Mouse.Left:
			d.Phase = NotDragging
			d.Ended = true
		default:
			d.Phase = Dragging
		}
	}
	return d
}

func (p PressState) clone() PressState {
	c := p
	c.Node = clonePtr(p.Node)
	c.LastNode = clonePtr(p.LastNode)
	c.Scrollbar = clonePtr(p.Scrollbar)
	return c
}

func distance(a, b dom.Position) float32 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return float32(math.Hypot(dx, dy))
}
