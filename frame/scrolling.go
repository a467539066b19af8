package frame

import (
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/scroll"
)

// ============================================================================
// Default Scroll Handling
// ============================================================================

// scrollbarInteraction routes a left press that began on a scrollbar to the
// scroll manager. A press on the thumb starts a drag that maps pointer travel
// onto the scrollable range; a press on the track pages by one viewport
// toward the pointer.
func (l *Loop) scrollbarInteraction(prev, cur events.WindowState, now time.Time) {
	if !cur.Mouse.Left {
		l.drag = nil
		return
	}
	hit := cur.Press.Scrollbar
	if hit == nil {
		return
	}

	if !prev.Mouse.Left {
		l.pressScrollbar(*hit, cur.Mouse.Position, now)
		return
	}

	d := l.drag
	if d == nil {
		return
	}
	a := d.hit.Orientation.Axis()
	travel := l.resolver.ThumbTravel(d.geometry, d.hit.Orientation)
	scrollable := d.extent.Axis(a) - d.viewport.Axis(a)
	if travel <= 0 || scrollable <= 0 {
		return
	}
	moved := cur.Mouse.Position.Axis(a) - d.origin.Axis(a)
	target := d.startOffset
	if a == dom.AxisX {
		target.X += moved * scrollable / travel
	} else {
		target.Y += moved * scrollable / travel
	}
	l.scroll.ScrollTo(d.hit.NodeID(), target, 0, nil, now)
}

func (l *Loop) pressScrollbar(hit hittest.ScrollbarHitID, pos dom.Position, now time.Time) {
	id := hit.NodeID()
	st, ok := l.scroll.State(id)
	if !ok {
		return
	}
	rect, ok := hittest.WindowRect(l.layout, l.scroll, id)
	if !ok {
		return
	}
	geom := l.resolver.Scrollbar(rect, st.Extent(), st.Offset, hit.Orientation)
	if !geom.Visible {
		return
	}

	if hit.Component == hittest.ComponentThumb {
		l.drag = &scrollbarDrag{
			hit:         hit,
			origin:      pos,
			startOffset: st.Offset,
			geometry:    geom,
			extent:      st.Extent(),
			viewport:    st.ViewportSize,
		}
		return
	}

	a := hit.Orientation.Axis()
	page := st.ViewportSize.Axis(a)
	if pos.Axis(a) < geom.Thumb.Origin().Axis(a) {
		page = -page
	}
	var delta dom.Position
	if a == dom.AxisX {
		delta.X = page
	} else {
		delta.Y = page
	}
	l.scroll.ProcessScrollRequest(scroll.Request{
		ID:       id,
		Delta:    delta,
		Source:   scroll.SourceScrollbar,
		Duration: l.scroll.Config().Duration,
	}, now)
}

func (l *Loop) dragHit() *hittest.ScrollbarHitID {
	if l.drag == nil {
		return nil
	}
	h := l.drag.hit
	return &h
}

// wheelScroll scrolls the innermost hovered container that can move in the
// wheel's direction.
func (l *Loop) wheelScroll(cur events.WindowState, now time.Time) {
	delta := l.scroll.WheelDelta(cur.Mouse.Wheel, cur.Mouse.WheelLines)
	for _, id := range cur.Hover.Chain {
		st, ok := l.scroll.State(id)
		if !ok || !canScroll(st, delta) {
			continue
		}
		l.scroll.ProcessScrollRequest(scroll.Request{
			ID:     id,
			Delta:  delta,
			Source: scroll.SourceWheel,
		}, now)
		return
	}
}

func canScroll(st scroll.State, delta dom.Position) bool {
	limit := st.MaxOffset()
	for _, a := range dom.Axes {
		d := delta.Axis(a)
		off := st.Offset.Axis(a)
		if d > 0 && off < limit.Axis(a) {
			return true
		}
		if d < 0 && off > 0 {
			return true
		}
	}
	return false
}

// setScrollPosition is the absolute scroll path of callbacks. A scroll that
// leaves an IFrame's materialized content is deferred until the IFrame
// producer ran for it this frame.
func (l *Loop) setScrollPosition(id dom.DomNodeID, pos dom.Position) bool {
	if n, ok := l.layout.Node(id); ok && n.IFrame {
		if st, ok := l.scroll.State(id); ok {
			if l.iframes.CheckOverscroll(id, pos, st.ViewportSize) == scroll.ProgrammaticOverscroll {
				l.overscroll[id] = pos
				return true
			}
		}
	}
	if _, ok := l.overscroll[id]; ok {
		l.overscroll[id] = pos
		return true
	}
	return l.scroll.SetScrollPosition(id, pos)
}
