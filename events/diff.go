package events

import (
	"github.com/agiangrant/framecore/dom"
)

// Diff compares two prepared snapshots and returns the semantic events in a
// fixed order:
//
//  1. window:  one EventWindow with the changed-field bitset
//  2. hover:   MouseLeave, MouseEnter, MouseOver, then MouseDown/MouseUp per
//     button (left, right, middle) with Click/DoubleClick after the left
//     MouseUp, then Scroll
//  3. focus:   FocusOut, FocusIn, KeyUp, KeyDown (keys sorted), TextInput
//  4. drag:    DragStart, DragLeave, DragEnter, DragOver, Drag, DragEnd, Drop
//
// Diff only reads its arguments and never iterates a map.
func Diff(prev, cur WindowState) []Event {
	var out []Event
	out = diffWindow(out, prev, cur)
	out = diffHover(out, prev, cur)
	out = diffFocus(out, prev, cur)
	out = diffDrag(out, prev, cur)
	return out
}

func diffWindow(out []Event, prev, cur WindowState) []Event {
	var c ChangedFields
	if prev.Size != cur.Size {
		c |= ChangedSize
	}
	if prev.Position != cur.Position {
		c |= ChangedPosition
	}
	if prev.DPI != cur.DPI {
		c |= ChangedDPI
	}
	pf, cf := prev.Flags, cur.Flags
	if pf.Focused != cf.Focused {
		c |= ChangedFocused
	}
	if pf.Minimized != cf.Minimized {
		c |= ChangedMinimized
	}
	if pf.Maximized != cf.Maximized {
		c |= ChangedMaximized
	}
	if pf.Fullscreen != cf.Fullscreen {
		c |= ChangedFullscreen
	}
	if pf.Visible != cf.Visible {
		c |= ChangedVisible
	}
	if pf.Decorated != cf.Decorated {
		c |= ChangedDecorated
	}
	if prev.Theme != cur.Theme {
		c |= ChangedTheme
	}
	if pf.CloseRequested != cf.CloseRequested {
		c |= ChangedCloseRequested
	}
	if c == 0 {
		return out
	}
	return append(out, Event{Type: EventWindow, Changed: c})
}

func diffHover(out []Event, prev, cur WindowState) []Event {
	pos := cur.Mouse.Position
	mods := cur.Keyboard.Modifiers
	old := prev.Hover.Innermost()
	now := cur.Hover.Innermost()

	mouse := func(t EventType, target *dom.DomNodeID) Event {
		return Event{Type: t, Target: target, Position: pos, Modifiers: mods}
	}

	if !dom.Equal(old, now) {
		if old != nil {
			out = append(out, mouse(EventMouseLeave, old))
		}
		if now != nil {
			out = append(out, mouse(EventMouseEnter, now))
			out = append(out, mouse(EventMouseOver, now))
		}
	} else if now != nil && prev.Mouse.Position != pos {
		out = append(out, mouse(EventMouseOver, now))
	}

	// Presses that began on a scrollbar belong to the scrollbar, not the DOM.
	onScrollbar := cur.Press.Scrollbar != nil
	for _, b := range [...]MouseButton{MouseButtonLeft, MouseButtonRight, MouseButtonMiddle} {
		was, is := prev.Mouse.Down(b), cur.Mouse.Down(b)
		if b == MouseButtonLeft && onScrollbar && was != is {
			continue
		}
		switch {
		case !was && is:
			e := mouse(EventMouseDown, now)
			e.Button = b
			out = append(out, e)
		case was && !is:
			e := mouse(EventMouseUp, now)
			e.Button = b
			out = append(out, e)
			if b == MouseButtonLeft {
				out = appendClick(out, cur, e)
			}
		}
	}

	if !cur.Mouse.Wheel.IsZero() {
		e := mouse(EventScroll, now)
		e.Delta = cur.Mouse.Wheel
		out = append(out, e)
	}
	return out
}

func appendClick(out []Event, cur WindowState, up Event) []Event {
	p := cur.Press
	if !p.Released || !p.Clean || p.Node == nil || !dom.Equal(p.Node, up.Target) {
		return out
	}
	click := up
	click.Type = EventClick
	click.Clicks = p.Clicks
	out = append(out, click)
	if p.Clicks == 2 {
		dbl := click
		dbl.Type = EventDoubleClick
		out = append(out, dbl)
	}
	return out
}

func diffFocus(out []Event, prev, cur WindowState) []Event {
	mods := cur.Keyboard.Modifiers
	if !dom.Equal(prev.Focus, cur.Focus) {
		if prev.Focus != nil {
			out = append(out, Event{Type: EventFocusOut, Target: clonePtr(prev.Focus), Modifiers: mods})
		}
		if cur.Focus != nil {
			out = append(out, Event{Type: EventFocusIn, Target: clonePtr(cur.Focus), Modifiers: mods})
		}
	}

	target := cur.Focus
	for _, k := range sortedMinus(prev.Keyboard.Pressed, cur.Keyboard.Pressed) {
		out = append(out, Event{Type: EventKeyUp, Target: clonePtr(target), Key: k, Modifiers: mods})
	}
	for _, k := range sortedMinus(cur.Keyboard.Pressed, prev.Keyboard.Pressed) {
		out = append(out, Event{Type: EventKeyDown, Target: clonePtr(target), Key: k, Modifiers: mods})
	}
	for _, r := range cur.Keyboard.Text {
		out = append(out, Event{Type: EventTextInput, Target: clonePtr(target), Text: string(r), Modifiers: mods})
	}
	return out
}

func diffDrag(out []Event, prev, cur WindowState) []Event {
	pd, cd := prev.Drag, cur.Drag
	pos := cur.Mouse.Position
	drag := func(t EventType, target *dom.DomNodeID) Event {
		return Event{Type: t, Target: clonePtr(target), Position: pos, Button: MouseButtonLeft, Modifiers: cur.Keyboard.Modifiers}
	}

	if cd.Phase == DragStarted {
		out = append(out, drag(EventDragStart, cd.Source))
	}
	if !cd.Active() && !cd.Ended {
		return out
	}

	// The drag target is diffed the way the hovered node is.
	var oldTarget *dom.DomNodeID
	if pd.Active() {
		oldTarget = pd.Target
	}
	if !dom.Equal(oldTarget, cd.Target) {
		if oldTarget != nil {
			out = append(out, drag(EventDragLeave, oldTarget))
		}
		if cd.Target != nil && !cd.Ended {
			out = append(out, drag(EventDragEnter, cd.Target))
		}
	}
	if cd.Active() && cd.Target != nil && (!dom.Equal(oldTarget, cd.Target) || prev.Mouse.Position != pos) {
		out = append(out, drag(EventDragOver, cd.Target))
	}
	if cd.Active() && (cd.Phase == DragStarted || prev.Mouse.Position != pos) {
		e := drag(EventDrag, cd.Source)
		e.Delta = pos.Sub(prev.Mouse.Position)
		out = append(out, e)
	}

	if cd.Ended {
		out = append(out, drag(EventDragEnd, cd.Source))
		if !cd.Cancelled && cd.Target != nil {
			out = append(out, drag(EventDrop, cd.Target))
		}
	}
	return out
}

// sortedMinus returns the elements of a that are not in b. Both are sorted.
func sortedMinus(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] == b[j]:
			i++
			j++
		default:
			j++
		}
	}
	return out
}
