package frame

import (
	"time"

	"github.com/agiangrant/framecore/callback"
	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/scroll"
)

// runIFrames evaluates every IFrame host in id order and invokes the due
// producers. Each host runs at most once per frame. Deferred programmatic
// scrolls are applied after their host's producer ran.
func (l *Loop) runIFrames(rep *Report, now time.Time) {
	for _, host := range l.iframeHosts() {
		node, _ := l.layout.Node(host)
		in := scroll.Input{
			Viewport: node.Rect.Size(),
			Offset:   l.scroll.Offset(host),
			Rebuilt:  l.rebuilt[host.Dom],
		}

		target, deferred := l.overscroll[host]
		reason := l.iframes.Evaluate(host, in)
		if deferred {
			reason = scroll.ProgrammaticOverscroll
		}
		if reason != scroll.ReasonNone {
			l.invokeIFrame(rep, host, in, reason, now)
		}
		if deferred {
			delete(l.overscroll, host)
			l.scroll.SetScrollPosition(host, target)
		}
	}
	// Scrolls requested by producers that ran later in this pass.
	for host, target := range l.overscroll {
		l.scroll.SetScrollPosition(host, target)
	}
	clear(l.overscroll)
}

func (l *Loop) iframeHosts() []dom.DomNodeID {
	var hosts []dom.DomNodeID
	for _, d := range l.layout.DomIDs() {
		res, _ := l.layout.Dom(d)
		for i := range res.Nodes {
			if res.Nodes[i].IFrame {
				hosts = append(hosts, dom.ID(d, dom.NodeID(i)))
			}
		}
	}
	return hosts
}

func (l *Loop) invokeIFrame(rep *Report, host dom.DomNodeID, in scroll.Input, reason scroll.Reason, now time.Time) {
	st, _ := l.iframes.State(host)
	bounds, _ := hittest.WindowRect(l.layout, l.scroll, host)

	res, ok := l.engine.InvokeIFrame(callback.IFrameInfo{
		Reason:       reason,
		Host:         host,
		Bounds:       bounds,
		Viewport:     in.Viewport,
		Offset:       in.Offset,
		ActualSize:   st.ActualSize,
		ActualOffset: st.ActualOffset,
		VirtualSize:  st.VirtualSize,
		NestedDom:    st.NestedDom,
	}, now)
	if !ok {
		return
	}

	applied, clamped := l.iframes.ApplyResult(host, res, in)
	if clamped {
		rep.Diagnostics = append(rep.Diagnostics, callback.Diagnostic{
			Kind:    callback.InvalidCallbackResult,
			Node:    host.Ptr(),
			Message: "iframe result clamped",
		})
	}
	rep.IFrames = append(rep.IFrames, IFrameInvocation{Host: host, Reason: reason, Updated: applied.Update})
	if !applied.Update {
		return
	}
	l.scroll.SetVirtualContentSize(host, applied.VirtualSize)
	l.provider.ReplaceSubtree(host, applied.Subtree)
}
