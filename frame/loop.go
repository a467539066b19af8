// Package frame orchestrates one window's frame: folding raw input, hit
// testing, event synthesis, callback dispatch, timers, worker messages,
// scroll animation, IFrame re-invocation and resource collection.
package frame

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/agiangrant/framecore/callback"
	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/gpu"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/resources"
	"github.com/agiangrant/framecore/scroll"
)

// LoopConfig configures the frame loop and every subsystem it owns.
type LoopConfig struct {
	Events   events.Config
	HitTest  hittest.Config
	Scroll   scroll.Config
	Callback callback.Config

	// FocusOnClick moves focus to the nearest focusable ancestor of a left
	// press unless a callback prevented the default.
	FocusOnClick bool

	Logger *slog.Logger
}

// DefaultLoopConfig returns sensible defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Events:       events.DefaultConfig(),
		HitTest:      hittest.DefaultConfig(),
		Scroll:       scroll.DefaultConfig(),
		Callback:     callback.DefaultConfig(),
		FocusOnClick: true,
	}
}

// scrollbarDrag is an active thumb drag.
type scrollbarDrag struct {
	hit         hittest.ScrollbarHitID
	origin      dom.Position
	startOffset dom.Position
	geometry    hittest.ScrollbarGeometry
	extent      dom.Size
	viewport    dom.Size
}

// Loop runs frames for one window. RunFrame, BeginFrame and Close must be
// called from one goroutine; SubmitExternalEvent and SubmitSnapshot are safe
// from any goroutine.
type Loop struct {
	config   LoopConfig
	logger   *slog.Logger
	provider dom.Provider

	// Input submitted since the last frame.
	mu      sync.Mutex
	pending events.WindowState
	queue   []events.ExternalEvent

	resolver *hittest.Resolver
	scroll   *scroll.Manager
	iframes  *scroll.IFrames
	gpu      *gpu.Cache
	engine   *callback.Engine
	tracker  *resources.Tracker

	// Frame state, owned by the frame goroutine.
	layout      *dom.Layout
	prev        events.WindowState
	generations map[dom.DomID]uint64
	rebuilt     map[dom.DomID]bool
	hadNewDoms  bool
	begun       bool
	cursor      dom.CursorIcon
	drag        *scrollbarDrag
	overscroll  map[dom.DomNodeID]dom.Position
	focusReq    *focusRequest
	frames      uint64
}

type focusRequest struct {
	node *dom.DomNodeID
}

// NewLoop creates a loop reading geometry from provider. holder is the
// renderer's resource store; nil disables resource deletion.
func NewLoop(provider dom.Provider, holder resources.Holder, config LoopConfig) *Loop {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Scroll.Logger == nil {
		config.Scroll.Logger = logger
	}
	if config.Callback.Logger == nil {
		config.Callback.Logger = logger
	}

	l := &Loop{
		config:      config,
		logger:      logger,
		provider:    provider,
		resolver:    hittest.NewResolver(config.HitTest),
		scroll:      scroll.NewManager(config.Scroll),
		iframes:     scroll.NewIFrames(config.Scroll),
		gpu:         gpu.NewCache(),
		tracker:     resources.NewTracker(holder, logger),
		generations: make(map[dom.DomID]uint64),
		rebuilt:     make(map[dom.DomID]bool),
		overscroll:  make(map[dom.DomNodeID]dom.Position),
		cursor:      dom.CursorDefault,
	}
	l.engine = callback.NewEngine(callback.Env{
		Layout:            func() *dom.Layout { return l.layout },
		Scroll:            l.scroll,
		GPU:               l.gpu,
		SetScrollPosition: l.setScrollPosition,
	}, config.Callback)
	return l
}

// Engine returns the callback engine.
func (l *Loop) Engine() *callback.Engine { return l.engine }

// Registry returns the callback registry.
func (l *Loop) Registry() *callback.Registry { return l.engine.Registry() }

// Timers returns the timer set.
func (l *Loop) Timers() *callback.Timers { return l.engine.Timers() }

// Threads returns the worker supervisor.
func (l *Loop) Threads() *callback.Threads { return l.engine.Threads() }

// Scroll returns the scroll manager.
func (l *Loop) Scroll() *scroll.Manager { return l.scroll }

// IFrames returns the IFrame tracker.
func (l *Loop) IFrames() *scroll.IFrames { return l.iframes }

// GPU returns the GPU value cache.
func (l *Loop) GPU() *gpu.Cache { return l.gpu }

// Snapshot returns the snapshot the last frame was diffed against.
func (l *Loop) Snapshot() events.WindowState { return l.prev.Clone() }

// BeginFrame resets the transient per-frame flags. Persistent IFrame flags
// survive. RunFrame calls it when the caller did not.
func (l *Loop) BeginFrame() {
	l.scroll.BeginFrame()
	l.iframes.BeginFrame()
	l.hadNewDoms = false
	clear(l.rebuilt)
	l.begun = true
}

// SubmitExternalEvent queues one raw event for the next frame.
func (l *Loop) SubmitExternalEvent(e events.ExternalEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, e)
}

// SubmitSnapshot replaces the pending raw snapshot. Events queued before it
// are dropped; annotations in ws are recomputed.
func (l *Loop) SubmitSnapshot(ws events.WindowState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = ws.Clone()
	l.queue = nil
}

// Close stops every worker thread and waits for them.
func (l *Loop) Close() error {
	return l.engine.Close()
}

// ============================================================================
// Frame
// ============================================================================

// RunFrame executes one frame at now. It never returns an error: problems
// surface as diagnostics in the report.
func (l *Loop) RunFrame(now time.Time) Report {
	if !l.begun {
		l.BeginFrame()
	}
	l.begun = false
	l.frames++
	rep := Report{Number: l.frames}

	l.syncLayout()
	l.engine.BeginFrame(l.prev)

	var hit hittest.Result
	for _, raw := range l.takeInput() {
		hit = l.runInput(&rep, raw, now)
	}
	l.applyDirectives(&rep)

	l.engine.RunTimers(now)
	l.engine.PollThreads(now)
	l.applyDirectives(&rep)

	tick := l.scroll.Tick(now)

	l.runIFrames(&rep, now)
	l.applyDirectives(&rep)

	l.collectResources(&rep)

	rep.Cursor = hittest.ResolveCursor(l.layout, hit)
	if l.drag != nil {
		rep.Cursor = dom.CursorDefault
	}
	rep.CursorChanged = rep.Cursor != l.cursor
	l.cursor = rep.Cursor

	rep.GpuUpdates = l.gpu.TakeUpdates()
	scrolled := l.scroll.TakeDirty()

	l.finish(&rep, tick, scrolled, now)
	return rep
}

// runInput diffs one input segment against the previous snapshot and
// dispatches the resulting events, followed by the default actions they did
// not prevent.
func (l *Loop) runInput(rep *Report, raw events.WindowState, now time.Time) hittest.Result {
	var hit hittest.Result
	if raw.Mouse.Inside {
		hit = l.resolver.HitTest(l.layout, l.scroll, raw.Mouse.Position)
	}
	cur := events.Prepare(l.prev, raw, hit, l.config.Events, now)
	evs := events.Diff(l.prev, cur)
	rep.Events = append(rep.Events, evs...)

	l.engine.SetSnapshot(cur)
	wheelPrevented := false
	for _, ev := range evs {
		res := l.engine.Dispatch(ev, now)
		switch ev.Type {
		case events.EventScroll:
			wheelPrevented = wheelPrevented || res.PreventDefault
		case events.EventMouseDown:
			if ev.Button == events.MouseButtonLeft && !res.PreventDefault && l.config.FocusOnClick {
				l.focusOnPress(ev.Target)
			}
		}
	}

	l.scrollbarInteraction(l.prev, cur, now)
	rep.ScrollbarDrag = l.dragHit()
	if !wheelPrevented && !cur.Mouse.Wheel.IsZero() && cur.Press.Scrollbar == nil {
		l.wheelScroll(cur, now)
	}
	l.prev = cur
	return hit
}

// syncLayout fetches the layout and detects DOMs that were rebuilt since the
// last frame. A rebuilt DOM drops its GPU values.
func (l *Loop) syncLayout() {
	l.layout = l.provider.Layout()
	seen := make(map[dom.DomID]bool)
	for _, d := range l.layout.DomIDs() {
		seen[d] = true
		res, _ := l.layout.Dom(d)
		gen, known := l.generations[d]
		switch {
		case !known:
			l.hadNewDoms = true
		case gen != res.Generation:
			l.rebuilt[d] = true
			l.gpu.Invalidate(d)
		}
		l.generations[d] = res.Generation
	}
	for d := range l.generations {
		if !seen[d] {
			delete(l.generations, d)
			l.gpu.Invalidate(d)
		}
	}

	l.scroll.Sync(l.layout)
	l.iframes.Prune(l.layout)
}

// takeInput folds the queued raw events into the pending snapshot, one
// snapshot per input segment. The pending snapshot keeps held state
// (buttons, keys, focus) for the next frame but loses per-frame deltas.
func (l *Loop) takeInput() []events.WindowState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.focusReq != nil {
		l.pending.Focus = l.focusReq.node
		l.focusReq = nil
	}
	segs := events.Split(l.pending, l.queue)
	l.queue = nil

	raws := make([]events.WindowState, 0, len(segs))
	for _, seg := range segs {
		raw := events.Fold(l.pending, seg)
		if raw.Focus != nil {
			if _, ok := l.layout.Node(*raw.Focus); !ok {
				l.logger.Debug("stale reference", slog.String("node", raw.Focus.String()), slog.String("op", "focus"))
				raw.Focus = nil
			}
		}
		l.pending = raw.Clone()
		l.pending.ClearTransient()
		raws = append(raws, raw)
	}
	return raws
}

func (l *Loop) focusOnPress(target *dom.DomNodeID) {
	if target == nil {
		l.focusReq = &focusRequest{}
		return
	}
	id := *target
	for {
		if n, ok := l.layout.Node(id); ok && n.Focusable {
			l.focusReq = &focusRequest{node: id.Ptr()}
			return
		}
		parent, ok := l.layout.Parent(id)
		if !ok {
			l.focusReq = &focusRequest{}
			return
		}
		id = parent
	}
}

// applyDirectives forwards what callbacks requested so far to the provider
// and merges it into the report.
func (l *Loop) applyDirectives(rep *Report) {
	d := l.engine.TakeDirectives()
	rep.Update = rep.Update.Max(d.Update)
	rep.Diagnostics = append(rep.Diagnostics, d.Diagnostics...)

	for _, id := range d.DirtySubtrees {
		l.provider.MarkDirty(id)
		rep.DirtySubtrees = append(rep.DirtySubtrees, id)
	}
	if d.WindowDirty && !rep.WindowDirty {
		l.provider.MarkWindowDirty()
		rep.WindowDirty = true
	}
	if d.AllWindows {
		rep.RegenerateAllWindows = true
	}
	if d.FocusRequested {
		l.focusReq = &focusRequest{node: d.Focus}
	}
}

func (l *Loop) collectResources(rep *Report) {
	c := l.tracker.Collect(l.layout)
	rep.ResourceAdds = c.Adds
	rep.ResourceDeletes = c.Deletes
	for _, m := range c.Mismatches {
		rep.Diagnostics = append(rep.Diagnostics, callback.Diagnostic{
			Kind:    callback.ResourceGcMismatch,
			Message: m.String(),
		})
	}
}

// finish derives the summary flags of the report.
func (l *Loop) finish(rep *Report, tick scroll.TickResult, scrolled bool, now time.Time) {
	if len(rep.DirtySubtrees) > 1 {
		sort.Slice(rep.DirtySubtrees, func(i, j int) bool { return rep.DirtySubtrees[i].Less(rep.DirtySubtrees[j]) })
	}
	if rep.Update >= callback.RegenerateDomCurrentWindow && !rep.WindowDirty {
		l.provider.MarkWindowDirty()
		rep.WindowDirty = true
	}
	if rep.Update == callback.RegenerateDomAllWindows {
		rep.RegenerateAllWindows = true
	}

	iframeReplaced := false
	for _, inv := range rep.IFrames {
		iframeReplaced = iframeReplaced || inv.Updated
	}

	rep.NeedsDomRegeneration = rep.WindowDirty || rep.RegenerateAllWindows ||
		len(rep.DirtySubtrees) > 0 || iframeReplaced
	rep.NeedsHitTestRebuild = rep.NeedsDomRegeneration || scrolled || l.hadNewDoms || len(l.rebuilt) > 0
	rep.NeedsRedraw = rep.NeedsHitTestRebuild || rep.Update >= callback.RequestRedraw ||
		tick.Active || len(rep.GpuUpdates) > 0 || rep.CursorChanged || rep.ScrollbarDrag != nil

	if !rep.NeedsRedraw {
		if d, ok := l.engine.Timers().NextDue(now); ok {
			rep.RedrawAfter = max(d, time.Millisecond)
		}
	}
}
