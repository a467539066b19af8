package callback

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/gpu"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/scroll"
)

// Config configures the callback engine.
type Config struct {
	// MaxThreadMessages bounds how many worker messages are delivered per
	// frame. Zero or less means all buffered messages.
	MaxThreadMessages int

	// ThreadBuffer is the per-thread message buffer.
	ThreadBuffer int

	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxThreadMessages: 64,
		ThreadBuffer:      16,
	}
}

// Env is the frame state the engine reads and writes on behalf of callbacks.
type Env struct {
	Layout func() *dom.Layout
	Scroll *scroll.Manager
	GPU    *gpu.Cache

	// SetScrollPosition applies an absolute, immediate scroll. When nil the
	// scroll manager is used directly.
	SetScrollPosition func(id dom.DomNodeID, pos dom.Position) bool
}

// Directives is everything the callbacks of one frame asked for that the
// frame orchestrator applies afterwards.
type Directives struct {
	Update        Update
	DirtySubtrees []dom.DomNodeID
	WindowDirty   bool
	AllWindows    bool

	// FocusRequested is set when a callback called SetFocus or ClearFocus;
	// Focus is the requested node, nil to clear. The last request wins.
	FocusRequested bool
	Focus          *dom.DomNodeID

	Diagnostics []Diagnostic
}

// DispatchResult is the outcome of dispatching one event.
type DispatchResult struct {
	Update         Update
	PreventDefault bool
	Invoked        int
}

// Engine invokes callbacks and commits what they buffered.
type Engine struct {
	config   Config
	logger   *slog.Logger
	env      Env
	registry *Registry
	timers   *Timers
	threads  *Threads
	snapshot events.WindowState
	dir      Directives
}

// NewEngine creates an engine with empty registries.
func NewEngine(env Env, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if env.Scroll == nil {
		env.Scroll = scroll.NewManager(scroll.DefaultConfig())
	}
	if env.GPU == nil {
		env.GPU = gpu.NewCache()
	}
	return &Engine{
		config:   config,
		logger:   logger,
		env:      env,
		registry: NewRegistry(),
		timers:   NewTimers(),
		threads:  NewThreads(config.ThreadBuffer, logger),
	}
}

// Registry returns the callback registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Timers returns the timer set.
func (e *Engine) Timers() *Timers { return e.timers }

// Threads returns the thread supervisor.
func (e *Engine) Threads() *Threads { return e.threads }

// BeginFrame installs the snapshot callbacks read this frame and clears the
// directives of the previous frame.
func (e *Engine) BeginFrame(snapshot events.WindowState) {
	e.snapshot = snapshot
	e.dir = Directives{}
}

// SetSnapshot replaces the snapshot without touching pending directives.
func (e *Engine) SetSnapshot(snapshot events.WindowState) {
	e.snapshot = snapshot
}

// TakeDirectives returns and clears the directives gathered so far. Dirty
// subtrees are sorted and deduplicated.
func (e *Engine) TakeDirectives() Directives {
	d := e.dir
	e.dir = Directives{}
	if len(d.DirtySubtrees) > 1 {
		sort.Slice(d.DirtySubtrees, func(i, j int) bool { return d.DirtySubtrees[i].Less(d.DirtySubtrees[j]) })
		out := d.DirtySubtrees[:1]
		for _, id := range d.DirtySubtrees[1:] {
			if id != out[len(out)-1] {
				out = append(out, id)
			}
		}
		d.DirtySubtrees = out
	}
	return d
}

// Close stops every worker thread.
func (e *Engine) Close() error {
	return e.threads.Close()
}

func (e *Engine) layout() *dom.Layout {
	if e.env.Layout == nil {
		return nil
	}
	return e.env.Layout()
}

// ============================================================================
// Dispatch
// ============================================================================

// Dispatch invokes the callbacks for one synthesized event. Exact events
// (enter/leave) only reach their own node; every other node event goes to the
// innermost node on the target's ancestor chain that has a registration for
// the event type. Window callbacks for the type run afterwards in
// registration order.
func (e *Engine) Dispatch(ev events.Event, now time.Time) DispatchResult {
	var res DispatchResult

	if ev.Target != nil {
		if node, cbs := e.target(*ev.Target, ev.Type); len(cbs) > 0 {
			for _, cb := range cbs {
				e.dispatchOne(&res, cb, ev, node.Ptr(), now)
			}
		}
	}
	for _, cb := range e.registry.Window(ev.Type) {
		e.dispatchOne(&res, cb, ev, nil, now)
	}

	e.dir.Update = e.dir.Update.Max(res.Update)
	return res
}

func (e *Engine) dispatchOne(res *DispatchResult, cb Callback, ev events.Event, node *dom.DomNodeID, now time.Time) {
	info := e.newInfo(now)
	info.Event = ev
	info.Node = node
	u, ok := e.invoke(info, node, func() Update { return cb.Fn(info, cb.Data) })
	res.Update = res.Update.Max(u)
	if ok {
		res.PreventDefault = res.PreventDefault || info.buf.preventDflt
	}
	res.Invoked++
}

func (e *Engine) target(id dom.DomNodeID, t events.EventType) (dom.DomNodeID, []Callback) {
	l := e.layout()
	if _, ok := l.Node(id); !ok {
		e.stale(id, "event target "+t.String())
		return dom.DomNodeID{}, nil
	}
	if t.Exact() {
		return id, e.registry.Node(id, t)
	}
	for {
		if cbs := e.registry.Node(id, t); len(cbs) > 0 {
			return id, cbs
		}
		parent, ok := l.Parent(id)
		if !ok {
			return dom.DomNodeID{}, nil
		}
		id = parent
	}
}

// ============================================================================
// Timers, Threads, IFrames
// ============================================================================

// RunTimers invokes every timer due at now. A timer stopped by an earlier
// callback in the same frame is skipped. Non-repeating and terminated timers
// are removed after they fire; a repeating timer that traps keeps running.
func (e *Engine) RunTimers(now time.Time) Update {
	var total Update
	for _, id := range e.timers.Due(now) {
		t, ok := e.timers.Get(id)
		if !ok {
			continue
		}
		info := e.newInfo(now)
		info.Node = t.Node

		var res TimerResult
		u, _ := e.invoke(info, t.Node, func() Update {
			res = t.Callback(info, t.Data)
			return res.Update
		})
		total = total.Max(u)
		if !t.Repeat || res.Terminate {
			e.timers.Remove(id)
		}
	}
	e.dir.Update = e.dir.Update.Max(total)
	return total
}

// PollThreads delivers buffered worker messages to their write-back
// callbacks. Messages of threads stopped earlier in the frame are dropped.
func (e *Engine) PollThreads(now time.Time) Update {
	var total Update
	for _, m := range e.threads.Poll(e.config.MaxThreadMessages) {
		wb, data, ok := e.threads.lookup(m.Thread)
		if !ok {
			continue
		}
		info := e.newInfo(now)
		msg := m.Msg
		u, _ := e.invoke(info, nil, func() Update { return wb(info, data, msg) })
		total = total.Max(u)
	}
	e.dir.Update = e.dir.Update.Max(total)
	return total
}

// IFrameInfo is handed to IFrame callbacks. It embeds the regular callback
// context.
type IFrameInfo struct {
	*Info

	Reason scroll.Reason
	Host   dom.DomNodeID

	// Bounds is the host's rect in window coordinates.
	Bounds dom.Rect

	// Viewport is the visible size of the host; Offset its scroll offset.
	Viewport dom.Size
	Offset   dom.Position

	// ActualSize and VirtualSize are the sizes recorded from the previous
	// result, zero before the first one.
	ActualSize   dom.Size
	ActualOffset dom.Position
	VirtualSize  dom.Size

	// NestedDom is the DOM id the produced content is laid out as.
	NestedDom dom.DomID
}

// InvokeIFrame runs the producer of an IFrame host. It returns false when no
// producer is registered. A trapping producer yields a "no update" result.
func (e *Engine) InvokeIFrame(in IFrameInfo, now time.Time) (scroll.Result, bool) {
	cb, ok := e.registry.IFrame(in.Host)
	if !ok {
		return scroll.Result{}, false
	}
	info := e.newInfo(now)
	info.Node = in.Host.Ptr()
	in.Info = info

	var res scroll.Result
	_, ok = e.invoke(info, info.Node, func() Update {
		res = cb.Fn(&in, cb.Data)
		return DoNothing
	})
	if !ok {
		return scroll.Result{}, true
	}
	return res, true
}

// ============================================================================
// Invocation boundary
// ============================================================================

func (e *Engine) newInfo(now time.Time) *Info {
	return &Info{engine: e, Now: now}
}

// invoke calls fn, recovering from a panic. On success the info's buffer is
// committed and the update validated; a trap discards the buffer and yields
// DoNothing.
func (e *Engine) invoke(info *Info, node *dom.DomNodeID, fn func() Update) (u Update, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			attrs := []any{slog.String("panic", msg)}
			if node != nil {
				attrs = append(attrs, slog.String("node", node.String()))
			}
			e.logger.Error("callback trapped", attrs...)
			e.diagnose(CallbackTrap, node, msg)
			u, ok = DoNothing, false
		}
	}()

	u = fn()
	e.commit(info)
	if !u.Valid() {
		e.logger.Warn("invalid callback result", slog.Int("update", int(u)))
		e.diagnose(InvalidCallbackResult, node, u.String())
		u = RegenerateDomAllWindows
	}
	return u, true
}

func (e *Engine) diagnose(kind DiagnosticKind, node *dom.DomNodeID, msg string) {
	var n *dom.DomNodeID
	if node != nil {
		n = node.Ptr()
	}
	e.dir.Diagnostics = append(e.dir.Diagnostics, Diagnostic{Kind: kind, Node: n, Message: msg})
}

func (e *Engine) stale(id dom.DomNodeID, what string) {
	e.logger.Debug("stale reference", slog.String("node", id.String()), slog.String("op", what))
	e.diagnose(StaleReference, id.Ptr(), what)
}

// commit applies one callback's buffered writes in a fixed order.
func (e *Engine) commit(info *Info) {
	b := &info.buf
	now := info.Now
	l := e.layout()

	for _, err := range b.invalidTimer {
		e.diagnose(InvalidCallbackResult, info.Node, err.Error())
	}

	for _, op := range b.scrolls {
		e.commitScroll(l, op, now)
	}

	for _, op := range b.timers {
		e.timers.insert(op.id, op.timer, now)
	}
	for _, id := range b.stopTimers {
		e.timers.Remove(id)
	}

	for _, op := range b.threads {
		e.threads.start(op.id, op.fn, op.data, op.writeBack)
	}
	for _, id := range b.stopThreads {
		e.threads.Stop(id)
	}

	for _, op := range b.gpu {
		if _, ok := l.Node(op.id); !ok {
			e.stale(op.id, "set gpu value")
			continue
		}
		e.env.GPU.Set(op.id, op.v)
	}

	for _, id := range b.dirty {
		if _, ok := l.Node(id); !ok {
			e.stale(id, "regenerate dom")
			continue
		}
		e.dir.DirtySubtrees = append(e.dir.DirtySubtrees, id)
	}
	if b.windowDirty {
		e.dir.WindowDirty = true
		e.dir.Update = e.dir.Update.Max(RegenerateDomCurrentWindow)
	}
	if b.allWindows {
		e.dir.AllWindows = true
		e.dir.Update = e.dir.Update.Max(RegenerateDomAllWindows)
	}
	if b.focus != nil {
		if b.focus.node != nil {
			if _, ok := l.Node(*b.focus.node); !ok {
				e.stale(*b.focus.node, "set focus")
				return
			}
		}
		e.dir.FocusRequested = true
		e.dir.Focus = b.focus.node
	}
}

func (e *Engine) commitScroll(l *dom.Layout, op scrollOp, now time.Time) {
	sm := e.env.Scroll
	if op.kind == scrollIntoView {
		e.commitIntoView(l, op.id, now)
		return
	}

	st, ok := sm.State(op.id)
	if !ok {
		e.stale(op.id, "scroll")
		return
	}

	switch op.kind {
	case scrollSet:
		e.setScroll(op.id, op.pos)
	case scrollBy:
		if op.duration <= 0 {
			e.setScroll(op.id, st.Offset.Add(op.pos))
			return
		}
		sm.ProcessScrollRequest(scroll.Request{
			ID:       op.id,
			Delta:    op.pos,
			Source:   scroll.SourceProgrammatic,
			Duration: op.duration,
			Easing:   op.easing,
		}, now)
	case scrollTo:
		if op.duration <= 0 {
			e.setScroll(op.id, op.pos)
			return
		}
		sm.ScrollTo(op.id, op.pos, op.duration, op.easing, now)
	}
}

func (e *Engine) setScroll(id dom.DomNodeID, pos dom.Position) {
	if e.env.SetScrollPosition != nil {
		e.env.SetScrollPosition(id, pos)
		return
	}
	e.env.Scroll.SetScrollPosition(id, pos)
}

// commitIntoView scrolls the nearest scrolling ancestor of id.
func (e *Engine) commitIntoView(l *dom.Layout, id dom.DomNodeID, now time.Time) {
	target, ok := hittest.WindowRect(l, e.env.Scroll, id)
	if !ok {
		e.stale(id, "scroll into view")
		return
	}
	cur := id
	for {
		parent, ok := l.Parent(cur)
		if !ok {
			return
		}
		cur = parent
		st, ok := e.env.Scroll.State(cur)
		if !ok {
			continue
		}
		container, ok := hittest.WindowRect(l, e.env.Scroll, cur)
		if !ok {
			return
		}
		// Measure the target in the container's unscrolled content space.
		target.X += st.Offset.X
		target.Y += st.Offset.Y
		if _, err := e.env.Scroll.ScrollIntoView(cur, container, target, now); err != nil {
			e.stale(cur, "scroll into view")
		}
		return
	}
}
