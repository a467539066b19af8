// Package scroll owns scroll offsets, scroll animations, and the re-invocation
// policy of lazily produced IFrame content.
//
// Scroll animation is a pure function of elapsed time: replaying the same
// sequence of Tick(now) calls always yields the same offsets.
package scroll

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agiangrant/framecore/dom"
)

// ErrUnknownNode is returned by query APIs for ids without scroll state.
var ErrUnknownNode = errors.New("scroll: unknown node")

// Config configures scrolling and IFrame re-invocation.
type Config struct {
	// EdgeThreshold is the distance in logical pixels from the end of the
	// materialized content at which EdgeApproached fires (default: 200).
	EdgeThreshold float32

	// HysteresisFactor multiplies EdgeThreshold to get the distance the
	// offset has to retreat before an edge may trigger again (default: 2).
	HysteresisFactor float32

	// Duration is the default animation duration for programmatic and
	// paged scrolling (default: 250ms).
	Duration time.Duration

	// Easing is the default easing (default: EaseOut).
	Easing Easing

	// WheelLineHeight converts line-based wheel deltas to pixels (default: 40).
	WheelLineHeight float32

	// Padding kept between a target and the viewport edge by ScrollIntoView (default: 20).
	Padding float32

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:    200,
		HysteresisFactor: 2,
		Duration:         250 * time.Millisecond,
		Easing:           EaseOut,
		WheelLineHeight:  40,
		Padding:          20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EdgeThreshold <= 0 {
		c.EdgeThreshold = d.EdgeThreshold
	}
	if c.HysteresisFactor < 1 {
		c.HysteresisFactor = d.HysteresisFactor
	}
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.Easing == nil {
		c.Easing = d.Easing
	}
	if c.WheelLineHeight <= 0 {
		c.WheelLineHeight = d.WheelLineHeight
	}
	if c.Padding < 0 {
		c.Padding = d.Padding
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Source identifies what produced a scroll request.
type Source uint8

const (
	SourceWheel Source = iota
	SourceProgrammatic
	SourceScrollbar
	SourceKeyboard
)

func (s Source) String() string {
	switch s {
	case SourceWheel:
		return "wheel"
	case SourceProgrammatic:
		return "programmatic"
	case SourceScrollbar:
		return "scrollbar"
	default:
		return "keyboard"
	}
}

// Animation interpolates an offset between two points over time.
type Animation struct {
	From     dom.Position
	To       dom.Position
	Start    time.Time
	Duration time.Duration
	Easing   Easing
}

// at returns the interpolated offset and whether the animation is done.
func (a *Animation) at(now time.Time) (dom.Position, bool) {
	elapsed := now.Sub(a.Start)
	if elapsed >= a.Duration {
		return a.To, true
	}
	if elapsed < 0 {
		elapsed = 0
	}
	t := float64(elapsed) / float64(a.Duration)
	p := float32(a.Easing(t))
	return dom.Position{
		X: a.From.X + (a.To.X-a.From.X)*p,
		Y: a.From.Y + (a.To.Y-a.From.Y)*p,
	}, false
}

// State is the scroll state of one scroll container.
type State struct {
	ID           dom.DomNodeID
	Offset       dom.Position
	ViewportSize dom.Size
	ContentSize  dom.Size

	// VirtualContentSize is the logical extent shown to the scrollbar.
	// Zero on an axis means the content size is used.
	VirtualContentSize dom.Size

	Animation *Animation
}

// Extent returns the scrollable extent: the virtual size where set, the
// content size otherwise.
func (s *State) Extent() dom.Size {
	return dom.MaxSize(s.ContentSize, s.VirtualContentSize)
}

// MaxOffset returns the largest valid offset per axis.
func (s *State) MaxOffset() dom.Position {
	ext := s.Extent()
	return dom.Position{
		X: dom.Clamp(ext.Width-s.ViewportSize.Width, 0, ext.Width),
		Y: dom.Clamp(ext.Height-s.ViewportSize.Height, 0, ext.Height),
	}
}

// Clamp restricts p to [0, extent - viewport] on both axes.
func (s *State) Clamp(p dom.Position) dom.Position {
	max := s.MaxOffset()
	return dom.Position{X: dom.Clamp(p.X, 0, max.X), Y: dom.Clamp(p.Y, 0, max.Y)}
}

// Request is a relative scroll request.
type Request struct {
	ID     dom.DomNodeID
	Delta  dom.Position
	Source Source

	// Duration of zero applies the delta immediately.
	Duration time.Duration

	// Easing defaults to the configured easing.
	Easing Easing
}

// TickResult reports the outcome of one animation tick.
type TickResult struct {
	// Active is true while any animation is still running.
	Active bool

	// Changed lists nodes whose offset moved, in id order.
	Changed []dom.DomNodeID
}

// Manager owns every scroll state of a window.
type Manager struct {
	config Config
	states map[dom.DomNodeID]*State

	dirty bool

	// Transient per-frame flags, reset by BeginFrame.
	hadScrollActivity     bool
	hadProgrammaticScroll bool
}

// NewManager creates a scroll manager.
func NewManager(config Config) *Manager {
	return &Manager{
		config: config.withDefaults(),
		states: make(map[dom.DomNodeID]*State),
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// BeginFrame resets transient per-frame flags.
func (m *Manager) BeginFrame() {
	m.hadScrollActivity = false
	m.hadProgrammaticScroll = false
}

// HadScrollActivity reports whether any offset moved this frame.
func (m *Manager) HadScrollActivity() bool { return m.hadScrollActivity }

// HadProgrammaticScroll reports whether SetScrollPosition ran this frame.
func (m *Manager) HadProgrammaticScroll() bool { return m.hadProgrammaticScroll }

// Sync creates, updates and drops scroll states to match the scroll
// containers present in the layout. Offsets are re-clamped.
func (m *Manager) Sync(layout *dom.Layout) {
	seen := make(map[dom.DomNodeID]bool, len(m.states))
	for _, d := range layout.DomIDs() {
		res, _ := layout.Dom(d)
		for i := range res.Nodes {
			n := &res.Nodes[i]
			if n.Scroll == nil {
				continue
			}
			id := dom.ID(d, dom.NodeID(i))
			seen[id] = true
			st, ok := m.states[id]
			if !ok {
				st = &State{ID: id}
				m.states[id] = st
			}
			st.ViewportSize = n.Rect.Size()
			st.ContentSize = n.Scroll.ContentSize
			m.setOffset(st, st.Clamp(st.Offset))
		}
	}
	for id := range m.states {
		if !seen[id] {
			delete(m.states, id)
		}
	}
}

// State returns a copy of the scroll state of a node.
func (m *Manager) State(id dom.DomNodeID) (State, bool) {
	st, ok := m.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Lookup is State with an error for unknown ids.
func (m *Manager) Lookup(id dom.DomNodeID) (State, error) {
	st, ok := m.State(id)
	if !ok {
		return State{}, fmt.Errorf("lookup %v: %w", id, ErrUnknownNode)
	}
	return st, nil
}

// IDs returns every scroll container id in id order.
func (m *Manager) IDs() []dom.DomNodeID {
	ids := make([]dom.DomNodeID, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Offset implements hittest.Offsets.
func (m *Manager) Offset(id dom.DomNodeID) dom.Position {
	if st, ok := m.states[id]; ok {
		return st.Offset
	}
	return dom.Position{}
}

// Extent implements hittest.Offsets.
func (m *Manager) Extent(id dom.DomNodeID) (dom.Size, bool) {
	if st, ok := m.states[id]; ok {
		return st.Extent(), true
	}
	return dom.Size{}, false
}

// SetVirtualContentSize records the logical extent of virtualized content.
func (m *Manager) SetVirtualContentSize(id dom.DomNodeID, size dom.Size) {
	st, ok := m.states[id]
	if !ok {
		return
	}
	st.VirtualContentSize = size
	m.setOffset(st, st.Clamp(st.Offset))
}

// ProcessScrollRequest applies a relative scroll. Without a duration the
// delta is applied immediately and any running animation is dropped; with a
// duration a new animation replaces the running one, continuing from the
// current offset toward the old target plus delta. Unknown ids are ignored.
func (m *Manager) ProcessScrollRequest(req Request, now time.Time) bool {
	st, ok := m.states[req.ID]
	if !ok {
		return false
	}

	if req.Duration <= 0 {
		st.Animation = nil
		return m.setOffset(st, st.Clamp(st.Offset.Add(req.Delta)))
	}

	base := st.Offset
	if st.Animation != nil {
		base = st.Animation.To
	}
	m.animate(st, st.Clamp(base.Add(req.Delta)), req.Duration, req.Easing, now)
	return true
}

// ScrollTo animates to an absolute offset.
func (m *Manager) ScrollTo(id dom.DomNodeID, target dom.Position, d time.Duration, e Easing, now time.Time) bool {
	st, ok := m.states[id]
	if !ok {
		return false
	}
	if d <= 0 {
		st.Animation = nil
		return m.setOffset(st, st.Clamp(target))
	}
	m.animate(st, st.Clamp(target), d, e, now)
	return true
}

// SetScrollPosition sets an absolute offset immediately. The IFrame overscroll
// check has to run before this is called.
func (m *Manager) SetScrollPosition(id dom.DomNodeID, target dom.Position) bool {
	st, ok := m.states[id]
	if !ok {
		return false
	}
	st.Animation = nil
	m.hadProgrammaticScroll = true
	return m.setOffset(st, st.Clamp(target))
}

func (m *Manager) animate(st *State, to dom.Position, d time.Duration, e Easing, now time.Time) {
	if e == nil {
		e = m.config.Easing
	}
	st.Animation = &Animation{
		From:     st.Offset,
		To:       to,
		Start:    now,
		Duration: d,
		Easing:   e,
	}
	m.hadScrollActivity = true
}

func (m *Manager) setOffset(st *State, p dom.Position) bool {
	if p == st.Offset {
		return false
	}
	st.Offset = p
	m.dirty = true
	m.hadScrollActivity = true
	return true
}

// Tick interpolates all active animations, clamps each offset to the valid
// range and removes animations once their duration has elapsed.
func (m *Manager) Tick(now time.Time) TickResult {
	var res TickResult
	for _, id := range m.IDs() {
		st := m.states[id]
		if st.Animation == nil {
			continue
		}
		p, done := st.Animation.at(now)
		if done {
			st.Animation = nil
		} else {
			res.Active = true
		}
		if m.setOffset(st, st.Clamp(p)) {
			res.Changed = append(res.Changed, id)
		}
	}
	return res
}

// HasActiveAnimations reports whether any animation is running.
func (m *Manager) HasActiveAnimations() bool {
	for _, st := range m.states {
		if st.Animation != nil {
			return true
		}
	}
	return false
}

// TakeDirty returns and clears the scroll-dirty bit.
func (m *Manager) TakeDirty() bool {
	d := m.dirty
	m.dirty = false
	return d
}

// WheelDelta converts a wheel delta to pixels. Line-based deltas are
// multiplied by the configured line height.
func (m *Manager) WheelDelta(delta dom.Position, lines bool) dom.Position {
	if !lines {
		return delta
	}
	h := m.config.WheelLineHeight
	return dom.Position{X: delta.X * h, Y: delta.Y * h}
}

// ============================================================================
// Scroll Into View
// ============================================================================

// IntoViewTarget calculates the offset needed to make target visible inside
// a scroll container. Both rects are in the container's DOM coordinates.
// Returns false if the target is already fully visible.
func (m *Manager) IntoViewTarget(id dom.DomNodeID, container, target dom.Rect) (dom.Position, bool, error) {
	st, ok := m.states[id]
	if !ok {
		return dom.Position{}, false, fmt.Errorf("scroll into view %v: %w", id, ErrUnknownNode)
	}

	next := st.Offset
	needs := false
	for _, a := range dom.Axes {
		start := target.Origin().Axis(a) - container.Origin().Axis(a)
		end := start + target.Size().Axis(a)
		visible := st.ViewportSize.Axis(a)
		cur := st.Offset.Axis(a)

		v, ok := intoViewAxis(cur, start, end, visible, m.config.Padding)
		if !ok {
			continue
		}
		needs = true
		if a == dom.AxisX {
			next.X = v
		} else {
			next.Y = v
		}
	}
	if !needs {
		return st.Offset, false, nil
	}
	next = st.Clamp(next)
	return next, next != st.Offset, nil
}

// ScrollIntoView animates a container so target becomes visible.
func (m *Manager) ScrollIntoView(id dom.DomNodeID, container, target dom.Rect, now time.Time) (bool, error) {
	next, needs, err := m.IntoViewTarget(id, container, target)
	if err != nil || !needs {
		return false, err
	}
	return m.ScrollTo(id, next, m.config.Duration, m.config.Easing, now), nil
}

func intoViewAxis(cur, start, end, visible, padding float32) (float32, bool) {
	top := cur + padding
	bottom := cur + visible - padding
	if start >= top && end <= bottom {
		return cur, false
	}

	var next float32
	switch {
	case end > bottom:
		// Below the visible area: bring the end up, but never push the start out.
		next = end - visible + padding
		if max := start - padding; next > max {
			next = max
		}
	case start < top:
		next = start - padding
	default:
		return cur, false
	}
	if next < 0 {
		next = 0
	}
	return next, true
}
