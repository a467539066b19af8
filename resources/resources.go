// Package resources tracks which images and fonts the current layout uses
// and releases the ones that dropped out of use.
//
// A collection pass scans the layout into a UsedSet, diffs it against the
// previous frame's set, restricts the deletions to what the renderer actually
// holds and applies them. Sets are built once per frame and never mutated.
package resources

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/agiangrant/framecore/dom"
)

// Kind is the type of a tracked resource.
type Kind uint8

const (
	KindImage Kind = iota + 1
	KindFont
	KindFontInstance
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	case KindFontInstance:
		return "font-instance"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// UsedSet is the set of resources referenced by one layout.
type UsedSet struct {
	Images        map[dom.ImageKey]struct{}
	Fonts         map[dom.FontKey]struct{}
	FontInstances map[dom.FontInstanceKey]struct{}
}

// Len returns the total number of referenced resources.
func (s UsedSet) Len() int {
	return len(s.Images) + len(s.Fonts) + len(s.FontInstances)
}

// Scan collects every resource referenced by any node of any DOM.
func Scan(layout *dom.Layout) UsedSet {
	s := UsedSet{
		Images:        make(map[dom.ImageKey]struct{}),
		Fonts:         make(map[dom.FontKey]struct{}),
		FontInstances: make(map[dom.FontInstanceKey]struct{}),
	}
	for _, d := range layout.DomIDs() {
		res, _ := layout.Dom(d)
		for i := range res.Nodes {
			n := &res.Nodes[i]
			for _, k := range n.Images {
				s.Images[k] = struct{}{}
			}
			for _, k := range n.Fonts {
				s.Fonts[k] = struct{}{}
			}
			for _, k := range n.FontInstances {
				s.FontInstances[k] = struct{}{}
			}
		}
	}
	return s
}

// Changes is a sorted list of resources per kind. Font instances come before
// fonts so a consumer applying them in field order never deletes a font
// that still has live instances.
type Changes struct {
	FontInstances []dom.FontInstanceKey
	Fonts         []dom.FontKey
	Images        []dom.ImageKey
}

// Empty reports whether there are no changes.
func (c Changes) Empty() bool {
	return len(c.FontInstances) == 0 && len(c.Fonts) == 0 && len(c.Images) == 0
}

// Len returns the total number of changes.
func (c Changes) Len() int {
	return len(c.FontInstances) + len(c.Fonts) + len(c.Images)
}

// Diff returns what now adds over prev and what prev had that now dropped.
func Diff(prev, now UsedSet) (adds, dels Changes) {
	adds.FontInstances = minus(now.FontInstances, prev.FontInstances)
	adds.Fonts = minus(now.Fonts, prev.Fonts)
	adds.Images = minus(now.Images, prev.Images)
	dels.FontInstances = minus(prev.FontInstances, now.FontInstances)
	dels.Fonts = minus(prev.Fonts, now.Fonts)
	dels.Images = minus(prev.Images, now.Images)
	return adds, dels
}

func minus[K ~uint64](a, b map[K]struct{}) []K {
	var out []K
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Holder is the renderer-side store of loaded resources.
type Holder interface {
	HasImage(key dom.ImageKey) bool
	HasFont(key dom.FontKey) bool
	HasFontInstance(key dom.FontInstanceKey) bool

	DeleteImage(key dom.ImageKey)
	DeleteFont(key dom.FontKey)
	DeleteFontInstance(key dom.FontInstanceKey)
}

// Mismatch is a deletion candidate the renderer does not hold.
type Mismatch struct {
	Kind Kind
	Key  uint64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%v %d", m.Kind, m.Key)
}

// Restrict keeps only the deletions the holder actually holds. Everything
// else is reported as a mismatch.
func Restrict(del Changes, h Holder) (Changes, []Mismatch) {
	var (
		out Changes
		bad []Mismatch
	)
	for _, k := range del.FontInstances {
		if h.HasFontInstance(k) {
			out.FontInstances = append(out.FontInstances, k)
		} else {
			bad = append(bad, Mismatch{Kind: KindFontInstance, Key: uint64(k)})
		}
	}
	for _, k := range del.Fonts {
		if h.HasFont(k) {
			out.Fonts = append(out.Fonts, k)
		} else {
			bad = append(bad, Mismatch{Kind: KindFont, Key: uint64(k)})
		}
	}
	for _, k := range del.Images {
		if h.HasImage(k) {
			out.Images = append(out.Images, k)
		} else {
			bad = append(bad, Mismatch{Kind: KindImage, Key: uint64(k)})
		}
	}
	return out, bad
}

// Apply deletes every listed resource from the holder, font instances first.
func Apply(del Changes, h Holder) {
	for _, k := range del.FontInstances {
		h.DeleteFontInstance(k)
	}
	for _, k := range del.Fonts {
		h.DeleteFont(k)
	}
	for _, k := range del.Images {
		h.DeleteImage(k)
	}
}

// Collection is the outcome of one collection pass.
type Collection struct {
	Adds       Changes
	Deletes    Changes
	Mismatches []Mismatch
}

// Tracker remembers the previous frame's UsedSet and runs collection passes.
type Tracker struct {
	holder Holder
	logger *slog.Logger
	prev   UsedSet
}

// NewTracker creates a tracker. A nil holder disables deletion: Collect
// still reports additions and deletions but applies nothing.
func NewTracker(h Holder, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{holder: h, logger: logger}
}

// Used returns the set recorded by the last collection.
func (t *Tracker) Used() UsedSet {
	return t.prev
}

// Collect scans the layout, diffs it against the previous pass, releases
// the dropped resources the holder still has and remembers the new set. A
// resource is reported deleted by exactly one pass.
func (t *Tracker) Collect(layout *dom.Layout) Collection {
	now := Scan(layout)
	adds, dels := Diff(t.prev, now)
	t.prev = now

	c := Collection{Adds: adds, Deletes: dels}
	if t.holder == nil || dels.Empty() {
		return c
	}

	c.Deletes, c.Mismatches = Restrict(dels, t.holder)
	for _, m := range c.Mismatches {
		t.logger.Warn("resource gc mismatch",
			slog.String("kind", m.Kind.String()),
			slog.Uint64("key", m.Key))
	}
	Apply(c.Deletes, t.holder)
	return c
}
