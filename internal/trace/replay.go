package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/frame"
)

// FrameResult is the printable summary of one replayed frame.
type FrameResult struct {
	Number      uint64   `yaml:"frame"`
	AtMs        int64    `yaml:"at_ms"`
	Events      []string `yaml:"events,omitempty"`
	Update      string   `yaml:"update"`
	Cursor      string   `yaml:"cursor"`
	Redraw      bool     `yaml:"redraw"`
	Regenerate  bool     `yaml:"regenerate,omitempty"`
	Dirty       []string `yaml:"dirty,omitempty"`
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

// staticProvider serves one layout. Dirty requests show up in the report
// only; the layout never changes.
type staticProvider struct {
	layout *dom.Layout
}

func (p *staticProvider) Layout() *dom.Layout               { return p.layout }
func (p *staticProvider) MarkDirty(dom.DomNodeID)           {}
func (p *staticProvider) MarkWindowDirty()                  {}
func (p *staticProvider) ReplaceSubtree(dom.DomNodeID, any) {}

// Replay runs every frame of the trace through a fresh loop.
func Replay(ctx context.Context, t *Trace, config frame.LoopConfig) ([]FrameResult, error) {
	layout, err := t.Layout()
	if err != nil {
		return nil, err
	}
	loop := frame.NewLoop(&staticProvider{layout: layout}, nil, config)
	defer loop.Close()

	if err := t.Register(loop.Registry()); err != nil {
		return nil, err
	}

	start := time.Unix(0, 0)
	results := make([]FrameResult, 0, len(t.Frames))
	for i, f := range t.Frames {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		inputs, err := f.Inputs()
		if err != nil {
			return results, fmt.Errorf("frame %d: %w", i, err)
		}
		for _, e := range inputs {
			loop.SubmitExternalEvent(e)
		}
		rep := loop.RunFrame(f.At(start))
		results = append(results, summarize(rep, f.AtMs))
	}
	return results, nil
}

func summarize(rep frame.Report, atMs int64) FrameResult {
	r := FrameResult{
		Number:     rep.Number,
		AtMs:       atMs,
		Update:     rep.Update.String(),
		Cursor:     rep.Cursor.String(),
		Redraw:     rep.NeedsRedraw,
		Regenerate: rep.NeedsDomRegeneration,
	}
	for _, e := range rep.Events {
		r.Events = append(r.Events, e.String())
	}
	for _, id := range rep.DirtySubtrees {
		r.Dirty = append(r.Dirty, id.String())
	}
	for _, d := range rep.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, d.String())
	}
	return r
}
