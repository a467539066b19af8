package trace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/frame"
)

const clickTrace = `
name: click
doms:
  - id: 0
    generation: 1
    nodes:
      - tag: body
        children: [1, 2]
        rect: [0, 0, 800, 600]
      - tag: button
        parent: 0
        rect: [10, 10, 100, 40]
        cursor: pointer
        focusable: true
      - tag: list
        parent: 0
        rect: [200, 0, 300, 300]
        scroll: {content: [300, 1200], y: true}
callbacks:
  - node: [0, 1]
    event: click
    update: redraw
frames:
  - at_ms: 16
    events:
      - {kind: mouse-move, x: 20, y: 20}
  - at_ms: 32
    events:
      - {kind: mouse-button, button: left, on: true}
  - at_ms: 48
    events:
      - {kind: mouse-button, button: left}
  - at_ms: 64
    events:
      - {kind: mouse-move, x: 250, y: 100}
      - {kind: wheel, dy: 120}
`

func testConfig() frame.LoopConfig {
	cfg := frame.DefaultLoopConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func TestParseLayout(t *testing.T) {
	tr, err := Parse([]byte(clickTrace))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tr.Name != "click" || len(tr.Frames) != 4 || len(tr.Callbacks) != 1 {
		t.Fatalf("Parse() = %+v", tr)
	}

	l, err := tr.Layout()
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	res, ok := l.Dom(0)
	if !ok || len(res.Nodes) != 3 {
		t.Fatalf("Dom(0) = %+v, %v", res, ok)
	}
	if res.Nodes[0].Parent != dom.NoNode {
		t.Errorf("root parent = %v, want none", res.Nodes[0].Parent)
	}
	if res.Nodes[1].Cursor.String() != "pointer" || !res.Nodes[1].Focusable {
		t.Errorf("button = %+v", res.Nodes[1])
	}
	if s := res.Nodes[2].Scroll; s == nil || s.ContentSize.Height != 1200 || !s.ScrollY {
		t.Errorf("list scroll = %+v", s)
	}
}

func TestReplay(t *testing.T) {
	tr, err := Parse([]byte(clickTrace))
	if err != nil {
		t.Fatal(err)
	}
	results, err := Replay(context.Background(), tr, testConfig())
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}

	tests := []struct {
		frame  int
		events []string
		update string
		cursor string
	}{
		{0, []string{"mouseenter(0:1)", "mouseover(0:1)"}, "do-nothing", "pointer"},
		{1, []string{"mousedown(0:1)"}, "do-nothing", "pointer"},
		{2, []string{"mouseup(0:1)", "click(0:1)", "focusin(0:1)"}, "redraw", "pointer"},
		{3, []string{"mouseleave(0:1)", "mouseenter(0:2)", "mouseover(0:2)", "scroll(0:2)"}, "do-nothing", "default"},
	}
	for _, tt := range tests {
		got := results[tt.frame]
		if !slices.Equal(got.Events, tt.events) {
			t.Errorf("frame %d events = %v, want %v", tt.frame, got.Events, tt.events)
		}
		if got.Update != tt.update {
			t.Errorf("frame %d update = %q, want %q", tt.frame, got.Update, tt.update)
		}
		if got.Cursor != tt.cursor {
			t.Errorf("frame %d cursor = %q, want %q", tt.frame, got.Cursor, tt.cursor)
		}
	}
	if !results[3].Redraw {
		t.Error("expected the wheel frame to need a redraw")
	}
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown input",
			yaml: "doms: [{id: 0, nodes: [{rect: [0, 0, 10, 10]}]}]\nframes: [{at_ms: 1, events: [{kind: teleport}]}]\n",
			want: ErrUnknownEvent,
		},
		{
			name: "unknown callback event",
			yaml: "doms: [{id: 0, nodes: [{rect: [0, 0, 10, 10]}]}]\ncallbacks: [{event: hover}]\n",
			want: ErrUnknownEvent,
		},
		{
			name: "unknown update",
			yaml: "doms: [{id: 0, nodes: [{rect: [0, 0, 10, 10]}]}]\ncallbacks: [{event: click, update: everything}]\n",
			want: ErrUnknownUpdate,
		},
		{
			name: "bad child",
			yaml: "doms: [{id: 0, nodes: [{rect: [0, 0, 10, 10], children: [4]}]}]\n",
			want: ErrBadNode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := Replay(context.Background(), tr, testConfig()); !errors.Is(err, tt.want) {
				t.Errorf("Replay() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReplayCancelled(t *testing.T) {
	tr, err := Parse([]byte(clickTrace))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Replay(ctx, tr, testConfig())
	if !errors.Is(err, context.Canceled) || len(results) != 0 {
		t.Errorf("Replay() = %d results, %v", len(results), err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.yaml")
	if err := os.WriteFile(path, []byte(clickTrace), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tr.Name != "click" {
		t.Errorf("Name = %q, want click", tr.Name)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) expected an error")
	}
}
