package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/agiangrant/framecore"
	"github.com/agiangrant/framecore/internal/trace"
)

const hoverTrace = `
name: hover
doms:
  - id: 0
    nodes:
      - tag: body
        children: [1]
        rect: [0, 0, 200, 200]
      - tag: link
        parent: 0
        rect: [0, 0, 50, 20]
        cursor: pointer
frames:
  - at_ms: 16
    events:
      - {kind: mouse-move, x: 5, y: 5}
  - at_ms: 32
    events:
      - {kind: mouse-leave}
`

func TestRunReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hover.yaml")
	if err := os.WriteFile(path, []byte(hoverTrace), 0644); err != nil {
		t.Fatal(err)
	}

	var out, logs bytes.Buffer
	if err := runReplay(context.Background(), path, framecore.DefaultConfig(), &out, &logs); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}

	var results []trace.FrameResult
	if err := yaml.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Cursor != "pointer" || results[1].Cursor != "default" {
		t.Errorf("cursors = %q, %q", results[0].Cursor, results[1].Cursor)
	}
	if got := strings.Join(results[1].Events, ","); got != "mouseleave(0:1)" {
		t.Errorf("frame 2 events = %q, want mouseleave(0:1)", got)
	}
	if !strings.Contains(logs.String(), "run=") || !strings.Contains(logs.String(), "replay finished") {
		t.Errorf("logs = %q, want a tagged run", logs.String())
	}
}

func TestRunReplayMissingTrace(t *testing.T) {
	var out, logs bytes.Buffer
	err := runReplay(context.Background(), filepath.Join(t.TempDir(), "none.yaml"), framecore.DefaultConfig(), &out, &logs)
	if err == nil {
		t.Error("runReplay() expected an error for a missing trace")
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framecore.toml")
	if err := Init([]string{"--config", path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	got, err := framecore.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != framecore.DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", got)
	}
	if err := Init([]string{"--config", path}); err == nil {
		t.Error("Init() expected an error for an existing file")
	}
}
