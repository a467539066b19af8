package gpu

import (
	"testing"

	"github.com/agiangrant/framecore/dom"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache()
	id := dom.ID(0, 3)

	if v, ok := c.Get(id); ok || v != DefaultValue {
		t.Errorf("Get() on empty cache = %v, %v, want default", v, ok)
	}

	v := Value{Transform: Translate(10, 20), Opacity: 0.5}
	if !c.Set(id, v) {
		t.Error("expected first Set to report a change")
	}
	if c.Set(id, v) {
		t.Error("expected identical Set to be a no-op")
	}
	if got, ok := c.Get(id); !ok || got != v {
		t.Errorf("Get() = %v, %v, want %v", got, ok, v)
	}

	ups := c.TakeUpdates()
	if len(ups) != 1 || ups[0].ID != id || ups[0].Removed {
		t.Errorf("TakeUpdates() = %v", ups)
	}
	if c.TakeUpdates() != nil {
		t.Error("expected updates to be cleared")
	}
}

func TestInvalidateDropsOnlyThatDom(t *testing.T) {
	c := NewCache()
	c.Set(dom.ID(0, 1), Value{Transform: Identity, Opacity: 0.2})
	c.Set(dom.ID(1, 1), Value{Transform: Identity, Opacity: 0.3})
	c.Set(dom.ID(1, 2), Value{Transform: Identity, Opacity: 0.4})
	c.TakeUpdates()

	c.Invalidate(1)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(dom.ID(0, 1)); !ok {
		t.Error("expected other DOM's entry to survive")
	}

	ups := c.TakeUpdates()
	want := []dom.DomNodeID{dom.ID(1, 1), dom.ID(1, 2)}
	if len(ups) != len(want) {
		t.Fatalf("TakeUpdates() = %v, want removals of %v", ups, want)
	}
	for i, u := range ups {
		if u.ID != want[i] || !u.Removed {
			t.Errorf("update %d = %+v, want removal of %v", i, u, want[i])
		}
	}
}
