package dom

import "testing"

func testLayout() *Layout {
	root := &LayoutResult{
		Dom: RootDom,
		Nodes: []Node{
			{Parent: NoNode, Children: []NodeID{1}, Rect: Rect{Width: 400, Height: 400}},
			{Parent: 0, Rect: Rect{X: 10, Y: 10, Width: 100, Height: 100}, IFrame: true},
		},
	}
	host := ID(RootDom, 1)
	child := &LayoutResult{
		Dom:  1,
		Host: &host,
		Nodes: []Node{
			{Parent: NoNode, Children: []NodeID{1}, Rect: Rect{Width: 100, Height: 300}},
			{Parent: 0, Rect: Rect{Width: 100, Height: 20}},
		},
	}
	return NewLayout(child, root)
}

func TestLayoutIndexing(t *testing.T) {
	l := testLayout()

	ids := l.DomIDs()
	if len(ids) != 2 || ids[0] != RootDom || ids[1] != 1 {
		t.Fatalf("DomIDs() = %v, want [0 1]", ids)
	}

	d, ok := l.ChildDom(ID(RootDom, 1))
	if !ok || d != 1 {
		t.Errorf("ChildDom() = %v, %v, want 1, true", d, ok)
	}

	if _, ok := l.Node(ID(1, 5)); ok {
		t.Error("expected missing node lookup to fail")
	}
}

func TestLayoutDepthCrossesIFrames(t *testing.T) {
	l := testLayout()

	tests := []struct {
		id   DomNodeID
		want int
	}{
		{ID(RootDom, 0), 0},
		{ID(RootDom, 1), 1},
		{ID(1, 0), 2},
		{ID(1, 1), 3},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := l.Depth(tt.id); got != tt.want {
				t.Errorf("Depth(%v) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	if !r.Contains(Position{X: 0, Y: 0}) {
		t.Error("expected top-left corner to be inside")
	}
	if r.Contains(Position{X: 10, Y: 5}) {
		t.Error("expected right edge to be outside")
	}
}

func TestCursorByName(t *testing.T) {
	if got := CursorByName("pointer"); got != CursorPointer {
		t.Errorf("CursorByName(pointer) = %v, want %v", got, CursorPointer)
	}
	if got := CursorByName("bogus"); got != CursorUnset {
		t.Errorf("CursorByName(bogus) = %v, want unset", got)
	}
}
