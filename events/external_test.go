package events

import (
	"reflect"
	"testing"

	"github.com/agiangrant/framecore/dom"
)

func TestFoldOrdersByCategory(t *testing.T) {
	target := dom.ID(0, 4)
	evs := []ExternalEvent{
		{Kind: ExtDragCancel},
		{Kind: ExtFocusNode, Node: &target},
		{Kind: ExtMouseMove, Position: dom.Position{X: 5, Y: 6}},
		{Kind: ExtResize, Size: dom.Size{Width: 300, Height: 200}},
		{Kind: ExtWheel, Delta: dom.Position{Y: 3}},
		{Kind: ExtWheel, Delta: dom.Position{Y: 4}},
	}

	var seen []Category
	for _, e := range evs {
		seen = append(seen, e.Kind.Category())
	}
	want := []Category{CategoryDrag, CategoryFocus, CategoryHover, CategoryWindow, CategoryHover, CategoryHover}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("categories = %v, want %v", seen, want)
	}

	s := Fold(WindowState{}, evs)
	if s.Size != (dom.Size{Width: 300, Height: 200}) {
		t.Errorf("Size = %v", s.Size)
	}
	if !s.Mouse.Inside || s.Mouse.Position != (dom.Position{X: 5, Y: 6}) {
		t.Errorf("Mouse = %+v", s.Mouse)
	}
	if s.Mouse.Wheel.Y != 7 {
		t.Errorf("Wheel.Y = %v, want accumulated 7", s.Mouse.Wheel.Y)
	}
	if s.Focus == nil || *s.Focus != target {
		t.Errorf("Focus = %v, want %v", s.Focus, target)
	}
	if !s.DragCancel {
		t.Error("expected DragCancel")
	}
}

func TestFoldKeepsSubmissionOrderWithinGroup(t *testing.T) {
	tests := []struct {
		name string
		evs  []ExternalEvent
		want []string
	}{
		{
			name: "down then up",
			evs:  []ExternalEvent{{Kind: ExtKey, Key: "a", On: true}, {Kind: ExtKey, Key: "a"}},
		},
		{
			name: "up then down",
			evs:  []ExternalEvent{{Kind: ExtKey, Key: "a"}, {Kind: ExtKey, Key: "a", On: true}},
			want: []string{"a"},
		},
		{
			name: "sorted set",
			evs: []ExternalEvent{
				{Kind: ExtKey, Key: "z", On: true},
				{Kind: ExtKey, Key: "b", On: true},
				{Kind: ExtKey, Key: "b", On: true},
			},
			want: []string{"b", "z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Fold(WindowState{}, tt.evs)
			if len(s.Keyboard.Pressed) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(s.Keyboard.Pressed, tt.want) {
				t.Errorf("Pressed = %v, want %v", s.Keyboard.Pressed, tt.want)
			}
		})
	}
}

func TestSplitAtRevertedState(t *testing.T) {
	down := ExternalEvent{Kind: ExtMouseButton, Button: MouseButtonLeft, On: true}
	up := ExternalEvent{Kind: ExtMouseButton, Button: MouseButtonLeft}
	move := ExternalEvent{Kind: ExtMouseMove, Position: dom.Position{X: 1, Y: 1}}
	keyA := ExternalEvent{Kind: ExtKey, Key: "a", On: true}
	keyAUp := ExternalEvent{Kind: ExtKey, Key: "a"}

	tests := []struct {
		name string
		base WindowState
		evs  []ExternalEvent
		want []int
	}{
		{name: "empty", want: []int{0}},
		{name: "single transition", evs: []ExternalEvent{move, down}, want: []int{2}},
		{name: "press and release", evs: []ExternalEvent{move, down, move, up}, want: []int{3, 1}},
		{name: "two clicks", evs: []ExternalEvent{down, up, down, up}, want: []int{1, 1, 1, 1}},
		{name: "repeated down", evs: []ExternalEvent{down, down, up}, want: []int{2, 1}},
		{name: "held at base", base: WindowState{Mouse: MouseState{Left: true}}, evs: []ExternalEvent{down, up}, want: []int{2}},
		{name: "key tap", evs: []ExternalEvent{keyA, keyAUp}, want: []int{1, 1}},
		{name: "independent inputs", evs: []ExternalEvent{down, keyA}, want: []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Split(tt.base, tt.evs)
			var got []int
			for _, seg := range segs {
				got = append(got, len(seg))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("segment sizes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFoldDoesNotModifyBase(t *testing.T) {
	base := WindowState{Keyboard: KeyboardState{Pressed: []string{"a", "c"}}}
	Fold(base, []ExternalEvent{{Kind: ExtKey, Key: "b", On: true}})
	if !reflect.DeepEqual(base.Keyboard.Pressed, []string{"a", "c"}) {
		t.Errorf("base modified: %v", base.Keyboard.Pressed)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for k, name := range externalNames {
		if got := ExternalKindByName(name); got != k {
			t.Errorf("ExternalKindByName(%q) = %v, want %v", name, got, k)
		}
	}
	for et, name := range eventNames {
		if got := EventTypeByName(name); got != et {
			t.Errorf("EventTypeByName(%q) = %v, want %v", name, got, et)
		}
	}
}
