package dom

// ============================================================================
// Geometry
// ============================================================================

// Position is a point in logical pixels.
type Position struct {
	X, Y float32
}

// Add returns p+o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p-o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// IsZero reports whether both components are zero.
func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Axis returns the component along a.
func (p Position) Axis(a Axis) float32 {
	if a == AxisX {
		return p.X
	}
	return p.Y
}

// Size is an extent in logical pixels.
type Size struct {
	Width, Height float32
}

// Axis returns the extent along a.
func (s Size) Axis(a Axis) float32 {
	if a == AxisX {
		return s.Width
	}
	return s.Height
}

// Rect is an axis-aligned rectangle. X/Y is the top-left corner.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Contains checks if a point is within the rect. The right and bottom edges
// are exclusive so adjacent siblings never both claim a point.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Origin returns the top-left corner.
func (r Rect) Origin() Position {
	return Position{X: r.X, Y: r.Y}
}

// Size returns the rect's extent.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// LocalPoint converts window coordinates to coordinates relative to the rect.
func (r Rect) LocalPoint(p Position) Position {
	return Position{X: p.X - r.X, Y: p.Y - r.Y}
}

// Axis identifies a scroll direction.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Axes lists both axes in evaluation order.
var Axes = [2]Axis{AxisX, AxisY}

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Edge identifies one side of a scroll container.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// Edges lists all edges in evaluation order.
var Edges = [4]Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight}

// Axis returns the axis an edge lies on.
func (e Edge) Axis() Axis {
	if e == EdgeLeft || e == EdgeRight {
		return AxisX
	}
	return AxisY
}

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	default:
		return "right"
	}
}

// Orientation of a scrollbar.
type Orientation uint8

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Axis returns the scroll axis a scrollbar controls.
func (o Orientation) Axis() Axis {
	if o == Vertical {
		return AxisY
	}
	return AxisX
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts v to [lo, hi]. If hi < lo the result is lo.
func Clamp(v, lo, hi float32) float32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// MaxSize returns the component-wise maximum.
func MaxSize(a, b Size) Size {
	return Size{Width: max32(a.Width, b.Width), Height: max32(a.Height, b.Height)}
}
