package scroll

import (
	"math"
	"strconv"
	"strings"
)

// Easing maps time progress in [0, 1] to value progress. Curves may leave
// [0, 1] in between; the manager clamps offsets to the scroll range.
type Easing func(t float64) float64

var (
	EaseLinear Easing = func(t float64) float64 { return t }

	// EaseOut is a cubic deceleration, the default for animated scrolls.
	EaseOut Easing = func(t float64) float64 {
		u := 1 - t
		return 1 - u*u*u
	}

	EaseInOut Easing = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := -2*t + 2
		return 1 - u*u*u/2
	}
)

// CubicBezier returns the CSS cubic-bezier timing function with control
// points (x1, y1) and (x2, y2). x1 and x2 are clamped to [0, 1].
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	x1 = min(max(x1, 0), 1)
	x2 = min(max(x2, 0), 1)

	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	curve := func(a, b, c, s float64) float64 { return ((a*s+b)*s + c) * s }

	// solve finds the curve parameter whose x is t: Newton first, bisection
	// when the slope is too flat.
	solve := func(t float64) float64 {
		s := t
		for n := 0; n < 8; n++ {
			dx := curve(ax, bx, cx, s) - t
			if math.Abs(dx) < 1e-7 {
				return s
			}
			slope := (3*ax*s+2*bx)*s + cx
			if math.Abs(slope) < 1e-6 {
				break
			}
			s -= dx / slope
		}
		lo, hi := 0.0, 1.0
		s = t
		for n := 0; n < 40; n++ {
			x := curve(ax, bx, cx, s)
			if math.Abs(x-t) < 1e-7 {
				break
			}
			if x < t {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
		}
		return s
	}

	return func(t float64) float64 {
		switch {
		case t <= 0:
			return 0
		case t >= 1:
			return 1
		}
		return curve(ay, by, cy, solve(t))
	}
}

// EasingByName resolves a timing function name: "linear", "ease-out",
// "ease-in-out", the CSS keywords "ease" and "ease-in", or
// "cubic-bezier(x1, y1, x2, y2)". It returns nil for anything else.
func EasingByName(name string) Easing {
	switch name = strings.TrimSpace(name); name {
	case "linear":
		return EaseLinear
	case "ease-out":
		return EaseOut
	case "ease-in-out":
		return EaseInOut
	case "ease":
		return CubicBezier(0.25, 0.1, 0.25, 1)
	case "ease-in":
		return CubicBezier(0.42, 0, 1, 1)
	}

	args, ok := strings.CutPrefix(name, "cubic-bezier(")
	if !ok {
		return nil
	}
	args, ok = strings.CutSuffix(args, ")")
	if !ok {
		return nil
	}
	parts := strings.Split(args, ",")
	if len(parts) != 4 {
		return nil
	}
	var p [4]float64
	for i, s := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		p[i] = v
	}
	return CubicBezier(p[0], p[1], p[2], p[3])
}
