// Package geometry holds the viewport coordinate types shared by the
// selection, drag and capture code.
package geometry

import (
	"image"
	"math"
)

// MinSelectable is the smallest width and height (viewport pixels) a
// selection must reach to be captured.
const MinSelectable = 20

// Point is a pointer position in viewport pixels.
type Point struct {
	X float64
	Y float64
}

// Rect is a normalized rectangle in viewport pixels. Width and Height are
// never negative.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// RectFromPoints builds the rectangle spanned by an anchor and the current
// pointer position, whichever corner the drag started from.
func RectFromPoints(anchor, current Point) Rect {
	return Rect{
		Left:   math.Min(anchor.X, current.X),
		Top:    math.Min(anchor.Y, current.Y),
		Width:  math.Abs(current.X - anchor.X),
		Height: math.Abs(current.Y - anchor.Y),
	}
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.Left, Y: r.Top} }

// Selectable reports whether the rectangle is large enough to capture.
func (r Rect) Selectable() bool {
	return r.Width >= MinSelectable && r.Height >= MinSelectable
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right() && p.Y >= r.Top && p.Y <= r.Bottom()
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	r.Left += dx
	r.Top += dy
	return r
}

// Scale converts viewport pixels to device pixels for the given pixel ratio.
// Edges are rounded outward so the device rectangle never loses a partially
// covered pixel.
func (r Rect) Scale(ratio float64) image.Rectangle {
	if ratio <= 0 {
		ratio = 1
	}
	return image.Rect(
		int(math.Floor(r.Left*ratio)),
		int(math.Floor(r.Top*ratio)),
		int(math.Ceil(r.Right()*ratio)),
		int(math.Ceil(r.Bottom()*ratio)),
	)
}

// Viewport describes the visible area and the page scroll offset.
type Viewport struct {
	Width   float64
	Height  float64
	ScrollX float64
	ScrollY float64
}

// Bounds returns the visible area in viewport coordinates.
func (v Viewport) Bounds() Rect { return Rect{Width: v.Width, Height: v.Height} }
