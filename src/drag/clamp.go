package drag

import (
	"math"

	"screen-ocr-translate/src/geometry"
)

// Policy keeps a dragged element reachable inside the viewport.
type Policy interface {
	// Clamp returns the corrected top-left corner, in viewport coordinates,
	// for an element with the given box.
	Clamp(box geometry.Rect, vp geometry.Viewport) geometry.Point
}

// Visible keeps at least Horizontal pixels of the element on screen left and
// right, stops the top edge at Top, and keeps Bottom pixels above the bottom
// edge. The floating button uses it.
type Visible struct {
	Horizontal float64
	Top        float64
	Bottom     float64
}

// Contained keeps the whole element inside the viewport, Margin pixels from
// every edge. The result card uses it.
type Contained struct {
	Margin float64
}

var (
	Floating = Visible{Horizontal: 50, Top: 0, Bottom: 50}
	Card     = Contained{Margin: 10}
)

func (p Visible) Clamp(box geometry.Rect, vp geometry.Viewport) geometry.Point {
	left, top := box.Left, box.Top
	if left+box.Width < p.Horizontal {
		left = p.Horizontal - box.Width
	}
	if left > vp.Width-p.Horizontal {
		left = vp.Width - p.Horizontal
	}
	if top > vp.Height-p.Bottom {
		top = vp.Height - p.Bottom
	}
	if top < p.Top {
		top = p.Top
	}
	return geometry.Point{X: left, Y: top}
}

func (p Contained) Clamp(box geometry.Rect, vp geometry.Viewport) geometry.Point {
	return geometry.Point{
		X: containAxis(box.Left, box.Width, vp.Width, p.Margin),
		Y: containAxis(box.Top, box.Height, vp.Height, p.Margin),
	}
}

// containAxis pins an oversized element to the leading margin so its header
// stays reachable.
func containAxis(pos, size, extent, margin float64) float64 {
	maxPos := extent - size - margin
	if maxPos < margin {
		return margin
	}
	return math.Min(math.Max(pos, margin), maxPos)
}
