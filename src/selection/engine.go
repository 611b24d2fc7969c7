package selection

import (
	"screen-ocr-translate/src/geometry"
)

// Outcome is the result of releasing the pointer or cancelling.
type Outcome struct {
	Rect      geometry.Rect
	Committed bool
	// TooSmall is set when the release produced a rectangle under the
	// minimum selectable size. It is a silent cancellation.
	TooSmall bool
}

// Engine tracks one drag from pointer-down to release. It is not safe for
// concurrent use; callers drive it from the UI goroutine.
type Engine struct {
	state  State
	anchor geometry.Point
	rect   geometry.Rect
}

func NewEngine() *Engine { return &Engine{state: StateIdle} }

func (e *Engine) State() State { return e.state }

// Rect returns the rectangle drawn so far.
func (e *Engine) Rect() geometry.Rect { return e.rect }

// PointerDown starts drawing at p. It is ignored unless the engine is idle.
func (e *Engine) PointerDown(p geometry.Point) bool {
	next, err := Transition(e.state, EventPointerDown)
	if err != nil {
		return false
	}
	e.state = next
	e.anchor = p
	e.rect = geometry.Rect{Left: p.X, Top: p.Y}
	return true
}

// PointerMove recomputes the rectangle while drawing.
func (e *Engine) PointerMove(p geometry.Point) (geometry.Rect, bool) {
	if _, err := Transition(e.state, EventPointerMove); err != nil {
		return e.rect, false
	}
	e.rect = geometry.RectFromPoints(e.anchor, p)
	return e.rect, true
}

// PointerUp finishes the drag at p. A rectangle below the minimum size is
// reported as cancelled with TooSmall set.
func (e *Engine) PointerUp(p geometry.Point) (Outcome, bool) {
	if e.state != StateDrawing {
		return Outcome{}, false
	}
	e.rect = geometry.RectFromPoints(e.anchor, p)
	if !e.rect.Selectable() {
		e.state, _ = Transition(e.state, EventCancel)
		return Outcome{Rect: e.rect, TooSmall: true}, true
	}
	e.state, _ = Transition(e.state, EventCommit)
	return Outcome{Rect: e.rect, Committed: true}, true
}

// Escape cancels an in-progress drag.
func (e *Engine) Escape() (Outcome, bool) {
	next, err := Transition(e.state, EventCancel)
	if err != nil {
		return Outcome{}, false
	}
	e.state = next
	return Outcome{Rect: e.rect}, true
}

// Reset returns the engine to idle from any state and forgets the rectangle.
func (e *Engine) Reset() {
	e.state = StateIdle
	e.anchor = geometry.Point{}
	e.rect = geometry.Rect{}
}
