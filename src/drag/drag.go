// Package drag gives any floating scene element free drag behaviour with
// click-versus-drag disambiguation and a viewport clamp on release.
package drag

import (
	"math"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
)

// Threshold is how far (pixels, either axis) the pointer must travel before
// a press becomes a drag.
const Threshold = 3

// Draggable is the drag behaviour installed on one element.
type Draggable struct {
	doc    *scene.Document
	el     *scene.Element
	handle *scene.Element
	policy Policy

	down    *scene.Subscription
	session *session
}

type session struct {
	anchor geometry.Point
	origin geometry.Point
	moved  bool
	track  *scene.Subscription
}

// Attach installs drag behaviour on el. Presses start a drag only on handle
// (or el itself when handle is nil) and never on interactive controls or
// copyable text blocks inside it.
func Attach(el, handle *scene.Element, policy Policy) *Draggable {
	if handle == nil {
		handle = el
	}
	d := &Draggable{doc: el.Document(), el: el, handle: handle, policy: policy}
	d.down = handle.Listen(scene.PointerDown, d.onDown)
	return d
}

// Detach removes the behaviour and any tracking listeners.
func (d *Draggable) Detach() {
	d.down.Release()
	d.end()
}

// Dragging reports whether a press is currently being tracked.
func (d *Draggable) Dragging() bool { return d.session != nil }

// Eligible reports whether a press on target may start a drag.
func (d *Draggable) Eligible(target *scene.Element) bool {
	if target == nil || !d.handle.Contains(target) {
		return false
	}
	blocked := target.Closest(func(n *scene.Element) bool {
		return n.Role.Interactive() || n.Role == scene.RoleTextBlock
	})
	return blocked == nil || !d.handle.Contains(blocked)
}

func (d *Draggable) onDown(ev *scene.Event) {
	if d.session != nil {
		return
	}
	// Each press starts a new gesture, even on controls that cannot drag.
	d.el.Dragged = false
	if !d.Eligible(ev.Target) {
		return
	}
	ev.PreventDefault()

	box := d.el.Box()
	origin := box.Origin()
	if d.el.Positioning == scene.PositionAbsolute {
		vp := d.doc.Viewport()
		origin = geometry.Point{X: box.Left + vp.ScrollX, Y: box.Top + vp.ScrollY}
	}
	// Lock the element to explicit coordinates at its rendered spot so later
	// writes are absolute.
	if d.el.Mode != scene.ModeExplicit {
		d.el.SetPosition(origin.X, origin.Y)
	}

	s := &session{anchor: ev.Point, origin: origin}
	s.track = d.doc.Listen(scene.PointerMove, d.onMove)
	s.track.Join(d.doc.Listen(scene.PointerUp, d.onUp))
	d.session = s
}

func (d *Draggable) onMove(ev *scene.Event) {
	s := d.session
	if s == nil {
		return
	}
	dx := ev.Point.X - s.anchor.X
	dy := ev.Point.Y - s.anchor.Y
	if !s.moved {
		if math.Abs(dx) <= Threshold && math.Abs(dy) <= Threshold {
			return
		}
		s.moved = true
		d.el.Dragged = true
	}
	d.el.SetPosition(s.origin.X+dx, s.origin.Y+dy)
}

func (d *Draggable) onUp(*scene.Event) {
	s := d.session
	if s == nil {
		return
	}
	moved := s.moved
	d.end()
	if moved {
		d.ClampToViewport()
	}
}

func (d *Draggable) end() {
	if d.session == nil {
		return
	}
	d.session.track.Release()
	d.session = nil
}

// ClampToViewport moves the element back inside the viewport according to
// its policy.
func (d *Draggable) ClampToViewport() {
	if d.policy == nil || !d.el.Attached() {
		return
	}
	vp := d.doc.Viewport()
	p := d.policy.Clamp(d.el.Box(), vp)
	if d.el.Positioning == scene.PositionAbsolute {
		p.X += vp.ScrollX
		p.Y += vp.ScrollY
	}
	if p.X != d.el.Left || p.Y != d.el.Top {
		d.el.SetPosition(p.X, p.Y)
	}
}

// ConsumeClick reports whether a click on el must be suppressed because the
// press that produced it was a drag. The flag is cleared.
func ConsumeClick(el *scene.Element) bool {
	if el == nil || !el.Dragged {
		return false
	}
	el.Dragged = false
	return true
}
