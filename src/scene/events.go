package scene

import (
	"screen-ocr-translate/src/geometry"
)

type EventType string

const (
	PointerDown EventType = "pointerdown"
	PointerMove EventType = "pointermove"
	PointerUp   EventType = "pointerup"
	Click       EventType = "click"
	KeyDown     EventType = "keydown"
)

// Key names used in KeyDown events.
const (
	KeyEscape = "Escape"
)

// Event is a pointer or keyboard event. Target is filled by Dispatch from a
// hit test when the frontend leaves it nil.
type Event struct {
	Type   EventType
	Point  geometry.Point
	Target *Element
	Key    string
	Alt    bool
	Ctrl   bool
	Shift  bool

	stopped   bool
	prevented bool
}

// StopPropagation keeps the event from reaching ancestors and document
// listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the event as handled. The frontend skips its own
// default action (for example text selection) for prevented events.
func (e *Event) PreventDefault() { e.prevented = true }

func (e *Event) DefaultPrevented() bool { return e.prevented }

type Handler func(ev *Event)

type listener struct {
	fn     Handler
	active bool
}

// Subscription is a set of listeners released together.
type Subscription struct {
	releases []func()
	released bool
}

// Release removes every listener in the subscription. Calling it more than
// once is safe.
func (s *Subscription) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	for _, r := range s.releases {
		r()
	}
	s.releases = nil
}

// Released reports whether Release has run.
func (s *Subscription) Released() bool { return s == nil || s.released }

// Join moves the listeners of other into s, so one Release drops both.
func (s *Subscription) Join(other *Subscription) *Subscription {
	if other == nil || other.released {
		return s
	}
	s.releases = append(s.releases, other.releases...)
	other.releases = nil
	other.released = true
	return s
}

// Listen registers a document-level handler. Document handlers run after the
// element handlers on the target path.
func (d *Document) Listen(t EventType, fn Handler) *Subscription {
	l := &listener{fn: fn, active: true}
	d.listeners[t] = append(d.listeners[t], l)
	return &Subscription{releases: []func(){func() {
		l.active = false
		d.listeners[t] = without(d.listeners[t], l)
	}}}
}

// Listen registers a handler on the element. It fires for events targeting
// the element or any descendant.
func (el *Element) Listen(t EventType, fn Handler) *Subscription {
	if el.handlers == nil {
		el.handlers = map[EventType][]*listener{}
	}
	l := &listener{fn: fn, active: true}
	el.handlers[t] = append(el.handlers[t], l)
	return &Subscription{releases: []func(){func() {
		l.active = false
		el.handlers[t] = without(el.handlers[t], l)
	}}}
}

func without(ls []*listener, l *listener) []*listener {
	for i, x := range ls {
		if x == l {
			return append(ls[:i:i], ls[i+1:]...)
		}
	}
	return ls
}

// ListenerCount returns the number of live document-level listeners.
func (d *Document) ListenerCount() int {
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}

// Dispatch delivers ev along the target's ancestor path and then to the
// document listeners. A pointer-up whose target shares an ancestor with the
// element that received the pointer-down is followed by a Click on the
// nearest common ancestor.
func (d *Document) Dispatch(ev *Event) {
	if ev.Target == nil && ev.Type != KeyDown {
		ev.Target = d.HitTest(ev.Point)
	}
	if ev.Type == KeyDown && ev.Target == nil {
		ev.Target = d.focus
	}

	var pressed *Element
	switch ev.Type {
	case PointerDown:
		d.pressed = ev.Target
	case PointerUp:
		pressed = d.pressed
		d.pressed = nil
	}

	d.deliver(ev)

	if ev.Type == PointerUp && pressed != nil && ev.Target != nil {
		if target := commonAncestor(pressed, ev.Target); target != nil && target.Attached() {
			d.deliver(&Event{Type: Click, Point: ev.Point, Target: target})
		}
	}
}

func (d *Document) deliver(ev *Event) {
	for n := ev.Target; n != nil && !ev.stopped; n = n.parent {
		for _, l := range snapshot(n.handlers[ev.Type]) {
			if l.active {
				l.fn(ev)
			}
			if ev.stopped {
				break
			}
		}
	}
	if ev.stopped {
		return
	}
	for _, l := range snapshot(d.listeners[ev.Type]) {
		if l.active {
			l.fn(ev)
		}
		if ev.stopped {
			return
		}
	}
}

func snapshot(ls []*listener) []*listener {
	out := make([]*listener, len(ls))
	copy(out, ls)
	return out
}

func commonAncestor(a, b *Element) *Element {
	for n := a; n != nil; n = n.parent {
		if n.contains(b) {
			return n
		}
	}
	return nil
}
