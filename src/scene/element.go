// Package scene is the retained model of everything the tool draws on top of
// the captured screen: the selection overlay, the floating button, the result
// card, toasts. Engines mutate it; the desktop frontend renders it and feeds
// pointer and keyboard events back in through Document.Dispatch.
//
// A Document is not safe for concurrent use. All calls must happen on the UI
// goroutine; code running elsewhere marshals through a Runner.
package scene

import (
	"screen-ocr-translate/src/geometry"
)

type Kind string

const (
	KindOverlay   Kind = "overlay"
	KindSelection Kind = "selection"
	KindHint      Kind = "hint"
	KindPanel     Kind = "panel"
	KindFAB       Kind = "fab"
	KindToast     Kind = "toast"
	KindLoading   Kind = "loading"
	KindDialog    Kind = "dialog"
	KindNode      Kind = "node"
)

// Role describes how an element reacts to pointer input.
type Role int

const (
	RolePlain Role = iota
	RoleButton
	RoleSelect
	RoleInput
	// RoleTextBlock marks text the user may select and copy.
	RoleTextBlock
)

// Interactive reports whether the role is a control that owns its own clicks.
func (r Role) Interactive() bool {
	return r == RoleButton || r == RoleSelect || r == RoleInput
}

// Positioning selects the coordinate space of Left/Top for root elements.
type Positioning int

const (
	// PositionFixed coordinates are relative to the viewport.
	PositionFixed Positioning = iota
	// PositionAbsolute coordinates are relative to the page and move with scroll.
	PositionAbsolute
)

// Mode says who decides where a root element sits.
type Mode int

const (
	// ModeAnchored elements are centered in the viewport by layout.
	ModeAnchored Mode = iota
	// ModeExplicit elements sit at Left/Top.
	ModeExplicit
)

// Element is one node of the scene.
type Element struct {
	ID   string
	Kind Kind
	Role Role
	Text string
	// Data carries a view model for the frontend (for example a result card).
	Data any

	Positioning Positioning
	Mode        Mode
	Left        float64
	Top         float64
	Width       float64
	Height      float64
	Hidden      bool

	// Dragged is set by the drag engine when the last gesture moved the
	// element past the click threshold.
	Dragged bool

	classes  map[string]bool
	doc      *Document
	parent   *Element
	children []*Element
	handlers map[EventType][]*listener
}

// Document returns the owning document.
func (el *Element) Document() *Document { return el.doc }

func (el *Element) Parent() *Element { return el.parent }

// Children returns a copy of the child list.
func (el *Element) Children() []*Element {
	out := make([]*Element, len(el.children))
	copy(out, el.children)
	return out
}

// Attached reports whether the element is reachable from a document root.
func (el *Element) Attached() bool {
	root := el
	for root.parent != nil {
		root = root.parent
	}
	if root.doc == nil {
		return false
	}
	for _, r := range root.doc.roots {
		if r == root {
			return true
		}
	}
	return false
}

// Append adds child as the last child of el.
func (el *Element) Append(child *Element) *Element {
	child.detach()
	child.parent = el
	el.children = append(el.children, child)
	el.doc.changed()
	return child
}

// Remove detaches el (and its subtree) from the document. Removing a
// detached element is a no-op.
func (el *Element) Remove() {
	if el.detach() {
		el.doc.changed()
	}
}

func (el *Element) detach() bool {
	if el.parent != nil {
		p := el.parent
		for i, c := range p.children {
			if c == el {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		el.parent = nil
		return true
	}
	if el.doc == nil {
		return false
	}
	for i, r := range el.doc.roots {
		if r == el {
			el.doc.roots = append(el.doc.roots[:i], el.doc.roots[i+1:]...)
			if el.doc.pressed != nil && el.contains(el.doc.pressed) {
				el.doc.pressed = nil
			}
			if el.doc.focus != nil && el.contains(el.doc.focus) {
				el.doc.focus = nil
			}
			return true
		}
	}
	return false
}

// contains reports whether other is el or one of its descendants.
func (el *Element) contains(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == el {
			return true
		}
	}
	return false
}

// Contains reports whether other is el or a descendant of el.
func (el *Element) Contains(other *Element) bool { return el.contains(other) }

// Closest returns the nearest element, starting at el and walking up, for
// which match returns true.
func (el *Element) Closest(match func(*Element) bool) *Element {
	for n := el; n != nil; n = n.parent {
		if match(n) {
			return n
		}
	}
	return nil
}

// Box returns the rendered rectangle in viewport coordinates. Children are
// laid out relative to their parent's box.
func (el *Element) Box() geometry.Rect {
	if el.parent != nil {
		pb := el.parent.Box()
		return geometry.Rect{Left: pb.Left + el.Left, Top: pb.Top + el.Top, Width: el.Width, Height: el.Height}
	}
	vp := el.doc.viewport
	if el.Mode == ModeAnchored {
		return geometry.Rect{
			Left:   (vp.Width - el.Width) / 2,
			Top:    (vp.Height - el.Height) / 2,
			Width:  el.Width,
			Height: el.Height,
		}
	}
	left, top := el.Left, el.Top
	if el.Positioning == PositionAbsolute {
		left -= vp.ScrollX
		top -= vp.ScrollY
	}
	return geometry.Rect{Left: left, Top: top, Width: el.Width, Height: el.Height}
}

// SetPosition writes explicit coordinates in the element's positioning space
// and switches it to ModeExplicit.
func (el *Element) SetPosition(left, top float64) {
	el.Mode = ModeExplicit
	el.Left = left
	el.Top = top
	el.doc.changed()
}

// SetBox positions and sizes the element in one call.
func (el *Element) SetBox(r geometry.Rect) {
	el.Mode = ModeExplicit
	el.Left, el.Top, el.Width, el.Height = r.Left, r.Top, r.Width, r.Height
	el.doc.changed()
}

func (el *Element) SetSize(width, height float64) {
	el.Width = width
	el.Height = height
	el.doc.changed()
}

func (el *Element) SetText(text string) {
	el.Text = text
	el.doc.changed()
}

func (el *Element) SetHidden(hidden bool) {
	el.Hidden = hidden
	el.doc.changed()
}

func (el *Element) AddClass(name string) {
	if el.classes == nil {
		el.classes = map[string]bool{}
	}
	el.classes[name] = true
	el.doc.changed()
}

func (el *Element) RemoveClass(name string) {
	delete(el.classes, name)
	el.doc.changed()
}

// ToggleClass adds or removes name depending on on.
func (el *Element) ToggleClass(name string, on bool) {
	if on {
		el.AddClass(name)
	} else {
		el.RemoveClass(name)
	}
}

func (el *Element) HasClass(name string) bool { return el.classes[name] }

// Find returns the first descendant (depth first) with the given id.
func (el *Element) Find(id string) *Element {
	for _, c := range el.children {
		if c.ID == id {
			return c
		}
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// hit returns the deepest visible element under p, children last-on-top.
func (el *Element) hit(p geometry.Point) *Element {
	if el.Hidden || !el.Box().Contains(p) {
		return nil
	}
	for i := len(el.children) - 1; i >= 0; i-- {
		if h := el.children[i].hit(p); h != nil {
			return h
		}
	}
	return el
}
