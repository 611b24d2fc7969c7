package scene

import (
	"fmt"

	"screen-ocr-translate/src/geometry"
)

// Runner executes fn on the UI goroutine.
type Runner func(fn func())

// Direct runs fn on the calling goroutine. Used by tests and headless callers.
func Direct(fn func()) { fn() }

// Document holds the root elements drawn above the captured screen together
// with document-level listeners.
type Document struct {
	viewport  geometry.Viewport
	roots     []*Element
	listeners map[EventType][]*listener
	pressed   *Element
	focus     *Element
	seq       int
	onChange  []func()
}

func New(vp geometry.Viewport) *Document {
	return &Document{viewport: vp, listeners: map[EventType][]*listener{}}
}

func (d *Document) Viewport() geometry.Viewport { return d.viewport }

func (d *Document) SetViewport(vp geometry.Viewport) {
	d.viewport = vp
	d.changed()
}

// ScrollTo updates the page scroll offset.
func (d *Document) ScrollTo(x, y float64) {
	d.viewport.ScrollX = x
	d.viewport.ScrollY = y
	d.changed()
}

// OnChange registers fn to be called after every mutation. The frontend uses
// it to schedule a redraw.
func (d *Document) OnChange(fn func()) { d.onChange = append(d.onChange, fn) }

func (d *Document) changed() {
	if d == nil {
		return
	}
	for _, fn := range d.onChange {
		fn()
	}
}

// Create returns a new detached element owned by d. An empty id gets a
// generated one.
func (d *Document) Create(kind Kind, id string) *Element {
	if id == "" {
		d.seq++
		id = fmt.Sprintf("%s-%d", kind, d.seq)
	}
	return &Element{ID: id, Kind: kind, doc: d}
}

// Append attaches el as the topmost root element.
func (d *Document) Append(el *Element) *Element {
	el.detach()
	el.doc = d
	d.roots = append(d.roots, el)
	d.changed()
	return el
}

// Roots returns a copy of the root list, bottom first.
func (d *Document) Roots() []*Element {
	out := make([]*Element, len(d.roots))
	copy(out, d.roots)
	return out
}

// ByID finds an attached element by id.
func (d *Document) ByID(id string) *Element {
	for _, r := range d.roots {
		if r.ID == id {
			return r
		}
		if found := r.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// First returns the first root element of the given kind.
func (d *Document) First(kind Kind) *Element {
	for _, r := range d.roots {
		if r.Kind == kind {
			return r
		}
	}
	return nil
}

// Count returns the number of root elements of the given kind.
func (d *Document) Count(kind Kind) int {
	n := 0
	for _, r := range d.roots {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// RemoveAll detaches every root element of the given kind.
func (d *Document) RemoveAll(kind Kind) int {
	n := 0
	for _, r := range d.Roots() {
		if r.Kind == kind {
			r.Remove()
			n++
		}
	}
	return n
}

// HitTest returns the topmost element under p, or nil.
func (d *Document) HitTest(p geometry.Point) *Element {
	for i := len(d.roots) - 1; i >= 0; i-- {
		if h := d.roots[i].hit(p); h != nil {
			return h
		}
	}
	return nil
}

// Focus moves keyboard focus to el (nil clears it).
func (d *Document) Focus(el *Element) { d.focus = el }

func (d *Document) Focused() *Element { return d.focus }

// EditingText reports whether focus is in an input element.
func (d *Document) EditingText() bool {
	return d.focus != nil && d.focus.Role == RoleInput
}
