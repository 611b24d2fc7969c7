// Package fab is the floating capture button: a small draggable element kept
// on screen while the showFab setting is on.
package fab

import (
	"log"

	"screen-ocr-translate/src/drag"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/settings"
)

const (
	ID        = "ocr-fab"
	DarkClass = "ocr-theme-dark"
	// Size is the button edge in pixels.
	Size = 48
	// Inset is the initial distance from the bottom-right corner.
	Inset = 24
)

// Icon is the SVG path of the capture glyph (corner brackets), drawn by the
// frontend on a 24x24 view box.
const Icon = "M3 5v4h2V5h4V3H5c-1.1 0-2 .9-2 2zm2 10H3v4c0 1.1.9 2 2 2h4v-2H5v-4zm14 4h-4v2h4c1.1 0 2-.9 2-2v-4h-2v4zm0-16h-4v2h4v4h2V5c0-1.1-.9-2-2-2z"

// Button owns the floating button element. Apply and OnChange may be called
// from any goroutine.
type Button struct {
	doc        *scene.Document
	run        scene.Runner
	capture    func()
	systemDark func() bool

	el    *scene.Element
	drag  *drag.Draggable
	click *scene.Subscription
}

// New returns a Button that calls capture on click. systemDark may be nil.
func New(doc *scene.Document, run scene.Runner, capture func(), systemDark func() bool) *Button {
	if run == nil {
		run = scene.Direct
	}
	return &Button{doc: doc, run: run, capture: capture, systemDark: systemDark}
}

// Element returns the button element, or nil when hidden. UI goroutine only.
func (b *Button) Element() *scene.Element { return b.el }

// Apply brings the button in line with s: created when showFab is on,
// removed when off, dark class following the theme.
func (b *Button) Apply(s settings.Settings) {
	b.run(func() {
		if !s.ShowFab {
			b.remove()
			return
		}
		b.create()
		b.el.ToggleClass(DarkClass, s.Dark(b.dark()))
	})
}

// OnChange is a settings.Store callback.
func (b *Button) OnChange(c settings.Change) {
	if !c.Has(settings.KeyShowFab) && !c.Has(settings.KeyTheme) {
		return
	}
	b.Apply(c.New)
}

func (b *Button) dark() bool {
	return b.systemDark != nil && b.systemDark()
}

func (b *Button) create() {
	if b.el != nil && b.el.Attached() {
		return
	}
	vp := b.doc.Viewport()
	el := b.doc.Create(scene.KindFAB, ID)
	el.Data = Icon
	el.Positioning = scene.PositionFixed
	el.SetBox(geometry.Rect{Left: vp.Width - Size - Inset, Top: vp.Height - Size - Inset, Width: Size, Height: Size})
	b.doc.Append(el)

	b.el = el
	b.drag = drag.Attach(el, nil, drag.Floating)
	b.click = el.Listen(scene.Click, func(ev *scene.Event) {
		ev.StopPropagation()
		if drag.ConsumeClick(el) {
			return
		}
		log.Printf("FAB: clicked")
		if b.capture != nil {
			b.capture()
		}
	})
	log.Printf("FAB: shown")
}

func (b *Button) remove() {
	if b.el == nil {
		return
	}
	b.drag.Detach()
	b.click.Release()
	b.el.Remove()
	b.el, b.drag, b.click = nil, nil, nil
	log.Printf("FAB: removed")
}
