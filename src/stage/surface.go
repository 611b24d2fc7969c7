package stage

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/present"
	"screen-ocr-translate/src/scene"
)

// surface fills the window, draws the scene and turns mouse input into
// scene pointer events.
type surface struct {
	widget.BaseWidget
	st *Stage

	down    bool
	last    geometry.Point
	pressed *scene.Element
	r       *renderer
}

var (
	_ desktop.Mouseable = (*surface)(nil)
	_ desktop.Hoverable = (*surface)(nil)
	_ fyne.Draggable    = (*surface)(nil)
)

func newSurface(st *Stage) *surface {
	s := &surface{st: st}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	s.r = newRenderer(s)
	return s.r
}

func (s *surface) Resize(size fyne.Size) {
	s.BaseWidget.Resize(size)
	vp := s.st.doc.Viewport()
	vp.Width, vp.Height = float64(size.Width), float64(size.Height)
	s.st.doc.SetViewport(vp)
}

func (s *surface) setBackdrop(img image.Image) {
	if s.r != nil {
		s.r.setBackdrop(img)
	}
}

func point(p fyne.Position) geometry.Point {
	return geometry.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (s *surface) dispatch(t scene.EventType, p geometry.Point) *scene.Event {
	s.last = p
	ev := &scene.Event{Type: t, Point: p}
	s.st.doc.Dispatch(ev)
	return ev
}

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || s.down {
		return
	}
	s.down = true
	e := s.dispatch(scene.PointerDown, point(ev.Position))
	s.pressed = e.Target
	s.st.sync()
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.release(point(ev.Position))
}

func (s *surface) release(p geometry.Point) {
	if !s.down {
		return
	}
	s.down = false
	e := s.dispatch(scene.PointerUp, p)
	pressed := s.pressed
	s.pressed = nil
	if pressed != nil && pressed == e.Target && pressed.Role == scene.RoleSelect {
		s.openSelect(pressed)
	}
	s.st.sync()
}

func (s *surface) MouseIn(*desktop.MouseEvent) {}

func (s *surface) MouseMoved(ev *desktop.MouseEvent) {
	if !s.down {
		return
	}
	s.dispatch(scene.PointerMove, point(ev.Position))
	s.st.sync()
}

func (s *surface) MouseOut() {}

// Dragged and DragEnd cover drivers that report a held button as a drag
// instead of mouse moves.
func (s *surface) Dragged(ev *fyne.DragEvent) {
	if !s.down {
		return
	}
	s.dispatch(scene.PointerMove, point(ev.Position))
	s.st.sync()
}

func (s *surface) DragEnd() {
	s.release(s.last)
}

// openSelect shows the options of a select element as a pop-up menu.
func (s *surface) openSelect(el *scene.Element) {
	choice, ok := el.Data.(*present.LanguageChoice)
	if !ok || choice.OnChange == nil {
		return
	}
	items := make([]*fyne.MenuItem, 0, len(choice.Options))
	for _, opt := range choice.Options {
		code := opt.Code
		item := fyne.NewMenuItem(opt.Name, func() {
			choice.OnChange(code)
			s.st.sync()
		})
		item.Checked = code == choice.Selected
		items = append(items, item)
	}
	box := el.Box()
	pos := fyne.NewPos(float32(box.Left), float32(box.Bottom()))
	widget.ShowPopUpMenuAtPosition(fyne.NewMenu("", items...), s.st.win.Canvas(), pos)
}
