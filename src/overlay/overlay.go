// Package overlay owns the full-screen selection layer. At most one overlay
// exists at a time; starting a new one tears down the previous overlay and
// any result panel first.
package overlay

import (
	"context"
	"errors"
	"log"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/selection"
)

// ErrSelectionTooSmall marks a release below the minimum selectable size.
// It is a silent cancellation and never shown to the user.
var ErrSelectionTooSmall = errors.New("selection too small")

// HintText is shown on the overlay until the first pointer-down.
const HintText = "Drag to select an area. Press Esc to cancel."

// Selector defines a synchronous region-selection API owned by the event loop.
// The call blocks and must not be made from the UI goroutine.
// Returns (rect, cancelled, error). If cancelled is true, rect is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (geometry.Rect, bool, error)
}

// Outcome is how a session ended.
type Outcome struct {
	Rect      geometry.Rect
	Cancelled bool
	// Err is ErrSelectionTooSmall for undersized releases.
	Err error
}

// Controller creates and tears down overlay sessions on one document. Its
// methods other than Select must run on the UI goroutine.
type Controller struct {
	doc *scene.Document
	run scene.Runner

	current *Session

	// OnStart and OnEnd let the frontend show and hide its window around a
	// session. Both run on the UI goroutine.
	OnStart func()
	OnEnd   func()
}

// NewController returns a controller for doc. run marshals work onto the UI
// goroutine; nil means scene.Direct.
func NewController(doc *scene.Document, run scene.Runner) *Controller {
	if run == nil {
		run = scene.Direct
	}
	return &Controller{doc: doc, run: run}
}

// Session is one overlay from creation to commit or cancel.
type Session struct {
	ctrl    *Controller
	engine  *selection.Engine
	overlay *scene.Element
	box     *scene.Element
	hint    *scene.Element

	subs  *scene.Subscription
	done  chan Outcome
	ended bool
}

// Active returns the running session, or nil.
func (c *Controller) Active() *Session { return c.current }

// Start removes any existing overlay and result panel and opens a new
// selection session.
func (c *Controller) Start() *Session {
	c.Teardown()
	c.doc.RemoveAll(scene.KindOverlay)
	c.doc.RemoveAll(scene.KindPanel)

	vp := c.doc.Viewport()
	s := &Session{ctrl: c, engine: selection.NewEngine(), done: make(chan Outcome, 1)}

	s.overlay = c.doc.Create(scene.KindOverlay, "ocr-overlay")
	s.overlay.SetBox(geometry.Rect{Width: vp.Width, Height: vp.Height})
	s.hint = s.overlay.Append(c.doc.Create(scene.KindHint, "ocr-hint"))
	s.hint.SetText(HintText)
	s.box = s.overlay.Append(c.doc.Create(scene.KindSelection, "ocr-selection"))
	s.box.SetHidden(true)
	c.doc.Append(s.overlay)
	c.doc.Focus(s.overlay)

	s.subs = s.overlay.Listen(scene.PointerDown, s.onDown)
	s.subs.Join(c.doc.Listen(scene.KeyDown, s.onKey))

	c.current = s
	if c.OnStart != nil {
		c.OnStart()
	}
	return s
}

// Teardown cancels the running session. It is a no-op when no overlay exists.
func (c *Controller) Teardown() {
	if c.current == nil {
		return
	}
	c.current.finish(Outcome{Cancelled: true})
}

// Select opens a session on the UI goroutine and waits for it to end.
func (c *Controller) Select(ctx context.Context) (geometry.Rect, bool, error) {
	started := make(chan *Session, 1)
	c.run(func() { started <- c.Start() })

	var s *Session
	select {
	case s = <-started:
	case <-ctx.Done():
		return geometry.Rect{}, false, ctx.Err()
	}

	select {
	case out := <-s.Done():
		if out.Err != nil {
			log.Printf("Overlay: %v (%.0fx%.0f)", out.Err, out.Rect.Width, out.Rect.Height)
		}
		if out.Cancelled {
			return geometry.Rect{}, true, nil
		}
		return out.Rect, false, nil
	case <-ctx.Done():
		c.run(func() { s.finish(Outcome{Cancelled: true}) })
		return geometry.Rect{}, false, ctx.Err()
	}
}

// Done delivers the outcome once the session ends.
func (s *Session) Done() <-chan Outcome { return s.done }

// Ended reports whether the session has finished.
func (s *Session) Ended() bool { return s.ended }

// Engine exposes the selection state machine for inspection.
func (s *Session) Engine() *selection.Engine { return s.engine }

func (s *Session) onDown(ev *scene.Event) {
	if !s.engine.PointerDown(ev.Point) {
		return
	}
	ev.PreventDefault()
	s.hint.SetHidden(true)
	s.box.SetBox(geometry.Rect{Left: ev.Point.X, Top: ev.Point.Y})
	s.box.SetHidden(false)

	// Track on the document so leaving the overlay does not lose the release.
	doc := s.ctrl.doc
	s.subs.Join(doc.Listen(scene.PointerMove, s.onMove))
	s.subs.Join(doc.Listen(scene.PointerUp, s.onUp))
}

func (s *Session) onMove(ev *scene.Event) {
	if r, ok := s.engine.PointerMove(ev.Point); ok {
		s.box.SetBox(r)
	}
}

func (s *Session) onUp(ev *scene.Event) {
	out, ok := s.engine.PointerUp(ev.Point)
	if !ok {
		return
	}
	if out.TooSmall {
		s.finish(Outcome{Rect: out.Rect, Cancelled: true, Err: ErrSelectionTooSmall})
		return
	}
	s.finish(Outcome{Rect: out.Rect})
}

func (s *Session) onKey(ev *scene.Event) {
	if ev.Key != scene.KeyEscape {
		return
	}
	ev.PreventDefault()
	s.engine.Escape()
	s.finish(Outcome{Rect: s.engine.Rect(), Cancelled: true})
}

// finish releases every listener the session acquired, removes the overlay
// and publishes the outcome. Later calls do nothing.
func (s *Session) finish(out Outcome) {
	if s.ended {
		return
	}
	s.ended = true
	s.subs.Release()
	s.overlay.Remove()
	s.engine.Reset()

	c := s.ctrl
	if c.doc.Focused() == s.overlay {
		c.doc.Focus(nil)
	}
	if c.current == s {
		c.current = nil
		if c.OnEnd != nil {
			c.OnEnd()
		}
	}
	s.done <- out
}
