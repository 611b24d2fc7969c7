// Package stage is the fyne frontend: a borderless full-screen window that
// shows the frozen screenshot and draws the scene on top of it. It is only
// on screen while there is something to interact with.
package stage

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"screen-ocr-translate/src/capture"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/overlay"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/screenshot"
	"screen-ocr-translate/src/settings"
)

// Stage owns the window and the document it renders.
type Stage struct {
	app     fyne.App
	win     fyne.Window
	doc     *scene.Document
	surface *surface
	shooter capture.Screenshotter
	scale   float64

	mu     sync.Mutex
	frozen image.Image

	// OnKey sees every key press after the scene handled it.
	OnKey func(ev *scene.Event)
	shown bool
	// held keeps the window and backdrop up between closing a card and the
	// next selection starting.
	held bool
	// capturing keeps the frozen backdrop from the start of a selection
	// until its result or error is on screen.
	capturing bool
}

// holdTimeout bounds Hold when no selection follows.
const holdTimeout = 2 * time.Second

// Options configures the stage.
type Options struct {
	// Screenshot captures the backdrop. Nil captures the primary display.
	Screenshot capture.Screenshotter
	// DeviceScale overrides the device pixel ratio when > 0.
	DeviceScale float64
}

// New creates the (hidden) stage window. Call from the main goroutine.
func New(app fyne.App, opts Options) *Stage {
	shooter := opts.Screenshot
	if shooter == nil {
		shooter = screenshot.Primary{}
	}
	s := &Stage{
		app:     app,
		doc:     scene.New(geometry.Viewport{Width: 1, Height: 1}),
		shooter: shooter,
		scale:   opts.DeviceScale,
	}
	s.win = app.NewWindow("Screen OCR Translate")
	s.win.SetPadded(false)
	s.win.SetFullScreen(true)
	s.surface = newSurface(s)
	s.win.SetContent(s.surface)
	s.win.SetCloseIntercept(s.dismiss)
	s.bindKeys()
	return s
}

// Document returns the scene the stage renders.
func (s *Stage) Document() *scene.Document { return s.doc }

// Run is the scene.Runner of the stage: fn runs on the fyne goroutine and the
// window is redrawn afterwards.
func (s *Stage) Run(fn func()) {
	fyne.Do(func() {
		fn()
		s.sync()
	})
}

// sync redraws and shows or hides the window to match the scene.
// UI goroutine only.
func (s *Stage) sync() {
	s.surface.Refresh()
	if s.held && s.doc.Count(scene.KindOverlay) > 0 {
		s.held = false
	}
	want := s.held || s.capturing || NeedsWindow(s.doc)
	if want == s.shown {
		return
	}
	s.shown = want
	if want {
		s.win.Show()
		s.win.RequestFocus()
		return
	}
	s.win.Hide()
	s.mu.Lock()
	s.frozen = nil
	s.mu.Unlock()
	s.surface.setBackdrop(nil)
}

// Hold keeps the stage up for a selection that is about to start, so a scan
// next reuses the frozen backdrop. UI goroutine only.
func (s *Stage) Hold() {
	s.held = true
	time.AfterFunc(holdTimeout, func() {
		s.Run(func() { s.held = false })
	})
}

// Release ends a capture started by the selector and lets the window hide
// once nothing else needs it.
func (s *Stage) Release() {
	s.Run(func() { s.capturing = false })
}

// NeedsWindow reports whether the scene holds anything that must be on
// screen. A floating button alone does not keep the window up.
func NeedsWindow(doc *scene.Document) bool {
	for _, el := range doc.Roots() {
		if el.Hidden {
			continue
		}
		switch el.Kind {
		case scene.KindOverlay, scene.KindPanel, scene.KindLoading, scene.KindDialog, scene.KindToast:
			return true
		}
	}
	return false
}

// dismiss closes whatever the scene shows, like Escape on an empty page.
func (s *Stage) dismiss() {
	s.capturing = false
	for _, k := range []scene.Kind{scene.KindOverlay, scene.KindPanel, scene.KindLoading, scene.KindDialog, scene.KindToast} {
		s.doc.RemoveAll(k)
	}
	s.sync()
}

// Freeze captures the screen as the backdrop for a new selection. It keeps
// an existing backdrop while the window is already up so a scan-next
// selection is drawn over the same picture the card sits on.
func (s *Stage) Freeze(ctx context.Context) error {
	s.mu.Lock()
	have := s.frozen != nil
	s.mu.Unlock()
	if have {
		return nil
	}
	img, err := s.shooter.Capture(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.frozen = img
	s.mu.Unlock()
	log.Printf("Stage: froze %dx%d backdrop", img.Bounds().Dx(), img.Bounds().Dy())
	s.Run(func() { s.surface.setBackdrop(img) })
	return nil
}

// Capture implements capture.Screenshotter with the frozen backdrop.
func (s *Stage) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	img := s.frozen
	s.mu.Unlock()
	if img != nil {
		return img, nil
	}
	return s.shooter.Capture(ctx)
}

// PixelRatio converts screenshot bounds to device pixels per scene pixel.
func (s *Stage) PixelRatio(bounds image.Rectangle) float64 {
	if s.scale > 0 {
		return s.scale
	}
	return screenshot.PixelRatio(bounds, s.doc.Viewport())
}

// SystemDark reports whether the desktop prefers a dark theme.
func (s *Stage) SystemDark() bool {
	return s.app.Settings().ThemeVariant() == theme.VariantDark
}

// Selector wraps an overlay controller so each selection starts by freezing
// the screen.
func (s *Stage) Selector(ctrl *overlay.Controller) overlay.Selector {
	return frozenSelector{stage: s, ctrl: ctrl}
}

type frozenSelector struct {
	stage *Stage
	ctrl  *overlay.Controller
}

func (f frozenSelector) Select(ctx context.Context) (geometry.Rect, bool, error) {
	if err := f.stage.Freeze(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return geometry.Rect{}, true, nil
		}
		return geometry.Rect{}, false, err
	}
	f.stage.Run(func() { f.stage.capturing = true })
	rect, cancelled, err := f.ctrl.Select(ctx)
	if cancelled || err != nil {
		f.stage.Release()
	}
	return rect, cancelled, err
}

// Release drops the hold of a committed selection whose pipeline never ran.
func (f frozenSelector) Release() { f.stage.Release() }

// Presenter wraps p so a committed selection keeps its backdrop while the
// pipeline runs. The stage is released once the result or error is shown.
func (s *Stage) Presenter(p capture.Presenter) capture.Presenter {
	return stagedPresenter{Presenter: p, stage: s}
}

type stagedPresenter struct {
	capture.Presenter
	stage *Stage
}

func (p stagedPresenter) ShowResult(res llm.Result, cfg settings.Settings) {
	p.Presenter.ShowResult(res, cfg)
	p.stage.Release()
}

func (p stagedPresenter) ShowError(err error) {
	p.Presenter.ShowError(err)
	p.stage.Release()
}
