package present

import (
	"context"
	"time"

	"screen-ocr-translate/src/apperr"
	"screen-ocr-translate/src/drag"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/settings"
	"screen-ocr-translate/src/speech"
)

// ToastDuration is how long an error toast stays up.
const ToastDuration = 5 * time.Second

const (
	LoadingID  = "ocr-loading"
	DialogID   = "ocr-dialog"
	DialogOKID = "ocr-dialog-ok"
)

// Toast is the Data of a toast element.
type Toast struct {
	Title   string
	Message string
}

// Services are the collaborators behind the panel actions. Nil entries
// disable the action.
type Services struct {
	Translate func(ctx context.Context, s settings.Settings, text, lang string) (string, error)
	Speak     func(ctx context.Context, text, lang string) error
	Practice  func(ctx context.Context, expected, languageName string) (speech.Score, error)
	Copy      func(text string) error
	// Capture starts a new capture (scan next).
	Capture func()
	// SystemDark reports the desktop dark-mode preference for the auto theme.
	SystemDark func() bool
	// Notify mirrors blocking errors to a desktop notification.
	Notify func(title, message string)
}

// Presenter implements the capture pipeline's presenter on a scene. Methods
// may be called from any goroutine; scene work is marshalled through run.
type Presenter struct {
	doc *scene.Document
	run scene.Runner
	svc Services

	panel    *Panel
	settings settings.Settings
	toasts   []*scene.Element

	// spawn runs background work; after schedules delayed work. Both are
	// replaced in tests.
	spawn func(func())
	after func(time.Duration, func())
}

func New(doc *scene.Document, run scene.Runner, svc Services) *Presenter {
	if run == nil {
		run = scene.Direct
	}
	return &Presenter{
		doc:   doc,
		run:   run,
		svc:   svc,
		spawn: func(fn func()) { go fn() },
		after: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// Panel returns the open result panel, or nil. UI goroutine only.
func (p *Presenter) Panel() *Panel { return p.panel }

func (p *Presenter) dark(s settings.Settings) bool {
	sys := false
	if p.svc.SystemDark != nil {
		sys = p.svc.SystemDark()
	}
	return s.Dark(sys)
}

// ShowLoading puts up the processing indicator.
func (p *Presenter) ShowLoading() {
	p.run(func() {
		p.doc.RemoveAll(scene.KindLoading)
		el := p.doc.Create(scene.KindLoading, LoadingID)
		el.SetText("Processing...")
		el.SetSize(180, 44)
		if p.dark(p.settings) {
			el.AddClass(DarkClass)
		}
		p.doc.Append(el)
	})
}

// HideLoading removes the processing indicator. It is safe without one.
func (p *Presenter) HideLoading() {
	p.run(func() { p.doc.RemoveAll(scene.KindLoading) })
}

// ShowResult replaces any open panel with a new card for res.
func (p *Presenter) ShowResult(res llm.Result, s settings.Settings) {
	p.run(func() { p.showResult(res, s) })
}

func (p *Presenter) showResult(res llm.Result, s settings.Settings) *Panel {
	if p.panel != nil {
		p.panel.Close()
	}
	p.doc.RemoveAll(scene.KindPanel)
	p.settings = s

	pl := p.build(NewCard(res, s.TargetLang, p.dark(s)))
	p.doc.Append(pl.el)
	pl.drag = drag.Attach(pl.el, nil, drag.Card)
	p.panel = pl
	return pl
}

// ShowError shows configuration errors as a blocking dialog and everything
// else as a toast.
func (p *Presenter) ShowError(err error) {
	if err == nil {
		return
	}
	if apperr.Blocking(err) {
		if p.svc.Notify != nil {
			p.svc.Notify("Configuration required", err.Error())
		}
		p.run(func() { p.dialog("Configuration required", err.Error()) })
		return
	}
	title := "Processing error"
	switch apperr.KindOf(err) {
	case apperr.KindTransport:
		title = "Capture failed"
	case apperr.KindParse:
		title = "Unexpected response"
	}
	p.run(func() { p.toast(title, err.Error()) })
}

// toast adds a dismissible message in the bottom-right corner that removes
// itself after ToastDuration. UI goroutine only.
func (p *Presenter) toast(title, message string) *scene.Element {
	vp := p.doc.Viewport()
	el := p.doc.Create(scene.KindToast, "")
	el.Data = Toast{Title: title, Message: message}
	el.SetText(title + ": " + message)
	if p.dark(p.settings) {
		el.AddClass(DarkClass)
	}
	const w, h = 360.0, 64.0
	y := vp.Height - 20 - h
	for _, t := range p.toasts {
		if t.Attached() {
			y -= h + gap
		}
	}
	el.SetBox(geometry.Rect{Left: vp.Width - 20 - w, Top: y, Width: w, Height: h})
	p.doc.Append(el)
	p.toasts = append(p.toasts, el)
	el.Listen(scene.Click, func(*scene.Event) { p.dropToast(el) })

	p.after(ToastDuration, func() { p.run(func() { p.dropToast(el) }) })
	return el
}

func (p *Presenter) dropToast(el *scene.Element) {
	el.Remove()
	kept := p.toasts[:0]
	for _, t := range p.toasts {
		if t != el {
			kept = append(kept, t)
		}
	}
	p.toasts = kept
}

// dialog shows a centered message that stays until dismissed. UI goroutine
// only.
func (p *Presenter) dialog(title, message string) *scene.Element {
	p.doc.RemoveAll(scene.KindDialog)
	el := p.doc.Create(scene.KindDialog, DialogID)
	el.Data = Toast{Title: title, Message: message}
	el.SetText(title)
	el.SetSize(420, 160)
	if p.dark(p.settings) {
		el.AddClass(DarkClass)
	}
	msg := el.Append(p.doc.Create(scene.KindNode, ""))
	msg.Role = scene.RoleTextBlock
	msg.SetText(message)
	msg.SetBox(geometry.Rect{Left: padding, Top: headerHeight, Width: 420 - 2*padding, Height: 70})
	ok := el.Append(p.doc.Create(scene.KindNode, DialogOKID))
	ok.Role = scene.RoleButton
	ok.SetText("OK")
	ok.SetBox(geometry.Rect{Left: 420 - padding - 80, Top: 160 - padding - buttonHeight, Width: 80, Height: buttonHeight})
	ok.Listen(scene.Click, func(*scene.Event) { el.Remove() })
	p.doc.Append(el)
	return el
}
