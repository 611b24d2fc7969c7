package present

import (
	"context"
	"errors"
	"fmt"
	"log"

	"screen-ocr-translate/src/drag"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/speech"
)

// Element ids inside the result panel.
const (
	PanelID        = "ocr-result"
	HeaderID       = "ocr-result-header"
	CloseID        = "ocr-result-close"
	OriginalID     = "ocr-original-text"
	SpeakID        = "ocr-btn-speak"
	PracticeID     = "ocr-btn-mic"
	CopyID         = "ocr-btn-copy"
	FeedbackID     = "ocr-pronunciation-feedback"
	ScoreID        = "ocr-score-val"
	SaidID         = "ocr-said-text"
	RetryID        = "ocr-btn-retry"
	LangSelectID   = "ocr-lang-select"
	TranslationID  = "ocr-translation-text"
	VocabularyID   = "ocr-vocabulary"
	ScanNextID     = "ocr-scan-next"
	DarkClass      = "ocr-theme-dark"
	PendingClass   = "ocr-pending"
	ListeningLabel = "Listening..."
	PracticeLabel  = "Practice"
)

// LanguageChoice is the Data of the language select element. The frontend
// shows Options and calls OnChange with the chosen code.
type LanguageChoice struct {
	Options  []Language
	Selected string
	OnChange func(code string)
}

// Panel is one result card in the scene.
type Panel struct {
	p    *Presenter
	card Card
	el   *scene.Element
	drag *drag.Draggable

	translation *scene.Element
	score       *scene.Element
	said        *scene.Element
	feedback    *scene.Element
	practice    *scene.Element
	choice      *LanguageChoice
}

func (pl *Panel) Element() *scene.Element { return pl.el }
func (pl *Panel) Card() Card              { return pl.card }

// build creates the panel element tree, anchored (centered) in the viewport.
func (p *Presenter) build(card Card) *Panel {
	doc := p.doc
	pl := &Panel{p: p, card: card}
	el := doc.Create(scene.KindPanel, PanelID)
	el.Data = card
	pl.el = el
	if card.Dark {
		el.AddClass(DarkClass)
	}

	inner := panelWidth - 2*padding
	col := &column{y: headerHeight + gap, width: inner}

	header := el.Append(doc.Create(scene.KindNode, HeaderID))
	header.SetBox(geometry.Rect{Width: panelWidth, Height: headerHeight})
	header.SetText(card.Title)
	closeBtn := header.Append(doc.Create(scene.KindNode, CloseID))
	closeBtn.Role = scene.RoleButton
	closeBtn.SetText("×")
	closeBtn.SetBox(geometry.Rect{Left: panelWidth - 36, Top: 6, Width: 28, Height: 28})
	pl.onClick(closeBtn, pl.Close)

	label := el.Append(doc.Create(scene.KindNode, ""))
	label.SetText(fmt.Sprintf("Original (%s):", card.Language))
	label.SetBox(col.row(lineHeight))

	original := el.Append(doc.Create(scene.KindNode, OriginalID))
	original.Role = scene.RoleTextBlock
	original.SetText(card.Original)
	original.SetBox(col.row(textHeight(card.Original, inner)))

	actions := col.row(buttonHeight)
	speak := pl.button(SpeakID, "Listen", geometry.Rect{Left: actions.Left, Top: actions.Top, Width: 100, Height: buttonHeight})
	pl.onClick(speak, pl.Speak)
	pl.practice = pl.button(PracticeID, PracticeLabel, geometry.Rect{Left: actions.Left + 108, Top: actions.Top, Width: 120, Height: buttonHeight})
	pl.onClick(pl.practice, pl.Practice)
	cp := pl.button(CopyID, "Copy", geometry.Rect{Left: actions.Left + 236, Top: actions.Top, Width: 80, Height: buttonHeight})
	pl.onClick(cp, pl.Copy)

	pl.feedback = el.Append(doc.Create(scene.KindNode, FeedbackID))
	pl.feedback.SetBox(col.row(3*lineHeight + buttonHeight))
	pl.feedback.SetHidden(true)
	pl.score = pl.feedback.Append(doc.Create(scene.KindNode, ScoreID))
	pl.score.SetText("--")
	pl.score.SetBox(geometry.Rect{Width: inner, Height: lineHeight})
	pl.said = pl.feedback.Append(doc.Create(scene.KindNode, SaidID))
	pl.said.SetBox(geometry.Rect{Top: lineHeight, Width: inner, Height: 2 * lineHeight})
	retry := pl.feedback.Append(doc.Create(scene.KindNode, RetryID))
	retry.Role = scene.RoleButton
	retry.SetText("Try again")
	retry.SetBox(geometry.Rect{Top: 3 * lineHeight, Width: 120, Height: buttonHeight})
	retry.SetHidden(true)
	pl.onClick(retry, pl.Practice)

	sel := el.Append(doc.Create(scene.KindNode, LangSelectID))
	sel.Role = scene.RoleSelect
	pl.choice = &LanguageChoice{Options: Languages, Selected: card.TargetLang, OnChange: pl.Retranslate}
	sel.Data = pl.choice
	sel.SetText("Translate to: " + LanguageName(card.TargetLang))
	sel.SetBox(col.row(buttonHeight))

	pl.translation = el.Append(doc.Create(scene.KindNode, TranslationID))
	pl.translation.Role = scene.RoleTextBlock
	pl.translation.SetText(card.Translation)
	pl.translation.SetBox(col.row(textHeight(card.Translation, inner)))

	if len(card.Vocabulary) > 0 {
		vocab := el.Append(doc.Create(scene.KindNode, VocabularyID))
		vocab.Role = scene.RoleTextBlock
		rows := geometry.Rect{Top: col.y, Left: padding, Width: inner}
		var y float64
		for i, v := range card.Vocabulary {
			row := vocab.Append(doc.Create(scene.KindNode, fmt.Sprintf("ocr-vocab-%d", i)))
			row.Data = v
			row.SetText(VocabularyLine(v))
			h := textHeight(row.Text, inner) - 2*gap
			row.SetBox(geometry.Rect{Top: y, Width: inner, Height: h})
			y += h
		}
		rows.Height = y
		vocab.SetBox(rows)
		col.y += y + gap
	}

	next := pl.button(ScanNextID, "Next scan", col.row(36))
	pl.onClick(next, pl.ScanNext)

	el.SetSize(panelWidth, col.y+padding-gap)
	return pl
}

func (pl *Panel) button(id, text string, r geometry.Rect) *scene.Element {
	b := pl.el.Append(pl.p.doc.Create(scene.KindNode, id))
	b.Role = scene.RoleButton
	b.SetText(text)
	b.SetBox(r)
	return b
}

// onClick runs fn when el is clicked and the press was not a drag.
func (pl *Panel) onClick(el *scene.Element, fn func()) {
	el.Listen(scene.Click, func(ev *scene.Event) {
		ev.StopPropagation()
		if drag.ConsumeClick(pl.el) {
			return
		}
		fn()
	})
}

// Attached reports whether the panel is still in the scene.
func (pl *Panel) Attached() bool { return pl.el.Attached() }

// Close removes the panel.
func (pl *Panel) Close() {
	if pl.drag != nil {
		pl.drag.Detach()
	}
	pl.el.Remove()
	if pl.p.panel == pl {
		pl.p.panel = nil
	}
}

// ScanNext closes the panel and starts a new capture.
func (pl *Panel) ScanNext() {
	pl.Close()
	if pl.p.svc.Capture != nil {
		pl.p.svc.Capture()
	}
}

// Retranslate translates the original text to lang and replaces the
// translation block. A response arriving after the panel closed updates the
// detached element and is otherwise ignored.
func (pl *Panel) Retranslate(lang string) {
	pl.choice.Selected = lang
	sel := pl.el.Find(LangSelectID)
	sel.SetText("Translate to: " + LanguageName(lang))
	if pl.card.Original == "" {
		pl.p.toast("Translation failed", "There is no text to translate")
		return
	}
	if pl.p.svc.Translate == nil {
		return
	}
	pl.translation.SetText("Translating...")
	pl.translation.AddClass(PendingClass)

	text, cfg := pl.card.Original, pl.p.settings
	pl.p.spawn(func() {
		out, err := pl.p.svc.Translate(context.Background(), cfg, text, lang)
		pl.p.run(func() {
			pl.translation.RemoveClass(PendingClass)
			if err != nil {
				pl.translation.SetText("Error: " + err.Error())
				pl.p.toast("Translation failed", err.Error())
				return
			}
			pl.card.Translation = out
			pl.card.TargetLang = lang
			pl.el.Data = pl.card
			pl.translation.SetText(out)
		})
	})
}

// Speak reads the original text aloud in the detected language.
func (pl *Panel) Speak() {
	if pl.p.svc.Speak == nil {
		return
	}
	text := pl.card.SpeakText()
	lang := speech.LanguageCode(pl.card.Language, false)
	pl.p.spawn(func() {
		if err := pl.p.svc.Speak(context.Background(), text, lang); err != nil {
			log.Printf("Present: speak failed: %v", err)
			pl.p.run(func() { pl.p.toast("Speech failed", err.Error()) })
		}
	})
}

// Practice records the user reading the original text and shows the score.
func (pl *Panel) Practice() {
	if pl.p.svc.Practice == nil {
		pl.p.toast("Practice unavailable", "Speech recognition is not configured")
		return
	}
	if pl.practice.Text == ListeningLabel {
		return
	}
	pl.practice.SetText(ListeningLabel)
	pl.feedback.SetHidden(false)
	pl.score.SetText("--")
	for _, c := range []string{"ocr-score-high", "ocr-score-mid", "ocr-score-low"} {
		pl.score.RemoveClass(c)
	}
	pl.said.SetText("Read the text above aloud...")
	pl.feedback.Find(RetryID).SetHidden(true)

	expected, lang := pl.card.SpeakText(), pl.card.Language
	pl.p.spawn(func() {
		score, err := pl.p.svc.Practice(context.Background(), expected, lang)
		pl.p.run(func() {
			pl.practice.SetText(PracticeLabel)
			pl.feedback.Find(RetryID).SetHidden(false)
			if err != nil {
				pl.said.SetText("")
				if !errors.Is(err, speech.ErrNoSpeech) {
					pl.p.toast("Microphone error", err.Error())
				}
				return
			}
			pl.said.SetText(fmt.Sprintf("You said: %q", score.Transcript))
			pl.score.SetText(fmt.Sprintf("%d%%", score.Percent()))
			pl.score.AddClass("ocr-score-" + score.Class())
		})
	})
}

// Copy puts the card text on the clipboard.
func (pl *Panel) Copy() {
	if pl.p.svc.Copy == nil {
		return
	}
	if err := pl.p.svc.Copy(pl.card.Text()); err != nil {
		pl.p.toast("Copy failed", err.Error())
		return
	}
	pl.p.toast("Copied", "Text copied to the clipboard")
}
