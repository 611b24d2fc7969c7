// Package present renders recognition results: a card view model, its HTML
// form, and the draggable result panel in the scene with its actions.
package present

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"screen-ocr-translate/src/llm"
)

// Language is one entry of the re-translate menu.
type Language struct {
	Code string
	Name string
}

var Languages = []Language{
	{"vi", "Tiếng Việt"},
	{"en", "English"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"zh", "Chinese"},
	{"fr", "French"},
	{"de", "German"},
	{"ru", "Russian"},
}

// LanguageName returns the menu label for code, or code itself.
func LanguageName(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Card is the view model of a result panel. Fields hold raw text; escaping
// happens only when rendering markup.
type Card struct {
	Title       string
	Language    string
	Original    string
	Translation string
	TargetLang  string
	Vocabulary  []llm.VocabularyItem
	Dark        bool
}

// NewCard builds a card from a service result. Missing fields stay blank;
// an unknown source language is labelled "Unknown".
func NewCard(res llm.Result, targetLang string, dark bool) Card {
	lang := strings.TrimSpace(res.Language)
	if lang == "" {
		lang = "Unknown"
	}
	return Card{
		Title:       "Result",
		Language:    lang,
		Original:    res.Original,
		Translation: res.Translation,
		TargetLang:  targetLang,
		Vocabulary:  res.Vocabulary,
		Dark:        dark,
	}
}

// SpeakText is what the speak action reads: the original text, or the
// vocabulary terms when there is none.
func (c Card) SpeakText() string {
	if strings.TrimSpace(c.Original) != "" {
		return c.Original
	}
	terms := make([]string, 0, len(c.Vocabulary))
	for _, v := range c.Vocabulary {
		if v.Term != "" {
			terms = append(terms, v.Term)
		}
	}
	return strings.Join(terms, ". ")
}

// VocabularyLine formats one vocabulary row as plain text.
func VocabularyLine(v llm.VocabularyItem) string {
	switch {
	case v.Type != "" && v.Meaning != "":
		return fmt.Sprintf("%s (%s): %s", v.Term, v.Type, v.Meaning)
	case v.Meaning != "":
		return fmt.Sprintf("%s: %s", v.Term, v.Meaning)
	case v.Type != "":
		return fmt.Sprintf("%s (%s)", v.Term, v.Type)
	}
	return v.Term
}

// Text is the plain-text form used for the clipboard and the CLI.
func (c Card) Text() string {
	var b strings.Builder
	if c.Original != "" {
		b.WriteString(c.Original)
	}
	if c.Translation != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Translation)
	}
	if len(c.Vocabulary) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		for i, v := range c.Vocabulary {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(VocabularyLine(v))
		}
	}
	return b.String()
}

var cardTemplate = template.Must(template.New("card").Parse(`<div id="ocr-result"{{if .Dark}} class="ocr-theme-dark"{{end}}>
  <div id="ocr-result-header"><h3 id="ocr-result-title">{{.Title}}</h3><button id="ocr-result-close">×</button></div>
  <div id="ocr-result-content">
    <span class="ocr-label">Original ({{.Language}}):</span>
    <div class="ocr-text-block" id="ocr-original-text">{{.Original}}</div>
    <span class="ocr-label">Translate to: <select id="ocr-lang-select" class="ocr-lang-select">
{{- range .Languages}}
      <option value="{{.Code}}"{{if eq .Code $.TargetLang}} selected{{end}}>{{.Name}}</option>
{{- end}}
    </select></span>
    <div id="ocr-translation-text" class="ocr-text-block">{{.Translation}}</div>
{{- if .Vocabulary}}
    <table id="ocr-vocabulary" class="ocr-text-block">
{{- range .Vocabulary}}
      <tr class="ocr-vocab-row"><td class="ocr-vocab-term">{{.Term}}</td><td class="ocr-vocab-meaning">{{.Meaning}}</td><td class="ocr-vocab-type">{{.Type}}</td></tr>
{{- end}}
    </table>
{{- end}}
  </div>
</div>
`))

// RenderHTML renders the card as markup. Every field is HTML-escaped.
func RenderHTML(c Card) (string, error) {
	var buf bytes.Buffer
	err := cardTemplate.Execute(&buf, struct {
		Card
		Languages []Language
	}{c, Languages})
	if err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return buf.String(), nil
}
