package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"screen-ocr-translate/src/present"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	muted  = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	border = lipgloss.AdaptiveColor{Light: "#d1d5db", Dark: "#4b5563"}
)

// renderer draws result cards in the terminal.
type renderer struct {
	box    lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	subtle lipgloss.Style
	term   lipgloss.Style
}

func newRenderer() renderer {
	return renderer{
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		title:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		label:  lipgloss.NewStyle().Foreground(accent),
		subtle: lipgloss.NewStyle().Foreground(muted),
		term:   lipgloss.NewStyle().Bold(true),
	}
}

// Card renders c as a bordered block: header, original text, translation,
// then the vocabulary rows.
func (r renderer) Card(c present.Card) string {
	var sections []string
	header := r.title.Render(c.Title) + "  " + r.subtle.Render(c.Language)
	if c.TargetLang != "" {
		header += r.subtle.Render(" → " + present.LanguageName(c.TargetLang))
	}
	sections = append(sections, header)

	if strings.TrimSpace(c.Original) != "" {
		sections = append(sections, r.label.Render("Original")+"\n"+c.Original)
	}
	if strings.TrimSpace(c.Translation) != "" {
		sections = append(sections, r.label.Render("Translation")+"\n"+c.Translation)
	}
	if len(c.Vocabulary) > 0 {
		rows := make([]string, 0, len(c.Vocabulary)+1)
		rows = append(rows, r.label.Render("Vocabulary"))
		for _, v := range c.Vocabulary {
			line := r.term.Render(v.Term)
			if v.Type != "" {
				line += " " + r.subtle.Render("("+v.Type+")")
			}
			if v.Meaning != "" {
				line += " " + v.Meaning
			}
			rows = append(rows, "• "+line)
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}
	if len(sections) == 1 {
		sections = append(sections, r.subtle.Render("No text found."))
	}
	return r.box.Render(strings.Join(sections, "\n\n"))
}
