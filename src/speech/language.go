// Package speech plays text aloud and scores pronunciation practice.
package speech

import (
	"strings"
	"unicode"
)

type locale struct {
	match string
	short string
	full  string
}

// Ordered: the first fragment found in the language name wins.
var locales = []locale{
	{"vietnam", "vi", "vi-VN"},
	{"japan", "ja", "ja-JP"},
	{"korea", "ko", "ko-KR"},
	{"china", "zh-CN", "zh-CN"},
	{"chinese", "zh-CN", "zh-CN"},
	{"french", "fr", "fr-FR"},
	{"german", "de", "de-DE"},
	{"russia", "ru", "ru-RU"},
}

// LanguageCode maps a detected language name ("Vietnamese", "Japanese") to a
// speech language code. fullLocale selects region-qualified codes such as
// vi-VN. Unknown names map to English.
func LanguageCode(name string, fullLocale bool) string {
	l := strings.ToLower(name)
	for _, loc := range locales {
		if strings.Contains(l, loc.match) {
			if fullLocale {
				return loc.full
			}
			return loc.short
		}
	}
	if fullLocale {
		return "en-US"
	}
	return "en"
}

// Similarity scores how much of expected was said, by word overlap. Case
// and punctuation are ignored. The result is in [0, 1].
func Similarity(expected, said string) float64 {
	want := words(expected)
	got := words(said)
	if len(want) == 0 || len(got) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	matches := 0
	for _, w := range got {
		if _, ok := set[w]; ok {
			matches++
		}
	}
	score := float64(matches) / float64(max(len(want), len(got)))
	return min(score, 1)
}

func words(s string) []string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
	return strings.Fields(clean)
}

// Score grades a practice attempt.
type Score struct {
	Value      float64
	Transcript string
}

// Percent is the score rounded to a whole percentage.
func (s Score) Percent() int { return int(s.Value*100 + 0.5) }

// Class is "high" above 0.8, "mid" above 0.5 and "low" otherwise.
func (s Score) Class() string {
	switch {
	case s.Value > 0.8:
		return "high"
	case s.Value > 0.5:
		return "mid"
	default:
		return "low"
	}
}
