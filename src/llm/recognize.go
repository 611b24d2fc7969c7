package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"screen-ocr-translate/src/apperr"
)

// Mode selects what the recognition service returns.
type Mode string

const (
	ModeVocabulary Mode = "vocabulary"
	ModeFull       Mode = "full"
)

// ParseMode maps a settings value to a Mode; unknown values fall back to
// vocabulary.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeFull {
		return ModeFull
	}
	return ModeVocabulary
}

// Request is one recognition call.
type Request struct {
	// ImageURI is a PNG data URI.
	ImageURI   string
	TargetLang string
	Mode       Mode
}

// VocabularyItem is one row of a vocabulary-mode result.
type VocabularyItem struct {
	Term    string `json:"term" jsonschema:"description=Word or phrase exactly as it appears in the image"`
	Meaning string `json:"meaning" jsonschema:"description=Meaning in the target language"`
	Type    string `json:"type" jsonschema:"description=Part of speech such as noun or verb or adjective"`
}

// Result is what the service returned. Missing fields stay empty; the
// presentation layer renders blanks for them.
type Result struct {
	Original    string           `json:"original"`
	Translation string           `json:"translation"`
	Language    string           `json:"language"`
	Vocabulary  []VocabularyItem `json:"vocabulary,omitempty"`
}

// Empty reports whether the service returned nothing usable.
func (r Result) Empty() bool {
	return r.Original == "" && r.Translation == "" && len(r.Vocabulary) == 0
}

type fullPayload struct {
	Original    string `json:"original" jsonschema:"description=All text read from the image with line breaks kept"`
	Translation string `json:"translation" jsonschema:"description=The text translated to the target language"`
	Language    string `json:"language" jsonschema:"description=English name of the detected source language"`
}

type vocabularyPayload struct {
	Original   string           `json:"original" jsonschema:"description=All text read from the image with line breaks kept"`
	Language   string           `json:"language" jsonschema:"description=English name of the detected source language"`
	Vocabulary []VocabularyItem `json:"vocabulary" jsonschema:"description=Notable words and phrases from the text"`
}

type translationPayload struct {
	Translation string `json:"translation" jsonschema:"description=The translated text"`
}

var (
	schemaOnce sync.Once
	schemas    map[string]string
)

// schemaFor returns the JSON schema text embedded in prompts for a payload.
func schemaFor(name string) string {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
		schemas = map[string]string{}
		for key, v := range map[string]any{
			"full":        &fullPayload{},
			"vocabulary":  &vocabularyPayload{},
			"translation": &translationPayload{},
		} {
			s := r.Reflect(v)
			s.Version = ""
			raw, err := json.Marshal(s)
			if err != nil {
				panic(fmt.Sprintf("llm: schema for %s: %v", key, err))
			}
			schemas[key] = string(raw)
		}
	})
	return schemas[name]
}

func recognitionPrompt(targetLang string, mode Mode) string {
	if mode == ModeFull {
		return fmt.Sprintf("Read text in image. Translate to %s. Return JSON only, matching this schema: %s",
			targetLang, schemaFor("full"))
	}
	return fmt.Sprintf("Read text in image. List the words and phrases a learner should study, with meanings in %s. "+
		"Return JSON only, matching this schema: %s", targetLang, schemaFor("vocabulary"))
}

// Recognize sends the cropped image and returns the parsed result.
func (c *Client) Recognize(ctx context.Context, req Request) (Result, error) {
	if err := c.checkKey(); err != nil {
		return Result{}, err
	}
	if req.ImageURI == "" {
		return Result{}, errors.New("image is required")
	}
	if req.TargetLang == "" {
		req.TargetLang = "vi"
	}
	if req.Mode == "" {
		req.Mode = ModeVocabulary
	}

	request := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{{
			Role: "user",
			Content: []Content{
				{Type: "image_url", ImageURL: &ImageURL{URL: req.ImageURI}},
				{Type: "text", Text: recognitionPrompt(req.TargetLang, req.Mode)},
			},
		}},
		Temperature:    0.1,
		MaxTokens:      1024,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
	content, err := c.chat(ctx, "recognize", request)
	if err != nil {
		return Result{}, err
	}
	return ParseResult(content)
}

// Translate translates plain text. The service returns {translation}.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	request := ChatRequest{
		Model: c.cfg.TextModel,
		Messages: []Message{{
			Role: "user",
			Content: fmt.Sprintf("Translate the following text to %s. Return JSON only, matching this schema: %s\n\nText: %s",
				targetLang, schemaFor("translation"), text),
		}},
		Temperature:    0.3,
		MaxTokens:      1024,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
	content, err := c.chat(ctx, "translate", request)
	if err != nil {
		return "", err
	}
	var out translationPayload
	if err := decodeObject(content, &out); err != nil {
		return "", err
	}
	return out.Translation, nil
}

// ParseResult decodes a model reply. Code fences and prose around the JSON
// object are tolerated; a reply with no JSON object is a parse error.
func ParseResult(content string) (Result, error) {
	var wire struct {
		Original    json.RawMessage `json:"original"`
		Translation json.RawMessage `json:"translation"`
		Language    json.RawMessage `json:"language"`
		Vocabulary  []struct {
			Term    json.RawMessage `json:"term"`
			Meaning json.RawMessage `json:"meaning"`
			Type    json.RawMessage `json:"type"`
		} `json:"vocabulary"`
	}
	if err := decodeObject(content, &wire); err != nil {
		return Result{}, err
	}
	res := Result{
		Original:    text(wire.Original),
		Translation: text(wire.Translation),
		Language:    text(wire.Language),
	}
	for _, v := range wire.Vocabulary {
		item := VocabularyItem{Term: text(v.Term), Meaning: text(v.Meaning), Type: text(v.Type)}
		if item == (VocabularyItem{}) {
			continue
		}
		res.Vocabulary = append(res.Vocabulary, item)
	}
	return res, nil
}

func decodeObject(content string, v any) error {
	body := extractObject(content)
	if body == "" {
		return apperr.Parse(content, errors.New("response contains no JSON object"))
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return apperr.Parse(content, err)
	}
	return nil
}

// extractObject returns the outermost {...} span of s.
func extractObject(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// text renders a loosely typed field: strings as is, null as blank, numbers
// and other values as their JSON text.
func text(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err == nil {
		return strings.Join(parts, "\n")
	}
	return string(raw)
}
