package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"screen-ocr-translate/src/apperr"
)

// Transcribe sends a WAV recording to the Whisper-compatible transcription
// endpoint and returns the transcript. lang is an ISO 639-1 hint and may be
// empty.
func (c *Client) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	if c.cfg.Provider == ProviderOpenRouter && c.cfg.BaseURL == "" {
		return "", apperr.Config("pronunciation practice needs the %s provider", ProviderGroq)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "speech.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	_ = mw.WriteField("model", c.cfg.TranscribeModel)
	_ = mw.WriteField("response_format", "json")
	if lang != "" {
		_ = mw.WriteField("language", strings.SplitN(lang, "-", 2)[0])
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Transport("transcribe", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Transport("transcribe", fmt.Errorf("read response: %w", err))
	}
	if err := statusError(resp.StatusCode, raw); err != nil {
		return "", apperr.Transport("transcribe", err)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Parse(string(raw), err)
	}
	return strings.TrimSpace(out.Text), nil
}
