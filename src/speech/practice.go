package speech

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Transcriber turns a WAV recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, lang string) (string, error)
}

// ErrNoSpeech is returned when the recording produced an empty transcript.
var ErrNoSpeech = errors.New("no speech detected")

// Coach runs one pronunciation attempt: record, transcribe, score.
type Coach struct {
	Recorder    Recorder
	Transcriber Transcriber
	Duration    time.Duration
}

// Practice records the user reading expected aloud and scores it.
// languageName is the detected source language ("Japanese").
func (c Coach) Practice(ctx context.Context, expected, languageName string) (Score, error) {
	if c.Recorder == nil || c.Transcriber == nil {
		return Score{}, errors.New("speech recognition is not available")
	}
	d := c.Duration
	if d <= 0 {
		d = 5 * time.Second
	}
	wav, err := c.Recorder.Record(ctx, d)
	if err != nil {
		return Score{}, fmt.Errorf("record: %w", err)
	}
	said, err := c.Transcriber.Transcribe(ctx, wav, LanguageCode(languageName, true))
	if err != nil {
		return Score{}, err
	}
	if said == "" {
		return Score{}, ErrNoSpeech
	}
	return Score{Value: Similarity(expected, said), Transcript: said}, nil
}
