package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const ttsEndpoint = "https://translate.googleapis.com/translate_tts"

// Google's endpoint rejects long queries.
const maxTTSChars = 200

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// TTSURL builds the translate TTS request for text in lang.
func TTSURL(base, text, lang string) string {
	if base == "" {
		base = ttsEndpoint
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("ie", "UTF-8")
	q.Set("tl", lang)
	q.Set("dt", "t")
	q.Set("q", text)
	return base + "?" + q.Encode()
}

// CleanText flattens line breaks and trims; speech of an empty result is
// skipped.
func CleanText(text string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}

// Speaker fetches synthesized audio and hands it to an external player,
// falling back to the system speech synthesizer.
type Speaker struct {
	HTTP *http.Client
	// Endpoint overrides the TTS URL (tests).
	Endpoint string
	// Player is the command used to play the downloaded MP3; the file path is
	// appended as the last argument.
	Player []string
	// Fallback speaks text directly when the download or player fails.
	Fallback []string
	// run starts a command; replaced in tests.
	run func(ctx context.Context, argv []string) error
}

// DefaultPlayer is used when TTS_PLAYER is unset.
var DefaultPlayer = []string{"pw-play", "--media-role", "Accessibility"}

func NewSpeaker(player []string) *Speaker {
	if len(player) == 0 {
		player = DefaultPlayer
	}
	return &Speaker{
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		Player:   player,
		Fallback: []string{"spd-say", "--wait"},
		run:      runCommand,
	}
}

// Speak reads text aloud in lang. It blocks until playback ends.
func (s *Speaker) Speak(ctx context.Context, text, lang string) error {
	clean := CleanText(text)
	if clean == "" {
		return nil
	}
	err := s.playRemote(ctx, clean, lang)
	if err == nil {
		return nil
	}
	log.Printf("Speech: remote TTS failed, using fallback: %v", err)
	if len(s.Fallback) == 0 {
		return err
	}
	argv := append(append([]string{}, s.Fallback...), "-l", strings.SplitN(lang, "-", 2)[0], clean)
	if ferr := s.run(ctx, argv); ferr != nil {
		return fmt.Errorf("speech failed: %w", errors.Join(err, ferr))
	}
	return nil
}

func (s *Speaker) playRemote(ctx context.Context, text, lang string) error {
	if len(s.Player) == 0 {
		return errors.New("no audio player configured")
	}
	var f *os.File
	for i, chunk := range splitText(text, maxTTSChars) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, TTSURL(s.Endpoint, chunk, lang), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		resp, err := s.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("fetch speech: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("fetch speech: status %d", resp.StatusCode)
		}
		if i == 0 {
			f, err = os.CreateTemp("", "ocr-tts-*.mp3")
			if err != nil {
				resp.Body.Close()
				return fmt.Errorf("create audio file: %w", err)
			}
			defer os.Remove(f.Name())
		}
		_, err = io.Copy(f, resp.Body)
		resp.Body.Close()
		if err != nil {
			f.Close()
			return fmt.Errorf("download speech: %w", err)
		}
	}
	if f == nil {
		return nil
	}
	if err := f.Close(); err != nil {
		return err
	}
	argv := append(append([]string{}, s.Player...), f.Name())
	return s.run(ctx, argv)
}

// splitText cuts text into pieces of at most n runes, preferring spaces.
func splitText(text string, n int) []string {
	var out []string
	for {
		r := []rune(text)
		if len(r) <= n {
			if strings.TrimSpace(text) != "" {
				out = append(out, strings.TrimSpace(text))
			}
			return out
		}
		cut := n
		for i := n; i > n/2; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[:cut])))
		text = string(r[cut:])
	}
}

func runCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
