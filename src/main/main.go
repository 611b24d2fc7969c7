package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-ocr-translate/src/capture"
	"screen-ocr-translate/src/clipboard"
	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/eventloop"
	"screen-ocr-translate/src/fab"
	"screen-ocr-translate/src/hotkey"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/logutil"
	"screen-ocr-translate/src/messages"
	"screen-ocr-translate/src/notification"
	"screen-ocr-translate/src/overlay"
	"screen-ocr-translate/src/present"
	"screen-ocr-translate/src/runtimeinit"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/settings"
	"screen-ocr-translate/src/singleinstance"
	"screen-ocr-translate/src/speech"
	"screen-ocr-translate/src/stage"
	"screen-ocr-translate/src/tray"
)

const appID = "io.github.screen-ocr-translate"

type mainOptions struct {
	capture      bool
	apiKeyPath   string
	settingsPath string
}

// captureClient is the part of singleinstance.Client the capture flag needs.
type captureClient interface {
	TryCapture(ctx context.Context, wait bool) (bool, llm.Result, error)
}

func main() {
	// DPI awareness must be set before any window or metric query.
	enableDPIAwareness()

	cmd := newRootCmd(&mainOptions{})
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-ocr-translate",
		Short:         "Select a screen region, read and translate its text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Ask the running instance for a capture, or start one and capture immediately")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to the settings file")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to the GNU form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"capture", "api-key-path", "settings"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

func run(opts mainOptions) error {
	loadOptions := config.LoadOptions{
		APIKeyPathOverride:   opts.apiKeyPath,
		SettingsPathOverride: opts.settingsPath,
	}
	// Load .env early so SINGLEINSTANCE_PORT_* apply before delegation.
	_, _ = config.LoadWithOptions(loadOptions)

	if opts.capture {
		started := false
		handleCaptureWithDelegation(singleinstance.NewClient(), func() {
			started = true
		})
		if !started {
			return nil
		}
	} else if port, ok := singleinstance.DetectResidentPort(context.Background()); ok {
		log.Printf("Pre-flight: resident already listening on port %d", port)
		fmt.Printf("one is already running on port %d\n", port)
		os.Exit(1)
	}

	return runResident(loadOptions, opts.capture)
}

// handleCaptureWithDelegation asks a running instance for a capture and
// calls fallback when none answered.
func handleCaptureWithDelegation(client captureClient, fallback func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	delegated, _, err := client.TryCapture(ctx, false)
	switch {
	case err != nil:
		log.Printf("Delegation error: %v; starting a new instance", err)
		fallback()
	case delegated:
		log.Printf("Delegated capture to resident")
	default:
		log.Printf("No resident detected, starting a new instance")
		fallback()
	}
}

func runResident(loadOptions config.LoadOptions, captureNow bool) error {
	a := app.NewWithID(appID)
	notification.Init(a)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:          loadOptions,
		SetupLogging:         logutil.Setup,
		ShowBlockingLLMError: true,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config
	store := rt.Settings
	if rt.APIKey() == "" {
		log.Printf("No API key configured; captures will ask for one")
	}

	st := stage.New(a, stage.Options{DeviceScale: cfg.DeviceScale})
	doc := st.Document()
	ctrl := overlay.NewController(doc, st.Run)

	var loop *eventloop.Loop
	trigger := func(source string) func() {
		return func() { loop.Trigger(source) }
	}

	presenter := present.New(doc, st.Run, services(rt, st, trigger(messages.SourceScanNext)))
	button := fab.New(doc, st.Run, trigger(messages.SourceFAB), st.SystemDark)

	t, hasTray := tray.New(a, tray.Config{
		Title:     "Screen OCR Translate",
		OnCapture: trigger(messages.SourceTray),
		Settings:  store,
	})

	loop = eventloop.New(cfg, eventloop.Options{
		Selector: st.Selector(ctrl),
		Pipeline: capture.Options{
			Screenshot:  st,
			Settings:    store,
			Recognizer:  capture.ClientRecognizer{Client: rt.Client},
			Presenter:   st.Presenter(presenter),
			PixelRatio:  st.PixelRatio,
			FallbackKey: cfg.APIKey,
		},
		OnStatus: func(s messages.StatusChanged) {
			if hasTray {
				t.SetStatus(s)
			}
		},
		Notify: notification.Show,
	})

	store.OnChange(button.OnChange)
	store.OnChange(loop.OnSettingsChange)
	if hasTray {
		store.OnChange(t.OnSettingsChange)
	}
	st.OnKey = func(ev *scene.Event) {
		if hotkey.Local(store.Load().HotkeyMode, ev, doc.EditingText()) {
			loop.Trigger(messages.SourceHotkey)
		}
	}

	s := store.Load()
	// The fyne loop is not running yet, so the main goroutine owns the scene.
	button.Apply(s)
	loop.StartHotkey(s.HotkeyMode)

	log.Printf("Screen OCR Translate initialized")
	log.Printf("Using model: %s", cfg.Model)
	log.Printf("Hotkey mode: %s", s.HotkeyMode)
	log.Printf("OCR deadline: %ds", cfg.OCRDeadlineSec)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		if err := store.Watch(gctx); err != nil {
			log.Printf("Settings: live reload disabled: %v", err)
		}
		return nil
	})
	go func() {
		<-gctx.Done()
		fyne.Do(a.Quit)
	}()
	if captureNow {
		loop.Trigger(messages.SourceRemote)
	}

	a.Run()
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
		return err
	}
	return nil
}

// services binds the result panel's actions to the runtime.
func services(rt *runtimeinit.Runtime, st *stage.Stage, scanNext func()) present.Services {
	cfg := rt.Config
	speaker := speech.NewSpeaker(strings.Fields(cfg.TTSPlayer))
	return present.Services{
		Translate: func(ctx context.Context, s settings.Settings, text, lang string) (string, error) {
			return rt.ClientFor(s).Translate(ctx, text, lang)
		},
		Speak: speaker.Speak,
		Practice: func(ctx context.Context, expected, languageName string) (speech.Score, error) {
			coach := speech.Coach{
				Recorder:    speech.PulseRecorder{},
				Transcriber: rt.ClientFor(rt.Settings.Load()),
				Duration:    time.Duration(cfg.PracticeSeconds) * time.Second,
			}
			return coach.Practice(ctx, expected, languageName)
		},
		Copy: clipboard.Write,
		Capture: func() {
			st.Hold()
			scanNext()
		},
		SystemDark: st.SystemDark,
		Notify:     notification.Show,
	}
}
