// Package capture runs one capture attempt: select a region, take the
// screenshot, crop it, read settings, recognize and present. Steps run in
// order and share a single error boundary; nothing is retried.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"screen-ocr-translate/src/apperr"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/logutil"
	"screen-ocr-translate/src/screenshot"
	"screen-ocr-translate/src/settings"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

const defaultDeadline = 20 * time.Second

type RegionSelectorFunc func(ctx context.Context) (geometry.Rect, bool, error)

// Screenshotter returns the image the selection was drawn over.
type Screenshotter interface {
	Capture(ctx context.Context) (image.Image, error)
}

type SettingsSource interface {
	Load() settings.Settings
}

type Recognizer interface {
	Recognize(ctx context.Context, s settings.Settings, req llm.Request) (llm.Result, error)
}

// Presenter shows progress and outcome to the user.
type Presenter interface {
	ShowLoading()
	HideLoading()
	ShowResult(res llm.Result, s settings.Settings)
	ShowError(err error)
}

// ResultTarget receives the outcome in addition to the presenter, for
// example a remote caller waiting on a connection.
type ResultTarget interface {
	OnSuccess(res llm.Result) error
	OnFailure(err error) error
}

type Options struct {
	Deadline     time.Duration
	SelectRegion RegionSelectorFunc
	Screenshot   Screenshotter
	Settings     SettingsSource
	Recognizer   Recognizer
	Presenter    Presenter
	Target       ResultTarget
	// PixelRatio converts the screenshot bounds to device pixels per
	// viewport pixel. Nil means 1.
	PixelRatio func(image.Rectangle) float64
	// FallbackKey is used when the settings carry no API key.
	FallbackKey string
}

// Execute runs one attempt. A cancelled or undersized selection returns
// ErrSelectionCancelled and shows nothing.
func Execute(ctx context.Context, opts Options) (llm.Result, error) {
	if err := opts.validate(); err != nil {
		return llm.Result{}, err
	}
	if opts.SelectRegion == nil {
		return llm.Result{}, errors.New("SelectRegion is required")
	}

	rect, cancelled, err := opts.SelectRegion(ctx)
	if err != nil {
		return llm.Result{}, opts.fail(fmt.Errorf("region selection failed: %w", err))
	}
	if cancelled {
		if opts.Target != nil {
			_ = opts.Target.OnFailure(ErrSelectionCancelled)
		}
		return llm.Result{}, ErrSelectionCancelled
	}
	return Process(ctx, opts, rect)
}

// Process runs the steps after a committed selection.
func Process(ctx context.Context, opts Options, rect geometry.Rect) (llm.Result, error) {
	if err := opts.validate(); err != nil {
		return llm.Result{}, err
	}
	p := opts.Presenter
	p.ShowLoading()
	res, cfg, err := opts.run(ctx, rect)
	p.HideLoading()
	if err != nil {
		return llm.Result{}, opts.fail(err)
	}

	p.ShowResult(res, cfg)
	if opts.Target != nil {
		if err := opts.Target.OnSuccess(res); err != nil {
			log.Printf("Capture: result target failed: %v", err)
		}
	}
	return res, nil
}

func (opts Options) validate() error {
	switch {
	case opts.Screenshot == nil:
		return errors.New("Screenshot is required")
	case opts.Settings == nil:
		return errors.New("Settings is required")
	case opts.Recognizer == nil:
		return errors.New("Recognizer is required")
	case opts.Presenter == nil:
		return errors.New("Presenter is required")
	}
	return nil
}

func (opts Options) run(ctx context.Context, rect geometry.Rect) (llm.Result, settings.Settings, error) {
	log.Printf("Capture: selection %.0fx%.0f at %.0f,%.0f", rect.Width, rect.Height, rect.Left, rect.Top)

	img, err := opts.Screenshot.Capture(ctx)
	if err != nil {
		return llm.Result{}, settings.Settings{}, apperr.Transport("screenshot", err)
	}

	ratio := 1.0
	if opts.PixelRatio != nil {
		ratio = opts.PixelRatio(img.Bounds())
	}
	uri, err := screenshot.CropDataURI(img, rect, ratio)
	if err != nil {
		return llm.Result{}, settings.Settings{}, apperr.Transport("crop", err)
	}

	cfg := opts.Settings.Load()
	if cfg.APIKey == "" {
		cfg.APIKey = opts.FallbackKey
	}
	if cfg.APIKey == "" {
		return llm.Result{}, cfg, apperr.Config("API key is not configured. Open Settings and enter your %s API key", cfg.Provider)
	}
	log.Printf("Capture: recognizing with provider=%s key=%s lang=%s mode=%s",
		cfg.Provider, logutil.RedactKey(cfg.APIKey), cfg.TargetLang, cfg.TranslationMode)

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res, err := opts.Recognizer.Recognize(jobCtx, cfg, llm.Request{
		ImageURI:   uri,
		TargetLang: cfg.TargetLang,
		Mode:       llm.ParseMode(cfg.TranslationMode),
	})
	if err != nil {
		return llm.Result{}, cfg, err
	}
	return res, cfg, nil
}

// fail is the error boundary: the presenter shows the error and the target
// is told.
func (opts Options) fail(err error) error {
	log.Printf("Capture: %s error: %v", apperr.KindOf(err), err)
	opts.Presenter.ShowError(err)
	if opts.Target != nil {
		_ = opts.Target.OnFailure(err)
	}
	return err
}

// ClientRecognizer adapts an llm.Client to the per-attempt settings.
type ClientRecognizer struct {
	Client *llm.Client
}

func (r ClientRecognizer) Recognize(ctx context.Context, s settings.Settings, req llm.Request) (llm.Result, error) {
	return r.Client.WithKey(s.APIKey, s.Provider).Recognize(ctx, req)
}
