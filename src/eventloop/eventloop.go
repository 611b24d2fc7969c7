package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-ocr-translate/src/capture"
	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/hotkey"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/messages"
	"screen-ocr-translate/src/overlay"
	"screen-ocr-translate/src/settings"
	"screen-ocr-translate/src/singleinstance"
	"screen-ocr-translate/src/worker"
)

// ErrBusy is reported to triggers that arrive while a capture is processing.
var ErrBusy = errors.New("Busy, please retry")

const defaultTooltip = "Screen OCR Translate"

// Loop is the single-threaded coordinator for local triggers (hotkey, FAB,
// tray, scan next) and remote capture requests.
type Loop struct {
	selector overlay.Selector
	pipeline capture.Options
	pool     *worker.Pool
	srv      singleinstance.Server
	hotkeys  *hotkey.Listener

	busy     bool
	results  chan result
	triggers chan messages.CaptureRequested
	deadline time.Duration

	defaultTooltip string
	onStatus       func(messages.StatusChanged)
	notify         func(title, message string)
}

type result struct {
	res    llm.Result
	err    error
	target resultTarget
	cancel context.CancelFunc
}

type resultTarget interface {
	OnSuccess(res llm.Result) error
	OnFailure(err error) error
	Close()
}

// localTarget is used for local triggers: the presenter already showed the
// outcome, so there is nothing more to deliver.
type localTarget struct{}

func (localTarget) OnSuccess(llm.Result) error { return nil }
func (localTarget) OnFailure(error) error      { return nil }
func (localTarget) Close()                     {}

// delegatedTarget answers a remote caller waiting on its connection.
type delegatedTarget struct {
	conn singleinstance.Conn
}

func (t delegatedTarget) OnSuccess(res llm.Result) error {
	return t.conn.RespondSuccess(res)
}

func (t delegatedTarget) OnFailure(err error) error {
	return t.conn.RespondError(err.Error())
}

func (t delegatedTarget) Close() {
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

type requestCallbacks struct {
	onBusy        func()
	onSelectError func(err error)
	onCancelled   func()
}

// Options wires the loop to the desktop.
type Options struct {
	Selector overlay.Selector
	// Pipeline is the capture configuration shared by every attempt.
	// Its Target is ignored; the loop delivers outcomes itself.
	Pipeline capture.Options
	// Server answers remote triggers. Nil uses the TCP server.
	Server   singleinstance.Server
	OnStatus func(messages.StatusChanged)
	Notify   func(title, message string)
}

// New creates a new event loop with defaults based on config.
// If cfg is nil or cfg.OCRDeadlineSec <= 0, a 20s deadline is used.
func New(cfg *config.Config, opts Options) *Loop {
	deadlineSec := config.DefaultOCRDeadlineSec
	if cfg != nil && cfg.OCRDeadlineSec > 0 {
		deadlineSec = cfg.OCRDeadlineSec
	}
	pipeline := opts.Pipeline
	pipeline.Target = nil
	pipeline.Deadline = time.Duration(deadlineSec) * time.Second

	srv := opts.Server
	if srv == nil {
		srv = singleinstance.NewServer()
	}

	return &Loop{
		selector:       opts.Selector,
		pipeline:       pipeline,
		pool:           worker.New(1),
		srv:            srv,
		results:        make(chan result, 1),
		triggers:       make(chan messages.CaptureRequested, 4),
		deadline:       pipeline.Deadline,
		defaultTooltip: defaultTooltip,
		onStatus:       opts.OnStatus,
		notify:         opts.Notify,
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	status := messages.StatusChanged{Busy: b, Tooltip: l.defaultTooltip}
	if b {
		status.Tooltip = "Screen OCR Translate: processing..."
	}
	if l.onStatus != nil {
		l.onStatus(status)
	}
}

// Trigger asks for a capture from a local source. It never blocks; extra
// triggers beyond the queue are dropped.
func (l *Loop) Trigger(source string) {
	select {
	case l.triggers <- messages.CaptureRequested{Source: source}:
	default:
		log.Printf("Trigger: dropped %s trigger, queue full", source)
	}
}

// StartHotkey installs the global hotkey for mode and posts into the loop.
func (l *Loop) StartHotkey(mode string) {
	if l.hotkeys != nil {
		l.hotkeys.SetMode(mode)
		return
	}
	l.hotkeys = hotkey.NewListener(mode, func() { l.Trigger(messages.SourceHotkey) })
	l.hotkeys.Start()
}

// OnSettingsChange rebinds the hotkey when its mode changes.
func (l *Loop) OnSettingsChange(c settings.Change) {
	if c.Has(settings.KeyHotkeyMode) && l.hotkeys != nil {
		l.hotkeys.SetMode(c.New.HotkeyMode)
	}
}

// Run starts the singleinstance server and processes triggers.
// It blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	if p := l.srv.Port(); p > 0 {
		log.Printf("Resident listening on 127.0.0.1:%d", p)
	}
	defer l.pool.Close()
	defer l.srv.Close()
	if l.hotkeys != nil {
		defer l.hotkeys.Stop()
	}

	// Accept loop in background to avoid blocking result handling
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				close(reqCh)
				return
			}
			reqCh <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case trig := <-l.triggers:
			l.handleTrigger(ctx, trig)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	var target resultTarget = delegatedTarget{conn: conn}
	if l.busy {
		_ = target.OnFailure(ErrBusy)
		target.Close()
		return
	}
	if !conn.Request().Wait {
		// Fire and forget: acknowledge now, the card shows the result.
		_ = target.OnSuccess(llm.Result{})
		target.Close()
		target = localTarget{}
	}
	l.startRequest(ctx, target, requestCallbacks{
		onBusy: func() {
			_ = target.OnFailure(ErrBusy)
			target.Close()
		},
		onSelectError: func(err error) {
			_ = target.OnFailure(fmt.Errorf("Failed to select region: %w", err))
			target.Close()
		},
		onCancelled: func() {
			_ = target.OnFailure(capture.ErrSelectionCancelled)
			target.Close()
		},
	})
}

func (l *Loop) handleResult(res result) {
	log.Printf("handleResult: empty=%v, err=%v", res.res.Empty(), res.err)
	defer func() {
		l.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()
	if res.target == nil {
		log.Printf("handleResult: missing target")
		return
	}
	defer res.target.Close()

	if res.err != nil {
		if err := res.target.OnFailure(res.err); err != nil {
			log.Printf("handleResult: delivery error: %v", err)
		}
		return
	}
	if err := res.target.OnSuccess(res.res); err != nil {
		log.Printf("handleResult: delivery error: %v", err)
	}
}

func (l *Loop) handleTrigger(ctx context.Context, trig messages.CaptureRequested) {
	log.Printf("handleTrigger: %s", trig.Source)
	l.startRequest(ctx, localTarget{}, requestCallbacks{
		onBusy: func() {
			log.Printf("handleTrigger: busy, skipping %s", trig.Source)
			if l.notify != nil {
				l.notify("Screen OCR Translate", ErrBusy.Error())
			}
		},
		onSelectError: func(err error) {
			log.Printf("handleTrigger: selection error: %v", err)
			if l.notify != nil {
				l.notify("Selection error", err.Error())
			}
		},
		onCancelled: func() {
			log.Printf("handleTrigger: selection cancelled")
		},
	})
}

func (l *Loop) startRequest(ctx context.Context, target resultTarget, callbacks requestCallbacks) {
	if l.busy {
		if callbacks.onBusy != nil {
			callbacks.onBusy()
		}
		return
	}

	rect, cancelled, err := l.selector.Select(ctx)
	if err != nil {
		if callbacks.onSelectError != nil {
			callbacks.onSelectError(err)
		}
		return
	}
	if cancelled {
		if callbacks.onCancelled != nil {
			callbacks.onCancelled()
		}
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	pipeline := l.pipeline
	submitted := l.pool.Submit(jobCtx, func(ctx context.Context) (llm.Result, error) {
		return capture.Process(ctx, pipeline, rect)
	}, func(res llm.Result, err error) {
		l.results <- result{res: res, err: err, target: target, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		if r, ok := l.selector.(releaser); ok {
			r.Release()
		}
		if callbacks.onBusy != nil {
			callbacks.onBusy()
		}
	}
}

// releaser is implemented by selectors that hold resources for the pipeline
// of a committed selection.
type releaser interface {
	Release()
}

// Deadline returns the configured recognition deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }
