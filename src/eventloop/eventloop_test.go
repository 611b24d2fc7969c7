package eventloop

import (
	"context"
	"image"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/capture"
	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/messages"
	"screen-ocr-translate/src/settings"
	"screen-ocr-translate/src/singleinstance"
)

type fakeSelector struct {
	rect      geometry.Rect
	cancelled bool
}

func (f fakeSelector) Select(context.Context) (geometry.Rect, bool, error) {
	return f.rect, f.cancelled, nil
}

type fakeShot struct{}

func (fakeShot) Capture(context.Context) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, 400, 300)), nil
}

type fakeSettings struct{}

func (fakeSettings) Load() settings.Settings {
	s := settings.Defaults()
	s.APIKey = "gsk_test"
	return s
}

type fakeRecognizer struct {
	res  llm.Result
	gate chan struct{}
}

func (f fakeRecognizer) Recognize(ctx context.Context, _ settings.Settings, _ llm.Request) (llm.Result, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
	}
	return f.res, nil
}

type presenter struct {
	results chan llm.Result
	errors  chan error
}

func newPresenter() *presenter {
	return &presenter{results: make(chan llm.Result, 4), errors: make(chan error, 4)}
}

func (p *presenter) ShowLoading() {}
func (p *presenter) HideLoading() {}
func (p *presenter) ShowResult(res llm.Result, _ settings.Settings) {
	p.results <- res
}
func (p *presenter) ShowError(err error) { p.errors <- err }

type reply struct {
	res *llm.Result
	err string
}

type fakeConn struct {
	req     singleinstance.Request
	replies chan reply
	mu      sync.Mutex
	closed  bool
}

func newConn(wait bool) *fakeConn {
	return &fakeConn{req: singleinstance.Request{Wait: wait}, replies: make(chan reply, 2)}
}

func (c *fakeConn) Request() singleinstance.Request { return c.req }
func (c *fakeConn) RespondSuccess(res llm.Result) error {
	c.replies <- reply{res: &res}
	return nil
}
func (c *fakeConn) RespondError(msg string) error {
	c.replies <- reply{err: msg}
	return nil
}
func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeServer struct {
	conns chan singleinstance.Conn
}

func (s *fakeServer) Start(context.Context) error { return nil }
func (s *fakeServer) Port() int                   { return 0 }
func (s *fakeServer) Close() error                { return nil }
func (s *fakeServer) Next(ctx context.Context) (singleinstance.Conn, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case <-ctx.Done():
		return nil, net.ErrClosed
	}
}

type fixture struct {
	loop   *Loop
	srv    *fakeServer
	shown  *presenter
	status chan messages.StatusChanged
}

func start(t *testing.T, sel fakeSelector, rec fakeRecognizer) *fixture {
	t.Helper()
	f := &fixture{
		srv:    &fakeServer{conns: make(chan singleinstance.Conn, 4)},
		shown:  newPresenter(),
		status: make(chan messages.StatusChanged, 16),
	}
	f.loop = New(&config.Config{OCRDeadlineSec: 5}, Options{
		Selector: sel,
		Pipeline: capture.Options{
			Screenshot: fakeShot{},
			Settings:   fakeSettings{},
			Recognizer: rec,
			Presenter:  f.shown,
		},
		Server:   f.srv,
		OnStatus: func(s messages.StatusChanged) { f.status <- s },
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return f
}

var selection = fakeSelector{rect: geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestTriggerShowsResult(t *testing.T) {
	want := llm.Result{Original: "hello", Translation: "xin chào"}
	f := start(t, selection, fakeRecognizer{res: want})

	f.loop.Trigger(messages.SourceHotkey)
	require.Equal(t, want, wait(t, f.shown.results))
	require.True(t, wait(t, f.status).Busy)
	require.False(t, wait(t, f.status).Busy)
}

func TestCancelledSelectionStaysIdle(t *testing.T) {
	f := start(t, fakeSelector{cancelled: true}, fakeRecognizer{})

	conn := newConn(true)
	f.srv.conns <- conn
	got := wait(t, conn.replies)
	require.Equal(t, capture.ErrSelectionCancelled.Error(), got.err)
	require.Empty(t, f.status)
}

func TestRemoteWaitGetsResult(t *testing.T) {
	want := llm.Result{Vocabulary: []llm.VocabularyItem{{Term: "ephemeral", Meaning: "tạm thời", Type: "adjective"}}}
	f := start(t, selection, fakeRecognizer{res: want})

	conn := newConn(true)
	f.srv.conns <- conn
	got := wait(t, conn.replies)
	require.NotNil(t, got.res)
	require.Equal(t, want, *got.res)
	require.Equal(t, want, wait(t, f.shown.results))
}

func TestRemoteDetachedIsAcknowledged(t *testing.T) {
	want := llm.Result{Translation: "xin chào"}
	f := start(t, selection, fakeRecognizer{res: want})

	conn := newConn(false)
	f.srv.conns <- conn
	got := wait(t, conn.replies)
	require.NotNil(t, got.res)
	require.True(t, got.res.Empty())
	require.Equal(t, want, wait(t, f.shown.results))
	require.Len(t, conn.replies, 0)
}

func TestBusyRejectsRemote(t *testing.T) {
	gate := make(chan struct{})
	f := start(t, selection, fakeRecognizer{res: llm.Result{Translation: "x"}, gate: gate})

	f.loop.Trigger(messages.SourceFAB)
	require.True(t, wait(t, f.status).Busy)

	conn := newConn(true)
	f.srv.conns <- conn
	got := wait(t, conn.replies)
	require.Equal(t, ErrBusy.Error(), got.err)

	close(gate)
	wait(t, f.shown.results)
	require.False(t, wait(t, f.status).Busy)
}

func TestDeadlineDefault(t *testing.T) {
	l := New(nil, Options{Server: &fakeServer{}})
	require.Equal(t, 20*time.Second, l.Deadline())
}
