package stage

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/overlay"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/settings"
)

type countingShooter struct {
	calls atomic.Int32
}

func (c *countingShooter) Capture(ctx context.Context) (image.Image, error) {
	c.calls.Add(1)
	return image.NewRGBA(image.Rect(0, 0, 800, 600)), nil
}

type nopPresenter struct {
	results, errs int
}

func (p *nopPresenter) ShowLoading() {}
func (p *nopPresenter) HideLoading() {}

func (p *nopPresenter) ShowResult(res llm.Result, s settings.Settings) { p.results++ }

func (p *nopPresenter) ShowError(err error) { p.errs++ }

type selected struct {
	rect      geometry.Rect
	cancelled bool
	err       error
}

func newTestStage(t *testing.T) (*Stage, *countingShooter, *overlay.Controller) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	shooter := &countingShooter{}
	st := New(a, Options{Screenshot: shooter})
	st.win.Resize(fyne.NewSize(800, 600))
	st.doc.SetViewport(geometry.Viewport{Width: 800, Height: 600})
	return st, shooter, overlay.NewController(st.Document(), st.Run)
}

// startSelect runs the stage selector in the background and returns once the
// overlay is up.
func startSelect(t *testing.T, st *Stage, ctrl *overlay.Controller) <-chan selected {
	t.Helper()
	started := make(chan struct{}, 1)
	ctrl.OnStart = func() { started <- struct{}{} }
	out := make(chan selected, 1)
	go func() {
		rect, cancelled, err := st.Selector(ctrl).Select(context.Background())
		out <- selected{rect, cancelled, err}
	}()
	<-started
	return out
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(st *Stage) {
	st.surface.MouseDown(mouse(100, 100))
	st.surface.MouseMoved(mouse(300, 250))
	st.surface.MouseUp(mouse(300, 250))
}

func TestCommittedSelectionKeepsBackdrop(t *testing.T) {
	st, shooter, ctrl := newTestStage(t)
	out := startSelect(t, st, ctrl)
	drag(st)

	res := <-out
	require.NoError(t, res.err)
	require.False(t, res.cancelled)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}, res.rect)
	require.Zero(t, st.doc.Count(scene.KindOverlay))
	require.True(t, st.shown, "window stays up while the pipeline runs")

	img, err := st.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, 800, img.Bounds().Dx())
	require.Equal(t, int32(1), shooter.calls.Load(), "pipeline reuses the frozen screenshot")

	p := &nopPresenter{}
	st.Presenter(p).ShowResult(llm.Result{Original: "x"}, settings.Defaults())
	require.Equal(t, 1, p.results)
	require.False(t, st.shown)
	require.Nil(t, st.frozen)
}

func TestErrorReleasesBackdrop(t *testing.T) {
	st, shooter, ctrl := newTestStage(t)
	out := startSelect(t, st, ctrl)
	drag(st)
	<-out

	p := &nopPresenter{}
	st.Presenter(p).ShowError(errors.New("boom"))
	require.Equal(t, 1, p.errs)
	require.False(t, st.shown)

	_, err := st.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), shooter.calls.Load(), "backdrop was dropped")
}

func TestCancelledSelectionReleasesBackdrop(t *testing.T) {
	st, _, ctrl := newTestStage(t)
	out := startSelect(t, st, ctrl)
	st.Run(ctrl.Teardown)

	res := <-out
	require.True(t, res.cancelled)
	require.False(t, st.capturing)
	require.False(t, st.shown)
	require.Nil(t, st.frozen)
}

func TestSelectorReleaseDropsBackdrop(t *testing.T) {
	st, _, ctrl := newTestStage(t)
	out := startSelect(t, st, ctrl)
	drag(st)
	<-out
	require.True(t, st.shown)

	sel, ok := st.Selector(ctrl).(interface{ Release() })
	require.True(t, ok)
	sel.Release()
	require.False(t, st.shown)
	require.Nil(t, st.frozen)
}
