package overlay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/selection"
)

func newDoc() *scene.Document {
	return scene.New(geometry.Viewport{Width: 1280, Height: 800})
}

func drag(d *scene.Document, from, to geometry.Point) {
	d.Dispatch(&scene.Event{Type: scene.PointerDown, Point: from})
	d.Dispatch(&scene.Event{Type: scene.PointerMove, Point: to})
	d.Dispatch(&scene.Event{Type: scene.PointerUp, Point: to})
}

func outcome(t *testing.T, s *Session) Outcome {
	t.Helper()
	select {
	case out := <-s.Done():
		return out
	default:
		t.Fatal("session has not ended")
		return Outcome{}
	}
}

func TestCommittedSelection(t *testing.T) {
	d := newDoc()
	c := NewController(d, nil)
	s := c.Start()
	require.Equal(t, 1, d.Count(scene.KindOverlay))

	drag(d, geometry.Point{X: 100, Y: 100}, geometry.Point{X: 300, Y: 250})

	out := outcome(t, s)
	require.False(t, out.Cancelled)
	require.NoError(t, out.Err)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}, out.Rect)
	require.Equal(t, 0, d.Count(scene.KindOverlay))
	require.Equal(t, 0, d.ListenerCount())
	require.Nil(t, c.Active())
}

func TestReverseDragNormalizes(t *testing.T) {
	d := newDoc()
	s := NewController(d, nil).Start()
	drag(d, geometry.Point{X: 300, Y: 250}, geometry.Point{X: 100, Y: 100})
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}, outcome(t, s).Rect)
}

func TestTooSmallSelectionIsSilentCancel(t *testing.T) {
	d := newDoc()
	s := NewController(d, nil).Start()
	drag(d, geometry.Point{X: 100, Y: 100}, geometry.Point{X: 105, Y: 103})

	out := outcome(t, s)
	require.True(t, out.Cancelled)
	require.ErrorIs(t, out.Err, ErrSelectionTooSmall)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 5, Height: 3}, out.Rect)
	require.Equal(t, 0, d.Count(scene.KindOverlay))
}

func TestOneDimensionTooSmall(t *testing.T) {
	d := newDoc()
	s := NewController(d, nil).Start()
	drag(d, geometry.Point{X: 100, Y: 100}, geometry.Point{X: 400, Y: 119})
	require.ErrorIs(t, outcome(t, s).Err, ErrSelectionTooSmall)
}

func TestEscapeWhileDrawing(t *testing.T) {
	d := newDoc()
	s := NewController(d, nil).Start()
	d.Dispatch(&scene.Event{Type: scene.PointerDown, Point: geometry.Point{X: 10, Y: 10}})
	d.Dispatch(&scene.Event{Type: scene.PointerMove, Point: geometry.Point{X: 200, Y: 200}})
	require.Equal(t, selection.StateDrawing, s.Engine().State())

	d.Dispatch(&scene.Event{Type: scene.KeyDown, Key: scene.KeyEscape})

	out := outcome(t, s)
	require.True(t, out.Cancelled)
	require.NoError(t, out.Err)
	require.Equal(t, selection.StateIdle, s.Engine().State())
	require.Equal(t, 0, d.Count(scene.KindOverlay))
	require.Equal(t, 0, d.ListenerCount())

	// A release after cancel has no effect.
	d.Dispatch(&scene.Event{Type: scene.PointerUp, Point: geometry.Point{X: 200, Y: 200}})
	require.Empty(t, s.Done())
}

func TestOtherKeysIgnored(t *testing.T) {
	d := newDoc()
	s := NewController(d, nil).Start()
	d.Dispatch(&scene.Event{Type: scene.KeyDown, Key: "q"})
	require.False(t, s.Ended())
	require.Equal(t, 1, d.Count(scene.KindOverlay))
}

func TestStartReplacesOverlayAndPanel(t *testing.T) {
	d := newDoc()
	c := NewController(d, nil)

	panel := d.Append(d.Create(scene.KindPanel, "result"))
	first := c.Start()
	require.False(t, panel.Attached())

	second := c.Start()
	require.True(t, outcome(t, first).Cancelled)
	require.False(t, second.Ended())
	require.Equal(t, 1, d.Count(scene.KindOverlay))
	// Escape subscription plus nothing else.
	require.Equal(t, 1, d.ListenerCount())

	for i := 0; i < 5; i++ {
		c.Start()
		require.LessOrEqual(t, d.Count(scene.KindOverlay), 1)
		require.LessOrEqual(t, d.Count(scene.KindPanel), 1)
	}
	c.Teardown()
	require.Equal(t, 0, d.Count(scene.KindOverlay))
}

func TestTeardownWithoutOverlay(t *testing.T) {
	d := newDoc()
	c := NewController(d, nil)
	require.NotPanics(t, c.Teardown)
	c.Start()
	c.Teardown()
	require.NotPanics(t, c.Teardown)
	require.Equal(t, 0, d.ListenerCount())
}

func TestLifecycleHooks(t *testing.T) {
	d := newDoc()
	c := NewController(d, nil)
	var events []string
	c.OnStart = func() { events = append(events, "start") }
	c.OnEnd = func() { events = append(events, "end") }

	c.Start()
	c.Start()
	c.Teardown()
	require.Equal(t, []string{"start", "end", "start", "end"}, events)
}

func TestSelectBlocksUntilRelease(t *testing.T) {
	d := newDoc()
	ui := make(chan func(), 8)
	c := NewController(d, func(fn func()) { ui <- fn })

	type result struct {
		rect      geometry.Rect
		cancelled bool
		err       error
	}
	res := make(chan result, 1)
	go func() {
		r, cancelled, err := c.Select(context.Background())
		res <- result{r, cancelled, err}
	}()

	(<-ui)()
	require.Equal(t, 1, d.Count(scene.KindOverlay))
	drag(d, geometry.Point{X: 40, Y: 40}, geometry.Point{X: 140, Y: 90})

	select {
	case r := <-res:
		require.NoError(t, r.err)
		require.False(t, r.cancelled)
		require.Equal(t, geometry.Rect{Left: 40, Top: 40, Width: 100, Height: 50}, r.rect)
	case <-time.After(2 * time.Second):
		t.Fatal("Select did not return")
	}
}

func TestSelectContextCancelled(t *testing.T) {
	d := newDoc()
	ui := make(chan func(), 8)
	c := NewController(d, func(fn func()) { ui <- fn })
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, _, err := c.Select(ctx)
		errc <- err
	}()
	(<-ui)()
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Select did not return")
	}
	(<-ui)()
	require.Equal(t, 0, d.Count(scene.KindOverlay))
}
