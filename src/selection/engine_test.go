package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
)

func TestEngineCommitsNormalizedRect(t *testing.T) {
	e := NewEngine()
	require.True(t, e.PointerDown(geometry.Point{X: 100, Y: 100}))
	require.Equal(t, StateDrawing, e.State())

	rect, ok := e.PointerMove(geometry.Point{X: 200, Y: 180})
	require.True(t, ok)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 100, Height: 80}, rect)

	out, ok := e.PointerUp(geometry.Point{X: 300, Y: 250})
	require.True(t, ok)
	require.True(t, out.Committed)
	require.False(t, out.TooSmall)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}, out.Rect)
	require.Equal(t, StateCommitted, e.State())
}

func TestEngineReverseDrag(t *testing.T) {
	e := NewEngine()
	e.PointerDown(geometry.Point{X: 300, Y: 250})
	out, _ := e.PointerUp(geometry.Point{X: 100, Y: 100})
	require.True(t, out.Committed)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 200, Height: 150}, out.Rect)
}

func TestEngineTooSmallIsCancelled(t *testing.T) {
	e := NewEngine()
	e.PointerDown(geometry.Point{X: 100, Y: 100})
	out, ok := e.PointerUp(geometry.Point{X: 105, Y: 103})
	require.True(t, ok)
	require.False(t, out.Committed)
	require.True(t, out.TooSmall)
	require.Equal(t, geometry.Rect{Left: 100, Top: 100, Width: 5, Height: 3}, out.Rect)
	require.Equal(t, StateCancelled, e.State())
}

func TestEngineOneDimensionTooSmall(t *testing.T) {
	e := NewEngine()
	e.PointerDown(geometry.Point{X: 0, Y: 0})
	out, _ := e.PointerUp(geometry.Point{X: 400, Y: 19})
	require.True(t, out.TooSmall)
}

func TestEngineEscapeWhileDrawing(t *testing.T) {
	e := NewEngine()
	_, ok := e.Escape()
	require.False(t, ok, "escape while idle is ignored")

	e.PointerDown(geometry.Point{X: 10, Y: 10})
	e.PointerMove(geometry.Point{X: 90, Y: 90})
	out, ok := e.Escape()
	require.True(t, ok)
	require.False(t, out.Committed)
	require.Equal(t, StateCancelled, e.State())

	_, ok = e.PointerUp(geometry.Point{X: 100, Y: 100})
	require.False(t, ok, "release after cancel is ignored")

	e.Reset()
	require.Equal(t, StateIdle, e.State())
	require.Equal(t, geometry.Rect{}, e.Rect())
}

func TestEngineMoveIgnoredWhenIdle(t *testing.T) {
	e := NewEngine()
	_, ok := e.PointerMove(geometry.Point{X: 5, Y: 5})
	require.False(t, ok)

	require.True(t, e.PointerDown(geometry.Point{}))
	require.False(t, e.PointerDown(geometry.Point{X: 1, Y: 1}), "second pointer-down while drawing")
}
