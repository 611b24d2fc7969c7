package drag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
)

func newCard(t *testing.T) (*scene.Document, *scene.Element) {
	t.Helper()
	d := scene.New(geometry.Viewport{Width: 1000, Height: 700})
	card := d.Append(d.Create(scene.KindPanel, "card"))
	card.SetSize(400, 300) // anchored: centered at (300, 200)
	return d, card
}

func press(d *scene.Document, x, y float64) {
	d.Dispatch(&scene.Event{Type: scene.PointerDown, Point: geometry.Point{X: x, Y: y}})
}

func move(d *scene.Document, x, y float64) {
	d.Dispatch(&scene.Event{Type: scene.PointerMove, Point: geometry.Point{X: x, Y: y}})
}

func release(d *scene.Document, x, y float64) {
	d.Dispatch(&scene.Event{Type: scene.PointerUp, Point: geometry.Point{X: x, Y: y}})
}

func TestDragMovesByPointerDelta(t *testing.T) {
	d, card := newCard(t)
	Attach(card, nil, Card)

	press(d, 350, 250)
	require.Equal(t, scene.ModeExplicit, card.Mode)
	require.Equal(t, geometry.Rect{Left: 300, Top: 200, Width: 400, Height: 300}, card.Box())

	move(d, 400, 300)
	require.Equal(t, geometry.Point{X: 350, Y: 250}, card.Box().Origin())
	release(d, 400, 300)

	require.Equal(t, geometry.Point{X: 350, Y: 250}, card.Box().Origin())
	require.Equal(t, 0, d.ListenerCount(), "tracking listeners released on pointer-up")
}

func TestMoveBelowThresholdKeepsPositionAndClick(t *testing.T) {
	d, card := newCard(t)
	Attach(card, nil, Card)
	before := card.Box()

	clicks := 0
	card.Listen(scene.Click, func(*scene.Event) {
		if ConsumeClick(card) {
			return
		}
		clicks++
	})

	press(d, 350, 250)
	move(d, 353, 248)
	release(d, 353, 248)

	require.Equal(t, before, card.Box())
	require.False(t, card.Dragged)
	require.Equal(t, 1, clicks)
}

func TestDragPastThresholdSuppressesClick(t *testing.T) {
	d, card := newCard(t)
	Attach(card, nil, Card)
	clicks := 0
	card.Listen(scene.Click, func(*scene.Event) {
		if ConsumeClick(card) {
			return
		}
		clicks++
	})

	press(d, 350, 250)
	move(d, 354, 250)
	release(d, 354, 250)

	require.Equal(t, 0, clicks)
	require.False(t, card.Dragged, "flag consumed by the click handler")

	press(d, 360, 260)
	release(d, 360, 260)
	require.Equal(t, 1, clicks, "next plain click fires")
}

func TestReleaseOutsideViewportIsClamped(t *testing.T) {
	d, card := newCard(t)
	Attach(card, nil, Card)

	press(d, 350, 250)
	move(d, -500, -500) // pointer leaves the viewport; tracking continues
	require.Equal(t, geometry.Point{X: -550, Y: -550}, card.Box().Origin())
	release(d, -500, -500)

	box := card.Box()
	require.Equal(t, geometry.Point{X: 10, Y: 10}, box.Origin())

	press(d, 100, 100)
	move(d, 5000, 5000)
	release(d, 5000, 5000)
	box = card.Box()
	vp := d.Viewport()
	require.GreaterOrEqual(t, box.Left, 10.0)
	require.GreaterOrEqual(t, box.Top, 10.0)
	require.LessOrEqual(t, box.Right(), vp.Width-10)
	require.LessOrEqual(t, box.Bottom(), vp.Height-10)
}

func TestInteractiveAndTextDescendantsDoNotStartDrag(t *testing.T) {
	d, card := newCard(t)
	card.SetPosition(100, 100)
	btn := card.Append(d.Create(scene.KindNode, "close"))
	btn.Role = scene.RoleButton
	btn.SetBox(geometry.Rect{Left: 360, Top: 10, Width: 30, Height: 30})
	text := card.Append(d.Create(scene.KindNode, "original"))
	text.Role = scene.RoleTextBlock
	text.SetBox(geometry.Rect{Left: 10, Top: 60, Width: 380, Height: 100})
	label := text.Append(d.Create(scene.KindNode, "word"))
	label.SetBox(geometry.Rect{Left: 5, Top: 5, Width: 50, Height: 20})

	dr := Attach(card, nil, Card)

	press(d, 470, 120) // on the close button
	require.False(t, dr.Dragging())
	release(d, 470, 120)

	press(d, 120, 170) // inside a span within the text block
	require.False(t, dr.Dragging())
	release(d, 120, 170)

	press(d, 200, 350) // card background
	require.True(t, dr.Dragging())
	release(d, 200, 350)
}

func TestHandleRestrictsDragStart(t *testing.T) {
	d, card := newCard(t)
	card.SetPosition(0, 0)
	header := card.Append(d.Create(scene.KindNode, "header"))
	header.SetBox(geometry.Rect{Width: 400, Height: 40})

	dr := Attach(card, header, Card)
	press(d, 200, 200) // body
	require.False(t, dr.Dragging())
	release(d, 200, 200)

	press(d, 200, 20)
	require.True(t, dr.Dragging())
	move(d, 300, 120)
	release(d, 300, 120)
	require.Equal(t, geometry.Point{X: 100, Y: 100}, card.Box().Origin())
}

func TestAbsoluteElementClampAccountsForScroll(t *testing.T) {
	d := scene.New(geometry.Viewport{Width: 800, Height: 600, ScrollY: 1000})
	card := d.Append(d.Create(scene.KindPanel, ""))
	card.Positioning = scene.PositionAbsolute
	card.SetBox(geometry.Rect{Left: 100, Top: 1100, Width: 200, Height: 100})
	Attach(card, nil, Card)

	press(d, 150, 150)
	move(d, 150, 900)
	release(d, 150, 900)

	require.Equal(t, geometry.Point{X: 100, Y: 490}, card.Box().Origin())
	require.Equal(t, 1490.0, card.Top, "page coordinate keeps the scroll offset")
}

func TestDetachReleasesListeners(t *testing.T) {
	d, card := newCard(t)
	dr := Attach(card, nil, Card)
	press(d, 350, 250)
	require.Equal(t, 2, d.ListenerCount())
	dr.Detach()
	require.Equal(t, 0, d.ListenerCount())

	press(d, 350, 250)
	require.False(t, dr.Dragging())
}

func TestVisiblePolicy(t *testing.T) {
	vp := geometry.Viewport{Width: 1000, Height: 700}
	box := geometry.Rect{Width: 56, Height: 56}

	require.Equal(t, geometry.Point{X: -6, Y: 0}, Floating.Clamp(box.Translate(-300, -40), vp))
	require.Equal(t, geometry.Point{X: 950, Y: 650}, Floating.Clamp(box.Translate(2000, 2000), vp))
	require.Equal(t, geometry.Point{X: 400, Y: 300}, Floating.Clamp(box.Translate(400, 300), vp))
}

func TestContainedPolicyOversized(t *testing.T) {
	vp := geometry.Viewport{Width: 300, Height: 200}
	got := Card.Clamp(geometry.Rect{Left: -40, Top: 90, Width: 500, Height: 100}, vp)
	require.Equal(t, geometry.Point{X: 10, Y: 90}, got)
}
