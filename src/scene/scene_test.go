package scene

import (
	"testing"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
)

func newDoc() *Document {
	return New(geometry.Viewport{Width: 1280, Height: 800})
}

func TestAnchoredBoxIsCentered(t *testing.T) {
	d := newDoc()
	panel := d.Append(d.Create(KindPanel, "panel"))
	panel.SetSize(400, 300)

	require.Equal(t, geometry.Rect{Left: 440, Top: 250, Width: 400, Height: 300}, panel.Box())
}

func TestAbsoluteBoxFollowsScroll(t *testing.T) {
	d := newDoc()
	el := d.Append(d.Create(KindPanel, ""))
	el.Positioning = PositionAbsolute
	el.SetBox(geometry.Rect{Left: 500, Top: 900, Width: 100, Height: 100})
	d.ScrollTo(0, 600)

	require.Equal(t, geometry.Rect{Left: 500, Top: 300, Width: 100, Height: 100}, el.Box())
}

func TestChildBoxIsRelativeToParent(t *testing.T) {
	d := newDoc()
	parent := d.Append(d.Create(KindPanel, "p"))
	parent.SetBox(geometry.Rect{Left: 100, Top: 50, Width: 300, Height: 200})
	child := parent.Append(d.Create(KindNode, "c"))
	child.SetBox(geometry.Rect{Left: 10, Top: 20, Width: 50, Height: 30})

	require.Equal(t, geometry.Rect{Left: 110, Top: 70, Width: 50, Height: 30}, child.Box())
	require.Same(t, child, d.ByID("c"))
	require.Same(t, child, d.HitTest(geometry.Point{X: 120, Y: 80}))
	require.Same(t, parent, d.HitTest(geometry.Point{X: 350, Y: 200}))
	require.Nil(t, d.HitTest(geometry.Point{X: 5, Y: 5}))
}

func TestRemoveIsIdempotent(t *testing.T) {
	d := newDoc()
	el := d.Append(d.Create(KindOverlay, "o"))
	require.True(t, el.Attached())
	el.Remove()
	el.Remove()
	require.False(t, el.Attached())
	require.Equal(t, 0, d.Count(KindOverlay))
}

func TestSubscriptionReleaseDropsEveryListener(t *testing.T) {
	d := newDoc()
	calls := 0
	sub := d.Listen(PointerMove, func(*Event) { calls++ })
	sub.Join(d.Listen(PointerUp, func(*Event) { calls++ }))
	require.Equal(t, 2, d.ListenerCount())

	d.Dispatch(&Event{Type: PointerMove})
	sub.Release()
	sub.Release()
	d.Dispatch(&Event{Type: PointerMove})
	d.Dispatch(&Event{Type: PointerUp})

	require.Equal(t, 1, calls)
	require.Equal(t, 0, d.ListenerCount())
	require.True(t, sub.Released())
}

func TestDispatchBubblesThenDocument(t *testing.T) {
	d := newDoc()
	parent := d.Append(d.Create(KindPanel, "p"))
	parent.SetBox(geometry.Rect{Width: 100, Height: 100})
	child := parent.Append(d.Create(KindNode, "c"))
	child.SetBox(geometry.Rect{Width: 10, Height: 10})

	var order []string
	child.Listen(PointerDown, func(*Event) { order = append(order, "child") })
	parent.Listen(PointerDown, func(*Event) { order = append(order, "parent") })
	d.Listen(PointerDown, func(*Event) { order = append(order, "doc") })

	d.Dispatch(&Event{Type: PointerDown, Point: geometry.Point{X: 5, Y: 5}})
	require.Equal(t, []string{"child", "parent", "doc"}, order)

	order = nil
	child.Listen(PointerDown, func(ev *Event) { ev.StopPropagation() })
	d.Dispatch(&Event{Type: PointerDown, Point: geometry.Point{X: 5, Y: 5}})
	require.Equal(t, []string{"child"}, order)
}

func TestPointerUpSynthesizesClickOnCommonAncestor(t *testing.T) {
	d := newDoc()
	btn := d.Append(d.Create(KindFAB, "fab"))
	btn.SetBox(geometry.Rect{Left: 10, Top: 10, Width: 40, Height: 40})
	clicks := 0
	btn.Listen(Click, func(*Event) { clicks++ })

	d.Dispatch(&Event{Type: PointerDown, Point: geometry.Point{X: 20, Y: 20}})
	d.Dispatch(&Event{Type: PointerUp, Point: geometry.Point{X: 25, Y: 25}})
	require.Equal(t, 1, clicks)

	d.Dispatch(&Event{Type: PointerDown, Point: geometry.Point{X: 20, Y: 20}})
	d.Dispatch(&Event{Type: PointerUp, Point: geometry.Point{X: 600, Y: 600}})
	require.Equal(t, 1, clicks, "release outside the button is not a click")
}

func TestKeyDownTargetsFocus(t *testing.T) {
	d := newDoc()
	input := d.Append(d.Create(KindNode, "input"))
	input.Role = RoleInput
	d.Focus(input)
	require.True(t, d.EditingText())

	var target *Element
	d.Listen(KeyDown, func(ev *Event) { target = ev.Target })
	d.Dispatch(&Event{Type: KeyDown, Key: "q"})
	require.Same(t, input, target)

	input.Remove()
	require.Nil(t, d.Focused())
	require.False(t, d.EditingText())
}

func TestClassesAndChangeHook(t *testing.T) {
	d := newDoc()
	changes := 0
	d.OnChange(func() { changes++ })
	el := d.Append(d.Create(KindFAB, ""))
	el.ToggleClass("dark", true)
	require.True(t, el.HasClass("dark"))
	el.ToggleClass("dark", false)
	require.False(t, el.HasClass("dark"))
	require.Equal(t, 3, changes)
}
