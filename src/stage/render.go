package stage

import (
	"image"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"screen-ocr-translate/src/fab"
	"screen-ocr-translate/src/present"
	"screen-ocr-translate/src/scene"
)

const (
	textSize  = 14
	titleSize = 16
	radius    = 8
)

// palette is the colour set of one theme.
type palette struct {
	surface color.Color
	text    color.Color
	muted   color.Color
	button  color.Color
	label   color.Color
	border  color.Color
}

var (
	lightPalette = palette{
		surface: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		text:    color.NRGBA{R: 0x20, G: 0x21, B: 0x24, A: 0xff},
		muted:   color.NRGBA{R: 0x5f, G: 0x63, B: 0x68, A: 0xff},
		button:  color.NRGBA{R: 0x1a, G: 0x73, B: 0xe8, A: 0xff},
		label:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		border:  color.NRGBA{R: 0xda, G: 0xdc, B: 0xe0, A: 0xff},
	}
	darkPalette = palette{
		surface: color.NRGBA{R: 0x20, G: 0x21, B: 0x24, A: 0xff},
		text:    color.NRGBA{R: 0xe8, G: 0xea, B: 0xed, A: 0xff},
		muted:   color.NRGBA{R: 0x9a, G: 0xa0, B: 0xa6, A: 0xff},
		button:  color.NRGBA{R: 0x8a, G: 0xb4, B: 0xf8, A: 0xff},
		label:   color.NRGBA{R: 0x20, G: 0x21, B: 0x24, A: 0xff},
		border:  color.NRGBA{R: 0x5f, G: 0x63, B: 0x68, A: 0xff},
	}

	shade       = color.NRGBA{A: 0x4d}
	selectFill  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x1a}
	selectLine  = color.NRGBA{R: 0x1a, G: 0x73, B: 0xe8, A: 0xff}
	errorFill   = color.NRGBA{R: 0xd9, G: 0x30, B: 0x25, A: 0xf0}
	white       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	scoreColors = map[string]color.Color{
		"ocr-score-high": color.NRGBA{R: 0x1e, G: 0x8e, B: 0x3e, A: 0xff},
		"ocr-score-mid":  color.NRGBA{R: 0xf2, G: 0x99, B: 0x00, A: 0xff},
		"ocr-score-low":  color.NRGBA{R: 0xd9, G: 0x30, B: 0x25, A: 0xff},
	}
)

var (
	fabLight = fabResource("fab-light.svg", "#ffffff")
	fabDark  = fabResource("fab-dark.svg", "#202124")
)

func fabResource(name, fill string) fyne.Resource {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path fill="` + fill + `" d="` + fab.Icon + `"/></svg>`
	return fyne.NewStaticResource(name, []byte(svg))
}

func fabIcon(p palette) fyne.Resource {
	if p == darkPalette {
		return fabDark
	}
	return fabLight
}

// paletteFor picks the theme of the root element el belongs to.
func paletteFor(root *scene.Element) palette {
	if root.HasClass(present.DarkClass) || root.HasClass(fab.DarkClass) {
		return darkPalette
	}
	return lightPalette
}

type renderer struct {
	s        *surface
	backdrop *canvas.Image
	objects  []fyne.CanvasObject
}

func newRenderer(s *surface) *renderer {
	r := &renderer{s: s}
	r.backdrop = canvas.NewImageFromImage(nil)
	r.backdrop.FillMode = canvas.ImageFillStretch
	r.rebuild()
	return r
}

func (r *renderer) setBackdrop(img image.Image) {
	r.backdrop.Image = img
	r.backdrop.Refresh()
}

func (r *renderer) Layout(size fyne.Size) {
	r.backdrop.Resize(size)
	r.backdrop.Move(fyne.NewPos(0, 0))
}

func (r *renderer) MinSize() fyne.Size { return fyne.NewSize(1, 1) }

func (r *renderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.s)
}

func (r *renderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *renderer) Destroy() {}

func (r *renderer) rebuild() {
	objs := []fyne.CanvasObject{r.backdrop}
	for _, root := range r.s.st.doc.Roots() {
		if root.Hidden {
			continue
		}
		objs = drawElement(objs, root, paletteFor(root))
	}
	r.objects = objs
}

// drawElement appends the canvas objects for el and its subtree.
func drawElement(objs []fyne.CanvasObject, el *scene.Element, p palette) []fyne.CanvasObject {
	box := el.Box()
	pos := fyne.NewPos(float32(box.Left), float32(box.Top))
	size := fyne.NewSize(float32(box.Width), float32(box.Height))

	place := func(o fyne.CanvasObject) {
		o.Move(pos)
		o.Resize(size)
		objs = append(objs, o)
	}

	switch el.Kind {
	case scene.KindOverlay:
		place(canvas.NewRectangle(shade))
	case scene.KindSelection:
		rect := canvas.NewRectangle(selectFill)
		rect.StrokeColor = selectLine
		rect.StrokeWidth = 2
		place(rect)
	case scene.KindHint:
		objs = appendText(objs, el.Text, box.Left, box.Top, box.Width, white, titleSize, true, fyne.TextAlignCenter)
	case scene.KindPanel, scene.KindDialog, scene.KindLoading:
		rect := canvas.NewRectangle(p.surface)
		rect.StrokeColor = p.border
		rect.StrokeWidth = 1
		rect.CornerRadius = radius
		place(rect)
		if el.Kind == scene.KindLoading {
			objs = appendText(objs, el.Text, box.Left, box.Top+box.Height/2-textSize, box.Width, p.text, textSize, true, fyne.TextAlignCenter)
		}
		if el.Kind == scene.KindDialog {
			objs = appendText(objs, el.Text, box.Left+16, box.Top+12, box.Width-32, p.text, titleSize, true, fyne.TextAlignLeading)
		}
	case scene.KindToast:
		rect := canvas.NewRectangle(errorFill)
		rect.CornerRadius = radius
		place(rect)
		objs = appendWrapped(objs, el.Text, box.Left+12, box.Top+8, box.Width-24, white)
	case scene.KindFAB:
		place(canvas.NewCircle(p.button))
		icon := canvas.NewImageFromResource(fabIcon(p))
		icon.FillMode = canvas.ImageFillContain
		inset := box.Width / 4
		icon.Move(fyne.NewPos(float32(box.Left+inset), float32(box.Top+inset)))
		icon.Resize(fyne.NewSize(float32(box.Width-2*inset), float32(box.Height-2*inset)))
		objs = append(objs, icon)
	case scene.KindNode:
		objs = drawNode(objs, el, box.Left, box.Top, box.Width, box.Height, p)
	}

	for _, c := range el.Children() {
		if c.Hidden {
			continue
		}
		objs = drawElement(objs, c, p)
	}
	return objs
}

func drawNode(objs []fyne.CanvasObject, el *scene.Element, x, y, w, h float64, p palette) []fyne.CanvasObject {
	switch el.Role {
	case scene.RoleButton:
		rect := canvas.NewRectangle(p.button)
		rect.CornerRadius = 4
		rect.Move(fyne.NewPos(float32(x), float32(y)))
		rect.Resize(fyne.NewSize(float32(w), float32(h)))
		objs = append(objs, rect)
		return appendText(objs, el.Text, x, y+h/2-textSize*0.7, w, p.label, textSize, true, fyne.TextAlignCenter)
	case scene.RoleSelect:
		rect := canvas.NewRectangle(p.surface)
		rect.StrokeColor = p.border
		rect.StrokeWidth = 1
		rect.CornerRadius = 4
		rect.Move(fyne.NewPos(float32(x), float32(y)))
		rect.Resize(fyne.NewSize(float32(w), float32(h)))
		objs = append(objs, rect)
		return appendText(objs, el.Text+"  ▾", x+8, y+h/2-textSize*0.7, w-16, p.text, textSize, false, fyne.TextAlignLeading)
	}
	if el.Text == "" {
		return objs
	}
	col := p.text
	for class, c := range scoreColors {
		if el.HasClass(class) {
			col = c
		}
	}
	if el.HasClass(present.PendingClass) {
		col = p.muted
	}
	if len(el.Children()) > 0 {
		return appendText(objs, el.Text, x+16, y+h/2-titleSize*0.7, w-32, col, titleSize, true, fyne.TextAlignLeading)
	}
	return appendWrapped(objs, el.Text, x, y, w, col)
}

func appendText(objs []fyne.CanvasObject, text string, x, y, w float64, col color.Color, size float32, bold bool, align fyne.TextAlign) []fyne.CanvasObject {
	t := canvas.NewText(text, col)
	t.TextSize = size
	t.TextStyle = fyne.TextStyle{Bold: bold}
	t.Alignment = align
	t.Move(fyne.NewPos(float32(x), float32(y)))
	t.Resize(fyne.NewSize(float32(w), size*1.4))
	return append(objs, t)
}

// appendWrapped draws text word-wrapped to width w, one canvas.Text per line.
func appendWrapped(objs []fyne.CanvasObject, text string, x, y, w float64, col color.Color) []fyne.CanvasObject {
	measure := func(s string) float64 {
		return float64(fyne.MeasureText(s, textSize, fyne.TextStyle{}).Width)
	}
	for i, line := range wrap(text, w, measure) {
		objs = appendText(objs, line, x, y+float64(i)*20, w, col, textSize, false, fyne.TextAlignLeading)
	}
	return objs
}

// wrap breaks text into lines no wider than width, splitting on spaces and
// keeping explicit newlines. A single word wider than width gets its own line.
func wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			next := cur + " " + word
			if measure(next) > width {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}
