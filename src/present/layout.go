package present

import (
	"math"
	"strings"

	"screen-ocr-translate/src/geometry"
)

const (
	panelWidth   = 440.0
	padding      = 16.0
	lineHeight   = 20.0
	charsPerLine = 52
	headerHeight = 40.0
	buttonHeight = 30.0
	gap          = 8.0
)

// textHeight estimates the rendered height of a wrapped text block.
func textHeight(text string, width float64) float64 {
	perLine := int(float64(charsPerLine) * width / (panelWidth - 2*padding))
	if perLine < 1 {
		perLine = 1
	}
	lines := 0
	for _, para := range strings.Split(text, "\n") {
		n := len([]rune(para))
		lines += max(1, int(math.Ceil(float64(n)/float64(perLine))))
	}
	return float64(lines)*lineHeight + 2*gap
}

// column stacks rows inside the panel and tracks the next free y.
type column struct {
	y     float64
	width float64
}

func (c *column) row(h float64) geometry.Rect {
	r := geometry.Rect{Left: padding, Top: c.y, Width: c.width, Height: h}
	c.y += h + gap
	return r
}
