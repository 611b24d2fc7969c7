package screenshot

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
)

func TestPrimaryCapture(t *testing.T) {
	// Needs a display; only check that it does not panic.
	_, err := Primary{}.Capture(context.Background())
	if err != nil {
		t.Logf("Failed to capture screenshot (expected in headless environment): %v", err)
	}
}

func TestPrimaryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Primary{}.Capture(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/10+y/10)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestCropScalesByPixelRatio(t *testing.T) {
	img := checker(400, 300)
	out, err := Crop(img, geometry.Rect{Left: 10, Top: 20, Width: 50, Height: 30}, 2)
	require.NoError(t, err)
	require.Equal(t, 100, out.Bounds().Dx())
	require.Equal(t, 60, out.Bounds().Dy())
}

func TestCropClipsToImage(t *testing.T) {
	img := checker(100, 100)
	out, err := Crop(img, geometry.Rect{Left: 80, Top: 80, Width: 50, Height: 50}, 1)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 20), out.Bounds())

	_, err = Crop(img, geometry.Rect{Left: 500, Top: 500, Width: 50, Height: 50}, 1)
	require.Error(t, err)
}

func TestCropHonoursImageOrigin(t *testing.T) {
	// Multi-monitor captures can start at negative coordinates.
	img := image.NewRGBA(image.Rect(-100, 0, 100, 100))
	img.Set(-90, 10, color.RGBA{R: 255, A: 255})
	out, err := Crop(img, geometry.Rect{Left: 10, Top: 10, Width: 20, Height: 20}, 1)
	require.NoError(t, err)
	r, _, _, _ := out.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestCropShrinksLargeSelections(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5000, 1000))
	out, err := Crop(img, geometry.Rect{Width: 5000, Height: 1000}, 1)
	require.NoError(t, err)
	require.Equal(t, MaxEdge, out.Bounds().Dx())
	require.LessOrEqual(t, out.Bounds().Dy(), MaxEdge)
}

func TestPixelRatio(t *testing.T) {
	require.Equal(t, 2.0, PixelRatio(image.Rect(0, 0, 2560, 1600), geometry.Viewport{Width: 1280, Height: 800}))
	require.Equal(t, 1.0, PixelRatio(image.Rect(0, 0, 2560, 1600), geometry.Viewport{}))
}

func TestDataURIRoundTrip(t *testing.T) {
	uri, err := CropDataURI(checker(64, 64), geometry.Rect{Width: 32, Height: 32}, 1)
	require.NoError(t, err)
	require.Contains(t, uri, "data:image/png;base64,")

	data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	require.True(t, IsPNG(data))

	img, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())

	_, err = DecodeDataURI("data:image/jpeg;base64,AAAA")
	require.Error(t, err)
}
