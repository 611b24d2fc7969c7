package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"

	"screen-ocr-translate/src/geometry"
)

// MaxEdge bounds the longest side of an image sent for recognition.
const MaxEdge = 2048

const pngDataURIPrefix = "data:image/png;base64,"

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Primary captures the primary display only, the area a full-screen window
// covers.
type Primary struct{}

func (Primary) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("failed to capture primary display: %w", err)
	}
	return img, nil
}

// PixelRatio returns device pixels per viewport pixel for a screenshot shown
// in a viewport of the given width.
func PixelRatio(img image.Rectangle, vp geometry.Viewport) float64 {
	if vp.Width <= 0 || img.Dx() == 0 {
		return 1
	}
	return float64(img.Dx()) / vp.Width
}

// Crop cuts the viewport rectangle r out of img, scaling by the device pixel
// ratio, and shrinks the result so neither side exceeds MaxEdge.
func Crop(img image.Image, r geometry.Rect, ratio float64) (*image.NRGBA, error) {
	b := img.Bounds()
	device := r.Scale(ratio).Add(b.Min).Intersect(b)
	if device.Empty() {
		return nil, fmt.Errorf("selection %.0fx%.0f at %.0f,%.0f is outside the screenshot", r.Width, r.Height, r.Left, r.Top)
	}
	out := imaging.Crop(img, device)
	if w, h := out.Bounds().Dx(), out.Bounds().Dy(); w > MaxEdge || h > MaxEdge {
		if w >= h {
			out = imaging.Resize(out, MaxEdge, 0, imaging.Lanczos)
		} else {
			out = imaging.Resize(out, 0, MaxEdge, imaging.Lanczos)
		}
	}
	return out, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool { return bytes.HasPrefix(data, pngMagic) }

// DataURI wraps PNG bytes in a data URI.
func DataURI(png []byte) string {
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURI extracts the PNG bytes from a data URI produced by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, pngDataURIPrefix) {
		return nil, errors.New("not a PNG data URI")
	}
	data, err := base64.StdEncoding.DecodeString(uri[len(pngDataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return data, nil
}

// Decode parses PNG (or any format imaging knows) bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// CropDataURI is the crop step of the capture pipeline: it returns the
// selection as a PNG data URI.
func CropDataURI(img image.Image, r geometry.Rect, ratio float64) (string, error) {
	cropped, err := Crop(img, r, ratio)
	if err != nil {
		return "", err
	}
	png, err := EncodePNG(cropped)
	if err != nil {
		return "", err
	}
	return DataURI(png), nil
}
