// Package annotate burns a visual pointer marker into an image so the
// marked region survives the trip to the generation service.
package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
)

var ErrImageLoad = errors.New("failed to load the image for annotation")

const (
	markerAlpha  = 0.7
	radiusScale  = 0.02
	minRadius    = 10.0
	outlineScale = 0.005
	minOutline   = 2.0
)

// Mark renders src at native resolution and draws a filled red circle with a
// white outline centered at (x*width, y*height), where x and y are normalized
// to [0,1]. Dimensions and pixels outside the marker are preserved. The
// result is always PNG.
func Mark(src []byte, x, y float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	cx := float64(bounds.Min.X) + clamp01(x)*w
	cy := float64(bounds.Min.Y) + clamp01(y)*h

	radius := math.Max(minRadius, w*radiusScale)
	outline := math.Max(minOutline, w*outlineScale)
	drawMarker(out, cx, cy, radius, outline)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

// drawMarker fills the disc with translucent red, then strokes an opaque
// white ring centered on the disc edge for contrast.
func drawMarker(out *image.RGBA, cx, cy, radius, outline float64) {
	reach := radius + outline
	bounds := out.Bounds()
	x0 := maxInt(bounds.Min.X, int(math.Floor(cx-reach)))
	x1 := minInt(bounds.Max.X-1, int(math.Ceil(cx+reach)))
	y0 := maxInt(bounds.Min.Y, int(math.Floor(cy-reach)))
	y1 := minInt(bounds.Max.Y-1, int(math.Ceil(cy+reach)))

	half := outline / 2
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			d := math.Hypot(float64(px)-cx, float64(py)-cy)
			switch {
			case math.Abs(d-radius) <= half:
				out.SetRGBA(px, py, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			case d < radius:
				blend(out, px, py, 255, 0, 0, markerAlpha)
			}
		}
	}
}

// blend composites a translucent color over the existing pixel.
func blend(out *image.RGBA, px, py int, r, g, b uint8, alpha float64) {
	old := out.RGBAAt(px, py)
	mix := func(src uint8, dst uint8) uint8 {
		return uint8(alpha*float64(src) + (1-alpha)*float64(dst))
	}
	out.SetRGBA(px, py, color.RGBA{
		R: mix(r, old.R),
		G: mix(g, old.G),
		B: mix(b, old.B),
		A: 255,
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
