// Package signature models the sign-off drawing surface: an in-memory
// raster the UI streams stroke segments into. The pad can report its
// current image (or nothing, when untouched) and round-trips through a
// PNG data URL so a loaded job re-hydrates the surface.
package signature

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultWidth  = 600
	defaultHeight = 160
	strokeRadius  = 2
)

// Point is one sampled position of a stroke, in pad coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pad is a drawing surface. Not safe for concurrent use; the session
// serializes access the same way it serializes job edits.
type Pad struct {
	canvas *image.NRGBA
	ink    color.NRGBA
	dirty  bool
}

func NewPad() *Pad {
	return &Pad{
		canvas: image.NewNRGBA(image.Rect(0, 0, defaultWidth, defaultHeight)),
		ink:    color.NRGBA{R: 0x0b, G: 0x12, B: 0x20, A: 0xff},
	}
}

// Stroke draws connected line segments through the given points.
// Single-point strokes produce a dot.
func (p *Pad) Stroke(points []Point) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		p.dot(points[0])
		p.dirty = true
		return
	}
	for i := 1; i < len(points); i++ {
		p.line(points[i-1], points[i])
	}
	p.dirty = true
}

// Clear wipes the surface back to fully transparent.
func (p *Pad) Clear() {
	p.canvas = image.NewNRGBA(p.canvas.Bounds())
	p.dirty = false
}

// CurrentImageOrNull returns the drawn image, or nil when the surface
// has no opaque pixels.
func (p *Pad) CurrentImageOrNull() image.Image {
	if p.blank() {
		return nil
	}
	return imaging.Clone(p.canvas)
}

// DataURL encodes the current image as a PNG data URL, or "" for a
// blank pad.
func (p *Pad) DataURL() (string, error) {
	img := p.CurrentImageOrNull()
	if img == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode signature: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// LoadDataURL replaces the surface content with a previously captured
// signature image, used when a stored job is loaded back.
func (p *Pad) LoadDataURL(dataURL string) error {
	if strings.TrimSpace(dataURL) == "" {
		p.Clear()
		return nil
	}
	payload, ok := strings.CutPrefix(dataURL, "data:image/png;base64,")
	if !ok {
		return fmt.Errorf("unsupported signature encoding")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode signature image: %w", err)
	}

	canvas := image.NewNRGBA(p.canvas.Bounds())
	fitted := imaging.Fit(img, canvas.Bounds().Dx(), canvas.Bounds().Dy(), imaging.Lanczos)
	draw.Draw(canvas, fitted.Bounds(), fitted, image.Point{}, draw.Over)
	p.canvas = canvas
	p.dirty = true
	return nil
}

func (p *Pad) blank() bool {
	if !p.dirty {
		return true
	}
	// dirty only tracks stroke calls; loaded images may still be fully
	// transparent, so check the alpha channel directly.
	for i := 3; i < len(p.canvas.Pix); i += 4 {
		if p.canvas.Pix[i] != 0 {
			return false
		}
	}
	return true
}

func (p *Pad) dot(pt Point) {
	for dy := -strokeRadius; dy <= strokeRadius; dy++ {
		for dx := -strokeRadius; dx <= strokeRadius; dx++ {
			if dx*dx+dy*dy <= strokeRadius*strokeRadius {
				p.set(pt.X+dx, pt.Y+dy)
			}
		}
	}
}

// line draws with integer Bresenham stepping, thickened by dots.
func (p *Pad) line(a, b Point) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := sign(b.X - a.X)
	sy := sign(b.Y - a.Y)
	err := dx + dy

	x, y := a.X, a.Y
	for {
		p.dot(Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (p *Pad) set(x, y int) {
	if !(image.Point{X: x, Y: y}).In(p.canvas.Bounds()) {
		return
	}
	p.canvas.SetNRGBA(x, y, p.ink)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
