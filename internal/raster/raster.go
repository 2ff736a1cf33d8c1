// Package raster executes render frames onto in-memory images.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/chrissnell/weatherface/internal/render"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Rasterizer draws frames with the embedded Go Regular face. Faces are
// cached per size, so one Rasterizer should be reused across frames. It also
// implements render.Measurer so layout and drawing agree on text widths.
type Rasterizer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[int]font.Face
}

var _ render.Measurer = (*Rasterizer)(nil)

// New parses the embedded font.
func New() (*Rasterizer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse font: %w", err)
	}
	return &Rasterizer{font: f, faces: make(map[int]font.Face)}, nil
}

// face returns the cached face for size, rounded to a quarter point.
func (r *Rasterizer) face(size float64) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	key := int(math.Round(size * 4))

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(key) / 4,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[key] = f
	return f, nil
}

// Measure returns the advance width of text in pixels.
func (r *Rasterizer) Measure(text string, size float64) float64 {
	f, err := r.face(size)
	if err != nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fromFixed(font.MeasureString(f, text))
}

// Draw executes every command of the frame in order onto a new image the
// size of the frame's bounds.
func (r *Rasterizer) Draw(f render.Frame) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Bounds.Width, f.Bounds.Height))
	for _, c := range f.Commands {
		if err := r.exec(img, c); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (r *Rasterizer) exec(img *image.RGBA, c render.Command) error {
	switch c := c.(type) {
	case render.Clear:
		draw.Draw(img, img.Bounds(), image.NewUniform(c.Color), image.Point{}, draw.Src)
	case render.Rect:
		fillRect(img, rectOf(c.MinX, c.MinY, c.MaxX, c.MaxY), c.Color)
	case render.Line:
		line(img, round(c.X0), round(c.Y0), round(c.X1), round(c.Y1), c.Color)
	case render.Text:
		return r.text(img, c)
	case render.Icon:
		drawIcon(img, c)
	default:
		return fmt.Errorf("unknown draw command %T", c)
	}
	return nil
}

// text draws a string. Without anti-aliasing the glyph coverage is
// thresholded so every pixel is either ink or untouched.
func (r *Rasterizer) text(img *image.RGBA, t render.Text) error {
	f, err := r.face(t.Size)
	if err != nil {
		return err
	}
	dot := fixed.Point26_6{X: toFixed(t.X), Y: toFixed(t.Y)}
	src := image.NewUniform(t.Color)

	r.mu.Lock()
	defer r.mu.Unlock()

	if t.AntiAlias {
		d := font.Drawer{Dst: img, Src: src, Face: f, Dot: dot}
		d.DrawString(t.Text)
		return nil
	}

	mask := image.NewAlpha(img.Bounds())
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: f, Dot: dot}
	d.DrawString(t.Text)
	for i, a := range mask.Pix {
		if a >= 0x80 {
			mask.Pix[i] = 0xff
		} else {
			mask.Pix[i] = 0
		}
	}
	draw.DrawMask(img, img.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// line is Bresenham's algorithm, clipped to the image.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Rect) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func rectOf(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(round(x0), round(y0), round(x1), round(y1))
}

func round(v float64) int { return int(math.Round(v)) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
