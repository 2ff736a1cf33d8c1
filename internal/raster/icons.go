package raster

import (
	"image"
	"image/draw"
	"math"

	"github.com/chrissnell/weatherface/internal/icons"
	"github.com/chrissnell/weatherface/internal/render"
	"golang.org/x/image/vector"
)

// shape adds outlines to a rasterizer in unit coordinates; pen scales them
// to the icon box.
type shape func(p pen)

type pen struct {
	z *vector.Rasterizer
	s float32
}

func (p pen) moveTo(x, y float32) { p.z.MoveTo(x*p.s, y*p.s) }
func (p pen) lineTo(x, y float32) { p.z.LineTo(x*p.s, y*p.s) }
func (p pen) close()              { p.z.ClosePath() }

func (p pen) poly(pts ...float32) {
	p.moveTo(pts[0], pts[1])
	for i := 2; i+1 < len(pts); i += 2 {
		p.lineTo(pts[i], pts[i+1])
	}
	p.close()
}

func (p pen) circle(cx, cy, r float32) {
	const n = 32
	p.moveTo(cx+r, cy)
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / n
		p.lineTo(cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)))
	}
	p.close()
}

// bar is a thick segment from (x0,y0) to (x1,y1).
func (p pen) bar(x0, y0, x1, y1, w float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*w/2, dx/l*w/2
	p.poly(x0+nx, y0+ny, x1+nx, y1+ny, x1-nx, y1-ny, x0-nx, y0-ny)
}

func sun(cx, cy, r float32, rays bool) shape {
	return func(p pen) {
		p.circle(cx, cy, r)
		if !rays {
			return
		}
		for i := 0; i < 8; i++ {
			a := math.Pi / 4 * float64(i)
			c, s := float32(math.Cos(a)), float32(math.Sin(a))
			p.bar(cx+c*r*1.35, cy+s*r*1.35, cx+c*r*1.8, cy+s*r*1.8, r*0.22)
		}
	}
}

func cloud(x, y, w float32) shape {
	return func(p pen) {
		h := w * 0.3
		p.poly(x, y, x+w, y, x+w, y+h, x, y+h)
		p.circle(x+w*0.25, y+h*0.1, w*0.22)
		p.circle(x+w*0.55, y-h*0.25, w*0.3)
		p.circle(x+w*0.82, y+h*0.2, w*0.18)
		p.circle(x, y+h*0.5, h*0.5)
		p.circle(x+w, y+h*0.5, h*0.5)
	}
}

func drops(n int) shape {
	return func(p pen) {
		step := float32(0.6) / float32(n)
		for i := 0; i < n; i++ {
			x := 0.25 + step*float32(i) + step/2
			p.bar(x, 0.72, x-0.06, 0.92, 0.05)
		}
	}
}

func flakes(p pen) {
	for _, c := range [][2]float32{{0.3, 0.78}, {0.5, 0.9}, {0.7, 0.78}, {0.4, 0.95}, {0.6, 0.72}} {
		p.circle(c[0], c[1], 0.045)
	}
}

func bolt(p pen) {
	p.poly(0.55, 0.6, 0.38, 0.82, 0.5, 0.82, 0.42, 1.0, 0.66, 0.74, 0.53, 0.74, 0.62, 0.6)
}

func fogBars(p pen) {
	for i, y := range []float32{0.35, 0.52, 0.69} {
		off := float32(i%2) * 0.08
		p.bar(0.12+off, y, 0.88-0.08+off, y, 0.08)
	}
}

var iconShapes = map[icons.Category][]shape{
	icons.Clear:       {sun(0.5, 0.5, 0.24, true)},
	icons.LightClouds: {sun(0.62, 0.38, 0.18, true), cloud(0.15, 0.55, 0.55)},
	icons.Cloudy:      {cloud(0.35, 0.3, 0.5), cloud(0.12, 0.52, 0.66)},
	icons.LightRain:   {cloud(0.18, 0.38, 0.64), drops(2)},
	icons.Rain:        {cloud(0.18, 0.38, 0.64), drops(4)},
	icons.Snow:        {cloud(0.18, 0.38, 0.64), flakes},
	icons.Fog:         {fogBars},
	icons.Storm:       {cloud(0.18, 0.3, 0.64), bolt},
}

// drawIcon fills the category's outline in the icon's color. Unknown
// categories draw as clear.
func drawIcon(img draw.Image, ic render.Icon) {
	size := round(ic.Size)
	if size <= 0 {
		return
	}
	shapes, ok := iconShapes[ic.Category]
	if !ok {
		shapes = iconShapes[icons.Clear]
	}
	z := vector.NewRasterizer(size, size)
	p := pen{z: z, s: float32(size)}
	for _, s := range shapes {
		s(p)
	}
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	x, y := round(ic.X), round(ic.Y)
	draw.DrawMask(img, image.Rect(x, y, x+size, y+size), image.NewUniform(ic.Color), image.Point{}, mask, image.Point{}, draw.Over)
}
