// Package render composes a frame of draw primitives from the face's state.
// Nothing here touches a device; the raster package executes frames.
package render

import (
	"github.com/chrissnell/weatherface/internal/clock"
	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/icons"
	"github.com/chrissnell/weatherface/internal/weather"
)

// DefaultDateLayout renders dates like "Sat, Jun 01 2024".
const DefaultDateLayout = "Mon, Jan 02 2006"

// Degree is appended to temperatures.
const Degree = "°"

// Measurer returns the advance width of text at a font size.
type Measurer interface {
	Measure(text string, size float64) float64
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text string, size float64) float64

func (f MeasureFunc) Measure(text string, size float64) float64 { return f(text, size) }

// Renderer holds the face's look. A Renderer is a value: Render has no side
// effects and the With* methods return modified copies.
type Renderer struct {
	Theme      Theme
	Square     Layout
	Round      Layout
	DateLayout string
	Measurer   Measurer

	insets display.Insets
}

// New returns a Renderer with the default theme and layouts.
func New(m Measurer) Renderer {
	return Renderer{
		Theme:      DefaultTheme(),
		Square:     SquareLayout(),
		Round:      RoundLayout(),
		DateLayout: DefaultDateLayout,
		Measurer:   m,
	}
}

// WithInsets returns a copy laid out for the given panel shape.
func (r Renderer) WithInsets(in display.Insets) Renderer {
	r.insets = in
	return r
}

// Insets returns the panel shape the renderer lays out for.
func (r Renderer) Insets() display.Insets {
	return r.insets
}

// TimeText formats the time as 12-hour H:MM with no leading zero on the hour.
func TimeText(t clock.Snapshot) string {
	return t.Time.Format("3:04")
}

// DateText formats the date with the given Go layout.
func DateText(t clock.Snapshot, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Time.Format(layout)
}

// Render composes one frame. It never fails: any missing weather datum just
// leaves the weather panel out.
func (r Renderer) Render(now clock.Snapshot, st display.State, w weather.Snapshot, b Bounds) Frame {
	l := r.layout().scaled(b)
	aa := st.AntiAlias()

	cx := b.CenterX()
	cy := (float64(b.Height) - float64(r.insets.ChinHeight)) / 2

	f := Frame{Bounds: b}

	if st.Ambient {
		f.Commands = append(f.Commands, Clear{Color: Black})
	} else {
		f.Commands = append(f.Commands, Rect{
			MaxX:  float64(b.Width),
			MaxY:  float64(b.Height),
			Color: r.Theme.Background,
		})
	}

	timeText := TimeText(now)
	f.Commands = append(f.Commands, Text{
		Text:      timeText,
		X:         r.centered(cx, timeText, l.TimeSize),
		Y:         l.TimeY,
		Size:      l.TimeSize,
		Color:     r.Theme.Text,
		AntiAlias: aa,
		Role:      RoleTime,
	})

	dateText := DateText(now, r.DateLayout)
	f.Commands = append(f.Commands, Text{
		Text:      dateText,
		X:         r.centered(cx, dateText, l.DateSize),
		Y:         l.TimeY + l.DateGap,
		Size:      l.DateSize,
		Color:     r.Theme.Secondary,
		AntiAlias: aa,
		Role:      RoleDate,
	})

	f.Commands = append(f.Commands, Line{
		X0:    cx - l.DividerHalf,
		Y0:    cy,
		X1:    cx + l.DividerHalf,
		Y1:    cy,
		Color: r.Theme.Divider,
	})

	if !w.HasTemperatures() {
		return f
	}

	high := *w.HighTemp + Degree
	low := *w.LowTemp + Degree
	highX := cx - l.TempGap/2 - r.measure(high, l.TempSize)
	baseline := cy + l.TempDrop

	f.Commands = append(f.Commands,
		Icon{
			Category: icons.ClassifyOptional(w.IconCode),
			X:        highX - l.IconGap - l.IconSize,
			Y:        cy + l.IconDrop,
			Size:     l.IconSize,
			Color:    r.Theme.Text,
		},
		Text{
			Text:      high,
			X:         highX,
			Y:         baseline,
			Size:      l.TempSize,
			Color:     r.Theme.Text,
			AntiAlias: aa,
			Role:      RoleHighTemp,
		},
		Text{
			Text:      low,
			X:         cx + l.TempGap/2,
			Y:         baseline,
			Size:      l.TempSize,
			Color:     r.Theme.Secondary,
			AntiAlias: aa,
			Role:      RoleLowTemp,
		},
	)
	return f
}

func (r Renderer) layout() Layout {
	if r.insets.Round {
		return r.Round
	}
	return r.Square
}

func (r Renderer) measure(text string, size float64) float64 {
	if r.Measurer == nil {
		return 0
	}
	return r.Measurer.Measure(text, size)
}

func (r Renderer) centered(cx float64, text string, size float64) float64 {
	return cx - r.measure(text, size)/2
}
