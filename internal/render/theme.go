package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Theme holds the face's colors.
type Theme struct {
	Background color.RGBA
	Text       color.RGBA
	Secondary  color.RGBA
	Divider    color.RGBA
}

var (
	Black = color.RGBA{A: 0xff}
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// DefaultTheme is white text on a deep blue background with grey secondary
// text.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 0x03, G: 0x57, B: 0x9b, A: 0xff},
		Text:       White,
		Secondary:  color.RGBA{R: 0xb3, G: 0xe5, B: 0xfc, A: 0xff},
		Divider:    color.RGBA{R: 0xb3, G: 0xe5, B: 0xfc, A: 0xff},
	}
}

// ParseColor accepts "#rrggbb", "rrggbb" or "#rgb".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Layout positions the face's elements. Distances are in reference units
// for a Reference x Reference surface and are scaled to the real bounds.
type Layout struct {
	Reference float64

	TimeY    float64 // baseline of the time text
	TimeSize float64
	DateGap  float64 // date baseline below the time baseline
	DateSize float64

	DividerHalf float64 // half-length of the divider line

	TempSize float64
	TempDrop float64 // temperature baseline below the vertical center
	TempGap  float64 // space between the high temp's end and the low temp

	IconSize float64
	IconDrop float64 // icon top below the vertical center
	IconGap  float64 // space between the icon and the high temp

	NoticeSize float64
}

// SquareLayout is used for rectangular panels.
func SquareLayout() Layout {
	return Layout{
		Reference:   320,
		TimeY:       85,
		TimeSize:    40,
		DateGap:     45,
		DateSize:    16,
		DividerHalf: 30,
		TempSize:    24,
		TempDrop:    75,
		TempGap:     30,
		IconSize:    40,
		IconDrop:    30,
		IconGap:     10,
		NoticeSize:  16,
	}
}

// RoundLayout is used for round panels, where text sits lower and larger.
func RoundLayout() Layout {
	l := SquareLayout()
	l.TimeY = 95
	l.TimeSize = 45
	l.DateSize = 18
	l.TempSize = 28
	return l
}

// scaled returns the layout multiplied out for the given bounds.
func (l Layout) scaled(b Bounds) Layout {
	ref := l.Reference
	if ref <= 0 {
		return l
	}
	short := b.Width
	if b.Height < short {
		short = b.Height
	}
	k := float64(short) / ref
	return Layout{
		Reference:   float64(short),
		TimeY:       l.TimeY * k,
		TimeSize:    l.TimeSize * k,
		DateGap:     l.DateGap * k,
		DateSize:    l.DateSize * k,
		DividerHalf: l.DividerHalf * k,
		TempSize:    l.TempSize * k,
		TempDrop:    l.TempDrop * k,
		TempGap:     l.TempGap * k,
		IconSize:    l.IconSize * k,
		IconDrop:    l.IconDrop * k,
		IconGap:     l.IconGap * k,
		NoticeSize:  l.NoticeSize * k,
	}
}
