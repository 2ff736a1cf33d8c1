package render

import (
	"image/color"

	"github.com/chrissnell/weatherface/internal/icons"
)

// Bounds is the size of the drawable surface for one frame.
type Bounds struct {
	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`
}

// CenterX and CenterY return the middle of the surface.
func (b Bounds) CenterX() float64 { return float64(b.Width) / 2 }

func (b Bounds) CenterY() float64 { return float64(b.Height) / 2 }

// Role tags text primitives with what they show.
type Role int

const (
	RoleTime Role = iota
	RoleDate
	RoleHighTemp
	RoleLowTemp
	RoleNotice
)

func (r Role) String() string {
	switch r {
	case RoleTime:
		return "time"
	case RoleDate:
		return "date"
	case RoleHighTemp:
		return "high-temp"
	case RoleLowTemp:
		return "low-temp"
	case RoleNotice:
		return "notice"
	}
	return "unknown"
}

// Command is one draw primitive. The concrete types below are the only
// implementations.
type Command interface {
	command()
}

// Clear fills the whole surface.
type Clear struct {
	Color color.RGBA
}

// Rect fills an axis-aligned rectangle. Max is exclusive.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
	Color                  color.RGBA
}

// Text draws a string with its baseline starting at (X, Y).
type Text struct {
	Text      string
	X, Y      float64
	Size      float64
	Color     color.RGBA
	AntiAlias bool
	Role      Role
}

// Line draws a one pixel line between two points.
type Line struct {
	X0, Y0, X1, Y1 float64
	Color          color.RGBA
}

// Icon draws the bitmap for a weather category with its top-left corner at
// (X, Y) in a Size x Size box.
type Icon struct {
	Category icons.Category
	X, Y     float64
	Size     float64
	Color    color.RGBA
}

func (Clear) command() {}
func (Rect) command()  {}
func (Text) command()  {}
func (Line) command()  {}
func (Icon) command()  {}

// Frame is an ordered list of primitives for one redraw.
type Frame struct {
	Bounds   Bounds
	Commands []Command
}

// Texts returns the text primitives of the frame in draw order.
func (f Frame) Texts() []Text {
	var out []Text
	for _, c := range f.Commands {
		if t, ok := c.(Text); ok {
			out = append(out, t)
		}
	}
	return out
}

// TextByRole returns the first text primitive with the given role.
func (f Frame) TextByRole(role Role) (Text, bool) {
	for _, t := range f.Texts() {
		if t.Role == role {
			return t, true
		}
	}
	return Text{}, false
}

// Icons returns the icon primitives of the frame.
func (f Frame) Icons() []Icon {
	var out []Icon
	for _, c := range f.Commands {
		if i, ok := c.(Icon); ok {
			out = append(out, i)
		}
	}
	return out
}
