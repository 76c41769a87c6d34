package path

import (
	"fmt"
	"math"
)

// Pattern is the curve the target follows
type Pattern int

const (
	Circle Pattern = iota
	Sine
	Infinity
)

// Patterns lists every pattern in declaration order
var Patterns = [...]Pattern{Circle, Sine, Infinity}

func (p Pattern) String() string {
	switch p {
	case Circle:
		return "Circle"
	case Sine:
		return "Sine"
	case Infinity:
		return "Infinity"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// Point is a canvas position
type Point struct {
	X, Y float64
}

// Geometry holds the canvas-relative motion constants
type Geometry struct {
	Width, Height int
	CX, CY        float64
	Radius        float64 // circle
	Amplitude     float64 // sine
	Frequency     float64 // sine
	Left, Right   float64 // sine sweep
	Lobe          float64 // infinity
}

// NewGeometry derives the motion constants from the canvas size.
// A 600x300 canvas gives radius 100, amplitude 80, sweep 100..500 and lobe 120.
func NewGeometry(width, height int) Geometry {
	w, h := float64(width), float64(height)
	return Geometry{
		Width:     width,
		Height:    height,
		CX:        w / 2,
		CY:        h / 2,
		Radius:    h / 3,
		Amplitude: h * 4 / 15,
		Frequency: 2,
		Left:      w / 6,
		Right:     w * 5 / 6,
		Lobe:      w / 5,
	}
}

// Position evaluates pattern p at angle theta and time t
func Position(p Pattern, g Geometry, theta, t float64) Point {
	switch p {
	case Circle:
		return circle(g, theta)
	case Sine:
		return sine(g, t)
	case Infinity:
		return infinity(g, theta)
	default:
		return Point{X: g.CX, Y: g.CY}
	}
}

func circle(g Geometry, theta float64) Point {
	return Point{
		X: g.CX + g.Radius*math.Cos(theta),
		Y: g.CY + g.Radius*math.Sin(theta),
	}
}

// sine sweeps x across [Left, Right] once per 2π of t
func sine(g Geometry, t float64) Point {
	return Point{
		X: sineX(g, t),
		Y: g.CY + g.Amplitude*math.Sin(g.Frequency*t),
	}
}

func sineX(g Geometry, t float64) float64 {
	return g.Left + (g.Right-g.Left)*(t/(2*math.Pi))
}

func infinity(g Geometry, theta float64) Point {
	return Point{
		X: g.CX + g.Lobe*math.Cos(theta),
		Y: g.CY + g.Lobe*math.Sin(theta)*math.Cos(theta),
	}
}
