package detector

import (
	"image"
	"math"
)

// Eye offsets in the 68-point landmark layout (iBUG 300-W ordering)
const (
	LeftEyeStart  = 36
	RightEyeStart = 42
	NumLandmarks  = 68

	eyePoints = 6
)

// Point represents a 2D point
type Point struct {
	X, Y float32
}

// BoundingBox represents an axis-aligned box
type BoundingBox struct {
	X1, Y1 float32 // top-left
	X2, Y2 float32 // bottom-right
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns box center point
func (b BoundingBox) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Valid reports whether the box has positive width and height
func (b BoundingBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Rect converts the box to an integer rectangle covering it
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(b.X1))),
		int(math.Floor(float64(b.Y1))),
		int(math.Ceil(float64(b.X2))),
		int(math.Ceil(float64(b.Y2))),
	)
}

// BoxFromRect converts an integer rectangle to a BoundingBox
func BoxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{
		X1: float32(r.Min.X),
		Y1: float32(r.Min.Y),
		X2: float32(r.Max.X),
		Y2: float32(r.Max.Y),
	}
}

// Landmarks68 holds the 68 facial landmark points of one face
type Landmarks68 [NumLandmarks]Point

// LeftEye returns the six left-eye contour points (36-41)
func (l *Landmarks68) LeftEye() []Point {
	return l[LeftEyeStart : LeftEyeStart+eyePoints]
}

// RightEye returns the six right-eye contour points (42-47)
func (l *Landmarks68) RightEye() []Point {
	return l[RightEyeStart : RightEyeStart+eyePoints]
}

// Bounds computes the tight bounding box around a point set
func Bounds(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return BoundingBox{X1: minX, Y1: minY, X2: maxX, Y2: maxY}
}
