package eyeregion

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/dudu/eyetrainer/internal/detector"
	"github.com/dudu/eyetrainer/internal/imageio"
)

// ErrEyeRegionNotFound is returned when no usable eye region exists in a frame
var ErrEyeRegionNotFound = errors.New("eye region not found")

// Locator finds facial landmarks in an image
type Locator interface {
	Locate(img image.Image) (*detector.Landmarks68, error)
}

// Region is the eye crop resized to the classifier input size
type Region struct {
	Box  image.Rectangle
	Crop *image.RGBA
}

// Extractor locates both eyes and crops the region covering them
type Extractor struct {
	locator Locator
	size    image.Point
}

// NewExtractor creates an extractor producing crops of the given size
func NewExtractor(locator Locator, width, height int) *Extractor {
	return &Extractor{
		locator: locator,
		size:    image.Pt(width, height),
	}
}

// Size returns the output crop size
func (e *Extractor) Size() image.Point {
	return e.size
}

// Extract returns the resized eye crop of frame. Any failure to find a
// face or a valid box matches ErrEyeRegionNotFound.
func (e *Extractor) Extract(frame imageio.Frame) (*Region, error) {
	landmarks, err := e.locator.Locate(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEyeRegionNotFound, err)
	}

	box, ok := EyeBox(landmarks, frame.Image.Bounds())
	if !ok {
		return nil, fmt.Errorf("%w: degenerate eye box %v", ErrEyeRegionNotFound, box)
	}

	return &Region{
		Box:  box,
		Crop: Crop(frame.Image, box, e.size),
	}, nil
}

// EyeBox computes the box spanning both eye contours clamped to bounds.
// ok is false when the clamped box is empty.
func EyeBox(landmarks *detector.Landmarks68, bounds image.Rectangle) (image.Rectangle, bool) {
	points := make([]detector.Point, 0, 12)
	points = append(points, landmarks.LeftEye()...)
	points = append(points, landmarks.RightEye()...)

	r := detector.Bounds(points).Rect()
	box := image.Rect(
		clamp(r.Min.X, bounds.Min.X, bounds.Max.X),
		clamp(r.Min.Y, bounds.Min.Y, bounds.Max.Y),
		clamp(r.Max.X, bounds.Min.X, bounds.Max.X),
		clamp(r.Max.Y, bounds.Min.Y, bounds.Max.Y),
	)
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return box, false
	}
	return box, true
}

// Crop cuts box out of img and resizes it with bilinear interpolation
func Crop(img image.Image, box image.Rectangle, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, box, draw.Src, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
