package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"
)

var (
	// ErrNoFaceDetected is returned when the detector finds no face
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrLandmarkDetectionFailed wraps any detector or predictor fault
	ErrLandmarkDetectionFailed = errors.New("landmark detection failed")
)

// FaceDetector finds face boxes in a grayscale frame
type FaceDetector interface {
	Detect(gray *image.Gray) ([]BoundingBox, error)
	Close() error
}

// LandmarkPredictor predicts 68 landmarks inside a face box
type LandmarkPredictor interface {
	Predict(gray *image.Gray, face BoundingBox) (*Landmarks68, error)
	Close() error
}

// Selection picks one face when several are detected
type Selection string

const (
	SelectLargest Selection = "largest"
	SelectFirst   Selection = "first"
)

// Locator runs face detection followed by landmark prediction
type Locator struct {
	detector  FaceDetector
	predictor LandmarkPredictor
	selection Selection
	logger    *slog.Logger
}

// NewLocator creates a locator from a detector and a predictor
func NewLocator(det FaceDetector, pred LandmarkPredictor, selection Selection, logger *slog.Logger) *Locator {
	return &Locator{
		detector:  det,
		predictor: pred,
		selection: selection,
		logger:    logger,
	}
}

// Locate returns the landmarks of the selected face in img
func (l *Locator) Locate(img image.Image) (landmarks *Landmarks68, err error) {
	// The native detector and predictor must not take the caller down
	defer func() {
		if r := recover(); r != nil {
			landmarks = nil
			err = fmt.Errorf("%w: %v", ErrLandmarkDetectionFailed, r)
		}
	}()

	gray := ToGray(img)

	detected, err := l.detector.Detect(gray)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLandmarkDetectionFailed, err)
	}
	faces := make([]BoundingBox, 0, len(detected))
	for _, f := range detected {
		if f.Valid() {
			faces = append(faces, f)
		}
	}
	if len(faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	face := SelectFace(faces, l.selection)
	if len(faces) > 1 {
		l.logger.Debug("multiple faces detected", "count", len(faces), "selection", l.selection, "box", face)
	}

	landmarks, err = l.predictor.Predict(gray, face)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLandmarkDetectionFailed, err)
	}
	return landmarks, nil
}

// Close releases detector and predictor
func (l *Locator) Close() error {
	return errors.Join(l.detector.Close(), l.predictor.Close())
}

// SelectFace applies the selection rule. For SelectLargest, ties keep the
// earlier detection.
func SelectFace(faces []BoundingBox, selection Selection) BoundingBox {
	best := faces[0]
	if selection == SelectFirst {
		return best
	}
	for _, f := range faces[1:] {
		if f.Area() > best.Area() {
			best = f
		}
	}
	return best
}

// ToGray converts any image to 8-bit grayscale keeping its bounds
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}
