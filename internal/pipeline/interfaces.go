package pipeline

import (
	"image"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/detector"
	"github.com/dudu/eyetrainer/internal/normalize"
)

// LandmarkLocator finds the 68 facial landmarks of one face
type LandmarkLocator interface {
	Locate(img image.Image) (*detector.Landmarks68, error)
	Close() error
}

// EyeClassifier predicts a misalignment label from a normalized eye crop
type EyeClassifier interface {
	InputShape() [4]int64
	Classify(t normalize.Tensor) (classifier.Result, error)
	Close() error
}
