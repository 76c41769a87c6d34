package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Cascade detects frontal faces with an OpenCV Haar cascade
type Cascade struct {
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      int
}

// NewCascade loads a Haar cascade XML file
func NewCascade(path string, scaleFactor float64, minNeighbors, minSize int) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade: %s", path)
	}

	return &Cascade{
		classifier:   classifier,
		scaleFactor:  scaleFactor,
		minNeighbors: minNeighbors,
		minSize:      minSize,
	}, nil
}

// Detect returns face boxes in detector order
func (c *Cascade) Detect(gray *image.Gray) ([]BoundingBox, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	// Equalize before detection
	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(mat, &equalized)

	rects := c.classifier.DetectMultiScaleWithParams(
		equalized,
		c.scaleFactor,
		c.minNeighbors,
		0,
		image.Pt(c.minSize, c.minSize),
		image.Pt(0, 0),
	)

	bounds := gray.Bounds()
	faces := make([]BoundingBox, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, BoxFromRect(r.Add(bounds.Min)))
	}
	return faces, nil
}

// Close releases the cascade
func (c *Cascade) Close() error {
	return c.classifier.Close()
}
