package detector

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// cropScale expands the face box before cropping so the jaw and brows are inside
const cropScale = 1.2

// Runner executes a single-input, single-output float32 model
type Runner interface {
	RunFloat32(input []float32, inputShape, outputShape []int64) ([]float32, error)
	Destroy() error
}

// Landmark68 predicts 68 facial landmarks with an ONNX model.
// The model takes a [1,3,S,S] face crop in [0,1] and returns 136 values,
// x/y pairs normalized to that crop.
type Landmark68 struct {
	session   Runner
	inputSize int
}

// NewLandmark68 wraps a landmark model session
func NewLandmark68(session Runner, inputSize int) *Landmark68 {
	return &Landmark68{
		session:   session,
		inputSize: inputSize,
	}
}

// Predict extracts 68 landmarks for a detected face
func (l *Landmark68) Predict(gray *image.Gray, face BoundingBox) (*Landmarks68, error) {
	crop := cropRect(face, gray.Bounds())
	if crop.Empty() {
		return nil, fmt.Errorf("face box %v outside frame %v", face, gray.Bounds())
	}

	input := l.preprocess(gray, crop)

	size := int64(l.inputSize)
	output, err := l.session.RunFloat32(input,
		[]int64{1, 3, size, size},
		[]int64{1, NumLandmarks * 2},
	)
	if err != nil {
		return nil, fmt.Errorf("landmark inference failed: %w", err)
	}
	if len(output) < NumLandmarks*2 {
		return nil, fmt.Errorf("landmark output has %d values, want %d", len(output), NumLandmarks*2)
	}

	landmarks := decodeLandmarks(output, crop)
	return &landmarks, nil
}

// preprocess resizes the crop to the model size and lays it out as NCHW
// with the gray channel replicated three times
func (l *Landmark68) preprocess(gray *image.Gray, crop image.Rectangle) []float32 {
	resized := image.NewGray(image.Rect(0, 0, l.inputSize, l.inputSize))
	draw.BiLinear.Scale(resized, resized.Bounds(), gray, crop, draw.Src, nil)

	plane := l.inputSize * l.inputSize
	data := make([]float32, 3*plane)
	for i, v := range resized.Pix[:plane] {
		f := float32(v) / 255.0
		data[i] = f
		data[plane+i] = f
		data[2*plane+i] = f
	}
	return data
}

// Close releases predictor resources
func (l *Landmark68) Close() error {
	return l.session.Destroy()
}

// cropRect returns the square crop around the face, clipped to the frame
func cropRect(face BoundingBox, bounds image.Rectangle) image.Rectangle {
	c := face.Center()
	half := max(face.Width(), face.Height()) * cropScale / 2
	sq := BoundingBox{X1: c.X - half, Y1: c.Y - half, X2: c.X + half, Y2: c.Y + half}
	return sq.Rect().Intersect(bounds)
}

// decodeLandmarks maps crop-normalized model output back to frame coordinates
func decodeLandmarks(output []float32, crop image.Rectangle) Landmarks68 {
	var landmarks Landmarks68

	w := float32(crop.Dx())
	h := float32(crop.Dy())
	for i := 0; i < NumLandmarks; i++ {
		landmarks[i] = Point{
			X: float32(crop.Min.X) + output[i*2]*w,
			Y: float32(crop.Min.Y) + output[i*2+1]*h,
		}
	}

	return landmarks
}
