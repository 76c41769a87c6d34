package detector

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dudu/eyetrainer/internal/logging"
)

type fakeDetector struct {
	faces []BoundingBox
	err   error
	panic bool
}

func (f *fakeDetector) Detect(gray *image.Gray) ([]BoundingBox, error) {
	if f.panic {
		panic("cascade exploded")
	}
	return f.faces, f.err
}

func (f *fakeDetector) Close() error { return nil }

type fakePredictor struct {
	got BoundingBox
	err error
}

func (f *fakePredictor) Predict(gray *image.Gray, face BoundingBox) (*Landmarks68, error) {
	f.got = face
	if f.err != nil {
		return nil, f.err
	}
	var l Landmarks68
	l[LeftEyeStart] = face.Center()
	return &l, nil
}

func (f *fakePredictor) Close() error { return nil }

func testFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 100, B: 80, A: 255})
		}
	}
	return img
}

func TestLocatorErrors(t *testing.T) {
	small := BoundingBox{X1: 10, Y1: 10, X2: 40, Y2: 40}

	tests := []struct {
		name string
		det  *fakeDetector
		pred *fakePredictor
		want error
	}{
		{"no faces", &fakeDetector{}, &fakePredictor{}, ErrNoFaceDetected},
		{"only degenerate faces", &fakeDetector{faces: []BoundingBox{{X1: 10, Y1: 10, X2: 10, Y2: 40}, {X1: 50, Y1: 60, X2: 90, Y2: 20}}}, &fakePredictor{}, ErrNoFaceDetected},
		{"detector error", &fakeDetector{err: errors.New("bad mat")}, &fakePredictor{}, ErrLandmarkDetectionFailed},
		{"detector panic", &fakeDetector{panic: true}, &fakePredictor{}, ErrLandmarkDetectionFailed},
		{"predictor error", &fakeDetector{faces: []BoundingBox{small}}, &fakePredictor{err: errors.New("ort")}, ErrLandmarkDetectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := NewLocator(tt.det, tt.pred, SelectLargest, logging.Discard())
			lm, err := loc.Locate(testFrame())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if lm != nil {
				t.Error("expected nil landmarks on failure")
			}
		})
	}
}

func TestLocatorUsesLargestFace(t *testing.T) {
	small := BoundingBox{X1: 0, Y1: 0, X2: 20, Y2: 20}
	large := BoundingBox{X1: 50, Y1: 30, X2: 130, Y2: 110}
	pred := &fakePredictor{}

	loc := NewLocator(&fakeDetector{faces: []BoundingBox{small, large}}, pred, SelectLargest, logging.Discard())
	lm, err := loc.Locate(testFrame())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if pred.got != large {
		t.Errorf("predictor got %v, want %v", pred.got, large)
	}
	if lm[LeftEyeStart] != large.Center() {
		t.Errorf("landmarks not from predictor: %v", lm[LeftEyeStart])
	}
}

func TestLocatorSkipsDegenerateFaces(t *testing.T) {
	empty := BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5}
	face := BoundingBox{X1: 50, Y1: 30, X2: 130, Y2: 110}
	pred := &fakePredictor{}

	loc := NewLocator(&fakeDetector{faces: []BoundingBox{empty, face}}, pred, SelectFirst, logging.Discard())
	if _, err := loc.Locate(testFrame()); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if pred.got != face {
		t.Errorf("predictor got %v, want %v", pred.got, face)
	}
}

func TestSelectFace(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BoundingBox{X1: 20, Y1: 20, X2: 40, Y2: 40}
	c := BoundingBox{X1: 50, Y1: 50, X2: 70, Y2: 70} // same area as b

	if got := SelectFace([]BoundingBox{a, b, c}, SelectLargest); got != b {
		t.Errorf("largest = %v, want %v (earlier of equal areas)", got, b)
	}
	if got := SelectFace([]BoundingBox{a, b, c}, SelectFirst); got != a {
		t.Errorf("first = %v, want %v", got, a)
	}
}

func TestToGrayKeepsBounds(t *testing.T) {
	img := testFrame()
	gray := ToGray(img)
	if gray.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", gray.Bounds(), img.Bounds())
	}
	if ToGray(gray) != gray {
		t.Error("gray input should be returned unchanged")
	}
}
