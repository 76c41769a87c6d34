package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/dudu/eyetrainer/internal/normalize"
)

var (
	// ErrInputShapeMismatch is returned, along with ErrInferenceFailed, when
	// the tensor does not match the model input
	ErrInputShapeMismatch = errors.New("model input shape mismatch")
	// ErrInferenceFailed wraps any failure of the underlying model
	ErrInferenceFailed = errors.New("inference failed")
)

// sumTolerance is how far a probability vector may drift from 1
const sumTolerance = 1e-3

// Model runs a single-input, single-output float32 model
type Model interface {
	RunFloat32(input []float32, inputShape, outputShape []int64) ([]float32, error)
	Destroy() error
}

// Result is a predicted label with the full probability vector
type Result struct {
	Label         Label
	Index         int
	Confidence    float32
	Probabilities []float32 // indexed like Labels
	Labels        []Label
}

// Probability returns the probability assigned to l
func (r Result) Probability(l Label) float32 {
	for i, x := range r.Labels {
		if x == l {
			return r.Probabilities[i]
		}
	}
	return 0
}

// Classifier wraps the pretrained eye model
type Classifier struct {
	model  Model
	order  []Label
	height int
	width  int
}

// New creates a classifier expecting [1,height,width,3] input
func New(model Model, order []Label, width, height int) (*Classifier, error) {
	if len(order) != NumLabels {
		return nil, fmt.Errorf("label order has %d entries, want %d", len(order), NumLabels)
	}
	return &Classifier{
		model:  model,
		order:  order,
		height: height,
		width:  width,
	}, nil
}

// InputShape returns the tensor shape the model expects
func (c *Classifier) InputShape() [4]int64 {
	return [4]int64{1, int64(c.height), int64(c.width), 3}
}

// Classify runs inference on a normalized tensor
func (c *Classifier) Classify(t normalize.Tensor) (Result, error) {
	if t.Shape != c.InputShape() || len(t.Data) != c.height*c.width*3 {
		return Result{}, fmt.Errorf("%w: %w: got %v, want %v", ErrInferenceFailed, ErrInputShapeMismatch, t.Shape, c.InputShape())
	}

	out, err := c.model.RunFloat32(t.Data, t.ShapeSlice(), []int64{1, NumLabels})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInferenceFailed, err)
	}
	if len(out) != NumLabels {
		return Result{}, fmt.Errorf("%w: output has %d values, want %d", ErrInferenceFailed, len(out), NumLabels)
	}

	return c.result(out)
}

// result turns raw model output into a Result
func (c *Classifier) result(out []float32) (Result, error) {
	probs := make([]float32, len(out))
	copy(probs, out)

	for _, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			return Result{}, fmt.Errorf("%w: non-finite output %v", ErrInferenceFailed, out)
		}
	}
	if !isDistribution(probs) {
		probs = softmax(probs)
	}

	idx := Argmax(probs)
	return Result{
		Label:         c.order[idx],
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: probs,
		Labels:        c.order,
	}, nil
}

// Close releases the model
func (c *Classifier) Close() error {
	return c.model.Destroy()
}

// Argmax returns the index of the largest value; the lowest index wins ties
func Argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func isDistribution(v []float32) bool {
	var sum float64
	for _, p := range v {
		if p < 0 {
			return false
		}
		sum += float64(p)
	}
	return math.Abs(sum-1) <= sumTolerance
}

func softmax(v []float32) []float32 {
	m := v[Argmax(v)]
	out := make([]float32, len(v))
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - m))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
