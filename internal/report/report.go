package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/pipeline"
	"github.com/dudu/eyetrainer/internal/routing"
	"github.com/dudu/eyetrainer/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Probability is one entry of the confidence vector
type Probability struct {
	Label       classifier.Label `json:"label"`
	Probability float32          `json:"probability"`
}

// Timing is pipeline timing in milliseconds
type Timing struct {
	ExtractionMs float64 `json:"extraction_ms"`
	NormalizeMs  float64 `json:"normalize_ms"`
	InferenceMs  float64 `json:"inference_ms"`
	TotalMs      float64 `json:"total_ms"`
}

// Report is the machine-readable outcome of a run
type Report struct {
	ID            uuid.UUID        `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Source        string           `json:"source"`
	Label         classifier.Label `json:"label"`
	Confidence    float32          `json:"confidence"`
	Probabilities []Probability    `json:"probabilities"`
	EyeBox        [4]int           `json:"eye_box"`
	Workflow      routing.Workflow `json:"workflow"`
	Timing        Timing           `json:"timing"`
	Stages        []session.Record `json:"stages,omitempty"`
	Disclaimer    string           `json:"disclaimer"`
}

// New builds a report for a diagnosis and its planned workflow
func New(d pipeline.Diagnosis, wf routing.Workflow, now time.Time) Report {
	probs := make([]Probability, len(d.Result.Labels))
	for i, l := range d.Result.Labels {
		probs[i] = Probability{Label: l, Probability: d.Result.Probabilities[i]}
	}
	b := d.EyeBox
	return Report{
		ID:            uuid.New(),
		CreatedAt:     now,
		Source:        d.Source,
		Label:         d.Result.Label,
		Confidence:    d.Result.Confidence,
		Probabilities: probs,
		EyeBox:        [4]int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
		Workflow:      wf,
		Timing: Timing{
			ExtractionMs: ms(d.Timing.Extraction),
			NormalizeMs:  ms(d.Timing.Normalize),
			InferenceMs:  ms(d.Timing.Inference),
			TotalMs:      ms(d.Timing.Total),
		},
		Disclaimer: classifier.Disclaimer,
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Encode writes r as indented JSON
func Encode(w io.Writer, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes r to path, or to stdout when path is "-"
func WriteFile(path string, r Report) error {
	if path == "-" {
		return Encode(os.Stdout, r)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Encode(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
