package ui

import (
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/routing"
	"github.com/dudu/eyetrainer/internal/session"
)

// FinishedNotice is shown once the last exercise has ended
const FinishedNotice = "All exercises finished. Press any key to quit."

const (
	headerHeight = 120
	margin       = 20
	lineHeight   = 22
)

// Screen turns orchestrator events into frames. It implements session.Presenter.
type Screen struct {
	logger      *slog.Logger
	canvas      image.Point
	prediction  string
	notice      string
	instruction string
	finished    bool
}

// NewScreen creates a screen whose exercise area fits canvas
func NewScreen(canvas image.Point, logger *slog.Logger) *Screen {
	return &Screen{canvas: canvas, logger: logger}
}

// Size returns the full frame size
func (s *Screen) Size() image.Point {
	return image.Pt(s.canvas.X+2*margin, s.canvas.Y+headerHeight+margin)
}

// PredictionText formats a result the way the screen shows it
func PredictionText(r classifier.Result) string {
	return fmt.Sprintf("Prediction: %s (%.1f%%)", r.Label, r.Confidence*100)
}

func (s *Screen) Diagnosis(result classifier.Result, workflow routing.Workflow) {
	s.prediction = PredictionText(result)
	s.logger.Info(s.prediction, "stages", len(workflow.Stages))
}

func (s *Screen) Notice(text string) {
	s.notice = text
	s.logger.Info(text)
}

func (s *Screen) StageStarted(index int, stage routing.Stage, instruction string) {
	s.notice = ""
	s.instruction = instruction
	s.logger.Info("exercise started", "stage", index, "kind", stage.Spec.Kind, "arrangement", stage.Spec.Arrangement)
}

func (s *Screen) StageEnded(record session.Record) {
	s.instruction = ""
	s.logger.Info("exercise ended", "stage", record.Index, "kind", record.Spec.Kind, "hits", record.Hits)
}

func (s *Screen) Finished() {
	s.finished = true
	s.notice = FinishedNotice
}

// Render draws the header and the active exercise into dst, reallocating it
// when the size changed
func (s *Screen) Render(dst *gocv.Mat, snap session.Snapshot, active bool) {
	size := s.Size()
	if dst.Empty() || dst.Cols() != size.X || dst.Rows() != size.Y {
		dst.Close()
		*dst = gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3)
	}
	dst.SetTo(gocv.NewScalar(255, 255, 255, 0))

	y := margin + 10
	if s.prediction != "" {
		gocv.PutText(dst, s.prediction, image.Pt(margin, y), font, 0.7, colorBlack, 2)
		y += lineHeight + 4
		gocv.PutText(dst, classifier.Disclaimer, image.Pt(margin, y), font, 0.38, colorDisclaim, 1)
		y += lineHeight
	}
	if s.instruction != "" {
		gocv.PutText(dst, s.instruction, image.Pt(margin, y), font, 0.5, colorBlack, 1)
		y += lineHeight
	}
	if s.notice != "" {
		gocv.PutText(dst, s.notice, image.Pt(margin, y), font, 0.6, colorRed, 1)
	}

	if !active {
		return
	}

	origin := image.Pt(margin, headerHeight)
	switch {
	case snap.Beads != nil:
		c := snap.Beads.Canvas()
		DrawCanvasFrame(dst, image.Rectangle{Min: origin, Max: origin.Add(c)})
		DrawBeads(dst, snap.Beads, origin)
	case snap.Path != nil:
		geo := snap.Path.Geometry()
		DrawCanvasFrame(dst, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(geo.Width, geo.Height))})
		DrawPath(dst, snap.Path, origin)
	}
}

// IsFinished reports whether the workflow has ended; the event pump then
// exits on any key
func (s *Screen) IsFinished() bool { return s.finished }

// Action maps a key for this screen. Once the workflow has finished any
// key quits.
func (s *Screen) Action(key int) Action {
	if s.finished && key >= 0 {
		return Action{Kind: ActionQuit}
	}
	return MapKey(key)
}
