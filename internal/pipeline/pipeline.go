package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/config"
	"github.com/dudu/eyetrainer/internal/detector"
	"github.com/dudu/eyetrainer/internal/eyeregion"
	"github.com/dudu/eyetrainer/internal/imageio"
	"github.com/dudu/eyetrainer/internal/inference"
	"github.com/dudu/eyetrainer/internal/normalize"
)

// Timing holds performance timing information
type Timing struct {
	Extraction time.Duration `json:"extraction"`
	Normalize  time.Duration `json:"normalize"`
	Inference  time.Duration `json:"inference"`
	Total      time.Duration `json:"total"`
}

// Diagnosis is the outcome of one pass over a frame
type Diagnosis struct {
	Source string
	EyeBox image.Rectangle
	Result classifier.Result
	Timing Timing
}

// Stages are the collaborators a pipeline runs
type Stages struct {
	Locator      LandmarkLocator
	Classifier   EyeClassifier
	ChannelOrder normalize.ChannelOrder
}

// Pipeline runs landmark location, eye extraction, normalization and
// classification in order on the calling goroutine
type Pipeline struct {
	stages      Stages
	extractor   *eyeregion.Extractor
	logger      *slog.Logger
	ownsRuntime bool
	lastTiming  Timing
}

// New initializes ONNX Runtime and loads every model named in cfg
func New(cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	m := cfg.Models

	order, err := classifier.ParseOrder(m.Labels)
	if err != nil {
		return nil, fmt.Errorf("invalid label order: %w", err)
	}

	if err := inference.Initialize(m.RuntimeLibrary); err != nil {
		return nil, fmt.Errorf("failed to initialize inference: %w", err)
	}

	var (
		cascade     *detector.Cascade
		landmarkSes *inference.Session
		classSes    *inference.Session
	)

	loadStart := time.Now()
	var g errgroup.Group
	g.Go(func() error {
		c, err := detector.NewCascade(m.FaceCascade, cfg.Detector.ScaleFactor, cfg.Detector.MinNeighbors, cfg.Detector.MinFaceSize)
		if err != nil {
			return fmt.Errorf("failed to create face detector: %w", err)
		}
		cascade = c
		return nil
	})
	g.Go(func() error {
		s, err := inference.NewSession(m.Landmarks, []string{m.LandmarkInputName}, []string{m.LandmarkOutputName}, m.UseCoreML, logger)
		if err != nil {
			return fmt.Errorf("failed to create landmark predictor: %w", err)
		}
		landmarkSes = s
		return nil
	})
	g.Go(func() error {
		s, err := inference.NewSession(m.Classifier, []string{m.ClassifierInputName}, []string{m.ClassifierOutputName}, m.UseCoreML, logger)
		if err != nil {
			return fmt.Errorf("failed to create classifier: %w", err)
		}
		classSes = s
		return nil
	})

	if err := g.Wait(); err != nil {
		if cascade != nil {
			cascade.Close()
		}
		if landmarkSes != nil {
			landmarkSes.Destroy()
		}
		if classSes != nil {
			classSes.Destroy()
		}
		inference.Shutdown()
		return nil, err
	}
	logger.Debug("models loaded", "elapsed", time.Since(loadStart))

	cls, err := classifier.New(classSes, order, m.CropWidth, m.CropHeight)
	if err != nil {
		cascade.Close()
		landmarkSes.Destroy()
		classSes.Destroy()
		inference.Shutdown()
		return nil, err
	}

	locator := detector.NewLocator(
		cascade,
		detector.NewLandmark68(landmarkSes, m.LandmarkInputSize),
		detector.Selection(cfg.Detector.Selection),
		logger,
	)

	p := NewWithStages(Stages{
		Locator:      locator,
		Classifier:   cls,
		ChannelOrder: normalize.ChannelOrder(m.ChannelOrder),
	}, logger)
	p.ownsRuntime = true
	return p, nil
}

// NewWithStages builds a pipeline from already constructed stages
func NewWithStages(stages Stages, logger *slog.Logger) *Pipeline {
	shape := stages.Classifier.InputShape()
	return &Pipeline{
		stages:    stages,
		extractor: eyeregion.NewExtractor(stages.Locator, int(shape[2]), int(shape[1])),
		logger:    logger,
	}
}

// Diagnose classifies the eye region of a frame
func (p *Pipeline) Diagnose(frame imageio.Frame) (Diagnosis, error) {
	totalStart := time.Now()
	var timing Timing

	extractStart := time.Now()
	region, err := p.extractor.Extract(frame)
	timing.Extraction = time.Since(extractStart)
	if err != nil {
		p.logger.Warn("eye region extraction failed", "source", frame.Source, "error", err)
		return Diagnosis{}, err
	}

	normStart := time.Now()
	tensor := normalize.FromImage(region.Crop, p.stages.ChannelOrder)
	timing.Normalize = time.Since(normStart)

	inferStart := time.Now()
	result, err := p.stages.Classifier.Classify(tensor)
	timing.Inference = time.Since(inferStart)
	if err != nil {
		p.logger.Error("classification failed", "source", frame.Source, "error", err)
		return Diagnosis{}, err
	}

	timing.Total = time.Since(totalStart)
	p.lastTiming = timing

	p.logger.Debug("pipeline timing",
		"extraction", timing.Extraction,
		"normalize", timing.Normalize,
		"inference", timing.Inference,
		"total", timing.Total,
	)
	p.logger.Info("diagnosis", "source", frame.Source, "label", result.Label, "confidence", result.Confidence)

	return Diagnosis{
		Source: frame.Source,
		EyeBox: region.Box,
		Result: result,
		Timing: timing,
	}, nil
}

// DiagnoseFile loads an image file and diagnoses it
func (p *Pipeline) DiagnoseFile(path string) (Diagnosis, error) {
	frame, err := imageio.Load(path)
	if err != nil {
		return Diagnosis{}, err
	}
	return p.Diagnose(frame)
}

// LastTiming returns timing from the last successful Diagnose call
func (p *Pipeline) LastTiming() Timing {
	return p.lastTiming
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errs []error

	if p.stages.Locator != nil {
		if err := p.stages.Locator.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.stages.Classifier != nil {
		if err := p.stages.Classifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.ownsRuntime {
		if err := inference.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %w", errors.Join(errs...))
	}
	return nil
}

// UserMessage turns a pipeline error into text fit for the user
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, imageio.ErrInvalidImage):
		return "Could not read the image. Use a JPG, PNG or BMP file."
	case errors.Is(err, detector.ErrNoFaceDetected):
		return "No face detected. Try a clear, front-facing photo."
	case errors.Is(err, eyeregion.ErrEyeRegionNotFound):
		return "Could not locate the eyes in this image."
	case errors.Is(err, classifier.ErrInputShapeMismatch):
		return "The classifier does not accept this crop size. Check the model settings."
	case errors.Is(err, classifier.ErrInferenceFailed):
		return "The classifier failed to produce a prediction."
	default:
		return err.Error()
	}
}
