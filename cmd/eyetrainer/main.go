package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/eyetrainer/internal/camera"
	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/config"
	"github.com/dudu/eyetrainer/internal/logging"
	"github.com/dudu/eyetrainer/internal/loop"
	"github.com/dudu/eyetrainer/internal/pipeline"
	"github.com/dudu/eyetrainer/internal/report"
	"github.com/dudu/eyetrainer/internal/routing"
	"github.com/dudu/eyetrainer/internal/session"
	"github.com/dudu/eyetrainer/internal/ui"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui (window creation).
	runtime.LockOSThread()
}

type Options struct {
	ImagePath  string
	UseCamera  bool
	Camera     int
	ConfigPath string
	InitConfig string
	JSONPath   string
	Headless   bool
	Rounds     int
	LogLevel   string
	ShowFPS    bool
}

func main() {
	opts := parseFlags()

	if opts.InitConfig != "" {
		if err := config.Write(config.Default(), opts.InitConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default config to %s\n", opts.InitConfig)
		return
	}

	if opts.ImagePath == "" && !opts.UseCamera {
		fmt.Fprintln(os.Stderr, "Error: --image or --use-camera is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		if errors.Is(err, camera.ErrCaptureCancelled) {
			fmt.Println("Capture cancelled.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.ImagePath, "image", "", "Face image to diagnose (jpg, jpeg, png, bmp)")
	flag.StringVar(&opts.ImagePath, "i", "", "Face image to diagnose (shorthand)")
	flag.BoolVar(&opts.UseCamera, "use-camera", false, "Capture a still from the camera instead of reading a file")
	flag.IntVar(&opts.Camera, "camera", -1, "Camera device index (overrides config)")
	flag.IntVar(&opts.Camera, "c", -1, "Camera device index (shorthand)")
	flag.StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	flag.StringVar(&opts.InitConfig, "init-config", "", "Write the default config to this path and exit")
	flag.StringVar(&opts.JSONPath, "json", "", "Write a JSON report to this path ('-' for stdout)")
	flag.BoolVar(&opts.Headless, "headless", false, "Diagnose only, do not open the exercise window")
	flag.IntVar(&opts.Rounds, "rounds", -1, "Bead exercise rounds (0 picks a random count)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flag.BoolVar(&opts.ShowFPS, "fps", false, "Draw the frame rate on the camera preview and exercise window")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "EyeTrainer - eye misalignment screening and eye exercises\n\n")
		fmt.Fprintf(os.Stderr, "Usage: eyetrainer [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  eyetrainer --image face.jpg\n")
		fmt.Fprintf(os.Stderr, "  eyetrainer --use-camera --camera 1\n")
		fmt.Fprintf(os.Stderr, "  eyetrainer -i face.png --headless --json -\n")
	}

	flag.Parse()
	return opts
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Camera >= 0 {
		cfg.Camera.Device = opts.Camera
	}
	if opts.Rounds >= 0 {
		cfg.Exercise.Rounds = opts.Rounds
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, cfg.Validate()
}

func run(opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}

	logger.Info("loading models", "classifier", cfg.Models.Classifier, "landmarks", cfg.Models.Landmarks)
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	var d pipeline.Diagnosis
	if opts.UseCamera {
		d, err = diagnoseCamera(p, cfg.Camera, opts.ShowFPS, logger)
	} else {
		d, err = p.DiagnoseFile(opts.ImagePath)
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.PredictionText(d.Result))
	fmt.Println(classifier.Disclaimer)

	if opts.Headless {
		wf, err := routing.Plan(d.Result.Label, session.ConfigFrom(cfg.Exercise).Delays)
		if err != nil {
			return err
		}
		return writeReport(opts.JSONPath, d, wf, nil)
	}

	wf, records, err := runExercises(cfg, d.Result, opts.ShowFPS, logger)
	if err != nil {
		return err
	}
	return writeReport(opts.JSONPath, d, wf, records)
}

// diagnoseCamera captures one still and diagnoses it through a temp file
// that is removed on every path
func diagnoseCamera(p *pipeline.Pipeline, cc config.Camera, showFPS bool, logger *slog.Logger) (pipeline.Diagnosis, error) {
	still, err := captureStill(cc, showFPS, logger)
	defer still.Close()
	if err != nil {
		return pipeline.Diagnosis{}, err
	}

	var d pipeline.Diagnosis
	err = camera.WithTempStill(still, func(path string) error {
		var err error
		d, err = p.DiagnoseFile(path)
		return err
	})
	return d, err
}

// captureStill owns the camera only until a frame is taken or the user cancels
func captureStill(cc config.Camera, showFPS bool, logger *slog.Logger) (gocv.Mat, error) {
	logger.Info("opening camera", "device", cc.Device)
	cam, err := camera.NewCapture(cc.Device, cc.Width, cc.Height)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer cam.Close()
	logger.Debug("camera opened", "width", cam.Width(), "height", cam.Height())

	window := ui.NewWindow("Camera - press k to capture, x to cancel", cam.Width(), cam.Height())
	defer window.Close()
	window.SetShowFPS(showFPS)

	still, err := cam.Snapshot(window)
	logger.Debug("camera preview closed", "fps", window.FPS())
	return still, err
}

func canvasSize(ex config.Exercise) image.Point {
	return image.Pt(
		max(ex.BeadCanvasLength, ex.BeadCanvasBreadth, ex.PathCanvasWidth),
		max(ex.BeadCanvasLength, ex.BeadCanvasBreadth, ex.PathCanvasHeight),
	)
}

// runExercises drives the orchestrator from the window's event pump until
// the user quits
func runExercises(cfg config.Config, result classifier.Result, showFPS bool, logger *slog.Logger) (routing.Workflow, []session.Record, error) {
	screen := ui.NewScreen(canvasSize(cfg.Exercise), logger)
	l := loop.New(time.Now())
	seed := uint64(time.Now().UnixNano())
	orch := session.New(session.ConfigFrom(cfg.Exercise), l, rand.New(rand.NewPCG(seed, seed>>32)), screen, logger)

	wf, err := orch.Begin(result)
	if err != nil {
		return routing.Workflow{}, nil, err
	}

	size := screen.Size()
	window := ui.NewWindow("Eye Trainer", size.X, size.Y)
	defer window.Close()
	window.SetShowFPS(showFPS)
	defer func() { logger.Debug("exercise window closed", "fps", window.FPS()) }()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	frame := gocv.NewMat()
	defer frame.Close()

	fmt.Println("Keys: 1-9 select a bead, c changes the path pattern, q quits")

	for {
		select {
		case <-sigChan:
			logger.Info("shutting down")
			orch.Close()
			return wf, orch.Records(), nil
		default:
		}

		l.Advance(time.Now())

		snap, active := orch.Active()
		screen.Render(&frame, snap, active)
		window.Show(&frame)

		// WaitKey must be called to process window events on macOS
		action := screen.Action(window.WaitKey(10))
		switch action.Kind {
		case ui.ActionQuit:
			orch.Close()
			return wf, orch.Records(), nil
		case ui.ActionSelectBead:
			orch.SelectBead(action.Bead)
		case ui.ActionChangePattern:
			if pattern, ok := orch.ChangePattern(); ok {
				logger.Debug("pattern changed", "pattern", pattern)
			}
		}
	}
}

func writeReport(path string, d pipeline.Diagnosis, wf routing.Workflow, records []session.Record) error {
	if path == "" {
		return nil
	}
	r := report.New(d, wf, time.Now())
	r.Stages = records
	return report.WriteFile(path, r)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, camera.ErrCameraUnavailable):
		return "Cannot access the camera."
	default:
		return pipeline.UserMessage(err)
	}
}
