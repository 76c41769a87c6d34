package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tsawler/go-metal/checkpoints"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/config"
	"github.com/dudu/eyetrainer/internal/detector"
	"github.com/dudu/eyetrainer/internal/inference"
)

// modelContract is what the application expects of one artifact
type modelContract struct {
	Kind   string
	Path   string
	Input  string
	Output string
	InDims []int64
	OutLen int64
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	layers := flag.Bool("layers", false, "Also import the classifier with go-metal and list its layers")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "modelcheck - verify model artifacts against the configured tensor contract\n\n")
		fmt.Fprintf(os.Stderr, "Usage: modelcheck [--config eyetrainer.yaml] [--layers]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *layers); err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n✅ All models match the configured contract.")
}

func contracts(cfg config.Config) []modelContract {
	m := cfg.Models
	s := int64(m.LandmarkInputSize)
	return []modelContract{
		{
			Kind:   "classifier",
			Path:   m.Classifier,
			Input:  m.ClassifierInputName,
			Output: m.ClassifierOutputName,
			InDims: []int64{1, int64(m.CropHeight), int64(m.CropWidth), 3},
			OutLen: classifier.NumLabels,
		},
		{
			Kind:   "landmarks",
			Path:   m.Landmarks,
			Input:  m.LandmarkInputName,
			Output: m.LandmarkOutputName,
			InDims: []int64{1, 3, s, s},
			OutLen: detector.NumLandmarks * 2,
		},
	}
}

func run(cfg config.Config, layers bool) error {
	if _, err := os.Stat(cfg.Models.FaceCascade); err != nil {
		return fmt.Errorf("face cascade: %w", err)
	}
	fmt.Printf("✓ Face cascade found: %s\n", cfg.Models.FaceCascade)

	fmt.Println("Initializing ONNX Runtime...")
	if err := inference.Initialize(cfg.Models.RuntimeLibrary); err != nil {
		return err
	}
	defer inference.Shutdown()
	fmt.Println("✓ ONNX Runtime initialized")

	var errs []error
	for _, c := range contracts(cfg) {
		if err := check(c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Kind, err))
		}
	}

	if layers {
		listLayers(cfg.Models.Classifier)
	}
	return errors.Join(errs...)
}

func check(c modelContract) error {
	fmt.Printf("\nChecking %s model: %s\n", c.Kind, c.Path)
	if _, err := os.Stat(c.Path); err != nil {
		return err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(c.Path)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	fmt.Printf("  Inputs (%d):\n", len(inputs))
	for _, info := range inputs {
		fmt.Printf("    %s: shape=%v, type=%v\n", info.Name, info.Dimensions, info.DataType)
	}
	fmt.Printf("  Outputs (%d):\n", len(outputs))
	for _, info := range outputs {
		fmt.Printf("    %s: shape=%v, type=%v\n", info.Name, info.Dimensions, info.DataType)
	}

	in, ok := find(inputs, c.Input)
	if !ok {
		return fmt.Errorf("no input named %q", c.Input)
	}
	if err := matchShape(in.Dimensions, c.InDims); err != nil {
		return fmt.Errorf("input %s: %w", c.Input, err)
	}

	out, ok := find(outputs, c.Output)
	if !ok {
		return fmt.Errorf("no output named %q", c.Output)
	}
	if n, ok := staticSize(out.Dimensions); ok && n != c.OutLen {
		return fmt.Errorf("output %s has %d values, want %d", c.Output, n, c.OutLen)
	}

	printMetadata(c.Path)
	fmt.Printf("  ✓ %s matches\n", c.Kind)
	return nil
}

func find(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, bool) {
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return ort.InputOutputInfo{}, false
}

// matchShape compares a model shape with the expected one. Dynamic
// dimensions (negative) match anything.
func matchShape(got, want []int64) error {
	if len(got) != len(want) {
		return fmt.Errorf("shape %v has rank %d, want %v", got, len(got), want)
	}
	for i := range got {
		if got[i] >= 0 && got[i] != want[i] {
			return fmt.Errorf("shape %v, want %v", got, want)
		}
	}
	return nil
}

// staticSize multiplies the dimensions; ok is false when any is dynamic
func staticSize(dims []int64) (int64, bool) {
	n := int64(1)
	for _, d := range dims {
		if d < 0 {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func printMetadata(path string) {
	metadata, err := ort.GetModelMetadata(path)
	if err != nil {
		fmt.Printf("  (Could not read metadata: %v)\n", err)
		return
	}
	defer metadata.Destroy()

	if producer, err := metadata.GetProducerName(); err == nil {
		fmt.Printf("  Producer: %s\n", producer)
	}
	if version, err := metadata.GetVersion(); err == nil {
		fmt.Printf("  Version: %d\n", version)
	}
}

// listLayers imports the model with go-metal. Failure is reported but does
// not fail the check since go-metal supports a subset of operators.
func listLayers(path string) {
	fmt.Printf("\nImporting %s with go-metal...\n", path)
	importer := checkpoints.NewONNXImporter()
	checkpoint, err := importer.ImportFromONNX(path)
	if err != nil {
		fmt.Printf("  go-metal could not import the model: %v\n", err)
		return
	}

	fmt.Printf("  Layers: %d\n", len(checkpoint.ModelSpec.Layers))
	fmt.Printf("  Weights: %d tensors\n", len(checkpoint.Weights))
	for i, layer := range checkpoint.ModelSpec.Layers {
		fmt.Printf("  %d: %s (%s)\n", i+1, layer.Name, layer.Type)
	}
}
