package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Models   Models   `yaml:"models"`
	Detector Detector `yaml:"detector"`
	Exercise Exercise `yaml:"exercise"`
	Camera   Camera   `yaml:"camera"`
	Log      Log      `yaml:"log"`
}

// Models describes the model artifacts and the classifier tensor contract
type Models struct {
	RuntimeLibrary string `yaml:"runtime_library" validate:"required"`
	UseCoreML      bool   `yaml:"use_coreml"`

	FaceCascade string `yaml:"face_cascade" validate:"required"`

	Landmarks          string `yaml:"landmarks" validate:"required"`
	LandmarkInputSize  int    `yaml:"landmark_input_size" validate:"gt=0"`
	LandmarkInputName  string `yaml:"landmark_input_name" validate:"required"`
	LandmarkOutputName string `yaml:"landmark_output_name" validate:"required"`

	Classifier           string   `yaml:"classifier" validate:"required"`
	ClassifierInputName  string   `yaml:"classifier_input_name" validate:"required"`
	ClassifierOutputName string   `yaml:"classifier_output_name" validate:"required"`
	CropWidth            int      `yaml:"crop_width" validate:"gt=0"`
	CropHeight           int      `yaml:"crop_height" validate:"gt=0"`
	ChannelOrder         string   `yaml:"channel_order" validate:"oneof=bgr rgb"`
	Labels               []string `yaml:"labels" validate:"len=5,unique,dive,oneof=Esotropia Exotropia Hypertropia Hypotropia Normal"`
}

// Detector holds Haar cascade parameters and the multi-face policy
type Detector struct {
	ScaleFactor  float64 `yaml:"scale_factor" validate:"gt=1"`
	MinNeighbors int     `yaml:"min_neighbors" validate:"gte=0"`
	MinFaceSize  int     `yaml:"min_face_size" validate:"gte=0"`
	Selection    string  `yaml:"selection" validate:"oneof=largest first"`
}

// Exercise holds bead and path exercise parameters
type Exercise struct {
	BeadCount  int `yaml:"bead_count" validate:"gt=0"`
	BeadRadius int `yaml:"bead_radius" validate:"gt=0"`
	Rounds     int `yaml:"rounds" validate:"gte=0"`
	MinRounds  int `yaml:"min_rounds" validate:"gt=0"`
	MaxRounds  int `yaml:"max_rounds" validate:"gtefield=MinRounds"`

	BeadCanvasLength  int `yaml:"bead_canvas_length" validate:"gt=0"`
	BeadCanvasBreadth int `yaml:"bead_canvas_breadth" validate:"gt=0"`
	PathCanvasWidth   int `yaml:"path_canvas_width" validate:"gt=0"`
	PathCanvasHeight  int `yaml:"path_canvas_height" validate:"gt=0"`

	Tick            time.Duration `yaml:"tick" validate:"gt=0"`
	AnalyzeDelay    time.Duration `yaml:"analyze_delay" validate:"gte=0"`
	CompletionDelay time.Duration `yaml:"completion_delay" validate:"gte=0"`
	HandoffDelay    time.Duration `yaml:"handoff_delay" validate:"gte=0"`
	PathDuration    time.Duration `yaml:"path_duration" validate:"gte=0"`
}

// Camera holds capture device settings
type Camera struct {
	Device int `yaml:"device" validate:"gte=0"`
	Width  int `yaml:"width" validate:"gte=0"`
	Height int `yaml:"height" validate:"gte=0"`
}

// Log holds logger settings
type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Models: Models{
			RuntimeLibrary:       "lib/libonnxruntime.so",
			FaceCascade:          "models/haarcascade_frontalface_default.xml",
			Landmarks:            "models/landmarks_68.onnx",
			LandmarkInputSize:    112,
			LandmarkInputName:    "input",
			LandmarkOutputName:   "output",
			Classifier:           "models/cnn_eye_model.onnx",
			ClassifierInputName:  "input",
			ClassifierOutputName: "output",
			CropWidth:            224,
			CropHeight:           224,
			ChannelOrder:         "bgr",
			Labels:               []string{"Esotropia", "Exotropia", "Hypertropia", "Hypotropia", "Normal"},
		},
		Detector: Detector{
			ScaleFactor:  1.1,
			MinNeighbors: 5,
			MinFaceSize:  40,
			Selection:    "largest",
		},
		Exercise: Exercise{
			BeadCount:         5,
			BeadRadius:        20,
			MinRounds:         3,
			MaxRounds:         20,
			BeadCanvasLength:  600,
			BeadCanvasBreadth: 200,
			PathCanvasWidth:   600,
			PathCanvasHeight:  300,
			Tick:              20 * time.Millisecond,
			AnalyzeDelay:      time.Second,
			CompletionDelay:   1500 * time.Millisecond,
			HandoffDelay:      1500 * time.Millisecond,
		},
		Camera: Camera{
			Width:  1280,
			Height: 720,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path yields the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Write stores the configuration as YAML
func Write(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
