package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eyetrainer.yaml")
	data := []byte(`
models:
  crop_width: 300
  crop_height: 75
  labels: [Normal, Esotropia, Exotropia, Hypertropia, Hypotropia]
exercise:
  tick: 40ms
  rounds: 4
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.CropWidth != 300 || cfg.Models.CropHeight != 75 {
		t.Errorf("crop size = %dx%d, want 300x75", cfg.Models.CropWidth, cfg.Models.CropHeight)
	}
	if cfg.Models.Labels[0] != "Normal" {
		t.Errorf("labels[0] = %s, want Normal", cfg.Models.Labels[0])
	}
	if cfg.Exercise.Tick != 40*time.Millisecond {
		t.Errorf("tick = %v, want 40ms", cfg.Exercise.Tick)
	}
	if cfg.Exercise.Rounds != 4 {
		t.Errorf("rounds = %d, want 4", cfg.Exercise.Rounds)
	}
	// untouched keys keep their defaults
	if cfg.Exercise.BeadCount != 5 {
		t.Errorf("bead count = %d, want 5", cfg.Exercise.BeadCount)
	}
	if cfg.Exercise.CompletionDelay != 1500*time.Millisecond {
		t.Errorf("completion delay = %v", cfg.Exercise.CompletionDelay)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duplicate label", func(c *Config) { c.Models.Labels[0] = "Normal" }},
		{"unknown label", func(c *Config) { c.Models.Labels[2] = "Squint" }},
		{"four labels", func(c *Config) { c.Models.Labels = c.Models.Labels[:4] }},
		{"bad channel order", func(c *Config) { c.Models.ChannelOrder = "rgba" }},
		{"rounds range inverted", func(c *Config) { c.Exercise.MinRounds, c.Exercise.MaxRounds = 10, 3 }},
		{"zero tick", func(c *Config) { c.Exercise.Tick = 0 }},
		{"unknown selection", func(c *Config) { c.Detector.Selection = "closest" }},
		{"missing classifier", func(c *Config) { c.Models.Classifier = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Exercise.PathDuration = 90 * time.Second

	if err := Write(cfg, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Exercise.PathDuration != cfg.Exercise.PathDuration {
		t.Errorf("path duration = %v, want %v", loaded.Exercise.PathDuration, cfg.Exercise.PathDuration)
	}
	if loaded.Models.Classifier != cfg.Models.Classifier {
		t.Errorf("classifier = %s, want %s", loaded.Models.Classifier, cfg.Models.Classifier)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
