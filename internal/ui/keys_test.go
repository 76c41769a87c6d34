package ui

import (
	"testing"

	"github.com/dudu/eyetrainer/internal/classifier"
)

func TestMapKey(t *testing.T) {
	tests := []struct {
		key  int
		want Action
	}{
		{-1, Action{}},
		{'q', Action{Kind: ActionQuit}},
		{27, Action{Kind: ActionQuit}},
		{'c', Action{Kind: ActionChangePattern}},
		{'C', Action{Kind: ActionChangePattern}},
		{'1', Action{Kind: ActionSelectBead, Bead: 0}},
		{'5', Action{Kind: ActionSelectBead, Bead: 4}},
		{'0', Action{}},
		{'z', Action{}},
		{0x100000 | 'q', Action{Kind: ActionQuit}}, // modifier bits
	}
	for _, tt := range tests {
		if got := MapKey(tt.key); got != tt.want {
			t.Errorf("MapKey(%#x) = %+v, want %+v", tt.key, got, tt.want)
		}
	}
}

func TestPredictionText(t *testing.T) {
	got := PredictionText(classifier.Result{Label: classifier.Hypotropia, Confidence: 0.625})
	if got != "Prediction: Hypotropia (62.5%)" {
		t.Errorf("PredictionText = %q", got)
	}
}
