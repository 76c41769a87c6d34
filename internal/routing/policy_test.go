package routing

import (
	"reflect"
	"testing"
	"time"

	"github.com/dudu/eyetrainer/internal/classifier"
)

func TestRouteTable(t *testing.T) {
	tests := []struct {
		label classifier.Label
		want  ExerciseSpec
	}{
		{classifier.Normal, ExerciseSpec{Kind: PathFollowing}},
		{classifier.Hypertropia, ExerciseSpec{Kind: BeadProgression, Arrangement: Vertical}},
		{classifier.Hypotropia, ExerciseSpec{Kind: BeadProgression, Arrangement: Vertical}},
		{classifier.Esotropia, ExerciseSpec{Kind: BeadProgression, Arrangement: Horizontal}},
		{classifier.Exotropia, ExerciseSpec{Kind: BeadProgression, Arrangement: Horizontal}},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			got, err := Route(tt.label)
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if got != tt.want {
				t.Errorf("Route = %+v, want %+v", got, tt.want)
			}
			again, _ := Route(tt.label)
			if again != got {
				t.Errorf("Route not deterministic: %+v vs %+v", got, again)
			}
		})
	}
}

func TestRouteIsTotal(t *testing.T) {
	for _, l := range classifier.CanonicalOrder {
		if _, err := Route(l); err != nil {
			t.Errorf("Route(%s): %v", l, err)
		}
	}
	if _, err := Route("Squint"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestPlan(t *testing.T) {
	delays := Delays{Analyze: time.Second, Handoff: 1500 * time.Millisecond}

	normal, err := Plan(classifier.Normal, delays)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(normal.Stages) != 1 || normal.Stages[0].Spec.Kind != PathFollowing {
		t.Errorf("Normal plan = %+v, want single path stage", normal)
	}
	if normal.Stages[0].Lead != time.Second {
		t.Errorf("lead = %v, want 1s", normal.Stages[0].Lead)
	}

	for _, l := range []classifier.Label{classifier.Esotropia, classifier.Exotropia, classifier.Hypertropia, classifier.Hypotropia} {
		wf, err := Plan(l, delays)
		if err != nil {
			t.Fatalf("Plan(%s): %v", l, err)
		}
		if len(wf.Stages) != 2 {
			t.Fatalf("Plan(%s) has %d stages, want 2", l, len(wf.Stages))
		}
		if wf.Stages[0].Spec.Kind != BeadProgression {
			t.Errorf("Plan(%s) first stage = %s", l, wf.Stages[0].Spec.Kind)
		}
		last := wf.Stages[1]
		if last.Spec != (ExerciseSpec{Kind: PathFollowing}) || last.Lead != delays.Handoff {
			t.Errorf("Plan(%s) follow-up = %+v", l, last)
		}
		again, _ := Plan(l, delays)
		if !reflect.DeepEqual(wf, again) {
			t.Errorf("Plan(%s) not deterministic", l)
		}
	}
}
