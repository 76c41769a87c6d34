package routing

import (
	"fmt"
	"time"

	"github.com/dudu/eyetrainer/internal/classifier"
)

// ExerciseKind identifies an exercise
type ExerciseKind string

const (
	PathFollowing   ExerciseKind = "path"
	BeadProgression ExerciseKind = "beads"
)

// Arrangement is the bead line direction
type Arrangement string

const (
	NoArrangement Arrangement = ""
	Horizontal    Arrangement = "horizontal"
	Vertical      Arrangement = "vertical"
)

// ExerciseSpec describes one exercise to run
type ExerciseSpec struct {
	Kind        ExerciseKind `json:"kind"`
	Arrangement Arrangement  `json:"arrangement,omitempty"`
}

// Stage is one step of a workflow. Lead is the delay between the previous
// stage ending (or the diagnosis being shown) and this stage starting.
type Stage struct {
	Spec ExerciseSpec  `json:"spec"`
	Lead time.Duration `json:"lead"`
}

// Workflow is the ordered list of exercises for a diagnosis
type Workflow struct {
	Label  classifier.Label `json:"label"`
	Stages []Stage          `json:"stages"`
}

// Delays holds the lead times used when building workflows
type Delays struct {
	Analyze time.Duration // diagnosis shown -> first exercise
	Handoff time.Duration // bead session destroyed -> follow-up path exercise
}

var table = map[classifier.Label]ExerciseSpec{
	classifier.Normal:      {Kind: PathFollowing},
	classifier.Hypertropia: {Kind: BeadProgression, Arrangement: Vertical},
	classifier.Hypotropia:  {Kind: BeadProgression, Arrangement: Vertical},
	classifier.Esotropia:   {Kind: BeadProgression, Arrangement: Horizontal},
	classifier.Exotropia:   {Kind: BeadProgression, Arrangement: Horizontal},
}

// Route returns the primary exercise for a label
func Route(label classifier.Label) (ExerciseSpec, error) {
	spec, ok := table[label]
	if !ok {
		return ExerciseSpec{}, fmt.Errorf("no route for label %q", label)
	}
	return spec, nil
}

// Plan builds the workflow for a label. Every bead exercise is followed by
// the path-following exercise.
func Plan(label classifier.Label, delays Delays) (Workflow, error) {
	primary, err := Route(label)
	if err != nil {
		return Workflow{}, err
	}

	wf := Workflow{
		Label:  label,
		Stages: []Stage{{Spec: primary, Lead: delays.Analyze}},
	}
	if primary.Kind == BeadProgression {
		wf.Stages = append(wf.Stages, Stage{
			Spec: ExerciseSpec{Kind: PathFollowing},
			Lead: delays.Handoff,
		})
	}
	return wf, nil
}
