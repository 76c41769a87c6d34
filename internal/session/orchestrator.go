package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/config"
	"github.com/dudu/eyetrainer/internal/exercise/beads"
	"github.com/dudu/eyetrainer/internal/exercise/path"
	"github.com/dudu/eyetrainer/internal/loop"
	"github.com/dudu/eyetrainer/internal/routing"
)

// User-facing notices
const (
	NoticeAnalyzing   = "Analyzing results..."
	NoticeComplete    = "Exercise complete!"
	NoticeLoadingNext = "Loading next exercise..."

	BeadInstruction = "Click the highlighted bead to progress."
	PathInstruction = "Follow the moving circle with your eyes (not your head or mouse)."
)

var (
	ErrAlreadyStarted = errors.New("workflow already started")
	ErrClosed         = errors.New("orchestrator closed")
)

// Presenter receives everything the user should see
type Presenter interface {
	Diagnosis(result classifier.Result, workflow routing.Workflow)
	Notice(text string)
	StageStarted(index int, stage routing.Stage, instruction string)
	StageEnded(record Record)
	Finished()
}

// Config holds exercise parameters and the workflow timing
type Config struct {
	Beads           beads.Config // Arrangement is set per stage
	PathWidth       int
	PathHeight      int
	Delays          routing.Delays
	CompletionDelay time.Duration
	Tick            time.Duration
	PathDuration    time.Duration // 0 runs the path exercise until Close
}

// ConfigFrom maps the application config onto the orchestrator config
func ConfigFrom(ex config.Exercise) Config {
	return Config{
		Beads: beads.Config{
			Beads:     ex.BeadCount,
			Radius:    ex.BeadRadius,
			Rounds:    ex.Rounds,
			MinRounds: ex.MinRounds,
			MaxRounds: ex.MaxRounds,
			Length:    ex.BeadCanvasLength,
			Breadth:   ex.BeadCanvasBreadth,
		},
		PathWidth:  ex.PathCanvasWidth,
		PathHeight: ex.PathCanvasHeight,
		Delays: routing.Delays{
			Analyze: ex.AnalyzeDelay,
			Handoff: ex.HandoffDelay,
		},
		CompletionDelay: ex.CompletionDelay,
		Tick:            ex.Tick,
		PathDuration:    ex.PathDuration,
	}
}

// Record summarizes a finished stage
type Record struct {
	Index   int                  `json:"index"`
	Spec    routing.ExerciseSpec `json:"spec"`
	Session uuid.UUID            `json:"session"`
	Started time.Time            `json:"started"`
	Ended   time.Time            `json:"ended"`
	Rounds  int                  `json:"rounds,omitempty"`
	Hits    int                  `json:"hits,omitempty"`
	Pattern string               `json:"pattern,omitempty"`
}

// Snapshot is the active exercise. At most one of Beads and Path is set.
type Snapshot struct {
	Index int
	Stage routing.Stage
	Beads *beads.Session
	Path  *path.Generator
}

// Orchestrator runs a diagnosis workflow on the event loop.
// All methods must be called from the loop's thread.
type Orchestrator struct {
	cfg       Config
	loop      *loop.Loop
	rng       *rand.Rand
	presenter Presenter
	logger    *slog.Logger

	workflow routing.Workflow
	started  bool
	index    int
	beads    *beads.Session
	path     *path.Generator
	begun    time.Time
	pending  *loop.Timer
	ticker   *loop.Timer
	records  []Record
	done     bool
	closed   bool
}

// New creates an orchestrator bound to l
func New(cfg Config, l *loop.Loop, rng *rand.Rand, presenter Presenter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		loop:      l,
		rng:       rng,
		presenter: presenter,
		logger:    logger,
		index:     -1,
	}
}

// Begin presents the diagnosis and schedules the first exercise
func (o *Orchestrator) Begin(result classifier.Result) (routing.Workflow, error) {
	if o.closed {
		return routing.Workflow{}, ErrClosed
	}
	if o.started {
		return routing.Workflow{}, ErrAlreadyStarted
	}

	wf, err := routing.Plan(result.Label, o.cfg.Delays)
	if err != nil {
		return routing.Workflow{}, fmt.Errorf("planning workflow: %w", err)
	}
	o.workflow = wf
	o.started = true

	o.presenter.Diagnosis(result, wf)
	o.presenter.Notice(NoticeAnalyzing)
	o.logger.Info("workflow planned", "label", result.Label, "confidence", result.Confidence, "stages", len(wf.Stages))

	o.schedule(0)
	return wf, nil
}

func (o *Orchestrator) schedule(i int) {
	stage := o.workflow.Stages[i]
	o.pending = o.loop.After(stage.Lead, func() {
		o.pending = nil
		if err := o.start(i); err != nil {
			o.logger.Error("failed to start exercise", "stage", i, "error", err)
			o.finish()
		}
	})
}

func (o *Orchestrator) start(i int) error {
	stage := o.workflow.Stages[i]
	o.index = i
	o.begun = o.loop.Now()

	switch stage.Spec.Kind {
	case routing.BeadProgression:
		cfg := o.cfg.Beads
		cfg.Arrangement = stage.Spec.Arrangement
		s, err := beads.New(cfg, o.rng, o.logger)
		if err != nil {
			return err
		}
		o.beads = s
		o.presenter.StageStarted(i, stage, BeadInstruction)

	case routing.PathFollowing:
		o.path = path.New(path.NewGeometry(o.cfg.PathWidth, o.cfg.PathHeight), o.rng, o.logger)
		o.presenter.StageStarted(i, stage, PathInstruction)
		o.ticker = o.loop.After(o.cfg.Tick, o.tick)
		if o.cfg.PathDuration > 0 {
			o.pending = o.loop.After(o.cfg.PathDuration, func() {
				o.pending = nil
				o.end()
			})
		}

	default:
		return fmt.Errorf("unknown exercise kind %q", stage.Spec.Kind)
	}
	return nil
}

// tick re-arms itself until the path session is torn down
func (o *Orchestrator) tick() {
	if o.path == nil {
		o.ticker = nil
		return
	}
	o.path.Tick()
	o.ticker = o.loop.After(o.cfg.Tick, o.tick)
}

// end destroys the active session and moves to the next stage
func (o *Orchestrator) end() {
	rec := Record{
		Index:   o.index,
		Spec:    o.workflow.Stages[o.index].Spec,
		Started: o.begun,
		Ended:   o.loop.Now(),
	}
	if o.beads != nil {
		rec.Session = o.beads.ID()
		rec.Rounds = o.beads.Rounds()
		rec.Hits = o.beads.Hits()
	}
	if o.path != nil {
		rec.Session = o.path.ID()
		rec.Pattern = o.path.Pattern().String()
	}
	o.beads = nil
	o.path = nil
	if o.ticker != nil {
		o.ticker.Stop()
		o.ticker = nil
	}
	o.records = append(o.records, rec)
	o.presenter.StageEnded(rec)
	o.logger.Debug("exercise ended", "stage", rec.Index, "kind", rec.Spec.Kind, "elapsed", rec.Ended.Sub(rec.Started))

	if o.closed {
		return
	}
	next := o.index + 1
	if next >= len(o.workflow.Stages) {
		o.finish()
		return
	}
	o.presenter.Notice(NoticeLoadingNext)
	o.schedule(next)
}

func (o *Orchestrator) finish() {
	o.done = true
	o.logger.Info("workflow finished", "label", o.workflow.Label, "stages", len(o.records))
	o.presenter.Finished()
}

func (o *Orchestrator) onBeadOutcome(out beads.Outcome) beads.Outcome {
	if out != beads.Completed {
		return out
	}
	o.presenter.Notice(NoticeComplete)
	o.pending = o.loop.After(o.cfg.CompletionDelay, func() {
		o.pending = nil
		o.end()
	})
	return out
}

// Click forwards a canvas click to the bead exercise
func (o *Orchestrator) Click(p image.Point) beads.Outcome {
	if o.beads == nil {
		return beads.Ignored
	}
	return o.onBeadOutcome(o.beads.Click(p))
}

// SelectBead clicks bead i. Stale or out-of-range indexes are ignored.
func (o *Orchestrator) SelectBead(i int) beads.Outcome {
	if o.beads == nil {
		return beads.Ignored
	}
	return o.onBeadOutcome(o.beads.ClickBead(i))
}

// ChangePattern switches the path exercise to another pattern
func (o *Orchestrator) ChangePattern() (path.Pattern, bool) {
	if o.path == nil {
		return 0, false
	}
	return o.path.ChangePattern(), true
}

// Active returns the running exercise, if any
func (o *Orchestrator) Active() (Snapshot, bool) {
	if o.beads == nil && o.path == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Index: o.index,
		Stage: o.workflow.Stages[o.index],
		Beads: o.beads,
		Path:  o.path,
	}, true
}

// Workflow returns the planned workflow
func (o *Orchestrator) Workflow() routing.Workflow { return o.workflow }

// Records returns the finished stages in order
func (o *Orchestrator) Records() []Record { return o.records }

// Done reports whether the last stage has ended
func (o *Orchestrator) Done() bool { return o.done }

// Close stops every timer and destroys the active session
func (o *Orchestrator) Close() {
	if o.closed {
		return
	}
	o.closed = true
	if o.pending != nil {
		o.pending.Stop()
		o.pending = nil
	}
	if o.ticker != nil {
		o.ticker.Stop()
		o.ticker = nil
	}
	if o.beads != nil || o.path != nil {
		o.end()
	}
}
