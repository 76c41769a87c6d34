package session

import (
	"errors"
	"image"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dudu/eyetrainer/internal/classifier"
	"github.com/dudu/eyetrainer/internal/config"
	"github.com/dudu/eyetrainer/internal/exercise/beads"
	"github.com/dudu/eyetrainer/internal/logging"
	"github.com/dudu/eyetrainer/internal/loop"
	"github.com/dudu/eyetrainer/internal/normalize"
	"github.com/dudu/eyetrainer/internal/routing"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	diagnoses []classifier.Label
	notices   []string
	started   []routing.Stage
	ended     []Record
	finished  int
}

func (r *recorder) Diagnosis(res classifier.Result, _ routing.Workflow) {
	r.diagnoses = append(r.diagnoses, res.Label)
}
func (r *recorder) Notice(text string) { r.notices = append(r.notices, text) }
func (r *recorder) StageStarted(_ int, stage routing.Stage, _ string) {
	r.started = append(r.started, stage)
}
func (r *recorder) StageEnded(rec Record) { r.ended = append(r.ended, rec) }
func (r *recorder) Finished()             { r.finished++ }

type fixedModel struct{ out []float32 }

func (m fixedModel) RunFloat32([]float32, []int64, []int64) ([]float32, error) { return m.out, nil }
func (m fixedModel) Destroy() error                                            { return nil }

func testSetup(t *testing.T, rounds int) (*Orchestrator, *loop.Loop, *recorder) {
	t.Helper()
	cfg := config.Default().Exercise
	cfg.Rounds = rounds
	l := loop.New(start)
	rec := &recorder{}
	o := New(ConfigFrom(cfg), l, rand.New(rand.NewPCG(1, 2)), rec, logging.Discard())
	return o, l, rec
}

func at(d time.Duration) time.Time { return start.Add(d) }

func TestNormalRoutesToPathOnly(t *testing.T) {
	c, err := classifier.New(fixedModel{out: []float32{0.05, 0.05, 0.05, 0.05, 0.80}}, classifier.CanonicalOrder, 224, 224)
	if err != nil {
		t.Fatal(err)
	}
	tensor := normalize.FromImage(image.NewRGBA(image.Rect(0, 0, 224, 224)), normalize.BGR)
	res, err := c.Classify(tensor)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != classifier.Normal {
		t.Fatalf("label = %s, want Normal", res.Label)
	}

	o, l, rec := testSetup(t, 3)
	wf, err := o.Begin(res)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(wf.Stages) != 1 || wf.Stages[0].Spec.Kind != routing.PathFollowing {
		t.Fatalf("workflow = %+v", wf)
	}
	if len(rec.notices) != 1 || rec.notices[0] != NoticeAnalyzing {
		t.Errorf("notices = %v", rec.notices)
	}

	l.Advance(at(999 * time.Millisecond))
	if _, ok := o.Active(); ok {
		t.Fatal("exercise started before the analyze delay")
	}

	l.Advance(at(time.Second))
	snap, ok := o.Active()
	if !ok || snap.Path == nil || snap.Beads != nil {
		t.Fatalf("active = %+v, %v; want path session", snap, ok)
	}

	l.Advance(at(time.Second + 100*time.Millisecond))
	if snap.Path.Ticks() != 5 {
		t.Errorf("ticks = %d, want 5", snap.Path.Ticks())
	}

	for _, s := range rec.started {
		if s.Spec.Kind == routing.BeadProgression {
			t.Fatal("bead session created for Normal")
		}
	}
	if o.Click(image.Pt(300, 100)) != beads.Ignored {
		t.Error("click during path exercise should be ignored")
	}
	if o.Done() {
		t.Error("open-ended path exercise reported done")
	}

	o.Close()
	if _, ok := o.Active(); ok {
		t.Error("session still active after Close")
	}
	l.Advance(at(time.Minute))
	if snap.Path.Ticks() != 5 {
		t.Errorf("path kept ticking after Close: %d", snap.Path.Ticks())
	}
	if l.Pending() != 0 {
		t.Errorf("pending timers after Close: %d", l.Pending())
	}
}

func TestBeadSessionChainsIntoPath(t *testing.T) {
	o, l, rec := testSetup(t, 3)
	if _, err := o.Begin(classifier.Result{Label: classifier.Esotropia}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	l.Advance(at(time.Second))

	snap, ok := o.Active()
	if !ok || snap.Beads == nil {
		t.Fatal("bead session not started")
	}
	if snap.Beads.Arrangement() != routing.Horizontal {
		t.Errorf("arrangement = %s", snap.Beads.Arrangement())
	}

	clicks := 0
	var out beads.Outcome
	for out != beads.Completed && clicks < 100 {
		out = o.SelectBead(snap.Beads.Target())
		clicks++
	}
	if clicks != 15 {
		t.Fatalf("completed after %d clicks, want 15", clicks)
	}
	if last := rec.notices[len(rec.notices)-1]; last != NoticeComplete {
		t.Errorf("last notice = %q", last)
	}

	l.Advance(at(time.Second + 1499*time.Millisecond))
	if _, ok := o.Active(); !ok {
		t.Fatal("bead session destroyed before the completion delay")
	}

	l.Advance(at(2500 * time.Millisecond))
	if _, ok := o.Active(); ok {
		t.Fatal("bead session still active after the completion delay")
	}
	if len(rec.ended) != 1 || rec.ended[0].Hits != 15 || rec.ended[0].Rounds != 3 {
		t.Errorf("records = %+v", rec.ended)
	}
	if last := rec.notices[len(rec.notices)-1]; last != NoticeLoadingNext {
		t.Errorf("last notice = %q", last)
	}

	l.Advance(at(3999 * time.Millisecond))
	if _, ok := o.Active(); ok {
		t.Fatal("path started before the handoff delay")
	}
	l.Advance(at(4 * time.Second))
	snap, ok = o.Active()
	if !ok || snap.Path == nil || snap.Index != 1 {
		t.Fatalf("active = %+v, %v; want path stage 1", snap, ok)
	}
	if len(rec.started) != 2 {
		t.Errorf("started %d stages", len(rec.started))
	}
	if _, ok := o.ChangePattern(); !ok {
		t.Error("ChangePattern should apply to the path stage")
	}
}

func TestFinitePathDurationFinishes(t *testing.T) {
	o, l, rec := testSetup(t, 3)
	o.cfg.PathDuration = 200 * time.Millisecond

	if _, err := o.Begin(classifier.Result{Label: classifier.Normal}); err != nil {
		t.Fatal(err)
	}
	l.Advance(at(time.Second + 200*time.Millisecond))

	if !o.Done() || rec.finished != 1 {
		t.Fatalf("done=%v finished=%d", o.Done(), rec.finished)
	}
	if len(o.Records()) != 1 || o.Records()[0].Pattern == "" {
		t.Errorf("records = %+v", o.Records())
	}
	if l.Pending() != 0 {
		t.Errorf("pending timers = %d", l.Pending())
	}
}

func TestCloseBeforeFirstStage(t *testing.T) {
	o, l, rec := testSetup(t, 3)
	if _, err := o.Begin(classifier.Result{Label: classifier.Hypotropia}); err != nil {
		t.Fatal(err)
	}
	o.Close()
	l.Advance(at(10 * time.Second))

	if len(rec.started) != 0 {
		t.Errorf("stage started after Close: %+v", rec.started)
	}
	if _, err := o.Begin(classifier.Result{Label: classifier.Normal}); !errors.Is(err, ErrClosed) {
		t.Errorf("Begin after Close = %v", err)
	}
}

func TestBeginTwice(t *testing.T) {
	o, _, _ := testSetup(t, 3)
	if _, err := o.Begin(classifier.Result{Label: classifier.Normal}); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Begin(classifier.Result{Label: classifier.Normal}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Begin = %v", err)
	}
}

func TestBeginUnknownLabel(t *testing.T) {
	o, _, rec := testSetup(t, 3)
	if _, err := o.Begin(classifier.Result{Label: "Squint"}); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.diagnoses) != 0 {
		t.Error("diagnosis presented for unroutable label")
	}
}

func TestInputsWhileIdle(t *testing.T) {
	o, _, _ := testSetup(t, 3)
	if o.SelectBead(0) != beads.Ignored || o.Click(image.Pt(100, 100)) != beads.Ignored {
		t.Error("input before Begin should be ignored")
	}
	if _, ok := o.ChangePattern(); ok {
		t.Error("ChangePattern without a path stage should report false")
	}
}
