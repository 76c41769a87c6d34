package beads

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/dudu/eyetrainer/internal/routing"
)

// State is the bead session state
type State int

const (
	SelectingTarget State = iota
	AwaitingClick
	RoundComplete
	SessionComplete
)

func (s State) String() string {
	switch s {
	case SelectingTarget:
		return "SelectingTarget"
	case AwaitingClick:
		return "AwaitingClick"
	case RoundComplete:
		return "RoundComplete"
	case SessionComplete:
		return "SessionComplete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome reports what a click did
type Outcome int

const (
	Ignored Outcome = iota
	Hit
	Completed
)

// Config describes a bead session
type Config struct {
	Beads       int
	Radius      int
	Rounds      int // 0 draws from [MinRounds, MaxRounds]
	MinRounds   int
	MaxRounds   int
	Arrangement routing.Arrangement
	Length      int // canvas size along the bead line
	Breadth     int // canvas size across it
}

// Session is the "click the highlighted bead" exercise
type Session struct {
	id      uuid.UUID
	cfg     Config
	rng     *rand.Rand
	logger  *slog.Logger
	centers []image.Point
	boxes   []image.Rectangle

	state      State
	target     int
	lastTarget int
	satisfied  []bool
	remaining  int
	round      int
	rounds     int
	hits       int
}

// New lays out the beads and highlights the first target
func New(cfg Config, rng *rand.Rand, logger *slog.Logger) (*Session, error) {
	if cfg.Beads <= 0 {
		return nil, fmt.Errorf("bead count must be positive, got %d", cfg.Beads)
	}
	if cfg.Arrangement != routing.Horizontal && cfg.Arrangement != routing.Vertical {
		return nil, fmt.Errorf("unknown bead arrangement %q", cfg.Arrangement)
	}

	rounds := cfg.Rounds
	if rounds <= 0 {
		if cfg.MinRounds <= 0 || cfg.MaxRounds < cfg.MinRounds {
			return nil, fmt.Errorf("invalid round range [%d,%d]", cfg.MinRounds, cfg.MaxRounds)
		}
		rounds = cfg.MinRounds + rng.IntN(cfg.MaxRounds-cfg.MinRounds+1)
	}

	s := &Session{
		id:         uuid.New(),
		cfg:        cfg,
		rng:        rng,
		logger:     logger,
		target:     -1,
		lastTarget: -1,
		satisfied:  make([]bool, cfg.Beads),
		remaining:  cfg.Beads,
		round:      1,
		rounds:     rounds,
	}
	s.layout()

	logger.Info("bead session started", "session", s.id, "arrangement", cfg.Arrangement, "rounds", rounds)
	s.selectTarget()
	return s, nil
}

// layout spaces the beads evenly along the line through the canvas middle
func (s *Session) layout() {
	n := s.cfg.Beads
	s.centers = make([]image.Point, n)
	s.boxes = make([]image.Rectangle, n)
	r := s.cfg.Radius
	for i := 0; i < n; i++ {
		along := s.cfg.Length * (i + 1) / (n + 1)
		across := s.cfg.Breadth / 2
		c := image.Pt(along, across)
		if s.cfg.Arrangement == routing.Vertical {
			c = image.Pt(across, along)
		}
		s.centers[i] = c
		s.boxes[i] = image.Rect(c.X-r, c.Y-r, c.X+r, c.Y+r)
	}
}

// selectTarget highlights a random bead not yet satisfied this round.
// The bead highlighted last is skipped while others remain.
func (s *Session) selectTarget() {
	s.state = SelectingTarget

	candidates := make([]int, 0, len(s.satisfied))
	for i, done := range s.satisfied {
		if !done {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		s.state = RoundComplete
		s.completeRound()
		return
	}
	if len(candidates) > 1 {
		for i, c := range candidates {
			if c == s.lastTarget {
				candidates = append(candidates[:i], candidates[i+1:]...)
				break
			}
		}
	}

	s.target = candidates[s.rng.IntN(len(candidates))]
	s.lastTarget = s.target
	s.state = AwaitingClick
}

func (s *Session) completeRound() {
	s.logger.Debug("bead round complete", "session", s.id, "round", s.round, "of", s.rounds)
	s.round++
	if s.round > s.rounds {
		s.target = -1
		s.state = SessionComplete
		s.logger.Info("bead session complete", "session", s.id, "hits", s.hits)
		return
	}
	for i := range s.satisfied {
		s.satisfied[i] = false
	}
	s.remaining = len(s.satisfied)
	s.selectTarget()
}

// Click handles a pointer click in canvas coordinates. Clicks outside the
// highlighted bead change nothing.
func (s *Session) Click(p image.Point) Outcome {
	if s.state != AwaitingClick || !inside(p, s.boxes[s.target]) {
		return Ignored
	}

	s.satisfied[s.target] = true
	s.remaining--
	s.hits++
	s.selectTarget()

	if s.state == SessionComplete {
		return Completed
	}
	return Hit
}

// ClickBead clicks the center of bead i. Stale or out-of-range indexes are ignored.
func (s *Session) ClickBead(i int) Outcome {
	if i < 0 || i >= len(s.centers) || i != s.target {
		return Ignored
	}
	return s.Click(s.centers[i])
}

// inside treats the box edges as part of the bead
func inside(p image.Point, r image.Rectangle) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ID returns the session id
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state
func (s *Session) State() State { return s.state }

// Target returns the highlighted bead, or -1 when complete
func (s *Session) Target() int { return s.target }

// Round returns the 1-based current round; it reads Rounds()+1 once complete
func (s *Session) Round() int { return s.round }

// CompletedRounds returns the number of finished rounds
func (s *Session) CompletedRounds() int { return s.round - 1 }

// Rounds returns the total number of rounds
func (s *Session) Rounds() int { return s.rounds }

// Remaining returns how many beads are still unsatisfied this round
func (s *Session) Remaining() int { return s.remaining }

// Hits returns the number of valid clicks so far
func (s *Session) Hits() int { return s.hits }

// Satisfied reports whether bead i was clicked this round
func (s *Session) Satisfied(i int) bool { return s.satisfied[i] }

// Beads returns the bead count
func (s *Session) Beads() int { return len(s.centers) }

// Center returns the center of bead i
func (s *Session) Center(i int) image.Point { return s.centers[i] }

// Box returns the clickable box of bead i
func (s *Session) Box(i int) image.Rectangle { return s.boxes[i] }

// Arrangement returns the bead line direction
func (s *Session) Arrangement() routing.Arrangement { return s.cfg.Arrangement }

// Canvas returns the exercise canvas size
func (s *Session) Canvas() image.Point {
	if s.cfg.Arrangement == routing.Vertical {
		return image.Pt(s.cfg.Breadth, s.cfg.Length)
	}
	return image.Pt(s.cfg.Length, s.cfg.Breadth)
}

// Done reports whether the session reached SessionComplete
func (s *Session) Done() bool { return s.state == SessionComplete }
