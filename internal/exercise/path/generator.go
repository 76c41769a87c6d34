package path

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	// Step is the per-tick increment of both θ and t
	Step = 0.03

	twoPi = 2 * math.Pi
)

// Generator moves a single target along the selected pattern
type Generator struct {
	id      uuid.UUID
	geo     Geometry
	rng     *rand.Rand
	logger  *slog.Logger
	pattern Pattern
	theta   float64
	t       float64
	ticks   int
}

// New starts a generator on a randomly chosen pattern
func New(geo Geometry, rng *rand.Rand, logger *slog.Logger) *Generator {
	g := &Generator{
		id:      uuid.New(),
		geo:     geo,
		rng:     rng,
		logger:  logger,
		pattern: Patterns[rng.IntN(len(Patterns))],
	}
	logger.Info("path session started", "session", g.id, "pattern", g.pattern)
	return g
}

// NewWithPattern starts a generator on a fixed pattern at the given parameters.
// Values outside [0, 2π) are reduced.
func NewWithPattern(geo Geometry, p Pattern, theta, t float64, rng *rand.Rand, logger *slog.Logger) *Generator {
	return &Generator{
		id:      uuid.New(),
		geo:     geo,
		rng:     rng,
		logger:  logger,
		pattern: p,
		theta:   wrap(theta),
		t:       wrap(t),
	}
}

// Tick advances θ and t by one step
func (g *Generator) Tick() {
	g.theta = wrap(g.theta + Step)
	g.t += Step
	// sine restarts from the left edge once it runs past the sweep
	if g.pattern == Sine && sineX(g.geo, g.t) > g.geo.Right {
		g.t = 0
	}
	g.t = wrap(g.t)
	g.ticks++
}

// ChangePattern switches to one of the other patterns and restarts the motion
func (g *Generator) ChangePattern() Pattern {
	others := make([]Pattern, 0, len(Patterns)-1)
	for _, p := range Patterns {
		if p != g.pattern {
			others = append(others, p)
		}
	}
	prev := g.pattern
	g.pattern = others[g.rng.IntN(len(others))]
	g.theta = 0
	g.t = 0
	g.logger.Debug("path pattern changed", "session", g.id, "from", prev, "to", g.pattern)
	return g.pattern
}

// Position returns the current target position
func (g *Generator) Position() Point {
	return Position(g.pattern, g.geo, g.theta, g.t)
}

func (g *Generator) ID() uuid.UUID { return g.id }

// Pattern returns the active pattern
func (g *Generator) Pattern() Pattern { return g.pattern }

// Theta returns the current angle
func (g *Generator) Theta() float64 { return g.theta }

// T returns the current sweep time
func (g *Generator) T() float64 { return g.t }

func (g *Generator) Ticks() int { return g.ticks }

func (g *Generator) Geometry() Geometry { return g.geo }

// wrap reduces v into [0, 2π)
func wrap(v float64) float64 {
	v = math.Mod(v, twoPi)
	if v < 0 {
		v += twoPi
	}
	if v >= twoPi {
		v = 0
	}
	return v
}
