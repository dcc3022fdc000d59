// Package race implements the speed race games. A variant fixes the field and
// timing; each race draws one speed per competitor and the fastest wins.
package race

import (
	"fmt"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/rng"
)

// Competitor is one entrant of a variant. Number is 1-based as shown to players.
type Competitor struct {
	Number int     `json:"number"`
	Name   string  `json:"name"`
	Odds   float64 `json:"odds"`
}

// Variant is the fixed configuration of a race game.
type Variant struct {
	Mode         domain.Mode
	Competitors  []Competitor
	Duration     time.Duration
	MinSpeed     float64
	Spread       float64
	Scale        float64
	TieEpsilon   float64
	DisplayDelay time.Duration
}

// HistorySize is the number of recent winners kept per game.
const HistorySize = 15

func field(names []string, odds []float64) []Competitor {
	out := make([]Competitor, len(odds))
	for i := range odds {
		out[i] = Competitor{Number: i + 1, Name: names[i], Odds: odds[i]}
	}
	return out
}

var (
	Snail = Variant{
		Mode: domain.ModeSnail,
		Competitors: field(
			[]string{"Snail 1", "Snail 2", "Snail 3", "Snail 4", "Snail 5", "Snail 6"},
			[]float64{2.5, 2.8, 2.2, 3.0, 2.6, 2.4},
		),
		Duration:     5 * time.Second,
		MinSpeed:     0.12,
		Spread:       0.2,
		Scale:        1.2,
		TieEpsilon:   0.001,
		DisplayDelay: 2500 * time.Millisecond,
	}

	Horse = Variant{
		Mode: domain.ModeHorse,
		Competitors: field(
			[]string{"Lightning", "Gale", "Pegasus", "Red Hare", "White Dragon", "Black Cloud", "Diamond", "Silver"},
			[]float64{3.2, 2.8, 4.0, 2.5, 3.5, 2.2, 5.0, 2.8},
		),
		Duration:     6 * time.Second,
		MinSpeed:     0.08,
		Spread:       0.15,
		Scale:        1.5,
		TieEpsilon:   0.001,
		DisplayDelay: 3 * time.Second,
	}
)

// VariantFor returns the race variant behind a game mode.
func VariantFor(mode domain.Mode) (Variant, error) {
	switch mode {
	case domain.ModeSnail:
		return Snail, nil
	case domain.ModeHorse:
		return Horse, nil
	}
	return Variant{}, domain.ErrNotFound("race", string(mode))
}

// Competitor returns the entrant with the given 1-based number.
func (v Variant) Competitor(number int) (Competitor, error) {
	if number < 1 || number > len(v.Competitors) {
		return Competitor{}, domain.ErrInvalidSelection(
			fmt.Sprintf("%s competitor must be 1..%d, got %d", v.Mode, len(v.Competitors), number))
	}
	return v.Competitors[number-1], nil
}

// Race is one run of a variant with its speeds fixed at start.
type Race struct {
	variant Variant
	speeds  []float64
}

// Start draws each competitor's speed exactly once.
func Start(v Variant, src rng.Source) *Race {
	speeds := make([]float64, len(v.Competitors))
	for i := range speeds {
		speeds[i] = v.MinSpeed + v.Spread*src.Float64()
	}
	return &Race{variant: v, speeds: speeds}
}

// Speeds returns a copy of the drawn speeds.
func (r *Race) Speeds() []float64 {
	return append([]float64(nil), r.speeds...)
}

// Progress is each competitor's position in [0,1] at elapsed time. It never
// decreases as elapsed grows and stops changing at the race duration.
func (r *Race) Progress(elapsed time.Duration) []float64 {
	frac := 0.0
	if r.variant.Duration > 0 {
		frac = min(1, max(0, float64(elapsed)/float64(r.variant.Duration)))
	}
	out := make([]float64, len(r.speeds))
	for i, s := range r.speeds {
		out[i] = min(1, frac*s*r.variant.Scale)
	}
	return out
}

// Winner resolves the race at its full duration. Returns a 0-based index.
func (r *Race) Winner() int {
	return ResolveWinner(r.Progress(r.variant.Duration), r.variant.TieEpsilon)
}

// ResolveWinner returns the lowest index whose progress is within epsilon of
// the maximum, or -1 for an empty field.
func ResolveWinner(progresses []float64, epsilon float64) int {
	if len(progresses) == 0 {
		return -1
	}
	best := progresses[0]
	for _, p := range progresses[1:] {
		best = max(best, p)
	}
	for i, p := range progresses {
		if p >= best-epsilon {
			return i
		}
	}
	return -1
}
