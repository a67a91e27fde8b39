// Package lootgen implements the probabilistic loot spawn generator (C2).
package lootgen

import (
	"math"
	"time"
)

// Generator is configured once with a period and per-period probability.
// It is stateless across calls apart from that configuration — the
// simulator carries no fractional residue between ticks.
type Generator struct {
	period      time.Duration
	probability float64
}

// New builds a Generator. probability is clamped to [0,1].
func New(period time.Duration, probability float64) *Generator {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	return &Generator{period: period, probability: probability}
}

// Generate returns how many new loot items should spawn this tick, given
// the elapsed time delta, the current loot count and the number of
// looters (dogs) in the session.
func (g *Generator) Generate(delta time.Duration, lootCount, looterCount int) int {
	needed := looterCount - lootCount
	if needed < 0 {
		needed = 0
	}
	if needed == 0 || g.period <= 0 {
		return 0
	}

	periods := delta.Seconds() / g.period.Seconds()
	accumulated := 1 - math.Pow(1-g.probability, periods)

	return int(math.Floor(float64(needed) * accumulated))
}
