// Package enemyai picks which lane the opponent reinforces next.
package enemyai

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"lanewars.io/internal/sim/queries"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

var ErrInvalidWeights = errors.New("invalid weights")

// Policy carries the difficulty tables from tuning.
type Policy struct {
	Cooldowns     []float64
	Distributions [][]float64
}

func New(cfg tuning.EnemyAI) Policy {
	return Policy{Cooldowns: cfg.Cooldowns, Distributions: cfg.Distributions}
}

// CooldownForDifficulty is the delay between purchases at difficulty d.
func (p Policy) CooldownForDifficulty(d state.Difficulty) float64 {
	return p.Cooldowns[d.Index()]
}

// DistributionForDifficulty returns rank weights, best-ranked lane first.
func (p Policy) DistributionForDifficulty(d state.Difficulty) []float64 {
	return p.Distributions[d.Index()]
}

type laneValue struct {
	key   string
	value float64
}

// SpawnLaneKey scores every lane whose enemy base still stands and samples one, favouring
// the best lanes. ok is false when the enemy has no base left.
func (p Policy) SpawnLaneKey(s *state.GameState, ix *queries.Index, rng *rand.Rand) (string, bool, error) {
	var lanes []laneValue
	for lane := 0; lane < ix.Lanes(); lane++ {
		key := state.LaneKey(lane)
		m := ix.LaneMetrics(key)
		if m.EnemyBaseHealthPercentage <= 0 {
			continue
		}
		lanes = append(lanes, laneValue{key: key, value: m.TargetValue()})
	}
	if len(lanes) == 0 {
		return "", false, nil
	}

	// Shuffle first so equal values land in random order after the stable sort.
	rng.Shuffle(len(lanes), func(i, j int) { lanes[i], lanes[j] = lanes[j], lanes[i] })
	sort.SliceStable(lanes, func(i, j int) bool { return lanes[i].value > lanes[j].value })

	weights := p.DistributionForDifficulty(s.Difficulty)
	if len(weights) > len(lanes) {
		weights = weights[:len(lanes)]
	}
	idx, err := SampleFromProbabilities(weights, rng)
	if err != nil {
		return "", false, fmt.Errorf("spawn lane for %s: %w", s.Difficulty, err)
	}
	if idx >= len(lanes) {
		idx = 0
	}
	return lanes[idx].key, true, nil
}

// SampleFromProbabilities draws an index with probability proportional to its weight.
func SampleFromProbabilities(weights []float64, rng *rand.Rand) (int, error) {
	sum := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("weight %d is %v: %w", i, w, ErrInvalidWeights)
		}
		sum += w
	}
	if sum <= 0 {
		return 0, fmt.Errorf("weights sum to %v: %w", sum, ErrInvalidWeights)
	}

	draw := rng.Float64()
	cum := 0.0
	for i, w := range weights {
		cum += w / sum
		if cum >= draw && w > 0 {
			return i, nil
		}
	}
	return 0, nil
}
