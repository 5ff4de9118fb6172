package reina

import (
	"math"
	"math/rand"
)

// Rand wraps a seeded pseudo-random source and exposes the draws the
// simulation needs. Every Context owns exactly one Rand so that two runs
// constructed with the same seed and inputs consume the identical stream
// of numbers and produce identical metric series.
type Rand struct {
	src *rand.Rand
}

// NewRand creates a new generator from the given seed.
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// Get returns a uniform draw in [0, 1).
func (r *Rand) Get() float64 {
	return r.src.Float64()
}

// Intn returns a uniform draw in [0, n).
func (r *Rand) Intn(n int) int {
	return r.src.Intn(n)
}

// Chance returns true with probability p. Draws nothing when the outcome
// is certain.
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.src.Float64() < p
}

// Lognormal returns a draw from the lognormal distribution with the given
// location and scale. The underlying normal draw uses the source's
// ziggurat NormFloat64, which is deterministic for a seeded source.
func (r *Rand) Lognormal(mu, sigma float64) float64 {
	return math.Exp(mu + sigma*r.src.NormFloat64())
}

// Poisson returns a draw from the Poisson distribution with the given
// mean, using Knuth's multiplication method. The simulation only uses
// small means (stage durations in days), where the method is exact and
// cheap.
func (r *Rand) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= r.src.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// WeightedChoice returns an index drawn proportionally to the given
// weights. Weights do not need to sum to one. Returns the last index
// when all weights are zero.
func (r *Rand) WeightedChoice(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := r.src.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
