// Package noise provides the simulator's single source of randomness.
// Every stochastic draw (node placement and per-sense measurement noise)
// flows through one explicitly-owned Source so that a fixed seed and a fixed
// call order reproduce a run exactly. There is no package-level generator.
package noise

import "math/rand"

// Source is a seedable generator of gaussian and uniform draws.
// It is not safe for concurrent use; the simulator is single-threaded and
// call order is part of the reproducibility contract.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a Source seeded with seed.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Normal draws one sample from a normal distribution with the given mean
// and standard deviation.
func (s *Source) Normal(mean, stddev float64) float64 {
	return mean + stddev*s.rng.NormFloat64()
}

// Uniform draws one sample uniformly from [min, max).
func (s *Source) Uniform(min, max float64) float64 {
	return min + (max-min)*s.rng.Float64()
}
