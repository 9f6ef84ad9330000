// Package entropy provides the seeded randomness every stochastic roll in a
// run draws from. Identical seeds give identical runs.
package entropy

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is a deterministic random stream.
type Source struct {
	seed uint64
	rng  *rand.Rand
}

// New creates a stream from seed.
func New(seed uint64) *Source {
	return &Source{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the stream was created with.
func (s *Source) Seed() uint64 { return s.seed }

// Fork returns an independent stream named by label. Forks depend only on
// the parent seed and the label, never on how much the parent has drawn.
func (s *Source) Fork(label string) *Source {
	h := fnv.New64a()
	h.Write([]byte(label))
	return New(s.seed ^ h.Sum64())
}

// Float returns a float64 in [0, 1).
func (s *Source) Float() float64 { return s.rng.Float64() }

// Uint64 returns a raw 64-bit value, used to seed nested deterministic work.
func (s *Source) Uint64() uint64 { return s.rng.Uint64() }

// IntN returns an int in [0, n). n must be positive.
func (s *Source) IntN(n int) int { return s.rng.IntN(n) }

// Range returns a float64 in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// Weighted picks an index with probability proportional to its weight.
// It returns -1 when no weight is positive.
func (s *Source) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	r := s.rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}
