// Package ensemble trains and applies the heterogeneous model stack: five
// decision trees, a gradient-boosted classifier, a pairwise ranker, and a
// logistic-regression stacking combiner. All randomness flows through an
// explicit RandomContext so repeated or concurrent training runs are
// isolated and reproducible.
package ensemble

import (
	"math/rand"
)

// RandomContext derives seeded random sources for training components. There
// is no process-global seeding anywhere; every model receives its generator
// from here.
type RandomContext struct {
	seed int64
}

// NewRandomContext creates a context rooted at the given seed.
func NewRandomContext(seed int64) *RandomContext {
	return &RandomContext{seed: seed}
}

// Seed returns the root seed.
func (c *RandomContext) Seed() int64 { return c.seed }

// Derive returns an independent generator at a fixed offset from the root
// seed. The same offset always yields the same stream.
func (c *RandomContext) Derive(offset int64) *rand.Rand {
	return rand.New(rand.NewSource(c.seed + offset))
}
