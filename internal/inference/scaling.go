// Package inference turns trained ensemble output into per-race win
// probabilities: blending the base models, applying the head-to-head
// dominance boost, scaling within each race, and adding the re-rank bonus.
package inference

import (
	"math"
	"sort"
)

// MinMaxRescale maps raw scores into [floor, ceil] within one race. A
// zero-range group falls back to deterministic rank weights, never to a
// uniform or random spread.
func MinMaxRescale(scores []float64, floor, ceil float64) []float64 {
	lo, hi := scores[0], scores[0]
	for _, s := range scores {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi-lo <= 0 {
		return RankWeights(scores)
	}
	out := make([]float64, len(scores))
	span := ceil - floor
	for i, s := range scores {
		out[i] = floor + span*(s-lo)/(hi-lo)
	}
	return out
}

// SoftmaxScale converts raw scores into a probability distribution with a
// temperature. The max is subtracted before exponentiation for stability.
func SoftmaxScale(scores []float64, temperature float64) []float64 {
	t := math.Max(1e-3, temperature)
	maxLogit := math.Inf(-1)
	logits := make([]float64, len(scores))
	for i, s := range scores {
		logits[i] = s / t
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}
	out := make([]float64, len(scores))
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	if sum <= 0 {
		return RankWeights(scores)
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// RankWeights distributes probability mass by score rank: weight (n-rank)
// normalized over the group. Ties are broken by a tiny perturbation that
// favors earlier rows, so the result is deterministic for any input.
func RankWeights(scores []float64) []float64 {
	n := len(scores)
	perturbed := make([]float64, n)
	for i, s := range scores {
		perturbed[i] = s + 1e-6*float64(n-1-i)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return perturbed[order[a]] > perturbed[order[b]]
	})

	weights := make([]float64, n)
	total := 0.0
	for rank, idx := range order {
		weights[idx] = float64(n - rank)
		total += weights[idx]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// NearlyUniform reports whether every probability in the group rounds to
// the same value at six decimals.
func NearlyUniform(probs []float64) bool {
	if len(probs) < 2 {
		return false
	}
	first := math.Round(probs[0]*1e6) / 1e6
	for _, p := range probs[1:] {
		if math.Round(p*1e6)/1e6 != first {
			return false
		}
	}
	return true
}

// normalizeSignal min-max normalizes a signal within a race, ignoring NaN
// values. A flat or all-NaN signal normalizes to zeros.
func normalizeSignal(values []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(values))
	if !(hi-lo >= 1e-9) {
		return out
	}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
