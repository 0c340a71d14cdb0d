package inference

import "math"

const logitEpsilon = 1e-5

// ApplyDominanceBoost shifts blended probabilities by pairwise head-to-head
// dominance. Dominance values are z-scored within the race and added in
// logit space scaled by alpha, so a horse that has beaten today's field
// gains probability without breaking the [0,1] range.
func ApplyDominanceBoost(probs, dominance []float64, alpha float64) []float64 {
	n := len(probs)
	if n == 0 || alpha == 0 {
		return probs
	}

	mean := 0.0
	for _, d := range dominance {
		mean += d
	}
	mean /= float64(n)

	variance := 0.0
	for _, d := range dominance {
		variance += (d - mean) * (d - mean)
	}
	std := math.Sqrt(variance/float64(n)) + 1e-6

	out := make([]float64, n)
	for i, p := range probs {
		z := (dominance[i] - mean) / std
		out[i] = sigmoid(logit(p) + alpha*z)
	}
	return out
}

func logit(p float64) float64 {
	p = math.Min(1-logitEpsilon, math.Max(logitEpsilon, p))
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
