package inference

import "math"

// Re-rank bonus weights. Each signal is min-max normalized within the race
// before weighting.
const (
	bonusClassRank     = 0.13
	bonusFormScore     = 0.10
	bonusOpponent      = 0.06
	bonusClassPrior    = 0.08
	bonusSurfaceExp    = 0.06
	bonusDistanceWins  = 0.05
	bonusDistanceBand  = 0.04
	bonusSurfaceType   = 0.04
	bonusHeadToHead    = 0.04
	bonusConsensus     = 0.05
)

// RerankSignals carries the per-entrant feature values the re-rank bonus
// draws on. NaN means the signal is unavailable for that entrant.
type RerankSignals struct {
	ClassWeightedAvgRank float64
	FormScoreWeighted    float64
	OpponentQuality      float64
	RaceClassWeight      float64
	SurfaceExperience    float64
	DistanceWinRate      float64
	DistanceBandWinRate  float64
	SurfaceWinRate       float64
	HeadToHead           float64
	ModelScoreStd        float64
}

// ApplyRerankBonus nudges scaled probabilities with class, form, and
// head-to-head priors, then renormalizes the race to sum to one. A lower
// class-weighted average rank is better, so that signal enters inverted.
// Low spread across the seven base model scores counts as consensus.
func ApplyRerankBonus(probs []float64, signals []RerankSignals) []float64 {
	n := len(probs)
	if n == 0 {
		return probs
	}

	pick := func(get func(RerankSignals) float64) []float64 {
		out := make([]float64, n)
		for i, s := range signals {
			out[i] = get(s)
		}
		return out
	}

	invClassRank := pick(func(s RerankSignals) float64 {
		if math.IsNaN(s.ClassWeightedAvgRank) {
			return math.NaN()
		}
		return 1 / math.Max(s.ClassWeightedAvgRank, 1e-6)
	})

	consensus := normalizeSignal(pick(func(s RerankSignals) float64 { return s.ModelScoreStd }))
	for i := range consensus {
		consensus[i] = 1 - consensus[i]
	}

	classRank := normalizeSignal(invClassRank)
	form := normalizeSignal(pick(func(s RerankSignals) float64 { return s.FormScoreWeighted }))
	opponent := normalizeSignal(pick(func(s RerankSignals) float64 { return s.OpponentQuality }))
	classPrior := normalizeSignal(pick(func(s RerankSignals) float64 { return s.RaceClassWeight }))
	surfaceExp := normalizeSignal(pick(func(s RerankSignals) float64 { return s.SurfaceExperience }))
	distance := normalizeSignal(pick(func(s RerankSignals) float64 { return s.DistanceWinRate }))
	band := normalizeSignal(pick(func(s RerankSignals) float64 { return s.DistanceBandWinRate }))
	surfaceType := normalizeSignal(pick(func(s RerankSignals) float64 { return s.SurfaceWinRate }))
	h2h := normalizeSignal(pick(func(s RerankSignals) float64 { return s.HeadToHead }))

	out := make([]float64, n)
	sum := 0.0
	for i, p := range probs {
		bonus := bonusClassRank*classRank[i] +
			bonusFormScore*form[i] +
			bonusOpponent*opponent[i] +
			bonusClassPrior*classPrior[i] +
			bonusSurfaceExp*surfaceExp[i] +
			bonusDistanceWins*distance[i] +
			bonusDistanceBand*band[i] +
			bonusSurfaceType*surfaceType[i] +
			bonusHeadToHead*h2h[i] +
			bonusConsensus*consensus[i]
		out[i] = math.Max(p+bonus, 1e-9)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
