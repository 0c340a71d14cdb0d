package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxRescaleHitsBounds(t *testing.T) {
	probs := MinMaxRescale([]float64{0.2, 0.5, 0.8}, 0.1, 0.9)

	assert.InDelta(t, 0.1, probs[0], 1e-9)
	assert.InDelta(t, 0.5, probs[1], 1e-9)
	assert.InDelta(t, 0.9, probs[2], 1e-9)
}

func TestMinMaxRescaleConstantFallsBackToRanks(t *testing.T) {
	probs := MinMaxRescale([]float64{0.4, 0.4, 0.4}, 0.1, 0.9)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// Tie break favors earlier rows, never a uniform spread.
	assert.Greater(t, probs[0], probs[1])
	assert.Greater(t, probs[1], probs[2])
}

func TestSoftmaxScale(t *testing.T) {
	probs := SoftmaxScale([]float64{0.1, 0.5, 0.9}, 0.6)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[2], probs[1])
	assert.Greater(t, probs[1], probs[0])

	// Lower temperature sharpens the distribution.
	sharp := SoftmaxScale([]float64{0.1, 0.5, 0.9}, 0.2)
	assert.Greater(t, sharp[2], probs[2])
}

func TestRankWeightsDeterministic(t *testing.T) {
	first := RankWeights([]float64{0.3, 0.3, 0.3, 0.3})
	second := RankWeights([]float64{0.3, 0.3, 0.3, 0.3})
	assert.Equal(t, first, second)

	// 4+3+2+1 = 10.
	assert.InDelta(t, 0.4, first[0], 1e-9)
	assert.InDelta(t, 0.1, first[3], 1e-9)
}

func TestNearlyUniform(t *testing.T) {
	assert.True(t, NearlyUniform([]float64{0.5, 0.5000001, 0.5}))
	assert.False(t, NearlyUniform([]float64{0.5, 0.6}))
	assert.False(t, NearlyUniform([]float64{0.5}))
}

func TestApplyDominanceBoostShiftsTowardDominant(t *testing.T) {
	probs := []float64{0.5, 0.5, 0.5}
	dominance := []float64{2.0, 0.0, -2.0}

	boosted := ApplyDominanceBoost(probs, dominance, 1.5)
	assert.Greater(t, boosted[0], probs[0])
	assert.Less(t, boosted[2], probs[2])
	assert.InDelta(t, 0.5, boosted[1], 1e-6)
	for _, p := range boosted {
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
}

func TestApplyDominanceBoostZeroAlphaIsIdentity(t *testing.T) {
	probs := []float64{0.2, 0.7}
	assert.Equal(t, probs, ApplyDominanceBoost(probs, []float64{5, -5}, 0))
}

func TestApplyRerankBonusRenormalizes(t *testing.T) {
	probs := []float64{0.5, 0.3, 0.2}
	signals := []RerankSignals{
		{ClassWeightedAvgRank: 1.5, FormScoreWeighted: 8, OpponentQuality: 0.6, RaceClassWeight: 1.0, SurfaceExperience: 0.9, DistanceWinRate: 0.5, DistanceBandWinRate: 0.4, SurfaceWinRate: 0.5, HeadToHead: 0.7, ModelScoreStd: 0.01},
		{ClassWeightedAvgRank: 6, FormScoreWeighted: 3, OpponentQuality: 0.3, RaceClassWeight: 1.0, SurfaceExperience: 0.4, DistanceWinRate: 0.2, DistanceBandWinRate: 0.1, SurfaceWinRate: 0.2, HeadToHead: 0.3, ModelScoreStd: 0.1},
		{ClassWeightedAvgRank: 10, FormScoreWeighted: 1, OpponentQuality: 0.1, RaceClassWeight: 1.0, SurfaceExperience: 0.2, DistanceWinRate: 0.0, DistanceBandWinRate: 0.0, SurfaceWinRate: 0.0, HeadToHead: 0.0, ModelScoreStd: 0.3},
	}

	out := ApplyRerankBonus(probs, signals)
	require.Len(t, out, 3)

	sum := 0.0
	for _, p := range out {
		sum += p
		assert.GreaterOrEqual(t, p, 1e-9)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// The strongest signal set belongs to the leader; ordering must hold.
	assert.Greater(t, out[0], out[1])
	assert.Greater(t, out[1], out[2])
}

func TestApplyRerankBonusHandlesMissingSignals(t *testing.T) {
	nan := math.NaN()
	probs := []float64{0.6, 0.4}
	signals := []RerankSignals{
		{ClassWeightedAvgRank: nan, FormScoreWeighted: nan, OpponentQuality: nan, RaceClassWeight: nan, SurfaceExperience: nan, DistanceWinRate: nan, DistanceBandWinRate: nan, SurfaceWinRate: nan, HeadToHead: nan, ModelScoreStd: nan},
		{ClassWeightedAvgRank: nan, FormScoreWeighted: nan, OpponentQuality: nan, RaceClassWeight: nan, SurfaceExperience: nan, DistanceWinRate: nan, DistanceBandWinRate: nan, SurfaceWinRate: nan, HeadToHead: nan, ModelScoreStd: nan},
	}

	out := ApplyRerankBonus(probs, signals)
	for _, p := range out {
		require.False(t, math.IsNaN(p), "missing signals must not poison probabilities")
	}
	assert.Greater(t, out[0], out[1])
}
