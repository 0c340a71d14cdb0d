package ensemble

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// separable builds a two-feature dataset where the first feature alone
// decides the label.
func separable(n int, rng *rand.Rand) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		noise := rng.Float64()
		if i%2 == 0 {
			X[i] = []float64{0.8 + 0.2*rng.Float64(), noise}
			y[i] = 1
		} else {
			X[i] = []float64{0.2 * rng.Float64(), noise}
		}
	}
	return X, y
}

func TestDecisionTreeLearnsSeparableSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	X, y := separable(60, rng)

	tree := NewDecisionTree(TreeConfig{MaxDepth: 4, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	tree.Fit(X, y, rng)

	assert.Greater(t, tree.PredictProba([]float64{0.9, 0.5}), 0.9)
	assert.Less(t, tree.PredictProba([]float64{0.05, 0.5}), 0.1)
}

func TestDecisionTreeHonorsMinLeaf(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 0, 1, 1}

	tree := NewDecisionTree(TreeConfig{MaxDepth: 5, MinSamplesSplit: 2, MinSamplesLeaf: 3})
	tree.Fit(X, y, rng)

	// No split can leave three samples on each side of four rows, so every
	// sample gets the prior.
	assert.InDelta(t, 0.5, tree.PredictProba([]float64{0}), 1e-9)
	assert.InDelta(t, 0.5, tree.PredictProba([]float64{3}), 1e-9)
}

func TestGradientBoostSeparates(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X, y := separable(80, rng)

	boost := NewGradientBoost(BoostConfig{MaxDepth: 3, LearningRate: 0.1, Subsample: 0.8, ColsampleByTree: 1.0, Rounds: 50})
	boost.Fit(X, y, rng)

	assert.Greater(t, boost.PredictProba([]float64{0.9, 0.5}), 0.8)
	assert.Less(t, boost.PredictProba([]float64{0.05, 0.5}), 0.2)
}

func TestPairwiseRankerOrdersWithinGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	var X [][]float64
	var y []float64
	var groups []string
	for race := 0; race < 20; race++ {
		for horse := 0; horse < 4; horse++ {
			ability := float64(horse) / 4
			X = append(X, []float64{ability, rng.Float64()})
			if horse == 3 {
				y = append(y, 1)
			} else {
				y = append(y, 0)
			}
			groups = append(groups, string(rune('a'+race)))
		}
	}

	ranker := NewPairwiseRanker(RankConfig{MaxDepth: 3, LearningRate: 0.1, Subsample: 1.0, ColsampleByTree: 1.0, Rounds: 40})
	ranker.Fit(X, y, groups, rng)

	assert.Greater(t, ranker.Score([]float64{0.75, 0.5}), ranker.Score([]float64{0.0, 0.5}))
}

func TestLogisticRegressionMonotone(t *testing.T) {
	X := [][]float64{{0.1}, {0.2}, {0.8}, {0.9}, {0.15}, {0.85}}
	y := []float64{0, 0, 1, 1, 0, 1}

	lr := NewLogisticRegression(500)
	lr.Fit(X, y)

	assert.Greater(t, lr.Weights[0], 0.0)
	assert.Greater(t, lr.PredictProba([]float64{0.9}), lr.PredictProba([]float64{0.1}))
}
