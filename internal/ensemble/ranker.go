package ensemble

import (
	"math"
	"math/rand"
)

// RankConfig holds the tuning knobs explored by the ranker grid search.
type RankConfig struct {
	MaxDepth        int
	LearningRate    float64
	Subsample       float64
	ColsampleByTree float64
	Rounds          int
}

// RankGrid is the pairwise-ranker candidate space.
var RankGrid = []RankConfig{
	{MaxDepth: 6, LearningRate: 0.10, Subsample: 0.8, ColsampleByTree: 0.8},
	{MaxDepth: 8, LearningRate: 0.08, Subsample: 0.9, ColsampleByTree: 0.9},
	{MaxDepth: 10, LearningRate: 0.06, Subsample: 1.0, ColsampleByTree: 0.8},
}

// PairwiseRanker boosts regression trees against pairwise logistic
// gradients: within each race, every (winner, loser) pair pushes the winner's
// score above the loser's. Scores are raw ranking values, not probabilities.
type PairwiseRanker struct {
	Config RankConfig
	trees  []*regTree
}

// NewPairwiseRanker creates an unfitted ranker.
func NewPairwiseRanker(cfg RankConfig) *PairwiseRanker {
	return &PairwiseRanker{Config: cfg}
}

// Fit trains the ranker. groups assigns each row to its race; pairs are only
// formed within a group.
func (r *PairwiseRanker) Fit(X [][]float64, y []float64, groups []string, rng *rand.Rand) {
	n := len(X)
	if n == 0 {
		return
	}

	byGroup := make(map[string][]int)
	order := make([]string, 0)
	for i, g := range groups {
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], i)
	}

	scores := make([]float64, n)
	gradient := make([]float64, n)
	minLeaf := 5
	rounds := r.Config.Rounds
	if rounds <= 0 {
		rounds = 300
	}

	for round := 0; round < rounds; round++ {
		for i := range gradient {
			gradient[i] = 0
		}
		for _, g := range order {
			rows := byGroup[g]
			for a := 0; a < len(rows); a++ {
				for b := 0; b < len(rows); b++ {
					hi, lo := rows[a], rows[b]
					if y[hi] <= y[lo] {
						continue
					}
					// lambda < 0 when the pair is already ordered wide apart.
					lambda := -1 / (1 + math.Exp(scores[hi]-scores[lo]))
					gradient[hi] -= lambda
					gradient[lo] += lambda
				}
			}
		}

		rows := sampleRows(n, r.Config.Subsample, rng)
		feats := sampleFeatures(len(X[0]), r.Config.ColsampleByTree, rng)

		tree := &regTree{maxDepth: r.Config.MaxDepth, minLeaf: minLeaf}
		tree.fit(X, gradient, rows, feats, func(leaf []int) float64 {
			sum := 0.0
			for _, i := range leaf {
				sum += gradient[i]
			}
			return sum / float64(len(leaf))
		})
		r.trees = append(r.trees, tree)

		for i := 0; i < n; i++ {
			scores[i] += r.Config.LearningRate * tree.predict(X[i])
		}
	}
}

// Score returns the raw ranking score for a single sample.
func (r *PairwiseRanker) Score(x []float64) float64 {
	score := 0.0
	for _, tree := range r.trees {
		score += r.Config.LearningRate * tree.predict(x)
	}
	return score
}
