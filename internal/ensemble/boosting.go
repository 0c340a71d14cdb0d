package ensemble

import (
	"math"
	"math/rand"
)

// BoostConfig holds the tuning knobs explored by the boosting grid search.
type BoostConfig struct {
	MaxDepth        int
	LearningRate    float64
	Subsample       float64
	ColsampleByTree float64
	Rounds          int
}

// BoostGrid is the boosted-classifier candidate space.
var BoostGrid = []BoostConfig{
	{MaxDepth: 6, LearningRate: 0.08, Subsample: 0.8, ColsampleByTree: 0.8},
	{MaxDepth: 8, LearningRate: 0.10, Subsample: 0.8, ColsampleByTree: 0.8},
	{MaxDepth: 8, LearningRate: 0.08, Subsample: 1.0, ColsampleByTree: 0.8},
	{MaxDepth: 10, LearningRate: 0.08, Subsample: 0.9, ColsampleByTree: 0.9},
}

// GradientBoost is a boosted ensemble of regression trees minimizing
// logistic loss, with per-round row subsampling and per-tree column
// subsampling.
type GradientBoost struct {
	Config BoostConfig
	base   float64
	trees  []*regTree
}

// NewGradientBoost creates an unfitted booster.
func NewGradientBoost(cfg BoostConfig) *GradientBoost {
	return &GradientBoost{Config: cfg}
}

// Fit trains the booster on X with binary targets y.
func (g *GradientBoost) Fit(X [][]float64, y []float64, rng *rand.Rand) {
	n := len(X)
	if n == 0 {
		return
	}

	positives := 0.0
	for _, v := range y {
		positives += v
	}
	p := clampProb(positives / float64(n))
	g.base = math.Log(p / (1 - p))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.base
	}

	residual := make([]float64, n)
	hessian := make([]float64, n)
	minLeaf := 5
	rounds := g.Config.Rounds
	if rounds <= 0 {
		rounds = 300
	}

	for round := 0; round < rounds; round++ {
		for i := 0; i < n; i++ {
			pi := sigmoid(scores[i])
			residual[i] = y[i] - pi
			hessian[i] = pi * (1 - pi)
		}

		rows := sampleRows(n, g.Config.Subsample, rng)
		feats := sampleFeatures(len(X[0]), g.Config.ColsampleByTree, rng)

		tree := &regTree{maxDepth: g.Config.MaxDepth, minLeaf: minLeaf}
		tree.fit(X, residual, rows, feats, func(leaf []int) float64 {
			// Newton step: sum of gradients over sum of hessians.
			num, den := 0.0, 0.0
			for _, i := range leaf {
				num += residual[i]
				den += hessian[i]
			}
			if den < 1e-12 {
				return 0
			}
			return num / den
		})
		g.trees = append(g.trees, tree)

		for i := 0; i < n; i++ {
			scores[i] += g.Config.LearningRate * tree.predict(X[i])
		}
	}
}

// RawScore returns the additive (pre-sigmoid) score.
func (g *GradientBoost) RawScore(x []float64) float64 {
	score := g.base
	for _, tree := range g.trees {
		score += g.Config.LearningRate * tree.predict(x)
	}
	return score
}

// PredictProba returns the win probability for a single sample.
func (g *GradientBoost) PredictProba(x []float64) float64 {
	return sigmoid(g.RawScore(x))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	return math.Min(1-eps, math.Max(eps, p))
}

func sampleRows(n int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1 || fraction <= 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	keep := int(math.Max(1, math.Round(fraction*float64(n))))
	perm := rng.Perm(n)
	rows := append([]int(nil), perm[:keep]...)
	return rows
}

func sampleFeatures(width int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1 || fraction <= 0 {
		feats := make([]int, width)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	keep := int(math.Max(1, math.Round(fraction*float64(width))))
	perm := rng.Perm(width)
	feats := append([]int(nil), perm[:keep]...)
	return feats
}
