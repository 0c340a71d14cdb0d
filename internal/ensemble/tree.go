package ensemble

import (
	"math/rand"
	"sort"
)

// TreeConfig holds the tuning knobs explored by the decision-tree grid
// search.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

// TreeGrid is the candidate space searched before selecting the trees kept
// in the final ensemble.
var TreeGrid = []TreeConfig{
	{MaxDepth: 8, MinSamplesSplit: 10, MinSamplesLeaf: 5},
	{MaxDepth: 10, MinSamplesSplit: 5, MinSamplesLeaf: 2},
	{MaxDepth: 12, MinSamplesSplit: 7, MinSamplesLeaf: 3},
	{MaxDepth: 15, MinSamplesSplit: 3, MinSamplesLeaf: 1},
	{MaxDepth: 20, MinSamplesSplit: 2, MinSamplesLeaf: 1},
	{MaxDepth: 6, MinSamplesSplit: 4, MinSamplesLeaf: 2},
}

// DecisionTree is a binary CART classifier splitting on Gini impurity. The
// feature scan order is shuffled per fit, so trees built with different
// seeds disagree on tie splits and contribute diversity to the ensemble.
type DecisionTree struct {
	Config TreeConfig
	root   *treeNode
}

type treeNode struct {
	leaf      bool
	prob      float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// NewDecisionTree creates an unfitted tree with the given configuration.
func NewDecisionTree(cfg TreeConfig) *DecisionTree {
	return &DecisionTree{Config: cfg}
}

// Fit grows the tree on X with binary targets y.
func (t *DecisionTree) Fit(X [][]float64, y []float64, rng *rand.Rand) {
	rows := make([]int, len(X))
	for i := range rows {
		rows[i] = i
	}
	t.root = t.grow(X, y, rows, 0, rng)
}

// PredictProba returns the positive-class fraction of the leaf the sample
// falls into.
func (t *DecisionTree) PredictProba(x []float64) float64 {
	node := t.root
	for node != nil && !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	if node == nil {
		return 0.5
	}
	return node.prob
}

func (t *DecisionTree) grow(X [][]float64, y []float64, rows []int, depth int, rng *rand.Rand) *treeNode {
	positives := 0.0
	for _, i := range rows {
		positives += y[i]
	}
	prob := positives / float64(len(rows))

	if depth >= t.Config.MaxDepth || len(rows) < t.Config.MinSamplesSplit ||
		positives == 0 || positives == float64(len(rows)) {
		return &treeNode{leaf: true, prob: prob}
	}

	feature, threshold, ok := t.bestSplit(X, y, rows, rng)
	if !ok {
		return &treeNode{leaf: true, prob: prob}
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, i := range rows {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, y, left, depth+1, rng),
		right:     t.grow(X, y, right, depth+1, rng),
	}
}

// bestSplit scans every feature for the threshold with the lowest weighted
// Gini impurity, honoring the minimum leaf size.
func (t *DecisionTree) bestSplit(X [][]float64, y []float64, rows []int, rng *rand.Rand) (int, float64, bool) {
	if len(X) == 0 {
		return 0, 0, false
	}
	width := len(X[0])
	order := rng.Perm(width)

	total := float64(len(rows))
	totalPos := 0.0
	for _, i := range rows {
		totalPos += y[i]
	}

	bestGini := giniOf(totalPos, total)
	bestFeature, bestThreshold, found := 0, 0.0, false
	minLeaf := t.Config.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	sorted := make([]int, len(rows))
	for _, f := range order {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		leftCount, leftPos := 0.0, 0.0
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftCount++
			leftPos += y[i]

			cur, next := X[i][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			if int(leftCount) < minLeaf || len(sorted)-int(leftCount) < minLeaf {
				continue
			}

			rightCount := total - leftCount
			rightPos := totalPos - leftPos
			gini := (leftCount*giniOf(leftPos, leftCount) + rightCount*giniOf(rightPos, rightCount)) / total
			if gini < bestGini {
				bestGini = gini
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func giniOf(positives, count float64) float64 {
	if count == 0 {
		return 0
	}
	p := positives / count
	return 2 * p * (1 - p)
}
