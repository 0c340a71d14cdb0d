package ensemble

import "sort"

// regTree is a variance-reduction regression tree fit to gradient targets.
// It only ever sees the row and feature subsets its owner sampled, so it
// carries no randomness of its own.
type regTree struct {
	maxDepth int
	minLeaf  int
	root     *regNode
}

type regNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *regNode
	right     *regNode
}

// fit grows the tree on the given rows using only the given features.
// leafValue computes the output of a leaf from its row set, which lets the
// booster use Newton steps while the ranker uses plain gradient means.
func (t *regTree) fit(X [][]float64, target []float64, rows, feats []int, leafValue func(rows []int) float64) {
	t.root = t.grow(X, target, rows, feats, 0, leafValue)
}

func (t *regTree) predict(x []float64) float64 {
	node := t.root
	for node != nil && !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	if node == nil {
		return 0
	}
	return node.value
}

func (t *regTree) grow(X [][]float64, target []float64, rows, feats []int, depth int, leafValue func([]int) float64) *regNode {
	if depth >= t.maxDepth || len(rows) < 2*t.minLeaf {
		return &regNode{leaf: true, value: leafValue(rows)}
	}

	feature, threshold, ok := t.bestSplit(X, target, rows, feats)
	if !ok {
		return &regNode{leaf: true, value: leafValue(rows)}
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
	return &regNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, target, left, feats, depth+1, leafValue),
		right:     t.grow(X, target, right, feats, depth+1, leafValue),
	}
}

func (t *regTree) bestSplit(X [][]float64, target []float64, rows, feats []int) (int, float64, bool) {
	total := float64(len(rows))
	totalSum := 0.0
	for _, i := range rows {
		totalSum += target[i]
	}
	// Maximizing variance reduction is equivalent to maximizing the sum of
	// per-side squared means weighted by side size.
	bestGain := totalSum * totalSum / total
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, len(rows))
	for _, f := range feats {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		leftCount, leftSum := 0.0, 0.0
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftCount++
			leftSum += target[i]

			cur, next := X[i][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			if int(leftCount) < t.minLeaf || len(sorted)-int(leftCount) < t.minLeaf {
				continue
			}

			rightCount := total - leftCount
			rightSum := totalSum - leftSum
			gain := leftSum*leftSum/leftCount + rightSum*rightSum/rightCount
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
